// Package testauth mints bearer tokens for tests and local tooling.
// It must not be used by production code paths.
package testauth

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Togather-Foundation/meetups/internal/auth"
)

const (
	// DevSecret is the well-known signing secret used when DEV_JWT_SECRET is unset.
	DevSecret = "dev_jwt_secret_change_me_in_production"
	DevIssuer = "meetups-test"
)

// Authenticator signs admin and per-user tokens with one secret.
type Authenticator struct {
	manager *auth.JWTManager
}

// New returns an authenticator for secret and issuer. Empty values fall back
// to DEV_JWT_SECRET (or DevSecret) and DevIssuer.
func New(secret, issuer string) *Authenticator {
	if secret == "" {
		secret = os.Getenv("DEV_JWT_SECRET")
	}
	if secret == "" {
		secret = DevSecret
	}
	if issuer == "" {
		issuer = DevIssuer
	}
	return &Authenticator{manager: auth.NewJWTManager(secret, 24*time.Hour, issuer)}
}

// Manager exposes the underlying manager so servers under test can share it.
func (a *Authenticator) Manager() *auth.JWTManager {
	return a.manager
}

func (a *Authenticator) AdminToken() (string, error) {
	token, err := a.manager.Generate("test-admin", auth.RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return token, nil
}

func (a *Authenticator) UserToken(userID int64) (string, error) {
	token, err := a.manager.GenerateForUser(userID)
	if err != nil {
		return "", fmt.Errorf("sign token for user %d: %w", userID, err)
	}
	return token, nil
}

// Authorize sets the bearer header. An empty token leaves the request anonymous.
func Authorize(req *http.Request, token string) {
	if req == nil || token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}
