package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Togather-Foundation/meetups/internal/api/problem"
	"github.com/Togather-Foundation/meetups/internal/auth"
)

type contextKeyAuth string

const claimsKey contextKeyAuth = "claims"

var (
	errUnauthorized = errors.New("unauthorized")
	errForbidden    = errors.New("forbidden")
)

func contextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Claims returns the validated token claims, or nil for anonymous requests.
func Claims(ctx context.Context) *auth.Claims {
	if claims, ok := ctx.Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// AdminAuth guards /admin routes with an admin bearer token.
func AdminAuth(manager *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := bearerClaims(w, r, manager, env)
			if !ok {
				return
			}
			if !auth.IsAdmin(claims.Role) {
				problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Insufficient permissions", errForbidden, env,
					problem.WithDetail("Admin role required"))
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), claims)))
		})
	}
}

// UserAuth guards /users/{userId} routes. The token subject must match the
// userId path value unless the caller is an admin. When required is false a
// request without an Authorization header passes through untouched, but a
// token that is sent is still checked.
func UserAuth(manager *auth.JWTManager, required bool, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !required && strings.TrimSpace(r.Header.Get("Authorization")) == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, ok := bearerClaims(w, r, manager, env)
			if !ok {
				return
			}
			if !auth.IsAdmin(claims.Role) && claims.Subject != r.PathValue("userId") {
				problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Insufficient permissions", errForbidden, env,
					problem.WithDetail("Token does not belong to user id="+r.PathValue("userId")))
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), claims)))
		})
	}
}

func bearerClaims(w http.ResponseWriter, r *http.Request, manager *auth.JWTManager, env string) (*auth.Claims, bool) {
	if manager == nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", errUnauthorized, env)
		return nil, false
	}

	token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Missing bearer token", err, env,
			problem.WithDetail("Authorization: Bearer <token> header is required"))
		return nil, false
	}

	claims, err := manager.Validate(token)
	if err != nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid token", err, env,
			problem.WithDetail("Token is invalid or expired"))
		return nil, false
	}
	return claims, true
}
