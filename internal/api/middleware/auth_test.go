package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Togather-Foundation/meetups/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-at-least-32-characters"

func newManager() *auth.JWTManager {
	return auth.NewJWTManager(testSecret, time.Hour, "meetups-test")
}

func claimsEcho(t *testing.T, seen **auth.Claims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = Claims(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminAuth(t *testing.T) {
	manager := newManager()
	adminToken, err := manager.Generate("root", auth.RoleAdmin)
	require.NoError(t, err)
	userToken, err := manager.GenerateForUser(7)
	require.NoError(t, err)
	foreignToken, err := auth.NewJWTManager(testSecret, time.Hour, "someone-else").Generate("root", auth.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"foreign issuer", "Bearer " + foreignToken, http.StatusUnauthorized},
		{"user role", "Bearer " + userToken, http.StatusForbidden},
		{"admin role", "Bearer " + adminToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *auth.Claims
			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AdminAuth(manager, "test")(claimsEcho(t, &seen)).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, "root", seen.Subject)
			} else {
				assert.Nil(t, seen)
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestAdminAuth_NilManager(t *testing.T) {
	rec := httptest.NewRecorder()
	AdminAuth(nil, "test")(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserAuth(t *testing.T) {
	manager := newManager()
	ownToken, err := manager.GenerateForUser(7)
	require.NoError(t, err)
	otherToken, err := manager.GenerateForUser(8)
	require.NoError(t, err)
	adminToken, err := manager.Generate("root", auth.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name     string
		required bool
		header   string
		want     int
	}{
		{"optional without token", false, "", http.StatusOK},
		{"optional with bad token", false, "Bearer junk", http.StatusUnauthorized},
		{"required without token", true, "", http.StatusUnauthorized},
		{"own token", true, "Bearer " + ownToken, http.StatusOK},
		{"someone else's token", true, "Bearer " + otherToken, http.StatusForbidden},
		{"optional with someone else's token", false, "Bearer " + otherToken, http.StatusForbidden},
		{"admin acting for user", true, "Bearer " + adminToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *auth.Claims
			mux := http.NewServeMux()
			mux.Handle("GET /users/{userId}/events", UserAuth(manager, tt.required, "test")(claimsEcho(t, &seen)))

			req := httptest.NewRequest(http.MethodGet, "/users/7/events", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK && tt.header != "" {
				assert.NotNil(t, seen)
			}
		})
	}
}
