package testauth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Togather-Foundation/meetups/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminToken(t *testing.T) {
	a := New("unit-secret", "unit")
	token, err := a.AdminToken()
	require.NoError(t, err)

	claims, err := a.Manager().Validate(token)
	require.NoError(t, err)
	assert.True(t, auth.IsAdmin(claims.Role))
	assert.Equal(t, "unit", claims.Issuer)
}

func TestUserToken(t *testing.T) {
	a := New("unit-secret", "")
	token, err := a.UserToken(7)
	require.NoError(t, err)

	claims, err := a.Manager().Validate(token)
	require.NoError(t, err)
	id, ok := claims.UserID()
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, DevIssuer, claims.Issuer)

	_, err = a.UserToken(0)
	require.Error(t, err)
}

func TestDevSecretFallback(t *testing.T) {
	t.Setenv("DEV_JWT_SECRET", "")
	token, err := New("", "").AdminToken()
	require.NoError(t, err)

	_, err = auth.NewJWTManager(DevSecret, 0, DevIssuer).Validate(token)
	require.NoError(t, err)
}

func TestAuthorize(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	Authorize(req, "")
	assert.Empty(t, req.Header.Get("Authorization"))

	Authorize(req, "abc")
	assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))

	Authorize(nil, "abc")
}
