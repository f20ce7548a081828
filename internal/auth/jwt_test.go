package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTGenerateValidate(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "meetups")
	token, err := manager.Generate("ops", RoleAdmin)
	require.NoError(t, err)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.True(t, IsAdmin(claims.Role))
}

func TestJWTGenerateForUser(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "meetups")
	token, err := manager.GenerateForUser(42)
	require.NoError(t, err)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	id, ok := claims.UserID()
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, RoleUser, NormalizeRole(claims.Role))

	_, err = manager.GenerateForUser(0)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTGenerateInvalid(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "meetups")
	_, err := manager.Generate("", RoleAdmin)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTValidateRejects(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "meetups")

	_, err := manager.Validate("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = manager.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewJWTManager("other-secret", time.Hour, "meetups").Generate("ops", RoleAdmin)
	require.NoError(t, err)
	_, err = manager.Validate(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := NewJWTManager("secret", time.Hour, "someone-else").Generate("ops", RoleAdmin)
	require.NoError(t, err)
	_, err = manager.Validate(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromHeader(t *testing.T) {
	_, err := TokenFromHeader("nope")
	assert.ErrorIs(t, err, ErrMissingToken)

	token, err := TokenFromHeader("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, NormalizeRole(" ADMIN "))
	assert.Equal(t, RoleUser, NormalizeRole("editor"))
	assert.True(t, HasRole("user", RoleUser, RoleAdmin))
	assert.False(t, HasRole("user", RoleAdmin))
}
