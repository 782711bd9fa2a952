package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestManager() *Manager {
	return NewManager(&Config{
		Secret:           "test-secret",
		AccessExpireTime: time.Hour,
		Issuer:           "hotel-booking-test",
	})
}

func TestManager_GenerateAndParse(t *testing.T) {
	m := setupTestManager()

	token, expiresAt, err := m.GenerateAccessToken(42, RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), expiresAt, 5)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "hotel-booking-test", claims.Issuer)
}

func TestManager_ParseToken_EmptyRoleDefaultsToUser(t *testing.T) {
	m := setupTestManager()

	token, _, err := m.GenerateAccessToken(7, "")
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, claims.Role)
}

func TestManager_ParseToken_Errors(t *testing.T) {
	m := setupTestManager()

	t.Run("格式错误", func(t *testing.T) {
		_, err := m.ParseToken("not-a-token")
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("密钥不匹配", func(t *testing.T) {
		other := NewManager(&Config{Secret: "other", AccessExpireTime: time.Hour})
		token, _, err := other.GenerateAccessToken(1, RoleUser)
		require.NoError(t, err)

		_, err = m.ParseToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("已过期", func(t *testing.T) {
		expired := NewManager(&Config{Secret: "test-secret", AccessExpireTime: -time.Minute})
		token, _, err := expired.GenerateAccessToken(1, RoleUser)
		require.NoError(t, err)

		_, err = m.ParseToken(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("签发方不匹配", func(t *testing.T) {
		foreign := NewManager(&Config{Secret: "test-secret", AccessExpireTime: time.Hour, Issuer: "other-idp"})
		token, _, err := foreign.GenerateAccessToken(1, RoleUser)
		require.NoError(t, err)

		_, err = m.ParseToken(token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}
