package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef-test"

func TestHashPassword(t *testing.T) {
	password := "secret"
	hash, err := HashPassword(password)
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)
}

func TestCheckPasswordHash(t *testing.T) {
	password := "secret"
	hash, _ := HashPassword(password)

	assert.True(t, CheckPasswordHash(password, hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	admin := User{ID: 1, Email: "admin@pawmart.test", Role: RoleAdmin}

	tokenStr, err := issuer.Generate(admin)
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		claims, err := issuer.Parse(tokenStr)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), claims.UserID)
		assert.Equal(t, "admin@pawmart.test", claims.Email)
		assert.Equal(t, "ADMIN", claims.Role)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		_, err := issuer.Parse("invalid-token-string")
		assert.Error(t, err)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		_, err := NewTokenIssuer("another-secret-value", time.Hour).Parse(tokenStr)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "signature is invalid")
	})

	t.Run("Expired", func(t *testing.T) {
		expired, err := NewTokenIssuer(testSecret, time.Nanosecond).Generate(admin)
		require.NoError(t, err)
		time.Sleep(time.Second + 10*time.Millisecond)

		_, err = issuer.Parse(expired)
		assert.ErrorContains(t, err, "expired")
	})

	t.Run("NoSecret", func(t *testing.T) {
		_, err := NewTokenIssuer("", time.Hour).Generate(admin)
		assert.EqualError(t, err, "JWT_SECRET is not set")
	})
}
