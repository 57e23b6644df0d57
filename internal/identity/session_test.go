package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestClaimExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	assert.Equal(t, exp.Unix(), claimExpiry(signedToken(t, exp)))
}

func TestClaimExpiryOnGarbageToken(t *testing.T) {
	assert.Zero(t, claimExpiry("not-a-jwt"))
}

func TestSessionIsExpired(t *testing.T) {
	live := Session{ExpiresAt: time.Now().Add(time.Hour).Unix()}
	assert.False(t, live.IsExpired())

	dead := Session{ExpiresAt: time.Now().Add(-time.Minute).Unix()}
	assert.True(t, dead.IsExpired())

	// No expiry claim means the provider decides, not us.
	assert.False(t, (&Session{}).IsExpired())
}
