package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academydb/internal/core"
)

func testUser() *core.User {
	now := time.Now().UTC()
	return &core.User{
		ID:        "user-1",
		UserName:  "juan",
		Email:     "juan@test.com",
		RoleID:    core.RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMintAndVerify(t *testing.T) {
	ts := NewTokenService("test-secret", 15*time.Minute, 7*24*time.Hour)

	token, err := ts.Mint(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "juan", claims.UserName)
	assert.Equal(t, "juan@test.com", claims.Email)
	assert.Equal(t, "Student", claims.Role)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	ts := NewTokenService("secret-a", 15*time.Minute, time.Hour)
	other := NewTokenService("secret-b", 15*time.Minute, time.Hour)

	token, err := ts.Mint(testUser())
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.Error(t, err)
	_, err = other.VerifyExpired(token)
	assert.Error(t, err)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	ts := NewTokenService("test-secret", 15*time.Minute, time.Hour)

	token, err := ts.Mint(testUser())
	require.NoError(t, err)

	// Flip one byte of the signature
	tampered := []byte(token)
	last := len(tampered) - 1
	if tampered[last] == 'a' {
		tampered[last] = 'b'
	} else {
		tampered[last] = 'a'
	}

	_, err = ts.Verify(string(tampered))
	assert.Error(t, err)

	// Expiry-tolerant parsing must still reject a bad signature
	_, err = ts.VerifyExpired(string(tampered))
	assert.Error(t, err)
}

func TestVerifyExpiredIgnoresLifetimeOnly(t *testing.T) {
	ts := NewTokenService("test-secret", -1*time.Minute, time.Hour)

	token, err := ts.Mint(testUser())
	require.NoError(t, err)

	_, err = ts.Verify(token)
	assert.Error(t, err, "expired token must fail normal verification")

	claims, err := ts.VerifyExpired(token)
	require.NoError(t, err, "refresh path services expired tokens")
	assert.Equal(t, "juan@test.com", claims.Email)
}

func TestVerifyRejectsAlgorithmSubstitution(t *testing.T) {
	ts := NewTokenService("test-secret", 15*time.Minute, time.Hour)

	claims := Claims{
		Email: "juan@test.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ts.Verify(unsigned)
	assert.Error(t, err)
	_, err = ts.VerifyExpired(unsigned)
	assert.Error(t, err)
}

func TestNewRefreshToken(t *testing.T) {
	a, err := NewRefreshToken()
	require.NoError(t, err)
	b, err := NewRefreshToken()
	require.NoError(t, err)

	assert.Len(t, a, 64) // 32 bytes hex encoded
	assert.NotEqual(t, a, b)
}
