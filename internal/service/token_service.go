package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"academydb/internal/core"
)

// TokenService mints and verifies HS256 access tokens and generates the
// opaque refresh tokens stored on the user row.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

type Claims struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (ts *TokenService) AccessTTL() time.Duration  { return ts.accessTTL }
func (ts *TokenService) RefreshTTL() time.Duration { return ts.refreshTTL }

// Mint signs an access token carrying identity and role claims.
func (ts *TokenService) Mint(user *core.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserName: user.UserName,
		Email:    user.Email,
		Role:     user.RoleID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
}

// Verify parses and validates an access token, expiry included.
func (ts *TokenService) Verify(tokenString string) (*Claims, error) {
	return ts.parse(tokenString, jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})))
}

// VerifyExpired validates signature and signing method but deliberately skips
// the lifetime check. The refresh endpoint services expired access tokens;
// an algorithm mismatch still fails here to block substitution attacks.
func (ts *TokenService) VerifyExpired(tokenString string) (*Claims, error) {
	return ts.parse(tokenString, jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithoutClaimsValidation(),
	))
}

func (ts *TokenService) parse(tokenString string, parser *jwt.Parser) (*Claims, error) {
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// NewRefreshToken returns a 32-byte hex-encoded opaque secret.
func NewRefreshToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
