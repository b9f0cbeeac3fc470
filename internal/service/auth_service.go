package service

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"academydb/internal/core"
)

// Auth failure taxonomy. Handlers map these to client errors; anything else
// is an internal error and stays server-side.
var (
	ErrFieldsRequired     = errors.New("all fields are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidRefresh     = errors.New("invalid or expired refresh token")
)

type AuthService struct {
	userRepo core.UserRepository
	tokens   *TokenService
}

func NewAuthService(userRepo core.UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// AuthResponse is the credential-issuance payload. The password hash never
// appears here.
type AuthResponse struct {
	ID                 string     `json:"id"`
	UserName           string     `json:"userName"`
	Email              string     `json:"email"`
	RoleID             core.Role  `json:"roleId"`
	Token              string     `json:"token"`
	RefreshToken       string     `json:"refreshToken,omitempty"`
	RefreshTokenExpire *time.Time `json:"refreshTokenExpire,omitempty"`
	CreatedAt          time.Time  `json:"createAt"`
	UpdatedAt          time.Time  `json:"updateAt"`
}

// Register creates a new account when the email is not already taken.
// Email uniqueness compares case-insensitively.
func (s *AuthService) Register(userName, email string, roleID core.Role, password string) (*core.User, error) {
	if strings.TrimSpace(userName) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrFieldsRequired
	}
	if !roleID.Valid() {
		return nil, ErrInvalidRole
	}

	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &core.User{
		ID:           uuid.NewString(),
		UserName:     userName,
		Email:        email,
		PasswordHash: string(hashed),
		RoleID:       roleID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credential pair and issues a token pair. A missing user
// and a wrong password produce the same error so accounts cannot be
// enumerated.
func (s *AuthService) Login(email, password string) (*AuthResponse, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrFieldsRequired
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// Refresh exchanges a cryptographically intact (possibly expired) access
// token plus the matching stored refresh token for a fresh pair. The old
// refresh value is overwritten: single use.
func (s *AuthService) Refresh(accessToken, refreshToken string) (*AuthResponse, error) {
	if accessToken == "" || refreshToken == "" {
		return nil, ErrFieldsRequired
	}

	claims, err := s.tokens.VerifyExpired(accessToken)
	if err != nil {
		// Signature or algorithm violations collapse to the generic error.
		return nil, ErrInvalidRefresh
	}

	user, err := s.userRepo.GetByEmail(claims.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return nil, ErrInvalidRefresh
	}
	if user.RefreshTokenExpire == nil || !user.RefreshTokenExpire.After(time.Now().UTC()) {
		return nil, ErrInvalidRefresh
	}

	return s.issueTokens(user)
}

// Revoke clears the standing refresh token. Idempotent; unknown email
// reports false rather than an error.
func (s *AuthService) Revoke(email string) (bool, error) {
	if strings.TrimSpace(email) == "" {
		return false, ErrFieldsRequired
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}

	if err := s.userRepo.UpdateRefreshToken(user.ID, nil, nil); err != nil {
		return false, err
	}
	return true, nil
}

// ResetPassword replaces a user's password, looked up by email. CLI only.
func (s *AuthService) ResetPassword(email, newPassword string) error {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found: " + email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hashed)
	return s.userRepo.Update(user)
}

// issueTokens mints an access token and rotates the stored refresh token.
func (s *AuthService) issueTokens(user *core.User) (*AuthResponse, error) {
	access, err := s.tokens.Mint(user)
	if err != nil {
		return nil, err
	}

	refresh, err := NewRefreshToken()
	if err != nil {
		return nil, err
	}
	expire := time.Now().UTC().Add(s.tokens.RefreshTTL())

	if err := s.userRepo.UpdateRefreshToken(user.ID, &refresh, &expire); err != nil {
		return nil, err
	}

	return &AuthResponse{
		ID:                 user.ID,
		UserName:           user.UserName,
		Email:              user.Email,
		RoleID:             user.RoleID,
		Token:              access,
		RefreshToken:       refresh,
		RefreshTokenExpire: &expire,
		CreatedAt:          user.CreatedAt,
		UpdatedAt:          user.UpdatedAt,
	}, nil
}
