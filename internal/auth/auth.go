package auth

import (
	"errors"
	"fmt"

	"github.com/dev-rodrigobaliza/rest-api-course/internal/models"
	"github.com/dev-rodrigobaliza/rest-api-course/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// NotActivatedError is returned when credentials are correct but the
// account has no confirmed activation. It carries the email so callers can
// tell the user where the confirmation link went.
type NotActivatedError struct {
	Email string
}

func (e *NotActivatedError) Error() string {
	return fmt.Sprintf("account %s is not activated", e.Email)
}

// UserDirectory is the slice of the data layer the auth service needs.
type UserDirectory interface {
	GetUserByUsername(username string) (*models.User, error)
	MostRecentActivation(userID int64) (*models.Activation, error)
}

// TokenPair is what a successful login hands back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service wires credential verification and the activation gate in front
// of token issuance.
type Service struct {
	users  UserDirectory
	tokens *TokenManager
}

// NewService creates a new auth service.
func NewService(users UserDirectory, tokens *TokenManager) *Service {
	return &Service{users: users, tokens: tokens}
}

// Login verifies credentials and the activation state, then issues a token
// pair. A missing user and a bad password are indistinguishable to the
// caller. The activation check is boolean: once confirmed, a record stays
// valid even past its expiry.
func (s *Service) Login(username, password string) (*TokenPair, error) {
	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.ValidatePassword(password) {
		return nil, ErrInvalidCredentials
	}

	activation, err := s.users.MostRecentActivation(user.ID)
	if err != nil {
		if errors.Is(err, store.ErrActivationNotFound) {
			return nil, &NotActivatedError{Email: user.Email}
		}
		return nil, err
	}
	if !activation.Activated {
		return nil, &NotActivatedError{Email: user.Email}
	}

	access, refresh, err := s.tokens.GeneratePair(user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh validates a refresh token and mints a new, never-fresh access
// token.
func (s *Service) Refresh(refreshToken string) (string, error) {
	claims, err := s.tokens.Validate(refreshToken, ValidateOptions{RequireRefresh: true})
	if err != nil {
		return "", err
	}
	return s.tokens.RefreshAccess(claims)
}

// Logout revokes the presented token and returns the owning user id.
func (s *Service) Logout(claims *Claims) int64 {
	s.tokens.Revoke(claims)
	return claims.UserID()
}
