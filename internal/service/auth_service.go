package service

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/carniceria_api/internal/cache"
	"github.com/GTDGit/carniceria_api/internal/config"
	"github.com/GTDGit/carniceria_api/internal/utils"
)

// AuthService checks the fixed admin credential and manages session flags.
type AuthService struct {
	username     string
	passwordHash []byte
	sessions     cache.SessionStore
}

// NewAuthService constructs an AuthService.
func NewAuthService(cfg *config.AdminConfig, sessions cache.SessionStore) *AuthService {
	return &AuthService{
		username:     cfg.Username,
		passwordHash: []byte(cfg.PasswordHash),
		sessions:     sessions,
	}
}

// Login verifies the credential and returns a new session id.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	log.Debug().Str("username", username).Msg("Login attempt")

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	// bcrypt runs even when the username is wrong
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		log.Warn().Str("username", username).Msg("Invalid admin credentials")
		return "", utils.ErrInvalidCredential
	}

	id, err := s.sessions.Create(ctx)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	log.Info().Str("username", username).Msg("Login successful")
	return id, nil
}

// Logout clears the session flag.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// Authenticate returns ErrInvalidSession unless the session flag is set.
func (s *AuthService) Authenticate(ctx context.Context, sessionID string) error {
	ok, err := s.sessions.Valid(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if !ok {
		return utils.ErrInvalidSession
	}
	return nil
}

// HashPassword returns the bcrypt hash to put in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
