package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/habit-tracker/internal/models"
	"github.com/habit-tracker/internal/repository"
	"github.com/habit-tracker/internal/session"
	"github.com/habit-tracker/pkg/crypto"
)

// AuthService handles registration and session-based authentication
type AuthService struct {
	userRepo *repository.UserRepository
	sessions *session.Manager
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo *repository.UserRepository, sessions *session.Manager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
	}
}

// LoginResult carries the session token issued by a successful login
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// Register registers a new user
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, ErrMissingCredentials
	}
	if len(password) > crypto.MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	// Check if username exists
	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	// Hash password
	passwordHash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: passwordHash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and starts a session bound to the user
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// Verify password
	if !crypto.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, sess, err := s.sessions.Start(ctx, user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:      user,
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// Logout ends the session referenced by token, if any
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.End(ctx, token)
}

// Authenticate resolves a session token into the session of a logged-in user
func (s *AuthService) Authenticate(ctx context.Context, token string) (*session.Session, error) {
	sess, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrInvalidToken) || errors.Is(err, session.ErrSessionNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	return sess, nil
}
