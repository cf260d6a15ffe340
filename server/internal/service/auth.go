package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/uigen-dev/uigen/server/internal/config"
	"github.com/uigen-dev/uigen/server/internal/model"
	"github.com/uigen-dev/uigen/server/internal/store"
)

// Authentication rejection kinds. An *AuthError unwraps to one of these.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthError is an expected authentication failure with a message that is
// safe to show to the user.
type AuthError struct {
	Kind    error
	Message string
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Kind }

func rejected(kind error, format string, args ...any) error {
	return &AuthError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AuthService handles authentication operations
type AuthService struct {
	store *store.Store
	cfg   *config.Config
}

// User represents an authenticated user (for API responses)
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewAuthService creates a new auth service
func NewAuthService(s *store.Store, cfg *config.Config) *AuthService {
	return &AuthService{
		store: s,
		cfg:   cfg,
	}
}

// SignUp registers a new user with an email and password.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*User, error) {
	email, err := s.validateCredentials(email, password)
	if err != nil {
		return nil, err
	}

	_, err = s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, rejected(ErrEmailTaken, "Email already registered")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent sign-up for the same email.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, rejected(ErrEmailTaken, "Email already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return toUser(user), nil
}

// SignIn verifies an email and password.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, rejected(ErrInvalidInput, "Email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, rejected(ErrInvalidCredentials, "Invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, rejected(ErrInvalidCredentials, "Invalid credentials")
	}

	return toUser(user), nil
}

func (s *AuthService) validateCredentials(email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", rejected(ErrInvalidInput, "Email and password are required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "", rejected(ErrInvalidInput, "Invalid email address")
	}
	if len(password) < s.cfg.MinPasswordLength {
		return "", rejected(ErrInvalidInput, "Password must be at least %d characters", s.cfg.MinPasswordLength)
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return "", rejected(ErrInvalidInput, "Password must be at most 72 bytes")
	}
	return email, nil
}

// CreateSession creates a new session for a user and returns the token
func (s *AuthService) CreateSession(ctx context.Context, userID string) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	session := &model.UserSession{
		UserID:    userID,
		TokenHash: hashToken(token),
		ExpiresAt: time.Now().Add(s.cfg.SessionTTL),
	}
	if err := s.store.CreateUserSession(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	return token, nil
}

// ValidateSession validates a session token and returns the user
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*User, error) {
	session, err := s.store.GetUserSessionByToken(ctx, hashToken(token))
	if err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}

	if session.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("session expired")
	}

	// Get user - if preloaded, use that; otherwise fetch
	user := session.User
	if user == nil {
		user, err = s.store.GetUserByID(ctx, session.UserID)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
	}

	return toUser(user), nil
}

// DeleteSession deletes a session by token
func (s *AuthService) DeleteSession(ctx context.Context, token string) error {
	return s.store.DeleteUserSession(ctx, hashToken(token))
}

// PurgeExpiredSessions removes sessions past their expiry.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredUserSessions(ctx)
}

// Helper functions

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUser(u *model.User) *User {
	return &User{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
