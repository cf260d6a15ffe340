package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestAuthService_SignUpThenSignIn(t *testing.T) {
	s, cfg := newTestStore(t)
	svc := NewAuthService(s, cfg)
	ctx := context.Background()

	created, err := svc.SignUp(ctx, "  New@Example.com ", "password123")
	if err != nil {
		t.Fatalf("SignUp() error: %v", err)
	}
	if created.Email != "new@example.com" {
		t.Errorf("Email = %q, want normalized %q", created.Email, "new@example.com")
	}
	if created.ID == "" {
		t.Error("Expected user to have an ID")
	}

	user, err := svc.SignIn(ctx, "new@example.com", "password123")
	if err != nil {
		t.Fatalf("SignIn() error: %v", err)
	}
	if user.ID != created.ID {
		t.Errorf("SignIn returned user %q, want %q", user.ID, created.ID)
	}
}

func TestAuthService_Rejections(t *testing.T) {
	s, cfg := newTestStore(t)
	svc := NewAuthService(s, cfg)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "taken@example.com", "password123"); err != nil {
		t.Fatalf("SignUp() error: %v", err)
	}

	tests := []struct {
		name     string
		call     func() error
		wantKind error
		wantMsg  string
	}{
		{
			name:     "sign up with existing email",
			call:     func() error { _, err := svc.SignUp(ctx, "taken@example.com", "password123"); return err },
			wantKind: ErrEmailTaken,
			wantMsg:  "Email already registered",
		},
		{
			name:     "sign up with short password",
			call:     func() error { _, err := svc.SignUp(ctx, "short@example.com", "123"); return err },
			wantKind: ErrInvalidInput,
			wantMsg:  "Password must be at least 8 characters",
		},
		{
			name:     "sign up with empty email",
			call:     func() error { _, err := svc.SignUp(ctx, "", "password123"); return err },
			wantKind: ErrInvalidInput,
			wantMsg:  "Email and password are required",
		},
		{
			name:     "sign up with malformed email",
			call:     func() error { _, err := svc.SignUp(ctx, "not-an-email", "password123"); return err },
			wantKind: ErrInvalidInput,
			wantMsg:  "Invalid email address",
		},
		{
			name:     "sign up with overlong password",
			call:     func() error { _, err := svc.SignUp(ctx, "long@example.com", strings.Repeat("x", 73)); return err },
			wantKind: ErrInvalidInput,
			wantMsg:  "Password must be at most 72 bytes",
		},
		{
			name:     "sign in with wrong password",
			call:     func() error { _, err := svc.SignIn(ctx, "taken@example.com", "wrongpassword"); return err },
			wantKind: ErrInvalidCredentials,
			wantMsg:  "Invalid credentials",
		},
		{
			name:     "sign in with unknown email",
			call:     func() error { _, err := svc.SignIn(ctx, "nobody@example.com", "password123"); return err },
			wantKind: ErrInvalidCredentials,
			wantMsg:  "Invalid credentials",
		},
		{
			name:     "sign in with empty password",
			call:     func() error { _, err := svc.SignIn(ctx, "taken@example.com", ""); return err },
			wantKind: ErrInvalidInput,
			wantMsg:  "Email and password are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("error = %v, want kind %v", err, tt.wantKind)
			}
			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("error %T is not *AuthError", err)
			}
			if authErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", authErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestAuthService_Sessions(t *testing.T) {
	s, cfg := newTestStore(t)
	svc := NewAuthService(s, cfg)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "session@example.com", "password123")
	if err != nil {
		t.Fatalf("SignUp() error: %v", err)
	}

	token, err := svc.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("CreateSession() error: %v", err)
	}

	got, err := svc.ValidateSession(ctx, token)
	if err != nil {
		t.Fatalf("ValidateSession() error: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("ValidateSession user = %q, want %q", got.ID, user.ID)
	}

	if _, err := svc.ValidateSession(ctx, "bogus-token"); err == nil {
		t.Error("ValidateSession should reject an unknown token")
	}

	if err := svc.DeleteSession(ctx, token); err != nil {
		t.Fatalf("DeleteSession() error: %v", err)
	}
	if _, err := svc.ValidateSession(ctx, token); err == nil {
		t.Error("ValidateSession should reject a deleted token")
	}
}

func TestAuthService_ExpiredSession(t *testing.T) {
	s, cfg := newTestStore(t)
	cfg.SessionTTL = -time.Minute
	svc := NewAuthService(s, cfg)
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "expired@example.com", "password123")
	if err != nil {
		t.Fatalf("SignUp() error: %v", err)
	}
	token, err := svc.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("CreateSession() error: %v", err)
	}

	if _, err := svc.ValidateSession(ctx, token); err == nil {
		t.Error("ValidateSession should reject an expired session")
	}

	n, err := svc.PurgeExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("PurgeExpiredSessions() error: %v", err)
	}
	if n != 1 {
		t.Errorf("PurgeExpiredSessions removed %d sessions, want 1", n)
	}
}
