package middleware

import (
	"context"
	"net/http"

	"github.com/uigen-dev/uigen/server/internal/config"
	"github.com/uigen-dev/uigen/server/internal/service"
	"github.com/uigen-dev/uigen/server/internal/store"
)

type contextKey string

const (
	UserKey   contextKey = "user"
	UserIDKey contextKey = "userID"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "uigen_session"

// Auth middleware rejects requests without a valid session cookie.
func Auth(s *store.Store, cfg *config.Config) func(http.Handler) http.Handler {
	authService := service.NewAuthService(s, cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			user, err := authService.ValidateSession(r.Context(), cookie.Value)
			if err != nil {
				// Clear invalid cookie
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    "",
					Path:     "/",
					HttpOnly: true,
					MaxAge:   -1,
				})
				writeError(w, http.StatusUnauthorized, "Session expired")
				return
			}

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

// OptionalAuth middleware allows unauthenticated requests but adds user info if authenticated
func OptionalAuth(s *store.Store, cfg *config.Config) func(http.Handler) http.Handler {
	authService := service.NewAuthService(s, cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := authService.ValidateSession(r.Context(), cookie.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

func withUser(ctx context.Context, user *service.User) context.Context {
	ctx = context.WithValue(ctx, UserKey, user)
	return context.WithValue(ctx, UserIDKey, user.ID)
}

// GetUser extracts user from context
func GetUser(ctx context.Context) *service.User {
	if user, ok := ctx.Value(UserKey).(*service.User); ok {
		return user
	}
	return nil
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}` + "\n"))
}
