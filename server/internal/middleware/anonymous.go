package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/uigen-dev/uigen/server/internal/config"
)

// AnonCookieName is the cookie identifying a visitor before they sign in.
const AnonCookieName = "uigen_anon"

const anonIDKey contextKey = "anonID"

// AnonymousID middleware makes sure every visitor carries an anonymous id,
// issuing a new cookie when the request has none or an invalid one.
func AnonymousID(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var anonID string
			if cookie, err := r.Cookie(AnonCookieName); err == nil {
				if _, err := uuid.Parse(cookie.Value); err == nil {
					anonID = cookie.Value
				}
			}

			if anonID == "" {
				anonID = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     AnonCookieName,
					Value:    anonID,
					Path:     "/",
					HttpOnly: true,
					Secure:   cfg.SecureCookies,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   int(cfg.AnonWorkTTL.Seconds()),
				})
			}

			ctx := context.WithValue(r.Context(), anonIDKey, anonID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAnonymousID extracts the anonymous visitor id from context
func GetAnonymousID(ctx context.Context) string {
	if id, ok := ctx.Value(anonIDKey).(string); ok {
		return id
	}
	return ""
}
