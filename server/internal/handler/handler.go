package handler

import (
	"encoding/json"
	"net/http"

	"github.com/uigen-dev/uigen/server/internal/config"
	"github.com/uigen-dev/uigen/server/internal/logger"
	"github.com/uigen-dev/uigen/server/internal/middleware"
	"github.com/uigen-dev/uigen/server/internal/service"
	"github.com/uigen-dev/uigen/server/internal/store"
	"github.com/uigen-dev/uigen/server/internal/version"
)

// Handler contains all HTTP handlers
type Handler struct {
	store           *store.Store
	cfg             *config.Config
	log             *logger.Logger
	authService     *service.AuthService
	projectService  *service.ProjectService
	anonWorkService *service.AnonWorkService
}

// New creates a new Handler. A nil logger discards output.
func New(s *store.Store, cfg *config.Config, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		store:           s,
		cfg:             cfg,
		log:             log,
		authService:     service.NewAuthService(s, cfg),
		projectService:  service.NewProjectService(s),
		anonWorkService: service.NewAnonWorkService(s, cfg),
	}
}

// AuthService returns the handler's auth service.
// Used by main.go for the expiry sweep.
func (h *Handler) AuthService() *service.AuthService {
	return h.authService
}

// AnonWorkService returns the handler's anonymous work service.
func (h *Handler) AnonWorkService() *service.AnonWorkService {
	return h.anonWorkService
}

// JSON helper to write JSON responses
func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error helper to write error responses
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// DecodeJSON helper to decode request body
func (h *Handler) DecodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// Health reports liveness and database reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	db, err := h.store.DB().DB()
	if err == nil {
		err = db.PingContext(r.Context())
	}
	if err != nil {
		h.log.Warn("health check failed", "error", err)
		h.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version.Get()})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.cfg.SessionTTL.Seconds()),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (h *Handler) getSessionToken(r *http.Request) string {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
