package handler

import (
	"errors"
	"net/http"

	"github.com/uigen-dev/uigen/server/internal/authflow"
	"github.com/uigen-dev/uigen/server/internal/middleware"
	"github.com/uigen-dev/uigen/server/internal/service"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	authflow.AuthResult
	Redirect string        `json:"redirect,omitempty"`
	User     *service.User `json:"user,omitempty"`
}

// SignIn authenticates an existing user and routes them to a project.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, authflow.KindSignIn)
}

// SignUp registers a new user and routes them to a project.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, authflow.KindSignUp)
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request, kind authflow.Kind) {
	var req credentialsRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess := authflow.NewSession(h.authService, h.projectService, h.anonWorkService, middleware.GetAnonymousID(r.Context()))
	ctrl := sess.Controller(authflow.WithLogger(h.log.Zap()))

	var (
		result authflow.AuthResult
		err    error
	)
	if kind == authflow.KindSignUp {
		result, err = ctrl.SignUp(r.Context(), req.Email, req.Password)
	} else {
		result, err = ctrl.SignIn(r.Context(), req.Email, req.Password)
	}

	// The login session may exist even when routing failed.
	if token := sess.Token(); token != "" {
		h.setSessionCookie(w, token)
	}

	if err != nil {
		h.log.Error("authentication failed", "kind", kind, "error", err)
		h.Error(w, http.StatusInternalServerError, "Authentication failed")
		return
	}
	if !result.Success {
		h.JSON(w, rejectionStatus(sess.Rejection()), authResponse{AuthResult: result})
		return
	}

	h.log.Info("user authenticated", "kind", kind, "user_id", sess.User().ID, "redirect", sess.Redirect())
	h.JSON(w, http.StatusOK, authResponse{
		AuthResult: result,
		Redirect:   sess.Redirect(),
		User:       sess.User(),
	})
}

func rejectionStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusUnauthorized
	}
}

// SignOut ends the current login session
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if token := h.getSessionToken(r); token != "" {
		if err := h.authService.DeleteSession(r.Context(), token); err != nil {
			h.log.Warn("failed to delete session", "error", err)
		}
	}

	h.clearSessionCookie(w)
	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me returns the signed-in user, or 401 when there is none.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	h.JSON(w, http.StatusOK, user)
}
