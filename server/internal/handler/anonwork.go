package handler

import (
	"errors"
	"net/http"

	"github.com/uigen-dev/uigen/server/internal/middleware"
	"github.com/uigen-dev/uigen/server/internal/service"
)

// GetAnonWork returns the work staged by the anonymous visitor.
// Responds 204 when nothing is staged.
func (h *Handler) GetAnonWork(w http.ResponseWriter, r *http.Request) {
	anonID := middleware.GetAnonymousID(r.Context())

	work, err := h.anonWorkService.Get(r.Context(), anonID)
	if err != nil {
		h.log.Error("failed to get anonymous work", "error", err)
		h.Error(w, http.StatusInternalServerError, "Failed to get anonymous work")
		return
	}
	if work == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.JSON(w, http.StatusOK, work)
}

// PutAnonWork replaces the staged work.
func (h *Handler) PutAnonWork(w http.ResponseWriter, r *http.Request) {
	anonID := middleware.GetAnonymousID(r.Context())

	var req service.AnonymousWork
	if err := h.DecodeJSON(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.anonWorkService.Save(r.Context(), anonID, req)
	if errors.Is(err, service.ErrInvalidInput) {
		h.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.log.Error("failed to save anonymous work", "error", err)
		h.Error(w, http.StatusInternalServerError, "Failed to save anonymous work")
		return
	}

	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DeleteAnonWork discards the staged work.
func (h *Handler) DeleteAnonWork(w http.ResponseWriter, r *http.Request) {
	anonID := middleware.GetAnonymousID(r.Context())

	if err := h.anonWorkService.Clear(r.Context(), anonID); err != nil {
		h.log.Error("failed to clear anonymous work", "error", err)
		h.Error(w, http.StatusInternalServerError, "Failed to clear anonymous work")
		return
	}

	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
