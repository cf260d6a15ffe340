package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uigen-dev/uigen/server/internal/middleware"
	"github.com/uigen-dev/uigen/server/internal/service"
	"github.com/uigen-dev/uigen/server/internal/store"
)

// ListProjects returns all projects for the current user
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		h.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	projects, err := h.projectService.ListProjects(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to list projects", "user_id", userID, "error", err)
		h.Error(w, http.StatusInternalServerError, "Failed to list projects")
		return
	}

	h.JSON(w, http.StatusOK, projects)
}

// CreateProject creates a new project
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		h.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req service.ProjectInput
	if err := h.DecodeJSON(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(r.Context(), userID, req)
	if errors.Is(err, service.ErrInvalidInput) {
		h.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.log.Error("failed to create project", "user_id", userID, "error", err)
		h.Error(w, http.StatusInternalServerError, "Failed to create project")
		return
	}

	h.JSON(w, http.StatusCreated, project)
}

// GetProject returns a single project with its messages and data
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	projectID := chi.URLParam(r, "projectId")

	project, err := h.projectService.GetProject(r.Context(), userID, projectID)
	if errors.Is(err, store.ErrNotFound) {
		h.Error(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		h.log.Error("failed to get project", "project_id", projectID, "error", err)
		h.Error(w, http.StatusInternalServerError, "Failed to get project")
		return
	}

	h.JSON(w, http.StatusOK, project)
}

// DeleteProject deletes a project
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	projectID := chi.URLParam(r, "projectId")

	err := h.projectService.DeleteProject(r.Context(), userID, projectID)
	if errors.Is(err, store.ErrNotFound) {
		h.Error(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		h.log.Error("failed to delete project", "project_id", projectID, "error", err)
		h.Error(w, http.StatusInternalServerError, "Failed to delete project")
		return
	}

	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
