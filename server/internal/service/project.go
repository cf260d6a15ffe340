package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/uigen-dev/uigen/server/internal/model"
	"github.com/uigen-dev/uigen/server/internal/store"
)

// ProjectService handles project operations
type ProjectService struct {
	store *store.Store
}

// Project represents a project (for API responses). Messages and Data are
// only populated when a single project is fetched or created.
type Project struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Messages  json.RawMessage `json:"messages,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ProjectInput is the content of a new project. Messages must be a JSON
// array and Data a JSON object; empty values default to [] and {}.
type ProjectInput struct {
	Name     string          `json:"name"`
	Messages json.RawMessage `json:"messages,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// NewProjectService creates a new project service
func NewProjectService(s *store.Store) *ProjectService {
	return &ProjectService{store: s}
}

// ListProjects returns all projects for a user, most recently updated first.
func (s *ProjectService) ListProjects(ctx context.Context, userID string) ([]Project, error) {
	rows, err := s.store.ListProjectsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	projects := make([]Project, len(rows))
	for i, row := range rows {
		projects[i] = Project{
			ID:        row.ID,
			Name:      row.Name,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		}
	}
	return projects, nil
}

// CreateProject stores a new project owned by userID.
func (s *ProjectService) CreateProject(ctx context.Context, userID string, in ProjectInput) (*Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	messages, err := normalizeJSON(in.Messages, '[', "[]")
	if err != nil {
		return nil, fmt.Errorf("%w: messages must be a JSON array", ErrInvalidInput)
	}
	data, err := normalizeJSON(in.Data, '{', "{}")
	if err != nil {
		return nil, fmt.Errorf("%w: data must be a JSON object", ErrInvalidInput)
	}

	project := &model.Project{
		UserID:   userID,
		Name:     name,
		Messages: messages,
		Data:     data,
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return toProject(project), nil
}

// GetProject returns one of the user's projects by ID.
func (s *ProjectService) GetProject(ctx context.Context, userID, projectID string) (*Project, error) {
	project, err := s.store.GetProjectByID(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	return toProject(project), nil
}

// DeleteProject deletes one of the user's projects.
func (s *ProjectService) DeleteProject(ctx context.Context, userID, projectID string) error {
	return s.store.DeleteProject(ctx, userID, projectID)
}

func toProject(p *model.Project) *Project {
	return &Project{
		ID:        p.ID,
		Name:      p.Name,
		Messages:  p.Messages,
		Data:      p.Data,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// normalizeJSON checks that raw is valid JSON starting with open, substituting
// empty for absent or null input.
func normalizeJSON(raw json.RawMessage, open byte, empty string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return json.RawMessage(empty), nil
	}
	if trimmed[0] != open || !json.Valid([]byte(trimmed)) {
		return nil, fmt.Errorf("unexpected JSON value")
	}
	return json.RawMessage(trimmed), nil
}
