package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/uigen-dev/uigen/server/internal/model"
	"github.com/uigen-dev/uigen/server/internal/store"
)

func TestProjectService_CreateDefaults(t *testing.T) {
	s, _ := newTestStore(t)
	svc := NewProjectService(s)
	ctx := context.Background()
	userID := createTestUser(t, s, "a@example.com")

	project, err := svc.CreateProject(ctx, userID, ProjectInput{Name: "New Design #42"})
	if err != nil {
		t.Fatalf("CreateProject() error: %v", err)
	}
	if string(project.Messages) != "[]" {
		t.Errorf("Messages = %s, want []", project.Messages)
	}
	if string(project.Data) != "{}" {
		t.Errorf("Data = %s, want {}", project.Data)
	}

	got, err := svc.GetProject(ctx, userID, project.ID)
	if err != nil {
		t.Fatalf("GetProject() error: %v", err)
	}
	if got.Name != "New Design #42" {
		t.Errorf("Name = %q, want %q", got.Name, "New Design #42")
	}
}

func TestProjectService_CreatePreservesContent(t *testing.T) {
	s, _ := newTestStore(t)
	svc := NewProjectService(s)
	ctx := context.Background()
	userID := createTestUser(t, s, "a@example.com")

	messages := json.RawMessage(`[{"role":"user","content":"hi","id":"m1"}]`)
	data := json.RawMessage(`{"files":{"/App.jsx":"export default () => null"}}`)

	project, err := svc.CreateProject(ctx, userID, ProjectInput{Name: "Design", Messages: messages, Data: data})
	if err != nil {
		t.Fatalf("CreateProject() error: %v", err)
	}

	got, err := svc.GetProject(ctx, userID, project.ID)
	if err != nil {
		t.Fatalf("GetProject() error: %v", err)
	}
	if string(got.Messages) != string(messages) {
		t.Errorf("Messages = %s, want %s", got.Messages, messages)
	}
	if string(got.Data) != string(data) {
		t.Errorf("Data = %s, want %s", got.Data, data)
	}
}

func TestProjectService_CreateInvalid(t *testing.T) {
	s, _ := newTestStore(t)
	svc := NewProjectService(s)
	ctx := context.Background()

	tests := []struct {
		name string
		in   ProjectInput
	}{
		{"empty name", ProjectInput{Name: "  "}},
		{"messages not an array", ProjectInput{Name: "x", Messages: json.RawMessage(`{"a":1}`)}},
		{"data not an object", ProjectInput{Name: "x", Data: json.RawMessage(`[1]`)}},
		{"malformed data", ProjectInput{Name: "x", Data: json.RawMessage(`{`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProject(ctx, "user-1", tt.in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestProjectService_ListMostRecentFirst(t *testing.T) {
	s, _ := newTestStore(t)
	svc := NewProjectService(s)
	ctx := context.Background()
	userID := createTestUser(t, s, "a@example.com")
	otherID := createTestUser(t, s, "b@example.com")

	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"oldest", "newest", "middle"} {
		offset := map[string]time.Duration{"oldest": 0, "middle": time.Minute, "newest": 2 * time.Minute}[name]
		p := &model.Project{
			UserID:    userID,
			Name:      name,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base.Add(offset),
		}
		if err := s.CreateProject(ctx, p); err != nil {
			t.Fatalf("CreateProject(%s) error: %v", name, err)
		}
	}
	if _, err := svc.CreateProject(ctx, otherID, ProjectInput{Name: "someone else"}); err != nil {
		t.Fatalf("CreateProject() error: %v", err)
	}

	projects, err := svc.ListProjects(ctx, userID)
	if err != nil {
		t.Fatalf("ListProjects() error: %v", err)
	}

	var names []string
	for _, p := range projects {
		names = append(names, p.Name)
	}
	want := []string{"newest", "middle", "oldest"}
	if len(names) != len(want) {
		t.Fatalf("ListProjects names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("ListProjects names = %v, want %v", names, want)
		}
	}
	if projects[0].Messages != nil {
		t.Error("ListProjects should not load message content")
	}
}

func TestProjectService_OwnerScoped(t *testing.T) {
	s, _ := newTestStore(t)
	svc := NewProjectService(s)
	ctx := context.Background()
	ownerID := createTestUser(t, s, "owner@example.com")
	intruderID := createTestUser(t, s, "intruder@example.com")

	project, err := svc.CreateProject(ctx, ownerID, ProjectInput{Name: "Mine"})
	if err != nil {
		t.Fatalf("CreateProject() error: %v", err)
	}

	if _, err := svc.GetProject(ctx, intruderID, project.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetProject by non-owner error = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteProject(ctx, intruderID, project.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteProject by non-owner error = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteProject(ctx, ownerID, project.ID); err != nil {
		t.Errorf("DeleteProject by owner error: %v", err)
	}
}
