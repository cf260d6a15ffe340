package authflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uigen-dev/uigen/server/internal/service"
)

var errNotAuthenticated = errors.New("authflow: no authenticated user")

// Session binds the collaborators of one sign-in or sign-up request to the
// application services. A successful authentication opens a login session
// right away, so the user stays signed in even if routing fails afterwards.
// Projects are listed and created for the authenticated user, and the
// navigation target is recorded instead of performed.
type Session struct {
	auth     *service.AuthService
	projects *service.ProjectService
	anonWork *service.AnonWorkService
	anonID   string

	user      *service.User
	token     string
	rejection error
	redirect  string
}

// NewSession creates a Session for the visitor identified by anonID. An
// empty anonID means no anonymous work can be staged.
func NewSession(auth *service.AuthService, projects *service.ProjectService, anonWork *service.AnonWorkService, anonID string) *Session {
	return &Session{
		auth:     auth,
		projects: projects,
		anonWork: anonWork,
		anonID:   anonID,
	}
}

// Controller returns a Controller driven by this session.
func (s *Session) Controller(opts ...Option) *Controller {
	return New(Collaborators{
		Auth:      s,
		AnonWork:  s,
		Projects:  s,
		Creator:   s,
		Navigator: s,
	}, opts...)
}

// User returns the authenticated user, or nil before a successful attempt.
func (s *Session) User() *service.User { return s.user }

// Token returns the login session token issued on success.
func (s *Session) Token() string { return s.token }

// Rejection returns the *service.AuthError of a rejected attempt, or nil.
func (s *Session) Rejection() error { return s.rejection }

// Redirect returns the path recorded by Navigate.
func (s *Session) Redirect() string { return s.redirect }

func (s *Session) Authenticate(ctx context.Context, kind Kind, email, password string) (AuthResult, error) {
	var (
		user *service.User
		err  error
	)
	switch kind {
	case KindSignIn:
		user, err = s.auth.SignIn(ctx, email, password)
	case KindSignUp:
		user, err = s.auth.SignUp(ctx, email, password)
	default:
		return AuthResult{}, fmt.Errorf("authflow: unknown authentication kind %q", kind)
	}

	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		s.rejection = authErr
		return AuthResult{Success: false, Error: authErr.Message}, nil
	}
	if err != nil {
		return AuthResult{}, err
	}

	token, err := s.auth.CreateSession(ctx, user.ID)
	if err != nil {
		return AuthResult{}, err
	}

	s.user = user
	s.token = token
	return AuthResult{Success: true}, nil
}

func (s *Session) GetAnonymousWork(ctx context.Context) (*AnonymousWork, error) {
	staged, err := s.anonWork.Get(ctx, s.anonID)
	if err != nil || staged == nil {
		return nil, err
	}

	work := &AnonymousWork{FileSystemData: staged.FileSystemData}
	if len(staged.Messages) > 0 {
		if err := json.Unmarshal(staged.Messages, &work.Messages); err != nil {
			return nil, fmt.Errorf("decode anonymous messages: %w", err)
		}
	}
	return work, nil
}

func (s *Session) ClearAnonymousWork(ctx context.Context) error {
	return s.anonWork.Clear(ctx, s.anonID)
}

func (s *Session) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	if s.user == nil {
		return nil, errNotAuthenticated
	}
	projects, err := s.projects.ListProjects(ctx, s.user.ID)
	if err != nil {
		return nil, err
	}
	summaries := make([]ProjectSummary, len(projects))
	for i, p := range projects {
		summaries[i] = ProjectSummary{ID: p.ID, Name: p.Name}
	}
	return summaries, nil
}

func (s *Session) CreateProject(ctx context.Context, in ProjectInput) (ProjectRef, error) {
	if s.user == nil {
		return ProjectRef{}, errNotAuthenticated
	}

	messages, err := json.Marshal(in.Messages)
	if err != nil {
		return ProjectRef{}, fmt.Errorf("encode project messages: %w", err)
	}
	project, err := s.projects.CreateProject(ctx, s.user.ID, service.ProjectInput{
		Name:     in.Name,
		Messages: messages,
		Data:     in.Data,
	})
	if err != nil {
		return ProjectRef{}, err
	}
	return ProjectRef{ID: project.ID}, nil
}

func (s *Session) Navigate(_ context.Context, path string) error {
	s.redirect = path
	return nil
}
