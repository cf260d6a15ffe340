// Package authflow routes a user to a project after they sign in or sign up.
//
// A Controller authenticates the user and, on success, reconciles work done
// before login with the user's saved projects:
//
//   - staged anonymous work with at least one message becomes a new project,
//     the staging store is cleared and the user is sent to that project;
//   - otherwise the user is sent to their most recent project;
//   - a user with no projects gets a fresh, empty one.
//
// Rejected credentials are returned as an AuthResult and nothing else
// happens. Errors from any collaborator are returned unchanged.
package authflow

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Kind selects the authentication action.
type Kind string

const (
	KindSignIn Kind = "signin"
	KindSignUp Kind = "signup"
)

// AuthResult is the outcome of an authentication attempt. Error is set only
// when Success is false.
type AuthResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Message is one chat message, passed through without interpretation.
type Message = json.RawMessage

// AnonymousWork is the chat and file system built before login. The file
// system is an opaque JSON object handed to the new project byte for byte.
type AnonymousWork struct {
	Messages       []Message       `json:"messages"`
	FileSystemData json.RawMessage `json:"fileSystemData"`
}

// ProjectSummary is one entry of a project listing.
type ProjectSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProjectRef identifies a newly created project.
type ProjectRef struct {
	ID string `json:"id"`
}

// ProjectInput is the content of a project to create.
type ProjectInput struct {
	Name     string
	Messages []Message
	Data     json.RawMessage
}

// Authenticator verifies credentials. A rejected attempt is reported through
// AuthResult; a non-nil error means the check itself could not run.
type Authenticator interface {
	Authenticate(ctx context.Context, kind Kind, email, password string) (AuthResult, error)
}

// AnonymousWorkStore holds work staged before login. GetAnonymousWork
// returns nil when nothing is staged.
type AnonymousWorkStore interface {
	GetAnonymousWork(ctx context.Context) (*AnonymousWork, error)
	ClearAnonymousWork(ctx context.Context) error
}

// ProjectLister lists the user's projects, most recent first.
type ProjectLister interface {
	ListProjects(ctx context.Context) ([]ProjectSummary, error)
}

// ProjectCreator durably creates a project.
type ProjectCreator interface {
	CreateProject(ctx context.Context, in ProjectInput) (ProjectRef, error)
}

// Navigator moves the user to path, which is always "/" + project id.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// Collaborators are the dependencies a Controller drives.
type Collaborators struct {
	Auth      Authenticator
	AnonWork  AnonymousWorkStore
	Projects  ProjectLister
	Creator   ProjectCreator
	Navigator Navigator
}

const (
	anonProjectPrefix = "Design from "
	newProjectPrefix  = "New Design #"

	// Matches a locale time string such as "3:04:05 PM".
	timeLayout = "3:04:05 PM"

	maxDesignNumber = 1_000_000_000

	emptyObject = "{}"
)

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the time source used to name projects built from anonymous work.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithDesignNumber sets the generator for the number in "New Design #<n>".
// It must return a positive integer.
func WithDesignNumber(next func() int64) Option {
	return func(c *Controller) { c.designNumber = next }
}

// WithLogger sets the logger for routing decisions.
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// Controller runs sign-in and sign-up followed by project routing. Its
// loading flag belongs to this instance only; callers that need concurrent
// attempts use one Controller each.
type Controller struct {
	collab       Collaborators
	now          func() time.Time
	designNumber func() int64
	log          *zap.Logger

	loading atomic.Bool
}

// New creates a Controller.
func New(collab Collaborators, opts ...Option) *Controller {
	c := &Controller{
		collab:       collab,
		now:          time.Now,
		designNumber: randomDesignNumber,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsLoading reports whether a SignIn or SignUp call is in progress.
func (c *Controller) IsLoading() bool {
	return c.loading.Load()
}

// SignIn authenticates an existing user and routes them to a project.
func (c *Controller) SignIn(ctx context.Context, email, password string) (AuthResult, error) {
	return c.run(ctx, KindSignIn, email, password)
}

// SignUp registers a new user and routes them to a project.
func (c *Controller) SignUp(ctx context.Context, email, password string) (AuthResult, error) {
	return c.run(ctx, KindSignUp, email, password)
}

func (c *Controller) run(ctx context.Context, kind Kind, email, password string) (AuthResult, error) {
	c.loading.Store(true)
	defer c.loading.Store(false)

	result, err := c.collab.Auth.Authenticate(ctx, kind, email, password)
	if err != nil {
		return AuthResult{}, err
	}
	if !result.Success {
		c.log.Debug("authentication rejected", zap.String("kind", string(kind)), zap.String("reason", result.Error))
		return result, nil
	}

	if err := c.route(ctx); err != nil {
		return AuthResult{}, err
	}
	return result, nil
}

// route picks the project to open after a successful authentication.
func (c *Controller) route(ctx context.Context) error {
	work, err := c.collab.AnonWork.GetAnonymousWork(ctx)
	if err != nil {
		return err
	}

	if work != nil && len(work.Messages) > 0 {
		ref, err := c.collab.Creator.CreateProject(ctx, ProjectInput{
			Name:     anonProjectPrefix + c.now().Format(timeLayout),
			Messages: work.Messages,
			Data:     work.FileSystemData,
		})
		if err != nil {
			return err
		}
		if err := c.collab.AnonWork.ClearAnonymousWork(ctx); err != nil {
			return err
		}
		c.log.Debug("adopted anonymous work", zap.String("project", ref.ID), zap.Int("messages", len(work.Messages)))
		return c.collab.Navigator.Navigate(ctx, projectPath(ref.ID))
	}

	projects, err := c.collab.Projects.ListProjects(ctx)
	if err != nil {
		return err
	}
	if len(projects) > 0 {
		c.log.Debug("opening most recent project", zap.String("project", projects[0].ID))
		return c.collab.Navigator.Navigate(ctx, projectPath(projects[0].ID))
	}

	ref, err := c.collab.Creator.CreateProject(ctx, ProjectInput{
		Name:     fmt.Sprintf("%s%d", newProjectPrefix, c.designNumber()),
		Messages: []Message{},
		Data:     json.RawMessage(emptyObject),
	})
	if err != nil {
		return err
	}
	c.log.Debug("created first project", zap.String("project", ref.ID))
	return c.collab.Navigator.Navigate(ctx, projectPath(ref.ID))
}

func projectPath(id string) string {
	return "/" + id
}

func randomDesignNumber() int64 {
	return rand.Int64N(maxDesignNumber-1) + 1
}
