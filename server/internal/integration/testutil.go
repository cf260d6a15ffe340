package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/uigen-dev/uigen/server/internal/config"
	"github.com/uigen-dev/uigen/server/internal/database"
	"github.com/uigen-dev/uigen/server/internal/handler"
	"github.com/uigen-dev/uigen/server/internal/middleware"
	"github.com/uigen-dev/uigen/server/internal/model"
	"github.com/uigen-dev/uigen/server/internal/service"
	"github.com/uigen-dev/uigen/server/internal/store"
)

// TestPassword is the password of users made by CreateTestUser.
const TestPassword = "password123"

// TestServer wraps a test HTTP server with helpers
type TestServer struct {
	Server  *httptest.Server
	Store   *store.Store
	Config  *config.Config
	Handler *handler.Handler
	DB      *database.DB
	T       *testing.T
}

// NewTestServer creates a new test server backed by SQLite or PostgreSQL
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	var dsn string
	var driver string

	if PostgresEnabled() {
		dsn = PostgresDSN()
		driver = "postgres"
	} else if envDSN := os.Getenv("TEST_DATABASE_DSN"); envDSN != "" {
		dsn = envDSN
		if strings.HasPrefix(dsn, "postgres") {
			driver = "postgres"
		} else {
			driver = "sqlite"
		}
	} else {
		// File-based SQLite: in-memory databases are per connection
		dsn = fmt.Sprintf("sqlite3://%s/test.db", t.TempDir())
		driver = "sqlite"
	}

	cfg := config.Default()
	cfg.CORSOrigins = []string{"*"}
	cfg.DatabaseDSN = dsn
	cfg.DatabaseDriver = driver
	cfg.BcryptCost = 4

	db, err := database.New(cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	// PostgreSQL is shared between tests
	if db.IsPostgres() {
		cleanTables(db)
	}

	s := store.New(db.DB)
	h := handler.New(s, cfg, nil)
	server := httptest.NewServer(h.Router())

	ts := &TestServer{
		Server:  server,
		Store:   s,
		Config:  cfg,
		Handler: h,
		DB:      db,
		T:       t,
	}

	t.Cleanup(func() {
		server.Close()
		db.Close()
	})

	return ts
}

// TestUser represents a test user with session
type TestUser struct {
	User  *service.User
	Token string
}

// CreateTestUser registers a user with TestPassword and opens a session for them
func (ts *TestServer) CreateTestUser(email string) *TestUser {
	ts.T.Helper()

	authService := service.NewAuthService(ts.Store, ts.Config)
	user, err := authService.SignUp(context.Background(), email, TestPassword)
	if err != nil {
		ts.T.Fatalf("Failed to create test user: %v", err)
	}

	token, err := authService.CreateSession(context.Background(), user.ID)
	if err != nil {
		ts.T.Fatalf("Failed to create test session: %v", err)
	}

	return &TestUser{User: user, Token: token}
}

// CreateTestProject stores an empty project owned by user
func (ts *TestServer) CreateTestProject(user *TestUser, name string) *model.Project {
	ts.T.Helper()

	project := &model.Project{
		UserID: user.User.ID,
		Name:   name,
	}

	if err := ts.Store.CreateProject(context.Background(), project); err != nil {
		ts.T.Fatalf("Failed to create test project: %v", err)
	}

	return project
}

// Client returns a client with a cookie jar, so anonymous ids and sessions
// set by the server carry over between requests
func (ts *TestServer) Client() *TestClient {
	jar, _ := cookiejar.New(nil)
	return &TestClient{
		ts: ts,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse // Don't follow redirects
			},
		},
	}
}

// AuthenticatedClient returns a client that sends user's session cookie
func (ts *TestServer) AuthenticatedClient(user *TestUser) *TestClient {
	tc := ts.Client()
	tc.token = user.Token
	return tc
}

// TestClient is a helper for making requests against the test server
type TestClient struct {
	ts     *TestServer
	client *http.Client
	token  string
}

// Get makes a GET request
func (tc *TestClient) Get(path string) *http.Response {
	tc.ts.T.Helper()
	return tc.do("GET", path, nil)
}

// Post makes a POST request
func (tc *TestClient) Post(path string, body interface{}) *http.Response {
	tc.ts.T.Helper()
	return tc.do("POST", path, body)
}

// Put makes a PUT request
func (tc *TestClient) Put(path string, body interface{}) *http.Response {
	tc.ts.T.Helper()
	return tc.do("PUT", path, body)
}

// Delete makes a DELETE request
func (tc *TestClient) Delete(path string) *http.Response {
	tc.ts.T.Helper()
	return tc.do("DELETE", path, nil)
}

func (tc *TestClient) do(method, path string, body interface{}) *http.Response {
	tc.ts.T.Helper()

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			tc.ts.T.Fatalf("Failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, tc.ts.Server.URL+path, bodyReader)
	if err != nil {
		tc.ts.T.Fatalf("Failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if tc.token != "" {
		req.AddCookie(&http.Cookie{
			Name:  middleware.SessionCookieName,
			Value: tc.token,
		})
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		tc.ts.T.Fatalf("Request failed: %v", err)
	}

	return resp
}

// ParseJSON parses the response body as JSON
func ParseJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("Failed to parse JSON: %v\nBody: %s", err, string(body))
	}
}

// AssertStatus checks the response status code
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("Expected status %d, got %d\nBody: %s", expected, resp.StatusCode, string(body))
	}
}

// cleanTables truncates all tables for test isolation (PostgreSQL only)
func cleanTables(db *database.DB) {
	// Children first
	tables := []string{
		"anonymous_work",
		"projects",
		"user_sessions",
		"users",
	}

	for _, table := range tables {
		db.Exec("TRUNCATE TABLE " + table + " CASCADE")
	}
}
