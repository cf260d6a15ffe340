package logger

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew_FileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	l, err := New(Options{Level: "debug", Format: "json", File: path})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	l.Debug("reconcile", "branch", "existing_project")
	req := httptest.NewRequest("POST", "/api/auth/signin", nil)
	l.LogRequest(req, "req-1", "/api/auth/signin", 200, 42, 5*time.Millisecond)
	_ = l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	out := string(data)

	for _, want := range []string{`"msg":"reconcile"`, `"branch":"existing_project"`, `"path":"/api/auth/signin"`, `"status":200`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	l, err := New(Options{Level: "warn", Format: "json", File: path})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	l.Info("hidden")
	l.Warn("shown")
	_ = l.Close()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(string(data), "shown") {
		t.Error("warn message should be logged at warn level")
	}
}

func TestNew_BadFile(t *testing.T) {
	_, err := New(Options{File: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	if err == nil {
		t.Error("New() should fail when the log file cannot be opened")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("discarded", "k", "v")
	if l.Zap() == nil {
		t.Error("Nop().Zap() should not be nil")
	}
}
