package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestAnonWorkService_SaveGetClear(t *testing.T) {
	s, cfg := newTestStore(t)
	svc := NewAnonWorkService(s, cfg)
	ctx := context.Background()

	work := AnonymousWork{
		Messages:       json.RawMessage(`[{"role":"user","content":"hi"}]`),
		FileSystemData: json.RawMessage(`{"files":{}}`),
	}
	if err := svc.Save(ctx, "anon-1", work); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := svc.Get(ctx, "anon-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil {
		t.Fatal("Get() returned nil after Save")
	}
	if string(got.Messages) != string(work.Messages) {
		t.Errorf("Messages = %s, want %s", got.Messages, work.Messages)
	}

	// Saving again replaces the staged work.
	work.Messages = json.RawMessage(`[]`)
	if err := svc.Save(ctx, "anon-1", work); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, _ = svc.Get(ctx, "anon-1")
	if string(got.Messages) != "[]" {
		t.Errorf("Messages after replace = %s, want []", got.Messages)
	}

	if err := svc.Clear(ctx, "anon-1"); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if err := svc.Clear(ctx, "anon-1"); err != nil {
		t.Fatalf("second Clear() error: %v", err)
	}

	got, err = svc.Get(ctx, "anon-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != nil {
		t.Errorf("Get() after Clear = %+v, want nil", got)
	}
}

func TestAnonWorkService_NoAnonymousID(t *testing.T) {
	s, cfg := newTestStore(t)
	svc := NewAnonWorkService(s, cfg)
	ctx := context.Background()

	got, err := svc.Get(ctx, "")
	if err != nil || got != nil {
		t.Errorf("Get(\"\") = %v, %v; want nil, nil", got, err)
	}
	if err := svc.Save(ctx, "", AnonymousWork{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Save(\"\") error = %v, want ErrInvalidInput", err)
	}
}

func TestAnonWorkService_Expiry(t *testing.T) {
	s, cfg := newTestStore(t)
	cfg.AnonWorkTTL = -time.Minute
	svc := NewAnonWorkService(s, cfg)
	ctx := context.Background()

	if err := svc.Save(ctx, "anon-old", AnonymousWork{Messages: json.RawMessage(`[{"role":"user"}]`)}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := svc.Get(ctx, "anon-old")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != nil {
		t.Error("expired work should read as absent")
	}

	n, err := svc.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired() error: %v", err)
	}
	if n != 1 {
		t.Errorf("PurgeExpired removed %d rows, want 1", n)
	}
}

func TestAnonWorkService_RejectsBadShapes(t *testing.T) {
	s, cfg := newTestStore(t)
	svc := NewAnonWorkService(s, cfg)

	err := svc.Save(context.Background(), "anon-1", AnonymousWork{Messages: json.RawMessage(`"nope"`)})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Save() error = %v, want ErrInvalidInput", err)
	}
}
