package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uigen-dev/uigen/server/internal/config"
	"github.com/uigen-dev/uigen/server/internal/model"
	"github.com/uigen-dev/uigen/server/internal/store"
)

// AnonymousWork is the chat and virtual file system a visitor produced
// before signing in.
type AnonymousWork struct {
	Messages       json.RawMessage `json:"messages"`
	FileSystemData json.RawMessage `json:"fileSystemData"`
	UpdatedAt      time.Time       `json:"updatedAt,omitempty"`
}

// AnonWorkService stages anonymous work keyed by the visitor's anonymous id.
type AnonWorkService struct {
	store *store.Store
	ttl   time.Duration
}

// NewAnonWorkService creates a new anonymous work service
func NewAnonWorkService(s *store.Store, cfg *config.Config) *AnonWorkService {
	return &AnonWorkService{store: s, ttl: cfg.AnonWorkTTL}
}

// Get returns the staged work for anonID, or nil if there is none.
func (s *AnonWorkService) Get(ctx context.Context, anonID string) (*AnonymousWork, error) {
	if anonID == "" {
		return nil, nil
	}
	row, err := s.store.GetAnonymousWork(ctx, anonID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get anonymous work: %w", err)
	}
	return &AnonymousWork{
		Messages:       row.Messages,
		FileSystemData: row.FileSystemData,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}

// Save replaces the staged work for anonID and extends its expiry.
func (s *AnonWorkService) Save(ctx context.Context, anonID string, work AnonymousWork) error {
	if anonID == "" {
		return fmt.Errorf("%w: anonymous id is required", ErrInvalidInput)
	}
	messages, err := normalizeJSON(work.Messages, '[', "[]")
	if err != nil {
		return fmt.Errorf("%w: messages must be a JSON array", ErrInvalidInput)
	}
	data, err := normalizeJSON(work.FileSystemData, '{', "{}")
	if err != nil {
		return fmt.Errorf("%w: fileSystemData must be a JSON object", ErrInvalidInput)
	}

	row := &model.AnonymousWork{
		ID:             anonID,
		Messages:       messages,
		FileSystemData: data,
		ExpiresAt:      time.Now().Add(s.ttl),
	}
	if err := s.store.SaveAnonymousWork(ctx, row); err != nil {
		return fmt.Errorf("failed to save anonymous work: %w", err)
	}
	return nil
}

// Clear discards the staged work for anonID. Clearing twice is a no-op.
func (s *AnonWorkService) Clear(ctx context.Context, anonID string) error {
	if anonID == "" {
		return nil
	}
	if err := s.store.DeleteAnonymousWork(ctx, anonID); err != nil {
		return fmt.Errorf("failed to clear anonymous work: %w", err)
	}
	return nil
}

// PurgeExpired removes staged work past its expiry.
func (s *AnonWorkService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredAnonymousWork(ctx)
}
