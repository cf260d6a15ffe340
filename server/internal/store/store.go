// Package store provides database operations using GORM.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/uigen-dev/uigen/server/internal/model"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
)

// Store wraps GORM DB for database operations.
type Store struct {
	db *gorm.DB
}

// New creates a new Store with the given GORM DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying GORM DB for advanced queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// --- Users ---

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// --- User Sessions ---

func (s *Store) CreateUserSession(ctx context.Context, session *model.UserSession) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *Store) GetUserSessionByToken(ctx context.Context, tokenHash string) (*model.UserSession, error) {
	var session model.UserSession
	if err := s.db.WithContext(ctx).Preload("User").First(&session, "token_hash = ?", tokenHash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *Store) DeleteUserSession(ctx context.Context, tokenHash string) error {
	return s.db.WithContext(ctx).Delete(&model.UserSession{}, "token_hash = ?", tokenHash).Error
}

// DeleteExpiredUserSessions removes expired sessions and returns how many were deleted.
func (s *Store) DeleteExpiredUserSessions(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Delete(&model.UserSession{}, "expires_at < ?", time.Now())
	return result.RowsAffected, result.Error
}

// --- Projects ---

// ListProjectsByUser returns a user's projects, most recently updated first.
func (s *Store) ListProjectsByUser(ctx context.Context, userID string) ([]*model.Project, error) {
	var projects []*model.Project
	err := s.db.WithContext(ctx).
		Select("id", "user_id", "name", "created_at", "updated_at").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

// GetProjectByID returns a project only if it belongs to userID.
func (s *Store) GetProjectByID(ctx context.Context, userID, id string) (*model.Project, error) {
	var project model.Project
	if err := s.db.WithContext(ctx).First(&project, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (s *Store) CreateProject(ctx context.Context, project *model.Project) error {
	return s.db.WithContext(ctx).Create(project).Error
}

func (s *Store) DeleteProject(ctx context.Context, userID, id string) error {
	result := s.db.WithContext(ctx).Delete(&model.Project{}, "id = ? AND user_id = ?", id, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Anonymous Work ---

// GetAnonymousWork returns the staged work for an anonymous id. Expired rows
// are reported as ErrNotFound.
func (s *Store) GetAnonymousWork(ctx context.Context, id string) (*model.AnonymousWork, error) {
	var work model.AnonymousWork
	err := s.db.WithContext(ctx).First(&work, "id = ? AND expires_at > ?", id, time.Now()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &work, nil
}

// SaveAnonymousWork creates or replaces the staged work for work.ID.
func (s *Store) SaveAnonymousWork(ctx context.Context, work *model.AnonymousWork) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.AnonymousWork
		err := tx.First(&existing, "id = ?", work.ID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(work).Error
		}

		work.CreatedAt = existing.CreatedAt
		return tx.Save(work).Error
	})
}

// DeleteAnonymousWork removes staged work. Deleting absent work is not an error.
func (s *Store) DeleteAnonymousWork(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&model.AnonymousWork{}, "id = ?", id).Error
}

// DeleteExpiredAnonymousWork removes staged work past its expiry.
func (s *Store) DeleteExpiredAnonymousWork(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Delete(&model.AnonymousWork{}, "expires_at < ?", time.Now())
	return result.RowsAffected, result.Error
}
