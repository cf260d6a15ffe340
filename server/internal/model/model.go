// Package model defines the database models used throughout the application.
// These models work with both PostgreSQL and SQLite via GORM.
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account that signs in with email and password.
type User struct {
	ID           string    `gorm:"primaryKey;type:text" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null;type:text" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null;type:text" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// UserSession represents an authentication session (cookie-based).
type UserSession struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	UserID    string    `gorm:"column:user_id;not null;type:text;index" json:"user_id"`
	TokenHash string    `gorm:"column:token_hash;uniqueIndex;not null;type:text" json:"token_hash"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (UserSession) TableName() string { return "user_sessions" }

func (s *UserSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// Project is a saved design: the chat that produced it and the virtual
// file system it generated.
type Project struct {
	ID        string          `gorm:"primaryKey;type:text" json:"id"`
	UserID    string          `gorm:"column:user_id;not null;type:text;index:idx_project_user_updated,priority:1" json:"user_id"`
	Name      string          `gorm:"not null;type:text" json:"name"`
	Messages  json.RawMessage `gorm:"type:text;not null" json:"messages"`
	Data      json.RawMessage `gorm:"type:text;not null" json:"data"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime;index:idx_project_user_updated,priority:2" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Project) TableName() string { return "projects" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if len(p.Messages) == 0 {
		p.Messages = json.RawMessage("[]")
	}
	if len(p.Data) == 0 {
		p.Data = json.RawMessage("{}")
	}
	return nil
}

// AnonymousWork is the staged chat and file system of a visitor who has not
// signed in yet, keyed by the anonymous id from their cookie.
type AnonymousWork struct {
	ID             string          `gorm:"primaryKey;type:text" json:"id"`
	Messages       json.RawMessage `gorm:"type:text;not null" json:"messages"`
	FileSystemData json.RawMessage `gorm:"column:file_system_data;type:text;not null" json:"fileSystemData"`
	ExpiresAt      time.Time       `gorm:"column:expires_at;not null;index" json:"expires_at"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AnonymousWork) TableName() string { return "anonymous_work" }

// AllModels returns all model types for migration.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&UserSession{},
		&Project{},
		&AnonymousWork{},
	}
}
