package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles accepted by the work-order API.
const (
	RoleAdmin      = "admin"
	RoleTechnician = "technician"
	RoleViewer     = "viewer"
)

// User is an account of the work-order API, stored in the `users` table.
// PasswordHash holds a bcrypt hash and is never serialized.
//
// Fields:
//
//	ID           – UUID primary key.
//	Username     – unique login name (3-50 chars).
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	Role         – admin, technician or viewer.
//	IsActive     – inactive users cannot log in.
//	LastLoginAt  – timestamp of the last successful login.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	Username     string     `json:"username" gorm:"size:50;not null;uniqueIndex"`
	Email        string     `json:"email" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Role         string     `json:"role" gorm:"size:20;not null;default:viewer"`
	IsActive     bool       `json:"isActive" gorm:"not null;default:true;index"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// BeforeCreate assigns a random UUID when the caller did not set one.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored, only its SHA-256 hex digest.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – owner of the token.
//	TokenHash – SHA-256 hex digest of the token value.
//	ExpiresAt – expiration timestamp of the token.
//	RevokedAt – when the token was revoked (nil while active).
//	CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"size:36;not null;index"`
	TokenHash string    `gorm:"size:64;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null"`
	RevokedAt *time.Time
	CreatedAt time.Time
}
