package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shivshakti/boutique-backend/pkg/enums"
)

// User represents a shop account. Guest orders have no user.
type User struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name         string             `gorm:"column:name;not null"`
	Email        string             `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string             `gorm:"column:password_hash;not null"`
	Phone        *string            `gorm:"column:phone"`
	IsAdmin      bool               `gorm:"column:is_admin;not null;default:false"`
	IsVerified   bool               `gorm:"column:is_verified;not null;default:false"`
	AuthProvider enums.AuthProvider `gorm:"column:auth_provider;type:text;not null;default:'local'"`
	LastLoginAt  *time.Time         `gorm:"column:last_login_at"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
