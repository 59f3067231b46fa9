package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/shivshakti/boutique-backend/pkg/db/models"
	"github.com/shivshakti/boutique-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID           uuid.UUID          `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Phone        *string            `json:"phone,omitempty"`
	IsAdmin      bool               `json:"is_admin"`
	IsVerified   bool               `json:"is_verified"`
	AuthProvider enums.AuthProvider `json:"auth_provider"`
	LastLoginAt  *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Phone        *string
	IsVerified   bool
	AuthProvider enums.AuthProvider
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		IsAdmin:      u.IsAdmin,
		IsVerified:   u.IsVerified,
		AuthProvider: u.AuthProvider,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	provider := c.AuthProvider
	if !provider.IsValid() {
		provider = enums.AuthProviderLocal
	}

	return &models.User{
		ID:           uuid.New(),
		Name:         c.Name,
		Email:        NormalizeEmail(c.Email),
		PasswordHash: c.PasswordHash,
		Phone:        c.Phone,
		IsVerified:   c.IsVerified,
		AuthProvider: provider,
	}
}
