package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shivshakti/boutique-backend/pkg/config"
	"github.com/shivshakti/boutique-backend/pkg/db/models"
	pkgerrors "github.com/shivshakti/boutique-backend/pkg/errors"
	"github.com/shivshakti/boutique-backend/pkg/security"
)

const minPasswordLength = 8

// UpdateProfileInput holds optional profile changes. Nil or blank fields are left untouched.
type UpdateProfileInput struct {
	Phone    *string `json:"phone,omitempty"`
	Password *string `json:"password,omitempty"`
}

// Service covers self-service account updates.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
}

type profileStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, phone *string, passwordHash *string) error
}

type service struct {
	store       profileStore
	passwordCfg config.PasswordConfig
}

func NewService(store profileStore, passwordCfg config.PasswordConfig) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("user store required")
	}
	return &service{store: store, passwordCfg: passwordCfg}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, mapUserError(err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	phone := trimmed(input.Phone)
	password := trimmed(input.Password)
	if phone == nil && password == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update").
			WithDetails(map[string]string{"phone": "or password is required"})
	}

	var hash *string
	if password != nil {
		if err := ValidatePassword(*input.Password); err != nil {
			return nil, err
		}
		encoded, err := security.HashPassword(*input.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		hash = &encoded
	}

	if err := s.store.UpdateProfile(ctx, id, phone, hash); err != nil {
		return nil, mapUserError(err, "update profile")
	}
	return s.Get(ctx, id)
}

// ValidatePassword enforces the minimum password policy.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "password too short").
			WithDetails(map[string]string{"password": fmt.Sprintf("must be at least %d characters", minPasswordLength)})
	}
	return nil
}

func mapUserError(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
