package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shivshakti/boutique-backend/pkg/db/models"
	"github.com/shivshakti/boutique-backend/pkg/logger"
)

type adminSetter interface {
	SetAdmin(ctx context.Context, id uuid.UUID) error
}

// AdminPolicy promotes the account whose email matches the configured admin
// address. It never demotes and is a no-op for accounts that are already admin.
type AdminPolicy struct {
	adminEmail string
	store      adminSetter
	logg       *logger.Logger
}

func NewAdminPolicy(adminEmail string, store adminSetter, logg *logger.Logger) (*AdminPolicy, error) {
	if store == nil {
		return nil, fmt.Errorf("user store required")
	}
	return &AdminPolicy{
		adminEmail: NormalizeEmail(adminEmail),
		store:      store,
		logg:       logg,
	}, nil
}

// Apply reports whether the account was promoted by this call.
func (p *AdminPolicy) Apply(ctx context.Context, user *models.User) (bool, error) {
	if p == nil || user == nil || p.adminEmail == "" || user.IsAdmin {
		return false, nil
	}
	if NormalizeEmail(user.Email) != p.adminEmail {
		return false, nil
	}
	if err := p.store.SetAdmin(ctx, user.ID); err != nil {
		return false, err
	}
	user.IsAdmin = true
	if p.logg != nil {
		p.logg.Info(p.logg.WithUserID(ctx, user.ID.String()), "user.promoted_admin")
	}
	return true, nil
}
