package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/shivshakti/boutique-backend/pkg/db/models"
	"github.com/shivshakti/boutique-backend/pkg/enums"
)

// Repository defines persistence operations for the orders tables.
type Repository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
	AttachIntent(ctx context.Context, id uuid.UUID, intentID string) error
	MarkPaid(ctx context.Context, id uuid.UUID, intentID, paymentID string) error
}

// AlertDispatcher hands a committed order to the notification pipeline.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, order *models.Order)
}
