package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shivshakti/boutique-backend/pkg/db/models"
	"github.com/shivshakti/boutique-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create inserts the order and its line items in one transaction. Missing
// ids are assigned here; positions follow slice order.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User", "Items").Create(order).Error; err != nil {
			return err
		}
		if len(order.Items) == 0 {
			return nil
		}
		return tx.Create(&order.Items).Error
	})
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.withRelations(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.withRelations(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.withRelations(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	return r.updateOrder(ctx, id, nil, map[string]any{
		"payment_status": status,
	})
}

// AttachIntent binds a gateway order to a still-unpaid shop order. A newer
// intent replaces an older one, so an abandoned checkout can be retried.
func (r *repository) AttachIntent(ctx context.Context, id uuid.UUID, intentID string) error {
	return r.updateOrder(ctx, id, map[string]any{
		"payment_status": enums.PaymentStatusPending,
	}, map[string]any{
		"payment_intent_id": intentID,
	})
}

// MarkPaid records a verified gateway payment. Only a pending order whose
// bound intent is intentID is updated; anything else is ErrRecordNotFound.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, intentID, paymentID string) error {
	return r.updateOrder(ctx, id, map[string]any{
		"payment_intent_id": intentID,
		"payment_status":    enums.PaymentStatusPending,
	}, map[string]any{
		"payment_status": enums.PaymentStatusPaid,
		"payment_id":     paymentID,
	})
}

// updateOrder applies updates to order id when every guard column matches.
func (r *repository) updateOrder(ctx context.Context, id uuid.UUID, guards, updates map[string]any) error {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id)
	if len(guards) > 0 {
		query = query.Where(guards)
	}
	res := query.Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}
