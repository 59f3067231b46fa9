package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shivshakti/boutique-backend/pkg/db/models"
	"github.com/shivshakti/boutique-backend/pkg/enums"
)

// LineItemInput is one requested order line.
type LineItemInput struct {
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
	Name      string          `json:"name" validate:"required"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	ImageURL  *string         `json:"image,omitempty"`
}

// CreateOrderInput carries a placement request. AccountID is the
// authenticated caller and takes precedence over UserID from the body.
type CreateOrderInput struct {
	AccountID   *uuid.UUID      `json:"-"`
	UserID      *uuid.UUID      `json:"user_id,omitempty"`
	Items       []LineItemInput `json:"items" validate:"required,min=1,dive"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Address     string          `json:"address" validate:"required"`
	Phone       string          `json:"phone" validate:"required"`
}

// Actor identifies the caller of a scoped read.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.RoleAdmin
}

// CustomerSummary is the account that placed an order.
type CustomerSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type LineItemDTO struct {
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  *string         `json:"image,omitempty"`
}

// OrderDTO is the API representation of a stored order.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	UserID        *uuid.UUID          `json:"user_id"`
	Customer      *CustomerSummary    `json:"user,omitempty"`
	Items         []LineItemDTO       `json:"items"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Address       string              `json:"address"`
	Phone         string              `json:"phone"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	PaymentID     *string             `json:"payment_id,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// NewOrderDTO maps a stored order, with relations loaded, to its API shape.
func NewOrderDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:            order.ID,
		UserID:        order.UserID,
		Items:         make([]LineItemDTO, 0, len(order.Items)),
		TotalAmount:   order.TotalAmount,
		Address:       order.Address,
		Phone:         order.Phone,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		PaymentID:     order.PaymentID,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
	if order.User != nil {
		dto.Customer = &CustomerSummary{
			ID:    order.User.ID,
			Name:  order.User.Name,
			Email: order.User.Email,
		}
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, LineItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return dto
}

func newOrderDTOs(orders []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderDTO(&orders[i]))
	}
	return out
}
