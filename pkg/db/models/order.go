package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shivshakti/boutique-backend/pkg/enums"
)

// Order is a placed shop order. Only the payment fields change after
// creation. PaymentIntentID is the gateway order the checkout was opened
// with; a callback for any other intent cannot pay this order.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID          *uuid.UUID          `gorm:"column:user_id;type:uuid"`
	User            *User               `gorm:"foreignKey:UserID"`
	Items           []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Address         string              `gorm:"column:address;not null"`
	Phone           string              `gorm:"column:phone;not null"`
	Status          enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentIntentID *string             `gorm:"column:payment_intent_id"`
	PaymentID       *string             `gorm:"column:payment_id"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
