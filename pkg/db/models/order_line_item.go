package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLineItem snapshots one product line at the time the order was placed.
type OrderLineItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	Position  int             `gorm:"column:position;not null;default:0"`
	ProductID *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	Name      string          `gorm:"column:name;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	ImageURL  *string         `gorm:"column:image_url"`
}

// LineTotal returns unit price times quantity.
func (li OrderLineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}
