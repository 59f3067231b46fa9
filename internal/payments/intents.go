package payments

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/shivshakti/boutique-backend/pkg/errors"
)

const receiptPrefix = "receipt_"

var hundred = decimal.NewFromInt(100)

// Intent is the gateway order handed back to the checkout page.
type Intent struct {
	ID       string     `json:"id"`
	Amount   int64      `json:"amount"`
	Currency string     `json:"currency"`
	Receipt  string     `json:"receipt"`
	Status   string     `json:"status,omitempty"`
	OrderID  *uuid.UUID `json:"order_id,omitempty"`
}

// ToMinorUnits converts a major-unit amount to paise, rounding half up.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero").
			WithDetails(map[string]string{"amount": "must be greater than zero"})
	}
	minor := amount.Mul(hundred).Round(0)
	if !minor.IsPositive() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "amount is below the smallest currency unit").
			WithDetails(map[string]string{"amount": "must be at least 0.01"})
	}
	return minor.IntPart(), nil
}

func newReceipt() string {
	return receiptPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
