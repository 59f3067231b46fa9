package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shivshakti/boutique-backend/api/responses"
	"github.com/shivshakti/boutique-backend/api/validators"
	"github.com/shivshakti/boutique-backend/internal/payments"
	"github.com/shivshakti/boutique-backend/pkg/logger"
)

// createPaymentOrderRequest names either a stored shop order, whose total is
// charged, or a bare amount for an intent that cannot settle any order.
type createPaymentOrderRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	OrderID *uuid.UUID      `json:"order_id,omitempty"`
}

// verifyPaymentRequest uses the field names the gateway checkout hands back.
type verifyPaymentRequest struct {
	OrderID   string     `json:"razorpay_order_id" validate:"required"`
	PaymentID string     `json:"razorpay_payment_id" validate:"required"`
	Signature string     `json:"razorpay_signature" validate:"required"`
	ShopOrder *uuid.UUID `json:"order_id,omitempty"`
}

func PaymentKey(svc payments.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"key": svc.PublicKey()})
	}
}

func PaymentCreateOrder(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createPaymentOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intent, err := svc.CreateIntent(r.Context(), payments.IntentInput{
			Amount:  body.Amount,
			OrderID: body.OrderID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, intent)
	}
}

func PaymentVerify(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VerifyPayment(r.Context(), payments.VerifyInput{
			Callback: payments.Callback{
				IntentID:  body.OrderID,
				PaymentID: body.PaymentID,
				Signature: body.Signature,
			},
			OrderID: body.ShopOrder,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
