package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/shivshakti/boutique-backend/pkg/errors"
	"github.com/shivshakti/boutique-backend/pkg/logger"
	"github.com/shivshakti/boutique-backend/pkg/metrics"
	"github.com/shivshakti/boutique-backend/pkg/razorpay"
)

const (
	gatewayOpCreateOrder = "create_order"
	noteShopOrderID      = "shop_order_id"
)

// Gateway creates orders on the payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (*razorpay.Order, error)
}

// OrderPayments is the order book as seen by checkout. An intent created for
// an order is attached to it, and only that intent can later mark it paid.
type OrderPayments interface {
	PayableAmount(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
	AttachIntent(ctx context.Context, orderID uuid.UUID, intentID string) error
	MarkPaid(ctx context.Context, orderID uuid.UUID, intentID, paymentID string) error
}

type replayGuard interface {
	CheckAndMark(ctx context.Context, paymentID string) (bool, error)
	Release(ctx context.Context, paymentID string) error
}

// Service exposes payment intent creation and callback verification.
type Service interface {
	PublicKey() string
	CreateIntent(ctx context.Context, input IntentInput) (*Intent, error)
	VerifyPayment(ctx context.Context, input VerifyInput) (*VerifyResult, error)
}

// IntentInput asks for a gateway order. With OrderID set the amount comes
// from the stored order and Amount, when non-zero, must agree with it.
type IntentInput struct {
	Amount  decimal.Decimal
	OrderID *uuid.UUID
}

// VerifyInput is a gateway callback plus the optional shop order it pays for.
type VerifyInput struct {
	Callback Callback
	OrderID  *uuid.UUID
}

// VerifyResult reports the outcome of a verified callback.
type VerifyResult struct {
	Verified  bool       `json:"verified"`
	PaymentID string     `json:"payment_id"`
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
	Recorded  bool       `json:"recorded"`
}

// ServiceParams groups the payment service dependencies.
type ServiceParams struct {
	Gateway  Gateway
	Verifier *Verifier
	Orders   OrderPayments
	Replay   replayGuard
	KeyID    string
	Currency string
	Timeout  time.Duration
	Metrics  *metrics.PaymentMetrics
	Logger   *logger.Logger
}

type service struct {
	gateway  Gateway
	verifier *Verifier
	orders   OrderPayments
	replay   replayGuard
	keyID    string
	currency string
	timeout  time.Duration
	metrics  *metrics.PaymentMetrics
	logg     *logger.Logger
}

// NewService builds the payment service. Gateway, verifier and key id are
// mandatory so the payment endpoints fail closed.
func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Verifier == nil {
		return nil, fmt.Errorf("payment verifier required")
	}
	if params.KeyID == "" {
		return nil, fmt.Errorf("payment key id required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order payments required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	currency := params.Currency
	if currency == "" {
		currency = "INR"
	}
	return &service{
		gateway:  params.Gateway,
		verifier: params.Verifier,
		orders:   params.Orders,
		replay:   params.Replay,
		keyID:    params.KeyID,
		currency: currency,
		timeout:  params.Timeout,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

func (s *service) PublicKey() string {
	return s.keyID
}

func (s *service) CreateIntent(ctx context.Context, input IntentInput) (*Intent, error) {
	amount := input.Amount
	var notes map[string]string
	if input.OrderID != nil {
		payable, err := s.orders.PayableAmount(ctx, *input.OrderID)
		if err != nil {
			return nil, err
		}
		if !input.Amount.IsZero() && !input.Amount.Equal(payable) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount does not match the order total").
				WithDetails(map[string]string{"amount": "must equal " + payable.StringFixed(2)})
		}
		amount = payable
		notes = map[string]string{noteShopOrderID: input.OrderID.String()}
	}

	minor, err := ToMinorUnits(amount)
	if err != nil {
		return nil, err
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	order, err := s.gateway.CreateOrder(callCtx, razorpay.OrderRequest{
		AmountMinor: minor,
		Currency:    s.currency,
		Receipt:     newReceipt(),
		Notes:       notes,
	})
	s.metrics.ObserveGatewayCall(gatewayOpCreateOrder, time.Since(started), err)
	if err != nil {
		s.logg.Error(ctx, "payment.intent.failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway rejected the order").
			WithDetails(map[string]string{"gateway": err.Error()})
	}

	amountMinor := order.AmountMinor
	if amountMinor == 0 {
		amountMinor = minor
	}
	currency := order.Currency
	if currency == "" {
		currency = s.currency
	}

	if input.OrderID != nil {
		if err := s.orders.AttachIntent(ctx, *input.OrderID, order.ID); err != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, input.OrderID.String()), "payment.intent.attach_failed", err)
			return nil, err
		}
	}

	return &Intent{
		ID:       order.ID,
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  order.Receipt,
		Status:   order.Status,
		OrderID:  input.OrderID,
	}, nil
}

func (s *service) VerifyPayment(ctx context.Context, input VerifyInput) (*VerifyResult, error) {
	verified := s.verifier.Verify(input.Callback)
	s.metrics.IncVerification(verified)
	if !verified {
		s.logg.Warn(s.logg.WithField(ctx, "intent_id", input.Callback.IntentID), "payment.verify.rejected")
		return nil, pkgerrors.New(pkgerrors.CodeVerification, "invalid payment signature")
	}

	result := &VerifyResult{
		Verified:  true,
		PaymentID: input.Callback.PaymentID,
		OrderID:   input.OrderID,
	}
	if input.OrderID == nil {
		return result, nil
	}

	if s.replay != nil {
		seen, err := s.replay.CheckAndMark(ctx, input.Callback.PaymentID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check payment replay")
		}
		if seen {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment already applied")
		}
	}

	if err := s.orders.MarkPaid(ctx, *input.OrderID, input.Callback.IntentID, input.Callback.PaymentID); err != nil {
		if s.replay != nil {
			if relErr := s.replay.Release(ctx, input.Callback.PaymentID); relErr != nil {
				s.logg.Error(ctx, "payment.replay.release_failed", relErr)
			}
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record payment")
	}

	result.Recorded = true
	s.logg.Info(s.logg.WithOrderID(ctx, input.OrderID.String()), "payment.verify.recorded")
	return result, nil
}
