package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shivshakti/boutique-backend/pkg/db/models"
	"github.com/shivshakti/boutique-backend/pkg/enums"
	pkgerrors "github.com/shivshakti/boutique-backend/pkg/errors"
	"github.com/shivshakti/boutique-backend/pkg/logger"
)

// Service defines order placement and administration.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	ListForUser(ctx context.Context, actor Actor, userID uuid.UUID) ([]OrderDTO, error)
	ListAll(ctx context.Context) ([]OrderDTO, error)
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status string) (*OrderDTO, error)
	PayableAmount(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
	AttachIntent(ctx context.Context, orderID uuid.UUID, intentID string) error
	MarkPaid(ctx context.Context, orderID uuid.UUID, intentID, paymentID string) error
}

type ServiceParams struct {
	Repo         Repository
	Dispatcher   AlertDispatcher
	EnforceTotal bool
	Logger       *logger.Logger
}

type service struct {
	repo         Repository
	dispatcher   AlertDispatcher
	enforceTotal bool
	logg         *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("alert dispatcher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:         params.Repo,
		dispatcher:   params.Dispatcher,
		enforceTotal: params.EnforceTotal,
		logg:         params.Logger,
	}, nil
}

// Create validates and stores the order, then hands the committed order to
// the alert dispatcher. Delivery never affects the result.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	order, err := s.buildOrder(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	stored, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	ctx = s.logg.WithOrderID(ctx, stored.ID.String())
	s.logg.Info(ctx, "order.created")
	s.dispatcher.Dispatch(ctx, stored)

	dto := NewOrderDTO(stored)
	return &dto, nil
}

func (s *service) buildOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	fieldErrs := map[string]string{}

	address := strings.TrimSpace(input.Address)
	if address == "" {
		fieldErrs["address"] = "is required"
	}
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		fieldErrs["phone"] = "is required"
	}
	if len(input.Items) == 0 {
		fieldErrs["items"] = "at least one item is required"
	}
	if input.TotalAmount.IsNegative() {
		fieldErrs["total_amount"] = "must be non-negative"
	}

	items := make([]models.OrderLineItem, 0, len(input.Items))
	sum := decimal.Zero
	for i, item := range input.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			fieldErrs[fmt.Sprintf("items[%d].name", i)] = "is required"
		}
		if item.Quantity < 1 {
			fieldErrs[fmt.Sprintf("items[%d].quantity", i)] = "must be at least 1"
		}
		if item.UnitPrice.IsNegative() {
			fieldErrs[fmt.Sprintf("items[%d].price", i)] = "must be non-negative"
		}
		line := models.OrderLineItem{
			ProductID: item.ProductID,
			Name:      name,
			UnitPrice: item.UnitPrice.Round(2),
			Quantity:  item.Quantity,
			ImageURL:  trimOptional(item.ImageURL),
		}
		sum = sum.Add(line.LineTotal())
		items = append(items, line)
	}

	if len(fieldErrs) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order").WithDetails(fieldErrs)
	}

	total := input.TotalAmount.Round(2)
	if s.enforceTotal && !total.Equal(sum) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount does not match line items").
			WithDetails(map[string]string{
				"total_amount":   total.StringFixed(2),
				"expected_total": sum.StringFixed(2),
			})
	}

	userID, err := s.resolveAccount(ctx, input)
	if err != nil {
		return nil, err
	}

	return &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Items:         items,
		TotalAmount:   total,
		Address:       address,
		Phone:         phone,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
	}, nil
}

func (s *service) resolveAccount(ctx context.Context, input CreateOrderInput) (*uuid.UUID, error) {
	if input.AccountID != nil {
		id := *input.AccountID
		return &id, nil
	}
	if input.UserID == nil || *input.UserID == uuid.Nil {
		return nil, nil
	}
	exists, err := s.repo.UserExists(ctx, *input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown user").
			WithDetails(map[string]string{"user_id": "does not exist"})
	}
	id := *input.UserID
	return &id, nil
}

func (s *service) ListForUser(ctx context.Context, actor Actor, userID uuid.UUID) ([]OrderDTO, error) {
	if actor.UserID != userID && !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot view another account's orders")
	}
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user orders")
	}
	return newOrderDTOs(orders), nil
}

func (s *service) ListAll(ctx context.Context) ([]OrderDTO, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newOrderDTOs(orders), nil
}

func (s *service) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status string) (*OrderDTO, error) {
	parsed, err := enums.ParsePaymentStatus(status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status").
			WithDetails(map[string]string{"payment_status": "must be one of pending, paid, failed, refunded"})
	}

	if err := s.repo.UpdatePaymentStatus(ctx, orderID, parsed); err != nil {
		return nil, mapOrderError(err, "update payment status")
	}

	stored, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapOrderError(err, "load order")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":       orderID.String(),
		"payment_status": parsed.String(),
	}), "order.payment_status.updated")

	dto := NewOrderDTO(stored)
	return &dto, nil
}

// PayableAmount is the stored total of an order that still awaits payment.
// Checkout charges this amount, never one supplied by the client.
func (s *service) PayableAmount(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return decimal.Zero, mapOrderError(err, "load order")
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return decimal.Zero, alreadySettled(order)
	}
	return order.TotalAmount, nil
}

func (s *service) AttachIntent(ctx context.Context, orderID uuid.UUID, intentID string) error {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	if err := s.repo.AttachIntent(ctx, orderID, intentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.rejectedPayment(ctx, orderID, "")
		}
		return mapOrderError(err, "attach payment intent")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":  orderID.String(),
		"intent_id": intentID,
	}), "order.payment_intent.attached")
	return nil
}

// MarkPaid records a verified gateway payment. It is the write-back used by
// payment verification and only succeeds for the intent bound to the order.
func (s *service) MarkPaid(ctx context.Context, orderID uuid.UUID, intentID, paymentID string) error {
	intentID = strings.TrimSpace(intentID)
	paymentID = strings.TrimSpace(paymentID)
	if intentID == "" || paymentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id and payment id are required")
	}
	if err := s.repo.MarkPaid(ctx, orderID, intentID, paymentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.rejectedPayment(ctx, orderID, intentID)
		}
		return mapOrderError(err, "mark order paid")
	}
	return nil
}

// rejectedPayment explains why a guarded payment update matched no row.
func (s *service) rejectedPayment(ctx context.Context, orderID uuid.UUID, intentID string) error {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return mapOrderError(err, "load order")
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		return alreadySettled(order)
	}
	if intentID != "" && (order.PaymentIntentID == nil || *order.PaymentIntentID != intentID) {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"order_id":  orderID.String(),
			"intent_id": intentID,
		}), "order.payment.intent_mismatch")
		return pkgerrors.New(pkgerrors.CodeVerification, "payment was not made for this order")
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "order payment changed concurrently")
}

func alreadySettled(order *models.Order) error {
	return pkgerrors.Newf(pkgerrors.CodeConflict, "order payment is already %s", order.PaymentStatus).
		WithDetails(map[string]string{"payment_status": order.PaymentStatus.String()})
}

func mapOrderError(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
