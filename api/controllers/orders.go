package controllers

import (
	"net/http"

	"github.com/shivshakti/boutique-backend/api/middleware"
	"github.com/shivshakti/boutique-backend/api/responses"
	"github.com/shivshakti/boutique-backend/api/validators"
	"github.com/shivshakti/boutique-backend/internal/orders"
	"github.com/shivshakti/boutique-backend/pkg/enums"
	pkgerrors "github.com/shivshakti/boutique-backend/pkg/errors"
	"github.com/shivshakti/boutique-backend/pkg/logger"
)

type paymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
}

// OrderCreate places an order. Guests may order; a signed-in caller's
// account is attached regardless of the body.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body orders.CreateOrderInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if accountID, ok := middleware.UserUUIDFromContext(r.Context()); ok {
			body.AccountID = &accountID
		}

		created, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// OrdersForUser lists one account's orders for that account or an admin.
func OrdersForUser(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.UserUUIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := orders.Actor{UserID: actorID, Role: enums.Role(middleware.RoleFromContext(r.Context()))}
		list, err := svc.ListForUser(r.Context(), actor, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func OrderUpdatePaymentStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body paymentStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdatePaymentStatus(r.Context(), orderID, body.PaymentStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}
