package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/wastetotreasure/w2t-backend/api/responses"
	"github.com/wastetotreasure/w2t-backend/api/validators"
	"github.com/wastetotreasure/w2t-backend/internal/checkout"
	"github.com/wastetotreasure/w2t-backend/internal/payments"
	"github.com/wastetotreasure/w2t-backend/internal/shipping"
	"github.com/wastetotreasure/w2t-backend/pkg/logger"
)

type selectAddressRequest struct {
	AddressID        uuid.UUID `json:"address_id" validate:"required"`
	ShippingMethodID string    `json:"shipping_method_id" validate:"required"`
}

// ShippingMethods lists the fixed shipping catalog.
func ShippingMethods(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"methods": shipping.Methods()})
	}
}

// CheckoutAddress confirms the address step: shipping address plus method.
func CheckoutAddress(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req selectAddressRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.SelectAddress(r.Context(), buyerID, checkout.SelectAddressInput{
			AddressID:        req.AddressID,
			ShippingMethodID: req.ShippingMethodID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// CheckoutPayment enters the payment step: the saved-method list reconciled
// against the gateway.
func CheckoutPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Reconcile(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CheckoutConfirmation gates the confirmation step on the session's
// preconditions.
func CheckoutConfirmation(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Gate(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CheckoutConfirm submits the order.
func CheckoutConfirm(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		result, err := svc.Submit(r.Context(), buyerID, idempotencyKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Order == nil {
			// Failure or redirect; nothing was charged or the charge failed.
			status = http.StatusUnprocessableEntity
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}
