package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wastetotreasure/w2t-backend/api/responses"
	"github.com/wastetotreasure/w2t-backend/api/validators"
	"github.com/wastetotreasure/w2t-backend/internal/address"
	"github.com/wastetotreasure/w2t-backend/internal/checkoutsession"
	"github.com/wastetotreasure/w2t-backend/pkg/db/models"
	"github.com/wastetotreasure/w2t-backend/pkg/logger"
)

type createAddressRequest struct {
	Label      *string `json:"label,omitempty"`
	Street     string  `json:"street" validate:"required"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state" validate:"required"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Country    string  `json:"country,omitempty"`
	IsDefault  bool    `json:"is_default"`
}

type addressListResponse struct {
	Addresses  []models.Address `json:"addresses"`
	SelectedID *uuid.UUID       `json:"selected_id,omitempty"`
}

// ListAddresses returns the buyer's address book plus the id the address
// step should pre-select.
func ListAddresses(svc address.Service, sessions checkoutsession.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), buyerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var session *checkoutsession.Session
		if sessions != nil {
			session, err = sessions.Get(r.Context(), buyerID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		resp := addressListResponse{Addresses: rows}
		if selected := svc.ChooseSelected(rows, session); selected != nil {
			resp.SelectedID = &selected.ID
		}
		responses.WriteSuccess(w, resp)
	}
}

// CreateAddress adds an entry to the buyer's address book.
func CreateAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createAddressRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), buyerID, address.CreateInput{
			Label:      req.Label,
			Street:     req.Street,
			City:       req.City,
			State:      req.State,
			PostalCode: req.PostalCode,
			Country:    req.Country,
			IsDefault:  req.IsDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// DeleteAddress removes an entry from the buyer's address book.
func DeleteAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addressID, err := pathUUID(r, chi.URLParam(r, "addressID"), "addressID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), buyerID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
