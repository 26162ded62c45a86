package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/wastetotreasure/w2t-backend/api/responses"
	"github.com/wastetotreasure/w2t-backend/api/validators"
	"github.com/wastetotreasure/w2t-backend/internal/listings"
	"github.com/wastetotreasure/w2t-backend/pkg/db/models"
	"github.com/wastetotreasure/w2t-backend/pkg/enums"
	pkgerrors "github.com/wastetotreasure/w2t-backend/pkg/errors"
	"github.com/wastetotreasure/w2t-backend/pkg/logger"
)

type createListingRequest struct {
	Title          string  `json:"title" validate:"required"`
	Description    *string `json:"description,omitempty"`
	Category       string  `json:"category" validate:"required"`
	UnitPriceCents int64   `json:"unit_price_cents" validate:"required,min=1"`
	WeightKG       string  `json:"weight_kg" validate:"required"`
	QuantityOnHand int     `json:"quantity_on_hand" validate:"required,min=1"`
}

type updateListingRequest struct {
	Title          *string `json:"title,omitempty"`
	Description    *string `json:"description,omitempty"`
	Category       *string `json:"category,omitempty"`
	UnitPriceCents *int64  `json:"unit_price_cents,omitempty"`
	WeightKG       *string `json:"weight_kg,omitempty"`
	QuantityOnHand *int    `json:"quantity_on_hand,omitempty"`
}

type reportListingRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type listingPage struct {
	Listings   []models.Listing `json:"listings"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// BrowseListings is the public approved-listing catalog.
func BrowseListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := listings.BrowseFilter{}
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			category, err := enums.ParseListingCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown listing category"))
				return
			}
			filter.Category = &category
		}

		rows, next, err := svc.Browse(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listingPage{Listings: rows, NextCursor: next})
	}
}

// GetListing returns a single approved listing.
func GetListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := pathUUID(r, chi.URLParam(r, "listingID"), "listingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.Get(r.Context(), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

// MyListings returns the seller's own listings.
func MyListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, next, err := svc.ListMine(r.Context(), sellerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listingPage{Listings: rows, NextCursor: next})
	}
}

// CreateListing submits a new listing into moderation.
func CreateListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createListingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := enums.ParseListingCategory(req.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown listing category"))
			return
		}
		weight, err := decimal.NewFromString(req.WeightKG)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "weight_kg must be a decimal number"))
			return
		}

		listing, err := svc.Create(r.Context(), sellerID, listings.CreateInput{
			Title:          req.Title,
			Description:    req.Description,
			Category:       category,
			UnitPriceCents: req.UnitPriceCents,
			WeightKG:       weight,
			QuantityOnHand: req.QuantityOnHand,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

// UpdateListing edits a seller's listing.
func UpdateListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listingID, err := pathUUID(r, chi.URLParam(r, "listingID"), "listingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateListingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := listings.UpdateInput{
			Title:          req.Title,
			Description:    req.Description,
			UnitPriceCents: req.UnitPriceCents,
			QuantityOnHand: req.QuantityOnHand,
		}
		if req.Category != nil {
			category, err := enums.ParseListingCategory(*req.Category)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown listing category"))
				return
			}
			input.Category = &category
		}
		if req.WeightKG != nil {
			weight, err := decimal.NewFromString(*req.WeightKG)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "weight_kg must be a decimal number"))
				return
			}
			input.WeightKG = &weight
		}

		listing, err := svc.Update(r.Context(), sellerID, listingID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

// DeleteListing removes a seller's listing from the marketplace.
func DeleteListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listingID, err := pathUUID(r, chi.URLParam(r, "listingID"), "listingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Remove(r.Context(), sellerID, listingID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// ReportListing files a complaint against an approved listing.
func ReportListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reporterID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listingID, err := pathUUID(r, chi.URLParam(r, "listingID"), "listingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req reportListingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Report(r.Context(), reporterID, listingID, listings.ReportInput{Reason: req.Reason})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, report)
	}
}
