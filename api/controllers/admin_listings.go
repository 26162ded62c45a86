package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wastetotreasure/w2t-backend/api/responses"
	"github.com/wastetotreasure/w2t-backend/api/validators"
	"github.com/wastetotreasure/w2t-backend/internal/listings"
	"github.com/wastetotreasure/w2t-backend/pkg/db/models"
	"github.com/wastetotreasure/w2t-backend/pkg/enums"
	pkgerrors "github.com/wastetotreasure/w2t-backend/pkg/errors"
	"github.com/wastetotreasure/w2t-backend/pkg/logger"
)

type moderateListingRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes,omitempty"`
}

type resolveReportRequest struct {
	Status     string  `json:"status" validate:"required"`
	Resolution *string `json:"resolution,omitempty"`
}

type reportPage struct {
	Reports    []models.ListingReport `json:"reports"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

// PendingListings returns the moderation queue.
func PendingListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, next, err := svc.ListPending(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listingPage{Listings: rows, NextCursor: next})
	}
}

// ModerateListing applies an admin decision to a listing.
func ModerateListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listingID, err := pathUUID(r, chi.URLParam(r, "listingID"), "listingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req moderateListingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseListingStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown listing status"))
			return
		}

		listing, err := svc.Moderate(r.Context(), adminID, listingID, listings.ModerateInput{
			Status: status,
			Notes:  req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

// ListReports returns listing reports for admin review. Defaults to open.
func ListReports(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := enums.ReportStatusOpen
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseReportStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown report status"))
				return
			}
			status = parsed
		}

		rows, next, err := svc.ListReports(r.Context(), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reportPage{Reports: rows, NextCursor: next})
	}
}

// ResolveReport closes an open listing report.
func ResolveReport(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reportID, err := pathUUID(r, chi.URLParam(r, "reportID"), "reportID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req resolveReportRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseReportStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown report status"))
			return
		}

		report, err := svc.ResolveReport(r.Context(), adminID, reportID, listings.ResolveReportInput{
			Status:     status,
			Resolution: req.Resolution,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
