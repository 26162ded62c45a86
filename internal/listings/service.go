// Package listings implements the material catalog: seller CRUD, the
// moderation queue, and the public browse surface.
package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wastetotreasure/w2t-backend/pkg/db/models"
	"github.com/wastetotreasure/w2t-backend/pkg/enums"
	pkgerrors "github.com/wastetotreasure/w2t-backend/pkg/errors"
	"github.com/wastetotreasure/w2t-backend/pkg/pagination"
)

// CreateInput is a new listing draft. Listings enter moderation as pending.
type CreateInput struct {
	Title          string
	Description    *string
	Category       enums.ListingCategory
	UnitPriceCents int64
	WeightKG       decimal.Decimal
	QuantityOnHand int
}

// UpdateInput carries the editable listing fields. Nil means unchanged.
type UpdateInput struct {
	Title          *string
	Description    *string
	Category       *enums.ListingCategory
	UnitPriceCents *int64
	WeightKG       *decimal.Decimal
	QuantityOnHand *int
}

// ModerateInput is an admin moderation decision.
type ModerateInput struct {
	Status enums.ListingStatus
	Notes  *string
}

// ReportInput is a buyer complaint against a listing.
type ReportInput struct {
	Reason string
}

// ResolveReportInput closes a report.
type ResolveReportInput struct {
	Status     enums.ReportStatus
	Resolution *string
}

// Service is the listings catalog surface.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, input CreateInput) (*models.Listing, error)
	Update(ctx context.Context, sellerID, listingID uuid.UUID, input UpdateInput) (*models.Listing, error)
	Remove(ctx context.Context, sellerID, listingID uuid.UUID) error
	ListMine(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Listing, string, error)

	Browse(ctx context.Context, filter BrowseFilter, params pagination.Params) ([]models.Listing, string, error)
	Get(ctx context.Context, listingID uuid.UUID) (*models.Listing, error)
	FindByID(ctx context.Context, listingID uuid.UUID) (*models.Listing, error)

	Moderate(ctx context.Context, adminID, listingID uuid.UUID, input ModerateInput) (*models.Listing, error)
	ListPending(ctx context.Context, params pagination.Params) ([]models.Listing, string, error)

	Report(ctx context.Context, reporterID, listingID uuid.UUID, input ReportInput) (*models.ListingReport, error)
	ListReports(ctx context.Context, status enums.ReportStatus, params pagination.Params) ([]models.ListingReport, string, error)
	ResolveReport(ctx context.Context, adminID, reportID uuid.UUID, input ResolveReportInput) (*models.ListingReport, error)
}

// ServiceParams groups dependencies for the listings service.
type ServiceParams struct {
	Repo Repository
	Now  func() time.Time
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs the listings service.
func NewService(params ServiceParams) (*service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "listings repo required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, now: now}, nil
}

// Create stores a new listing in pending status for moderation.
func (s *service) Create(ctx context.Context, sellerID uuid.UUID, input CreateInput) (*models.Listing, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown listing category")
	}
	if input.UnitPriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
	}
	if input.QuantityOnHand < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity on hand must be at least 1")
	}
	if input.WeightKG.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight cannot be negative")
	}

	listing := &models.Listing{
		SellerID:       sellerID,
		Title:          strings.TrimSpace(input.Title),
		Description:    input.Description,
		Category:       input.Category,
		UnitPriceCents: input.UnitPriceCents,
		WeightKG:       input.WeightKG,
		QuantityOnHand: input.QuantityOnHand,
		Status:         enums.ListingStatusPending,
	}
	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
	}
	return listing, nil
}

// Update edits a seller's listing. Any material change sends the listing
// back to moderation.
func (s *service) Update(ctx context.Context, sellerID, listingID uuid.UUID, input UpdateInput) (*models.Listing, error) {
	listing, err := s.ownedListing(ctx, sellerID, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status == enums.ListingStatusRemoved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "removed listings cannot be edited")
	}

	changed := false
	if input.Title != nil && strings.TrimSpace(*input.Title) != listing.Title {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
		}
		listing.Title = strings.TrimSpace(*input.Title)
		changed = true
	}
	if input.Description != nil {
		listing.Description = input.Description
		changed = true
	}
	if input.Category != nil && *input.Category != listing.Category {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown listing category")
		}
		listing.Category = *input.Category
		changed = true
	}
	if input.UnitPriceCents != nil && *input.UnitPriceCents != listing.UnitPriceCents {
		if *input.UnitPriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
		}
		listing.UnitPriceCents = *input.UnitPriceCents
		changed = true
	}
	if input.WeightKG != nil {
		if input.WeightKG.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight cannot be negative")
		}
		listing.WeightKG = *input.WeightKG
		changed = true
	}
	if input.QuantityOnHand != nil {
		if *input.QuantityOnHand < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity on hand cannot be negative")
		}
		listing.QuantityOnHand = *input.QuantityOnHand
	}

	if changed && listing.Status == enums.ListingStatusApproved {
		listing.Status = enums.ListingStatusPending
		listing.ModeratedBy = nil
		listing.ModeratedAt = nil
		listing.ModerationNotes = nil
	}

	if err := s.repo.Save(ctx, listing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing")
	}
	return listing, nil
}

// Remove takes a seller's listing off the marketplace.
func (s *service) Remove(ctx context.Context, sellerID, listingID uuid.UUID) error {
	listing, err := s.ownedListing(ctx, sellerID, listingID)
	if err != nil {
		return err
	}
	if listing.Status == enums.ListingStatusRemoved {
		return nil
	}
	listing.Status = enums.ListingStatusRemoved
	if err := s.repo.Save(ctx, listing); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove listing")
	}
	return nil
}

// ListMine returns the seller's own listings in every status.
func (s *service) ListMine(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Listing, string, error) {
	if sellerID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	rows, next, err := s.repo.ListBySeller(ctx, sellerID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller listings")
	}
	return rows, next, nil
}

// Browse returns approved listings for the public catalog.
func (s *service) Browse(ctx context.Context, filter BrowseFilter, params pagination.Params) ([]models.Listing, string, error) {
	if filter.Category != nil && !filter.Category.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "unknown listing category")
	}
	rows, next, err := s.repo.ListApproved(ctx, filter, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "browse listings")
	}
	return rows, next, nil
}

// Get loads a single approved listing for public viewing.
func (s *service) Get(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	listing, err := s.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != enums.ListingStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	return listing, nil
}

// FindByID loads a listing regardless of status.
func (s *service) FindByID(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	if listingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	return listing, nil
}

// Moderate applies an admin decision to a pending listing. Only the
// pending -> approved/rejected and approved -> removed transitions are legal.
func (s *service) Moderate(ctx context.Context, adminID, listingID uuid.UUID, input ModerateInput) (*models.Listing, error) {
	if adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin id is required")
	}
	listing, err := s.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	allowed := false
	switch listing.Status {
	case enums.ListingStatusPending:
		allowed = input.Status == enums.ListingStatusApproved || input.Status == enums.ListingStatusRejected
	case enums.ListingStatusApproved:
		allowed = input.Status == enums.ListingStatusRemoved
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "illegal moderation transition")
	}

	at := s.now()
	listing.Status = input.Status
	listing.ModerationNotes = input.Notes
	listing.ModeratedBy = &adminID
	listing.ModeratedAt = &at

	if err := s.repo.Save(ctx, listing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "moderate listing")
	}
	return listing, nil
}

// ListPending returns the moderation queue.
func (s *service) ListPending(ctx context.Context, params pagination.Params) ([]models.Listing, string, error) {
	rows, next, err := s.repo.ListByStatus(ctx, enums.ListingStatusPending, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending listings")
	}
	return rows, next, nil
}

// Report records a buyer complaint against an approved listing.
func (s *service) Report(ctx context.Context, reporterID, listingID uuid.UUID, input ReportInput) (*models.ListingReport, error) {
	if reporterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reporter id is required")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	listing, err := s.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}

	report := &models.ListingReport{
		ListingID:  listing.ID,
		ReporterID: reporterID,
		Reason:     strings.TrimSpace(input.Reason),
		Status:     enums.ReportStatusOpen,
	}
	if err := s.repo.CreateReport(ctx, report); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create report")
	}
	return report, nil
}

// ListReports returns reports in the given status for admin review.
func (s *service) ListReports(ctx context.Context, status enums.ReportStatus, params pagination.Params) ([]models.ListingReport, string, error) {
	if !status.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "unknown report status")
	}
	rows, next, err := s.repo.ListReportsByStatus(ctx, status, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reports")
	}
	return rows, next, nil
}

// ResolveReport closes an open report as resolved or dismissed.
func (s *service) ResolveReport(ctx context.Context, adminID, reportID uuid.UUID, input ResolveReportInput) (*models.ListingReport, error) {
	if adminID == uuid.Nil || reportID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin id and report id are required")
	}
	if input.Status != enums.ReportStatusResolved && input.Status != enums.ReportStatusDismissed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reports close as resolved or dismissed")
	}

	report, err := s.repo.FindReportByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load report")
	}
	if report.Status != enums.ReportStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "report is already closed")
	}

	at := s.now()
	report.Status = input.Status
	report.Resolution = input.Resolution
	report.ResolvedBy = &adminID
	report.ResolvedAt = &at

	if err := s.repo.SaveReport(ctx, report); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve report")
	}
	return report, nil
}

func (s *service) ownedListing(ctx context.Context, sellerID, listingID uuid.UUID) (*models.Listing, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	listing, err := s.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	return listing, nil
}
