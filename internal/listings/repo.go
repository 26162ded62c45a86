package listings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wastetotreasure/w2t-backend/pkg/db/models"
	"github.com/wastetotreasure/w2t-backend/pkg/enums"
	"github.com/wastetotreasure/w2t-backend/pkg/pagination"
)

// BrowseFilter narrows the public catalog query.
type BrowseFilter struct {
	Category *enums.ListingCategory
}

// Repository persists listings and listing reports.
type Repository interface {
	Create(ctx context.Context, listing *models.Listing) error
	Save(ctx context.Context, listing *models.Listing) error
	FindByID(ctx context.Context, listingID uuid.UUID) (*models.Listing, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Listing, string, error)
	ListApproved(ctx context.Context, filter BrowseFilter, params pagination.Params) ([]models.Listing, string, error)
	ListByStatus(ctx context.Context, status enums.ListingStatus, params pagination.Params) ([]models.Listing, string, error)

	CreateReport(ctx context.Context, report *models.ListingReport) error
	FindReportByID(ctx context.Context, reportID uuid.UUID) (*models.ListingReport, error)
	SaveReport(ctx context.Context, report *models.ListingReport) error
	ListReportsByStatus(ctx context.Context, status enums.ReportStatus, params pagination.Params) ([]models.ListingReport, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a listings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *repository) Save(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

func (r *repository) FindByID(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", listingID).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Listing, string, error) {
	query := r.db.WithContext(ctx).Where("seller_id = ?", sellerID)
	return r.pageListings(ctx, query, params)
}

func (r *repository) ListApproved(ctx context.Context, filter BrowseFilter, params pagination.Params) ([]models.Listing, string, error) {
	query := r.db.WithContext(ctx).Where("status = ?", enums.ListingStatusApproved)
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	return r.pageListings(ctx, query, params)
}

func (r *repository) ListByStatus(ctx context.Context, status enums.ListingStatus, params pagination.Params) ([]models.Listing, string, error) {
	query := r.db.WithContext(ctx).Where("status = ?", status)
	return r.pageListings(ctx, query, params)
}

func (r *repository) pageListings(ctx context.Context, query *gorm.DB, params pagination.Params) ([]models.Listing, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query = query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Listing
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (r *repository) CreateReport(ctx context.Context, report *models.ListingReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *repository) FindReportByID(ctx context.Context, reportID uuid.UUID) (*models.ListingReport, error) {
	var report models.ListingReport
	if err := r.db.WithContext(ctx).First(&report, "id = ?", reportID).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *repository) SaveReport(ctx context.Context, report *models.ListingReport) error {
	return r.db.WithContext(ctx).Save(report).Error
}

func (r *repository) ListReportsByStatus(ctx context.Context, status enums.ReportStatus, params pagination.Params) ([]models.ListingReport, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.ListingReport
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}
