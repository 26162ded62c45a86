package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/wastetotreasure/w2t-backend/pkg/enums"
)

// ListingReport records a buyer complaint against a listing.
type ListingReport struct {
	ID         uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID  uuid.UUID          `gorm:"column:listing_id;type:uuid;not null;index"`
	ReporterID uuid.UUID          `gorm:"column:reporter_id;type:uuid;not null;index"`
	Reason     string             `gorm:"column:reason;not null"`
	Status     enums.ReportStatus `gorm:"column:status;type:text;not null;default:'open';index"`
	Resolution *string            `gorm:"column:resolution"`
	ResolvedBy *uuid.UUID         `gorm:"column:resolved_by;type:uuid"`
	ResolvedAt *time.Time         `gorm:"column:resolved_at"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
