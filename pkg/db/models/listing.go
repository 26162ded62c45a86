package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wastetotreasure/w2t-backend/pkg/enums"
)

// Listing is a seller's offer of recyclable material.
type Listing struct {
	ID              uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID        uuid.UUID             `gorm:"column:seller_id;type:uuid;not null;index"`
	Title           string                `gorm:"column:title;not null"`
	Description     *string               `gorm:"column:description"`
	Category        enums.ListingCategory `gorm:"column:category;type:text;not null"`
	UnitPriceCents  int64                 `gorm:"column:unit_price_cents;not null"`
	WeightKG        decimal.Decimal       `gorm:"column:weight_kg;type:numeric(10,3);not null"`
	QuantityOnHand  int                   `gorm:"column:quantity_on_hand;not null;default:1"`
	Status          enums.ListingStatus   `gorm:"column:status;type:text;not null;default:'pending';index"`
	ModerationNotes *string               `gorm:"column:moderation_notes"`
	ModeratedBy     *uuid.UUID            `gorm:"column:moderated_by;type:uuid"`
	ModeratedAt     *time.Time            `gorm:"column:moderated_at"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
