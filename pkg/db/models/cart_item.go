package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem persists listing-level snapshots keyed by buyer. Price and title
// are captured at add time so the cart survives listing edits.
type CartItem struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:idx_cart_user_listing,unique"`
	ListingID      uuid.UUID `gorm:"column:listing_id;type:uuid;not null;index:idx_cart_user_listing,unique"`
	Title          string    `gorm:"column:title;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Quantity       int       `gorm:"column:quantity;not null;default:1"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// SubtotalCents is the line subtotal for the snapshot quantity.
func (c CartItem) SubtotalCents() int64 {
	return c.UnitPriceCents * int64(c.Quantity)
}
