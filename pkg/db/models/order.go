package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/wastetotreasure/w2t-backend/pkg/enums"
)

// Order is a completed checkout submission.
type Order struct {
	ID                uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID           uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index"`
	ShippingAddressID uuid.UUID         `gorm:"column:shipping_address_id;type:uuid;not null"`
	ShippingMethodID  string            `gorm:"column:shipping_method_id;not null"`
	ShippingName      string            `gorm:"column:shipping_name;not null"`
	ShippingCostCents int64             `gorm:"column:shipping_cost_cents;not null"`
	SubtotalCents     int64             `gorm:"column:subtotal_cents;not null"`
	TotalCents        int64             `gorm:"column:total_cents;not null"`
	PaymentID         string            `gorm:"column:payment_id;not null"`
	PaymentMethodID   string            `gorm:"column:payment_method_id;not null"`
	Status            enums.OrderStatus `gorm:"column:status;type:text;not null;default:'paid'"`
	Items             []OrderLineItem   `gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
