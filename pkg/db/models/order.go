package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendora-app/vendora-backend/pkg/enums"
)

// Order is the read model the order subsystem maintains for us. The financial
// core only reads it: fee resolution inputs and GMV aggregation.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BuyerUserID   uuid.UUID           `gorm:"column:buyer_user_id;type:uuid;not null"`
	VendorID      uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index"`
	EventID       *uuid.UUID          `gorm:"column:event_id;type:uuid"`
	CategoryID    *uuid.UUID          `gorm:"column:category_id;type:uuid"`
	SubtotalCents int64               `gorm:"column:subtotal_cents;not null"`
	TaxCents      int64               `gorm:"column:tax_cents;not null"`
	TotalCents    int64               `gorm:"column:total_cents;not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'unpaid'"`
	CreatedAt     time.Time           `gorm:"column:created_at;not null;index"`
}
