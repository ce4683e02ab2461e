package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vendora-app/vendora-backend/pkg/enums"
)

// LedgerEntry records an immutable signed monetary fact attributable to the
// platform. Positive amounts credit the platform, negative amounts are costs.
// Rows are only ever inserted; corrections land as new adjustment entries.
type LedgerEntry struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type              enums.LedgerEntryType `gorm:"column:type;type:ledger_entry_type_enum;not null"`
	AmountCents       int64                 `gorm:"column:amount_cents;not null"`
	Currency          enums.Currency        `gorm:"column:currency;not null;default:'USD'"`
	UserID            *uuid.UUID            `gorm:"column:user_id;type:uuid;index"`
	OrderID           *uuid.UUID            `gorm:"column:order_id;type:uuid;index"`
	EventID           *uuid.UUID            `gorm:"column:event_id;type:uuid"`
	PayoutID          *uuid.UUID            `gorm:"column:payout_id;type:uuid"`
	ExternalChargeRef *string               `gorm:"column:external_charge_ref"`
	Metadata          json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedBy         uuid.UUID             `gorm:"column:created_by;type:uuid;not null"`
	OccurredAt        time.Time             `gorm:"column:occurred_at;not null;index"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
}
