package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendora-app/vendora-backend/pkg/enums"
)

// PlatformPromo is a platform-level promotional discount. Exactly one of
// PercentOffBps and AmountOffCents is set. CurrentUses only ever increases and
// is advanced with a guarded update so redemptions cannot race past
// MaxRedemptions.
type PlatformPromo struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string               `gorm:"column:code;not null;unique"`
	AppliesTo      enums.PromoAppliesTo `gorm:"column:applies_to;type:promo_applies_to_enum;not null"`
	PercentOffBps  *int                 `gorm:"column:percent_off_bps"`
	AmountOffCents *int64               `gorm:"column:amount_off_cents"`
	StartsAt       time.Time            `gorm:"column:starts_at;not null"`
	EndsAt         *time.Time           `gorm:"column:ends_at"`
	AudienceTag    *string              `gorm:"column:audience_tag"`
	MaxRedemptions *int                 `gorm:"column:max_redemptions"`
	CurrentUses    int                  `gorm:"column:current_uses;not null;default:0"`
	CreatedBy      uuid.UUID            `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
