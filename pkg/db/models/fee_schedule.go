package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendora-app/vendora-backend/pkg/enums"
)

// FeeSchedule is one version of the platform fee configuration for a scope.
// Versions are appended, never edited; a correction is a new version with a
// later active_from.
type FeeSchedule struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string         `gorm:"column:name;not null"`
	Scope         enums.FeeScope `gorm:"column:scope;type:fee_scope_enum;not null;index:idx_fee_schedules_scope_ref"`
	ScopeRef      *string        `gorm:"column:scope_ref;index:idx_fee_schedules_scope_ref"`
	TakeRateBps   *int           `gorm:"column:take_rate_bps"`
	FeeFloorCents *int64         `gorm:"column:fee_floor_cents"`
	FeeCapCents   *int64         `gorm:"column:fee_cap_cents"`
	ActiveFrom    time.Time      `gorm:"column:active_from;not null"`
	ActiveTo      *time.Time     `gorm:"column:active_to"`
	Version       int            `gorm:"column:version;not null"`
	CreatedBy     uuid.UUID      `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
}
