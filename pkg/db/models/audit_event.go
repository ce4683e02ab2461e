package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vendora-app/vendora-backend/pkg/enums"
)

// AuditEvent is one link in the tamper-evident audit chain. SelfHash covers
// every field except itself (PrevHash included), so altering any stored field
// breaks verification. Seq provides the stable tie-break for chain order when
// two events share an occurred_at timestamp.
type AuditEvent struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Seq        int64                `gorm:"column:seq;autoIncrement;uniqueIndex"`
	OccurredAt time.Time            `gorm:"column:occurred_at;not null;index"`
	ActorID    uuid.UUID            `gorm:"column:actor_id;type:uuid;not null"`
	ActorType  enums.AuditActorType `gorm:"column:actor_type;type:audit_actor_type_enum;not null"`
	RequestID  *string              `gorm:"column:request_id"`
	Scope      string               `gorm:"column:scope;not null"`
	Action     string               `gorm:"column:action;not null"`
	TargetType string               `gorm:"column:target_type;not null"`
	TargetID   string               `gorm:"column:target_id;not null"`
	Reason     *string              `gorm:"column:reason"`
	Severity   enums.AuditSeverity  `gorm:"column:severity;type:audit_severity_enum;not null;default:'info'"`
	DiffBefore json.RawMessage      `gorm:"column:diff_before;type:jsonb"`
	DiffAfter  json.RawMessage      `gorm:"column:diff_after;type:jsonb"`
	Metadata   json.RawMessage      `gorm:"column:metadata;type:jsonb"`
	Tags       pq.StringArray       `gorm:"column:tags;type:text[]"`
	PrevHash   string               `gorm:"column:prev_hash;not null"`
	SelfHash   string               `gorm:"column:self_hash;not null;unique"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
}
