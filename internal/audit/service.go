package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-app/vendora-backend/pkg/db/models"
	"github.com/vendora-app/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-app/vendora-backend/pkg/errors"
)

// Service appends to and reads the tamper-evident audit chain. Repair is
// deliberately absent: a broken chain is evidence, not a bug to paper over.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.AuditEvent, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*models.AuditEvent, error)
	Query(ctx context.Context, query ListQuery) ([]models.AuditEvent, int64, error)
	VerifyChain(ctx context.Context) (*VerificationResult, error)
}

// RecordInput describes an action to audit. The event time is assigned by the
// service at append, never by the caller: a backdated occurred_at would break
// the match between chain order and event-time order.
type RecordInput struct {
	ActorID    uuid.UUID
	ActorType  enums.AuditActorType
	RequestID  *string
	Scope      string
	Action     string
	TargetType string
	TargetID   string
	Reason     *string
	Severity   enums.AuditSeverity
	DiffBefore json.RawMessage
	DiffAfter  json.RawMessage
	Metadata   json.RawMessage
	Tags       []string
}

// VerificationResult reports a full chain walk. Verification stops at the
// first break; CheckedCount tells how far it got.
type VerificationResult struct {
	IsValid      bool       `json:"is_valid"`
	CheckedCount int64      `json:"checked_count"`
	TotalCount   int64      `json:"total_count"`
	FirstBreakID *uuid.UUID `json:"first_break_id,omitempty"`
	BreakReason  string     `json:"break_reason,omitempty"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the audit service.
type ServiceParams struct {
	Repo Repository
	DB   txRunner
	Now  func() time.Time
}

type service struct {
	repo Repository
	db   txRunner
	now  func() time.Time
}

// NewService wires an audit service with the provided repository and
// transaction runner.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "audit repository required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, db: params.DB, now: now}, nil
}

// Record appends one event to the chain. The head is locked inside the
// transaction, so two concurrent appends serialize and each links to a
// distinct predecessor.
func (s *service) Record(ctx context.Context, input RecordInput) (*models.AuditEvent, error) {
	if err := validateRecord(input); err != nil {
		return nil, err
	}

	severity := input.Severity
	if severity == "" {
		severity = enums.AuditSeverityInfo
	}

	event := &models.AuditEvent{
		ID:         uuid.New(),
		ActorID:    input.ActorID,
		ActorType:  input.ActorType,
		RequestID:  input.RequestID,
		Scope:      input.Scope,
		Action:     input.Action,
		TargetType: input.TargetType,
		TargetID:   input.TargetID,
		Reason:     input.Reason,
		Severity:   severity,
		DiffBefore: input.DiffBefore,
		DiffAfter:  input.DiffAfter,
		Metadata:   input.Metadata,
		Tags:       input.Tags,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		head, err := repo.HeadForUpdate(ctx)
		if err != nil {
			return err
		}
		if head == nil {
			event.PrevHash = genesisHash
		} else {
			event.PrevHash = head.SelfHash
		}

		// Microsecond precision: timestamptz drops anything finer, and a
		// stored value that does not round-trip re-hashes to a different
		// value. Clamping to the head keeps occurred_at non-decreasing, so
		// event-time order and insertion order are the same order.
		occurredAt := s.now().UTC().Truncate(time.Microsecond)
		if head != nil && occurredAt.Before(head.OccurredAt) {
			occurredAt = head.OccurredAt
		}
		event.OccurredAt = occurredAt

		selfHash, err := computeHash(event)
		if err != nil {
			return err
		}
		event.SelfHash = selfHash

		return repo.Create(ctx, event)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording audit event")
	}
	return event, nil
}

func (s *service) GetEvent(ctx context.Context, id uuid.UUID) (*models.AuditEvent, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading audit event")
	}
	if event == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "audit event not found")
	}
	return event, nil
}

func (s *service) Query(ctx context.Context, query ListQuery) ([]models.AuditEvent, int64, error) {
	events, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "querying audit events")
	}
	return events, total, nil
}

// VerifyChain walks the full chain in seq order, checking both the hash
// linkage and each event's recomputed self hash. It never writes.
func (s *service) VerifyChain(ctx context.Context) (*VerificationResult, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting audit events")
	}

	result := &VerificationResult{IsValid: true, TotalCount: total}
	expectedPrev := genesisHash
	afterSeq := int64(0)

	for {
		batch, err := s.repo.ListAfterSeq(ctx, afterSeq, verifyBatchSize)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "walking audit chain")
		}
		if len(batch) == 0 {
			return result, nil
		}

		for i := range batch {
			event := &batch[i]

			if event.PrevHash != expectedPrev {
				return breakAt(result, event, "previous hash does not match chain head"), nil
			}

			recomputed, err := computeHash(event)
			if err != nil {
				return breakAt(result, event, "event could not be canonicalized"), nil
			}
			if recomputed != event.SelfHash {
				return breakAt(result, event, "stored hash does not match event content"), nil
			}

			result.CheckedCount++
			expectedPrev = event.SelfHash
			afterSeq = event.Seq
		}
	}
}

func breakAt(result *VerificationResult, event *models.AuditEvent, reason string) *VerificationResult {
	id := event.ID
	result.IsValid = false
	result.FirstBreakID = &id
	result.BreakReason = reason
	return result
}

func validateRecord(input RecordInput) error {
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	if !input.ActorType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid actor type")
	}
	if input.Scope == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "scope is required")
	}
	if input.Action == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "action is required")
	}
	if input.TargetType == "" || input.TargetID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "target type and id are required")
	}
	if input.Severity != "" && !input.Severity.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid severity")
	}
	return nil
}
