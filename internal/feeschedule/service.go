package feeschedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-app/vendora-backend/pkg/db/models"
	"github.com/vendora-app/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-app/vendora-backend/pkg/errors"
)

const maxTakeRateBps = 10_000

// Service manages the fee schedule catalog. Publishing a change means
// appending a new version; existing versions only ever have their active
// window closed by a successor.
type Service interface {
	CreateVersion(ctx context.Context, input CreateVersionInput) (*models.FeeSchedule, error)
	GetSchedule(ctx context.Context, id uuid.UUID) (*models.FeeSchedule, error)
	ListVersions(ctx context.Context, scope enums.FeeScope, scopeRef *string) ([]models.FeeSchedule, error)
	Retire(ctx context.Context, input RetireInput) error
}

// CreateVersionInput describes a new fee schedule version for a scope.
type CreateVersionInput struct {
	Name          string
	Scope         enums.FeeScope
	ScopeRef      *string
	TakeRateBps   *int
	FeeFloorCents *int64
	FeeCapCents   *int64
	ActiveFrom    time.Time
	ActiveTo      *time.Time
	CreatedBy     uuid.UUID
}

// RetireInput closes a scope's open versions without publishing a successor.
type RetireInput struct {
	Scope    enums.FeeScope
	ScopeRef *string
	CloseAt  time.Time
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the fee schedule service.
type ServiceParams struct {
	Repo Repository
	DB   txRunner
}

type service struct {
	repo Repository
	db   txRunner
}

// NewService wires a fee schedule service with the provided repository and
// transaction runner.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fee schedule repository required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{repo: params.Repo, db: params.DB}, nil
}

// CreateVersion appends the next version for a scope. Open predecessors are
// closed at the new version's active_from inside the same transaction, so at
// any instant exactly one version of the scope can win.
func (s *service) CreateVersion(ctx context.Context, input CreateVersionInput) (*models.FeeSchedule, error) {
	if err := validateCreateVersion(input); err != nil {
		return nil, err
	}

	schedule := &models.FeeSchedule{
		Name:          input.Name,
		Scope:         input.Scope,
		ScopeRef:      input.ScopeRef,
		TakeRateBps:   input.TakeRateBps,
		FeeFloorCents: input.FeeFloorCents,
		FeeCapCents:   input.FeeCapCents,
		ActiveFrom:    input.ActiveFrom.UTC(),
		ActiveTo:      input.ActiveTo,
		CreatedBy:     input.CreatedBy,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.MaxVersion(ctx, input.Scope, input.ScopeRef)
		if err != nil {
			return err
		}
		schedule.Version = current + 1

		if err := repo.CloseOpenVersions(ctx, input.Scope, input.ScopeRef, schedule.ActiveFrom); err != nil {
			return err
		}
		return repo.Create(ctx, schedule)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating fee schedule version")
	}
	return schedule, nil
}

func (s *service) GetSchedule(ctx context.Context, id uuid.UUID) (*models.FeeSchedule, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "schedule id is required")
	}
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading fee schedule")
	}
	if schedule == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fee schedule not found")
	}
	return schedule, nil
}

func (s *service) ListVersions(ctx context.Context, scope enums.FeeScope, scopeRef *string) ([]models.FeeSchedule, error) {
	if !scope.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid fee scope")
	}
	schedules, err := s.repo.ListByScope(ctx, scope, scopeRef)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing fee schedule versions")
	}
	return schedules, nil
}

// Retire ends a scope's pricing. A retired scope falls through to the next
// scope in the precedence list on future resolutions.
func (s *service) Retire(ctx context.Context, input RetireInput) error {
	if !input.Scope.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid fee scope")
	}
	if input.Scope == enums.FeeScopeGlobal {
		return pkgerrors.New(pkgerrors.CodeValidation, "the global schedule cannot be retired, publish a new version instead")
	}
	closeAt := input.CloseAt
	if closeAt.IsZero() {
		closeAt = time.Now().UTC()
	}
	if err := s.repo.CloseOpenVersions(ctx, input.Scope, input.ScopeRef, closeAt); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retiring fee schedule scope")
	}
	return nil
}

func validateCreateVersion(input CreateVersionInput) error {
	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "schedule name is required")
	}
	if !input.Scope.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid fee scope")
	}
	if input.Scope == enums.FeeScopeGlobal {
		if input.ScopeRef != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "global schedules must not carry a scope ref")
		}
	} else if input.ScopeRef == nil || *input.ScopeRef == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "scope ref is required for non-global schedules")
	}
	if input.TakeRateBps != nil && (*input.TakeRateBps < 0 || *input.TakeRateBps > maxTakeRateBps) {
		return pkgerrors.New(pkgerrors.CodeValidation, "take rate bps out of range").WithDetails(map[string]any{"take_rate_bps": *input.TakeRateBps})
	}
	if input.FeeFloorCents != nil && *input.FeeFloorCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "fee floor must not be negative")
	}
	if input.FeeCapCents != nil && *input.FeeCapCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "fee cap must not be negative")
	}
	if input.FeeFloorCents != nil && input.FeeCapCents != nil && *input.FeeFloorCents > *input.FeeCapCents {
		return pkgerrors.New(pkgerrors.CodeValidation, "fee floor exceeds fee cap")
	}
	if input.ActiveFrom.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "active from is required")
	}
	if input.ActiveTo != nil && !input.ActiveTo.After(input.ActiveFrom) {
		return pkgerrors.New(pkgerrors.CodeValidation, "active to must be after active from")
	}
	if input.CreatedBy == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "created by is required")
	}
	return nil
}
