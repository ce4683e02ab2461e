package feeschedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-app/vendora-backend/pkg/db/models"
	"github.com/vendora-app/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-app/vendora-backend/pkg/errors"
)

type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	f.calls++
	return fn(nil)
}

func newTestService(t *testing.T, repo Repository, runner txRunner) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, DB: runner})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestService_CreateVersionAssignsNextVersion(t *testing.T) {
	var closedAt *time.Time
	var created *models.FeeSchedule
	repo := &fakeRepository{
		maxVersionFn: func(ctx context.Context, scope enums.FeeScope, scopeRef *string) (int, error) {
			return 4, nil
		},
		closeFn: func(ctx context.Context, scope enums.FeeScope, scopeRef *string, closeAt time.Time) error {
			closedAt = &closeAt
			return nil
		},
		createFn: func(ctx context.Context, schedule *models.FeeSchedule) error {
			if closedAt == nil {
				t.Fatal("predecessors must be closed before the new version is created")
			}
			created = schedule
			return nil
		},
	}
	runner := &fakeTxRunner{}
	svc := newTestService(t, repo, runner)

	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	schedule, err := svc.CreateVersion(context.Background(), CreateVersionInput{
		Name:        "spring pricing",
		Scope:       enums.FeeScopeGlobal,
		TakeRateBps: bpsPtr(1100),
		ActiveFrom:  from,
		CreatedBy:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if runner.calls != 1 {
		t.Fatalf("expected one transaction, got %d", runner.calls)
	}
	if schedule.Version != 5 {
		t.Fatalf("expected version 5, got %d", schedule.Version)
	}
	if created == nil {
		t.Fatal("expected schedule to be created")
	}
	if closedAt == nil || !closedAt.Equal(from) {
		t.Fatalf("predecessors must close at the new active_from, got %v", closedAt)
	}
}

func TestService_CreateVersionValidation(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, &fakeTxRunner{})

	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	before := from.Add(-time.Hour)
	actor := uuid.New()
	ref := uuid.NewString()

	tests := []struct {
		name  string
		input CreateVersionInput
	}{
		{
			name:  "missing name",
			input: CreateVersionInput{Scope: enums.FeeScopeGlobal, ActiveFrom: from, CreatedBy: actor},
		},
		{
			name:  "invalid scope",
			input: CreateVersionInput{Name: "n", Scope: "planetary", ActiveFrom: from, CreatedBy: actor},
		},
		{
			name:  "global with ref",
			input: CreateVersionInput{Name: "n", Scope: enums.FeeScopeGlobal, ScopeRef: &ref, ActiveFrom: from, CreatedBy: actor},
		},
		{
			name:  "vendor without ref",
			input: CreateVersionInput{Name: "n", Scope: enums.FeeScopeVendor, ActiveFrom: from, CreatedBy: actor},
		},
		{
			name:  "take rate over 100 percent",
			input: CreateVersionInput{Name: "n", Scope: enums.FeeScopeGlobal, TakeRateBps: bpsPtr(10_001), ActiveFrom: from, CreatedBy: actor},
		},
		{
			name:  "negative take rate",
			input: CreateVersionInput{Name: "n", Scope: enums.FeeScopeGlobal, TakeRateBps: bpsPtr(-1), ActiveFrom: from, CreatedBy: actor},
		},
		{
			name: "floor above cap",
			input: CreateVersionInput{
				Name: "n", Scope: enums.FeeScopeGlobal, ActiveFrom: from, CreatedBy: actor,
				FeeFloorCents: centsPtr(500), FeeCapCents: centsPtr(100),
			},
		},
		{
			name: "window ends before it starts",
			input: CreateVersionInput{
				Name: "n", Scope: enums.FeeScopeGlobal, ActiveFrom: from, ActiveTo: &before, CreatedBy: actor,
			},
		},
		{
			name:  "missing actor",
			input: CreateVersionInput{Name: "n", Scope: enums.FeeScopeGlobal, ActiveFrom: from},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateVersion(context.Background(), tc.input)
			if err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation code, got %v", err)
			}
		})
	}
}

func TestService_GetScheduleNotFound(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, &fakeTxRunner{})

	_, err := svc.GetSchedule(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected not found")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestService_RetireGlobalRejected(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, &fakeTxRunner{})

	err := svc.Retire(context.Background(), RetireInput{Scope: enums.FeeScopeGlobal})
	if err == nil {
		t.Fatal("expected global retire to be rejected")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestService_RetireClosesScope(t *testing.T) {
	var closed bool
	repo := &fakeRepository{
		closeFn: func(ctx context.Context, scope enums.FeeScope, scopeRef *string, closeAt time.Time) error {
			if scope != enums.FeeScopeVendor {
				t.Fatalf("unexpected scope %s", scope)
			}
			closed = true
			return nil
		},
	}
	svc := newTestService(t, repo, &fakeTxRunner{})

	ref := uuid.NewString()
	if err := svc.Retire(context.Background(), RetireInput{Scope: enums.FeeScopeVendor, ScopeRef: &ref}); err != nil {
		t.Fatalf("Retire: %v", err)
	}
	if !closed {
		t.Fatal("expected open versions to be closed")
	}
}

func centsPtr(v int64) *int64 { return &v }
