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

type fakeRepository struct {
	createFn     func(ctx context.Context, schedule *models.FeeSchedule) error
	findActiveFn func(ctx context.Context, scope enums.FeeScope, scopeRef *string, asOf time.Time) (*models.FeeSchedule, error)
	maxVersionFn func(ctx context.Context, scope enums.FeeScope, scopeRef *string) (int, error)
	closeFn      func(ctx context.Context, scope enums.FeeScope, scopeRef *string, closeAt time.Time) error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, schedule *models.FeeSchedule) error {
	if f.createFn != nil {
		return f.createFn(ctx, schedule)
	}
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.FeeSchedule, error) {
	return nil, nil
}

func (f *fakeRepository) FindActive(ctx context.Context, scope enums.FeeScope, scopeRef *string, asOf time.Time) (*models.FeeSchedule, error) {
	if f.findActiveFn != nil {
		return f.findActiveFn(ctx, scope, scopeRef, asOf)
	}
	return nil, nil
}

func (f *fakeRepository) ListByScope(ctx context.Context, scope enums.FeeScope, scopeRef *string) ([]models.FeeSchedule, error) {
	return nil, nil
}

func (f *fakeRepository) MaxVersion(ctx context.Context, scope enums.FeeScope, scopeRef *string) (int, error) {
	if f.maxVersionFn != nil {
		return f.maxVersionFn(ctx, scope, scopeRef)
	}
	return 0, nil
}

func (f *fakeRepository) CloseOpenVersions(ctx context.Context, scope enums.FeeScope, scopeRef *string, closeAt time.Time) error {
	if f.closeFn != nil {
		return f.closeFn(ctx, scope, scopeRef, closeAt)
	}
	return nil
}

func scheduleForScope(scope enums.FeeScope, bps int) *models.FeeSchedule {
	return &models.FeeSchedule{
		ID:          uuid.New(),
		Scope:       scope,
		TakeRateBps: &bps,
		Version:     1,
	}
}

func fullResolveInput() ResolveInput {
	orderID := uuid.New()
	categoryID := uuid.New()
	eventID := uuid.New()
	vendorID := uuid.New()
	role := "vendor_pro"
	return ResolveInput{
		OrderID:    &orderID,
		CategoryID: &categoryID,
		EventID:    &eventID,
		VendorID:   &vendorID,
		Role:       &role,
		AsOf:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

// The resolver must pick the most specific active scope even when every
// broader scope also has an active schedule.
func TestResolver_PrecedenceOrder(t *testing.T) {
	precedence := []enums.FeeScope{
		enums.FeeScopeOrder,
		enums.FeeScopeCategory,
		enums.FeeScopeEvent,
		enums.FeeScopeVendor,
		enums.FeeScopeRole,
		enums.FeeScopeGlobal,
	}

	for i, winner := range precedence {
		active := map[enums.FeeScope]bool{}
		for _, scope := range precedence[i:] {
			active[scope] = true
		}

		repo := &fakeRepository{
			findActiveFn: func(ctx context.Context, scope enums.FeeScope, scopeRef *string, asOf time.Time) (*models.FeeSchedule, error) {
				if active[scope] {
					return scheduleForScope(scope, 1000), nil
				}
				return nil, nil
			},
		}
		r, err := NewResolver(repo)
		if err != nil {
			t.Fatalf("NewResolver: %v", err)
		}

		resolution, err := r.Resolve(context.Background(), fullResolveInput())
		if err != nil {
			t.Fatalf("Resolve with winner %s: %v", winner, err)
		}
		if resolution.MatchedScope != winner {
			t.Fatalf("expected %s to win, got %s", winner, resolution.MatchedScope)
		}
	}
}

func TestResolver_SkipsScopesWithoutRefs(t *testing.T) {
	var queried []enums.FeeScope
	repo := &fakeRepository{
		findActiveFn: func(ctx context.Context, scope enums.FeeScope, scopeRef *string, asOf time.Time) (*models.FeeSchedule, error) {
			queried = append(queried, scope)
			if scope == enums.FeeScopeGlobal {
				return scheduleForScope(scope, 1000), nil
			}
			return nil, nil
		},
	}
	r, err := NewResolver(repo)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	vendorID := uuid.New()
	resolution, err := r.Resolve(context.Background(), ResolveInput{
		VendorID: &vendorID,
		AsOf:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolution.MatchedScope != enums.FeeScopeGlobal {
		t.Fatalf("expected global fallback, got %s", resolution.MatchedScope)
	}
	if len(queried) != 2 || queried[0] != enums.FeeScopeVendor || queried[1] != enums.FeeScopeGlobal {
		t.Fatalf("expected only vendor then global lookups, got %v", queried)
	}
}

func TestResolver_NoScheduleIsHardError(t *testing.T) {
	repo := &fakeRepository{}
	r, err := NewResolver(repo)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	_, err = r.Resolve(context.Background(), fullResolveInput())
	if err == nil {
		t.Fatal("expected hard error when nothing resolves")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestResolver_UsesOrderScopeRefAsUUIDString(t *testing.T) {
	orderID := uuid.New()
	var seenRef *string
	repo := &fakeRepository{
		findActiveFn: func(ctx context.Context, scope enums.FeeScope, scopeRef *string, asOf time.Time) (*models.FeeSchedule, error) {
			if scope == enums.FeeScopeOrder {
				seenRef = scopeRef
				return scheduleForScope(scope, 0), nil
			}
			return nil, nil
		},
	}
	r, err := NewResolver(repo)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	_, err = r.Resolve(context.Background(), ResolveInput{OrderID: &orderID})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if seenRef == nil || *seenRef != orderID.String() {
		t.Fatalf("expected order ref %s, got %v", orderID, seenRef)
	}
}
