package feeschedule

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vendora-app/vendora-backend/pkg/db/models"
	"github.com/vendora-app/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-app/vendora-backend/pkg/errors"
)

// resolutionOrder is the fixed precedence for fee resolution, most specific
// first. Changing platform pricing means adding schedule versions, never
// reordering this list.
var resolutionOrder = []enums.FeeScope{
	enums.FeeScopeOrder,
	enums.FeeScopeCategory,
	enums.FeeScopeEvent,
	enums.FeeScopeVendor,
	enums.FeeScopeRole,
	enums.FeeScopeGlobal,
}

// Resolver finds the fee schedule that governs a charge.
type Resolver interface {
	Resolve(ctx context.Context, input ResolveInput) (*Resolution, error)
}

// ResolveInput carries every scope reference known for the charge. Nil
// references skip their scope.
type ResolveInput struct {
	OrderID    *uuid.UUID
	CategoryID *uuid.UUID
	EventID    *uuid.UUID
	VendorID   *uuid.UUID
	Role       *string
	AsOf       time.Time
}

// Resolution is the winning schedule plus the scope that matched it.
type Resolution struct {
	Schedule     *models.FeeSchedule
	MatchedScope enums.FeeScope
}

type resolver struct {
	repo Repository
}

// NewResolver builds a resolver over the fee schedule repository.
func NewResolver(repo Repository) (Resolver, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fee schedule repository required")
	}
	return &resolver{repo: repo}, nil
}

// Resolve walks the precedence list and returns the first schedule active at
// AsOf. A platform with no applicable schedule is a hard error; callers must
// never fall back to an implicit zero fee.
func (r *resolver) Resolve(ctx context.Context, input ResolveInput) (*Resolution, error) {
	asOf := input.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	for _, scope := range resolutionOrder {
		ref, ok := input.refFor(scope)
		if !ok {
			continue
		}
		schedule, err := r.repo.FindActive(ctx, scope, ref, asOf)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving fee schedule")
		}
		if schedule != nil {
			return &Resolution{Schedule: schedule, MatchedScope: scope}, nil
		}
	}

	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active fee schedule for charge").WithDetails(map[string]any{
		"as_of": asOf.Format(time.RFC3339),
	})
}

// refFor maps a scope to the matching reference. The second return reports
// whether the scope applies to this charge at all; GLOBAL always applies and
// matches with a null reference.
func (in ResolveInput) refFor(scope enums.FeeScope) (*string, bool) {
	switch scope {
	case enums.FeeScopeOrder:
		return uuidRef(in.OrderID)
	case enums.FeeScopeCategory:
		return uuidRef(in.CategoryID)
	case enums.FeeScopeEvent:
		return uuidRef(in.EventID)
	case enums.FeeScopeVendor:
		return uuidRef(in.VendorID)
	case enums.FeeScopeRole:
		if in.Role == nil || *in.Role == "" {
			return nil, false
		}
		return in.Role, true
	case enums.FeeScopeGlobal:
		return nil, true
	default:
		return nil, false
	}
}

func uuidRef(id *uuid.UUID) (*string, bool) {
	if id == nil || *id == uuid.Nil {
		return nil, false
	}
	ref := id.String()
	return &ref, true
}
