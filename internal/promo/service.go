package promo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vendora-app/vendora-backend/internal/fees"
	"github.com/vendora-app/vendora-backend/pkg/db/models"
	"github.com/vendora-app/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-app/vendora-backend/pkg/errors"
)

const maxPercentOffBps = 10_000

// Service manages platform promos and their redemption.
type Service interface {
	CreatePromo(ctx context.Context, input CreatePromoInput) (*models.PlatformPromo, error)
	GetPromo(ctx context.Context, id uuid.UUID) (*models.PlatformPromo, error)
	ListPromos(ctx context.Context) ([]models.PlatformPromo, error)
	EndPromo(ctx context.Context, id uuid.UUID) error
	Resolve(ctx context.Context, code string, appliesTo enums.PromoAppliesTo, asOf time.Time) (*models.PlatformPromo, error)
	Redeem(ctx context.Context, input RedeemInput) (*RedeemResult, error)
}

// CreatePromoInput describes a new promo. Exactly one of PercentOffBps and
// AmountOffCents must be set.
type CreatePromoInput struct {
	Code           string
	AppliesTo      enums.PromoAppliesTo
	PercentOffBps  *int
	AmountOffCents *int64
	StartsAt       time.Time
	EndsAt         *time.Time
	AudienceTag    *string
	MaxRedemptions *int
	CreatedBy      uuid.UUID
}

// RedeemInput applies a promo code against a computed fee.
type RedeemInput struct {
	Code      string
	AppliesTo enums.PromoAppliesTo
	FeeCents  int64
	AsOf      time.Time
}

// RedeemResult reports the discount taken off the fee.
type RedeemResult struct {
	Promo         *models.PlatformPromo
	DiscountCents int64
}

// ServiceParams groups dependencies for the promo service.
type ServiceParams struct {
	Repo Repository
}

type service struct {
	repo Repository
}

// NewService wires a promo service with the provided repository.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "promo repository required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) CreatePromo(ctx context.Context, input CreatePromoInput) (*models.PlatformPromo, error) {
	if err := validateCreatePromo(input); err != nil {
		return nil, err
	}

	promo := &models.PlatformPromo{
		Code:           normalizeCode(input.Code),
		AppliesTo:      input.AppliesTo,
		PercentOffBps:  input.PercentOffBps,
		AmountOffCents: input.AmountOffCents,
		StartsAt:       input.StartsAt.UTC(),
		EndsAt:         input.EndsAt,
		AudienceTag:    input.AudienceTag,
		MaxRedemptions: input.MaxRedemptions,
		CreatedBy:      input.CreatedBy,
	}
	if err := s.repo.Create(ctx, promo); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating promo")
	}
	return promo, nil
}

func (s *service) GetPromo(ctx context.Context, id uuid.UUID) (*models.PlatformPromo, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo id is required")
	}
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading promo")
	}
	if promo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promo not found")
	}
	return promo, nil
}

func (s *service) ListPromos(ctx context.Context) ([]models.PlatformPromo, error) {
	promos, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing promos")
	}
	return promos, nil
}

func (s *service) EndPromo(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetPromo(ctx, id); err != nil {
		return err
	}
	if err := s.repo.EndNow(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ending promo")
	}
	return nil
}

// Resolve looks a code up and checks it is redeemable at asOf. Unknown codes,
// inactive windows, target mismatches and exhausted promos each fail with a
// distinct error code so callers can report the right reason.
func (s *service) Resolve(ctx context.Context, code string, appliesTo enums.PromoAppliesTo, asOf time.Time) (*models.PlatformPromo, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "looking up promo code")
	}
	if promo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
	}
	if promo.AppliesTo != appliesTo {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo does not apply to this charge")
	}
	if asOf.Before(promo.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo is not active yet")
	}
	if promo.EndsAt != nil && !asOf.Before(*promo.EndsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo has expired")
	}
	if promo.MaxRedemptions != nil && promo.CurrentUses >= *promo.MaxRedemptions {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "promo is fully redeemed")
	}
	return promo, nil
}

// Redeem resolves the code, consumes one redemption slot and returns the
// discount. The slot is taken with a guarded increment, so the usage cap holds
// under concurrent redemptions; losing the race reports the promo as fully
// redeemed.
func (s *service) Redeem(ctx context.Context, input RedeemInput) (*RedeemResult, error) {
	if input.FeeCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fee cents must not be negative")
	}

	promo, err := s.Resolve(ctx, input.Code, input.AppliesTo, input.AsOf)
	if err != nil {
		return nil, err
	}

	discount, err := DiscountFor(promo, input.FeeCents)
	if err != nil {
		return nil, err
	}

	consumed, err := s.repo.IncrementUsage(ctx, promo.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consuming promo redemption")
	}
	if !consumed {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "promo is fully redeemed")
	}

	return &RedeemResult{Promo: promo, DiscountCents: discount}, nil
}

// DiscountFor computes the discount a promo takes off a fee, clamped so the
// fee never goes negative. Percent discounts round half up on the basis point
// product.
func DiscountFor(promo *models.PlatformPromo, feeCents int64) (int64, error) {
	if promo == nil {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "promo required")
	}

	var discount int64
	switch {
	case promo.PercentOffBps != nil:
		discount = fees.ApplyBps(feeCents, *promo.PercentOffBps)
	case promo.AmountOffCents != nil:
		discount = *promo.AmountOffCents
	default:
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "promo has no discount configured")
	}

	if discount < 0 {
		discount = 0
	}
	if discount > feeCents {
		discount = feeCents
	}
	return discount, nil
}

func validateCreatePromo(input CreatePromoInput) error {
	if normalizeCode(input.Code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}
	if !input.AppliesTo.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid promo target")
	}
	if (input.PercentOffBps == nil) == (input.AmountOffCents == nil) {
		return pkgerrors.New(pkgerrors.CodeValidation, "exactly one of percent off and amount off must be set")
	}
	if input.PercentOffBps != nil && (*input.PercentOffBps <= 0 || *input.PercentOffBps > maxPercentOffBps) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percent off bps out of range").WithDetails(map[string]any{"percent_off_bps": *input.PercentOffBps})
	}
	if input.AmountOffCents != nil && *input.AmountOffCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount off must be positive")
	}
	if input.StartsAt.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "starts at is required")
	}
	if input.EndsAt != nil && !input.EndsAt.After(input.StartsAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "ends at must be after starts at")
	}
	if input.MaxRedemptions != nil && *input.MaxRedemptions <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "max redemptions must be positive")
	}
	if input.CreatedBy == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "created by is required")
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
