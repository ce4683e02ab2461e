package fees

import (
	"github.com/vendora-app/vendora-backend/pkg/db/models"
	"github.com/vendora-app/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-app/vendora-backend/pkg/errors"
)

// All calculations in this package are integer cents. No floats anywhere:
// cent-level drift in fee math becomes real money at volume.

const bpsDenominator = 10_000

// PlatformFeeBreakdown shows each clamping step applied to a platform fee.
type PlatformFeeBreakdown struct {
	RawCents       int64 `json:"raw_cents"`
	WithFloorCents int64 `json:"with_floor_cents"`
	WithCapCents   int64 `json:"with_cap_cents"`
	EffectiveCents int64 `json:"effective_cents"`
}

// RefundFeeSplit divides an already-charged platform fee between the portion
// returned to the buyer and the portion the platform keeps. The two always sum
// to the original fee.
type RefundFeeSplit struct {
	FeeToRefundCents int64 `json:"fee_to_refund_cents"`
	FeeToKeepCents   int64 `json:"fee_to_keep_cents"`
}

// PlatformFee computes the take-rate fee for a subtotal under the given
// schedule, applying floor, cap, and promo discount in that order.
func PlatformFee(subtotalCents int64, schedule *models.FeeSchedule, promoDiscountCents int64) (PlatformFeeBreakdown, error) {
	if schedule == nil {
		return PlatformFeeBreakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "fee schedule is required")
	}
	if subtotalCents < 0 {
		return PlatformFeeBreakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must not be negative")
	}
	if promoDiscountCents < 0 {
		return PlatformFeeBreakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "promo discount must not be negative")
	}

	takeRateBps := 0
	if schedule.TakeRateBps != nil {
		takeRateBps = *schedule.TakeRateBps
	}
	if takeRateBps < 0 {
		return PlatformFeeBreakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "take rate must not be negative")
	}

	raw := roundHalfUp(subtotalCents*int64(takeRateBps), bpsDenominator)

	withFloor := raw
	if schedule.FeeFloorCents != nil && withFloor < *schedule.FeeFloorCents {
		withFloor = *schedule.FeeFloorCents
	}

	withCap := withFloor
	if schedule.FeeCapCents != nil && withCap > *schedule.FeeCapCents {
		withCap = *schedule.FeeCapCents
	}

	effective := withCap - promoDiscountCents
	if effective < 0 {
		effective = 0
	}

	return PlatformFeeBreakdown{
		RawCents:       raw,
		WithFloorCents: withFloor,
		WithCapCents:   withCap,
		EffectiveCents: effective,
	}, nil
}

// ApplyBps takes a basis-point slice of an amount, rounding half up. Negative
// inputs yield zero.
func ApplyBps(amountCents int64, bps int) int64 {
	if amountCents <= 0 || bps <= 0 {
		return 0
	}
	return roundHalfUp(amountCents*int64(bps), bpsDenominator)
}

// ProcessingFee computes the payment processor cost for a charged total.
func ProcessingFee(totalCents int64, percentBps int, fixedCents int64) (int64, error) {
	if totalCents < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "total must not be negative")
	}
	if percentBps < 0 || fixedCents < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "processing fee components must not be negative")
	}
	return roundHalfUp(totalCents*int64(percentBps), bpsDenominator) + fixedCents, nil
}

// NetToVendor computes what the vendor receives after taxes and fees. A
// negative result means the fee configuration ate more than the order total;
// that is a data error the caller must handle, never a silent zero payout.
func NetToVendor(totalCents, taxCents, processingFeeCents, platformFeeCents, otherFeesCents int64) (int64, error) {
	net := totalCents - taxCents - processingFeeCents - platformFeeCents - otherFeesCents
	if net < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "fees exceed order total").WithDetails(map[string]any{
			"shortfall_cents": -net,
		})
	}
	return net, nil
}

// RefundImpact splits the original platform fee according to the refund
// policy. The invariant FeeToRefund + FeeToKeep == originalFee holds for every
// policy.
func RefundImpact(originalFeeCents, refundAmountCents, originalOrderTotalCents int64, policy enums.RefundFeePolicy) (RefundFeeSplit, error) {
	if originalFeeCents < 0 || refundAmountCents < 0 {
		return RefundFeeSplit{}, pkgerrors.New(pkgerrors.CodeValidation, "amounts must not be negative")
	}
	if refundAmountCents > originalOrderTotalCents {
		return RefundFeeSplit{}, pkgerrors.New(pkgerrors.CodeValidation, "refund exceeds original order total")
	}

	switch policy {
	case enums.RefundFeePolicyKeep:
		return RefundFeeSplit{FeeToRefundCents: 0, FeeToKeepCents: originalFeeCents}, nil
	case enums.RefundFeePolicyRefund:
		return RefundFeeSplit{FeeToRefundCents: originalFeeCents, FeeToKeepCents: 0}, nil
	case enums.RefundFeePolicyProportional:
		if originalOrderTotalCents <= 0 {
			return RefundFeeSplit{}, pkgerrors.New(pkgerrors.CodeValidation, "original order total must be positive for proportional refunds")
		}
		refunded := roundHalfUp(originalFeeCents*refundAmountCents, originalOrderTotalCents)
		return RefundFeeSplit{
			FeeToRefundCents: refunded,
			FeeToKeepCents:   originalFeeCents - refunded,
		}, nil
	default:
		return RefundFeeSplit{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown refund fee policy")
	}
}

// roundHalfUp divides numerator by denominator rounding .5 away from zero.
// Inputs are non-negative by the time callers get here.
func roundHalfUp(numerator, denominator int64) int64 {
	return (numerator + denominator/2) / denominator
}
