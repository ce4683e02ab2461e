package enums

import "fmt"

// PromoAppliesTo maps to the promo_applies_to_enum enum in Postgres.
type PromoAppliesTo string

const (
	PromoAppliesToPlatformFee  PromoAppliesTo = "platform_fee"
	PromoAppliesToSubscription PromoAppliesTo = "subscription"
	PromoAppliesToEvent        PromoAppliesTo = "event"
)

var validPromoAppliesTo = []PromoAppliesTo{
	PromoAppliesToPlatformFee,
	PromoAppliesToSubscription,
	PromoAppliesToEvent,
}

// String implements fmt.Stringer.
func (p PromoAppliesTo) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PromoAppliesTo.
func (p PromoAppliesTo) IsValid() bool {
	for _, candidate := range validPromoAppliesTo {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromoAppliesTo converts raw input into a PromoAppliesTo.
func ParsePromoAppliesTo(value string) (PromoAppliesTo, error) {
	for _, candidate := range validPromoAppliesTo {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promo applies-to %q", value)
}
