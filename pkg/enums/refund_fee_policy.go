package enums

import "fmt"

// RefundFeePolicy controls what happens to the platform fee when an order is
// refunded.
type RefundFeePolicy string

const (
	// RefundFeePolicyKeep keeps the entire original fee.
	RefundFeePolicyKeep RefundFeePolicy = "keep"
	// RefundFeePolicyRefund returns the entire original fee.
	RefundFeePolicyRefund RefundFeePolicy = "refund"
	// RefundFeePolicyProportional returns the fee pro rata to the refunded amount.
	RefundFeePolicyProportional RefundFeePolicy = "proportional"
)

var validRefundFeePolicies = []RefundFeePolicy{
	RefundFeePolicyKeep,
	RefundFeePolicyRefund,
	RefundFeePolicyProportional,
}

// String implements fmt.Stringer.
func (p RefundFeePolicy) String() string {
	return string(p)
}

// IsValid reports whether the value is a known RefundFeePolicy.
func (p RefundFeePolicy) IsValid() bool {
	for _, candidate := range validRefundFeePolicies {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseRefundFeePolicy converts raw input into a RefundFeePolicy.
func ParseRefundFeePolicy(value string) (RefundFeePolicy, error) {
	for _, candidate := range validRefundFeePolicies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund fee policy %q", value)
}
