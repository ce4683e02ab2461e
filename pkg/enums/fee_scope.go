package enums

import "fmt"

// FeeScope maps to the fee_scope_enum enum in Postgres. Scopes narrow from
// GLOBAL down to a single order; the resolver checks them most specific first.
type FeeScope string

const (
	FeeScopeGlobal   FeeScope = "global"
	FeeScopeRole     FeeScope = "role"
	FeeScopeVendor   FeeScope = "vendor"
	FeeScopeEvent    FeeScope = "event"
	FeeScopeCategory FeeScope = "category"
	FeeScopeOrder    FeeScope = "order"
)

var validFeeScopes = []FeeScope{
	FeeScopeGlobal,
	FeeScopeRole,
	FeeScopeVendor,
	FeeScopeEvent,
	FeeScopeCategory,
	FeeScopeOrder,
}

// String implements fmt.Stringer.
func (s FeeScope) String() string {
	return string(s)
}

// IsValid reports whether the value is a known FeeScope.
func (s FeeScope) IsValid() bool {
	for _, candidate := range validFeeScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseFeeScope converts raw input into a FeeScope.
func ParseFeeScope(value string) (FeeScope, error) {
	for _, candidate := range validFeeScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fee scope %q", value)
}
