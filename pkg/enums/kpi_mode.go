package enums

import "fmt"

// KPIMode selects which orders count toward GMV in revenue KPI queries.
type KPIMode string

const (
	// KPIModeAccrual counts every order in range regardless of payment status.
	KPIModeAccrual KPIMode = "accrual"
	// KPIModeCash counts only paid orders.
	KPIModeCash KPIMode = "cash"
)

var validKPIModes = []KPIMode{
	KPIModeAccrual,
	KPIModeCash,
}

// IsValid reports whether the value is a known KPIMode.
func (m KPIMode) IsValid() bool {
	for _, candidate := range validKPIModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseKPIMode converts raw input into a KPIMode.
func ParseKPIMode(value string) (KPIMode, error) {
	for _, candidate := range validKPIModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid kpi mode %q", value)
}
