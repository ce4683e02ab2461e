package enums

import "fmt"

// LedgerEntryType maps to the ledger_entry_type_enum enum in Postgres.
type LedgerEntryType string

const (
	LedgerEntryTypeOrderFee        LedgerEntryType = "order_fee"
	LedgerEntryTypeProcessingFee   LedgerEntryType = "processing_fee"
	LedgerEntryTypeEventFee        LedgerEntryType = "event_fee"
	LedgerEntryTypeSubscriptionFee LedgerEntryType = "subscription_fee"
	LedgerEntryTypeRefund          LedgerEntryType = "refund"
	LedgerEntryTypeDisputeHold     LedgerEntryType = "dispute_hold"
	LedgerEntryTypeDisputeWin      LedgerEntryType = "dispute_win"
	LedgerEntryTypeDisputeLoss     LedgerEntryType = "dispute_loss"
	LedgerEntryTypePayout          LedgerEntryType = "payout"
	LedgerEntryTypeAdjustment      LedgerEntryType = "adjustment"
	LedgerEntryTypeTaxCollected    LedgerEntryType = "tax_collected"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryTypeOrderFee,
	LedgerEntryTypeProcessingFee,
	LedgerEntryTypeEventFee,
	LedgerEntryTypeSubscriptionFee,
	LedgerEntryTypeRefund,
	LedgerEntryTypeDisputeHold,
	LedgerEntryTypeDisputeWin,
	LedgerEntryTypeDisputeLoss,
	LedgerEntryTypePayout,
	LedgerEntryTypeAdjustment,
	LedgerEntryTypeTaxCollected,
}

// String implements fmt.Stringer.
func (t LedgerEntryType) String() string {
	return string(t)
}

// IsValid reports whether the value matches the canonical ledger entry enum.
func (t LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEntryType converts raw input into a LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
