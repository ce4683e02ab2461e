package types

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Ledger metadata is stored as jsonb. Each entry type with a known shape gets
// a typed struct here; anything else falls back to MetadataBag so new
// producers never block on a schema change.

// AdjustmentMetadata records the provenance of a corrective entry.
type AdjustmentMetadata struct {
	OriginalEntryID uuid.UUID `json:"original_entry_id"`
	Reason          string    `json:"reason"`
	RecalculatedBy  *string   `json:"recalculated_by,omitempty"`
}

// ProcessorMetadata ties a ledger entry to the payment processor record it
// was synced from.
type ProcessorMetadata struct {
	Processor   string `json:"processor"`
	ExternalRef string `json:"external_ref"`
	RawType     string `json:"raw_type,omitempty"`
}

// DisputeMetadata captures the dispute case context for DISPUTE_* entries.
// Outcome is empty while the case is still an open hold.
type DisputeMetadata struct {
	CaseRef   string `json:"case_ref"`
	Outcome   string `json:"outcome,omitempty"`
	Processor string `json:"processor,omitempty"`
}

// MetadataBag is the forward-compatible fallback for entry types without a
// dedicated shape.
type MetadataBag map[string]any

// EncodeMetadata marshals any of the metadata shapes to the jsonb column value.
func EncodeMetadata(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode ledger metadata: %w", err)
	}
	return raw, nil
}

// DecodeAdjustmentMetadata parses adjustment provenance out of a stored entry.
func DecodeAdjustmentMetadata(raw json.RawMessage) (*AdjustmentMetadata, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("adjustment entry has no metadata")
	}
	var meta AdjustmentMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode adjustment metadata: %w", err)
	}
	return &meta, nil
}

// DecodeProcessorMetadata parses processor sync context out of a stored entry.
func DecodeProcessorMetadata(raw json.RawMessage) (*ProcessorMetadata, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("processor entry has no metadata")
	}
	var meta ProcessorMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode processor metadata: %w", err)
	}
	return &meta, nil
}

// DecodeDisputeMetadata parses the case context out of a dispute entry.
func DecodeDisputeMetadata(raw json.RawMessage) (*DisputeMetadata, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("dispute entry has no metadata")
	}
	var meta DisputeMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode dispute metadata: %w", err)
	}
	return &meta, nil
}
