package paymentsync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vendora-app/vendora-backend/internal/ledger"
	"github.com/vendora-app/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-app/vendora-backend/pkg/errors"
	"github.com/vendora-app/vendora-backend/pkg/logger"
	"github.com/vendora-app/vendora-backend/pkg/types"
)

// RecordKind classifies a processor record into the ledger entry it produces.
type RecordKind string

const (
	RecordKindProcessingFee RecordKind = "processing_fee"
	RecordKindPayout        RecordKind = "payout"
	RecordKindRefund        RecordKind = "refund"
	RecordKindDisputeHold   RecordKind = "dispute_hold"
	RecordKindDisputeWin    RecordKind = "dispute_win"
	RecordKindDisputeLoss   RecordKind = "dispute_loss"
)

var ledgerTypeByKind = map[RecordKind]enums.LedgerEntryType{
	RecordKindProcessingFee: enums.LedgerEntryTypeProcessingFee,
	RecordKindPayout:        enums.LedgerEntryTypePayout,
	RecordKindRefund:        enums.LedgerEntryTypeRefund,
	RecordKindDisputeHold:   enums.LedgerEntryTypeDisputeHold,
	RecordKindDisputeWin:    enums.LedgerEntryTypeDisputeWin,
	RecordKindDisputeLoss:   enums.LedgerEntryTypeDisputeLoss,
}

// costKinds must land as negative amounts; dispute wins as positive.
var signByKind = map[RecordKind]int64{
	RecordKindProcessingFee: -1,
	RecordKindPayout:        -1,
	RecordKindRefund:        -1,
	RecordKindDisputeHold:   -1,
	RecordKindDisputeWin:    1,
	RecordKindDisputeLoss:   -1,
}

// disputeOutcomeByKind marks the dispute kinds and the outcome each one
// settles to. A hold has no outcome yet.
var disputeOutcomeByKind = map[RecordKind]string{
	RecordKindDisputeHold: "",
	RecordKindDisputeWin:  "win",
	RecordKindDisputeLoss: "loss",
}

// ProcessorRecord is one money movement reported by the payment processor.
// AmountCents is the magnitude; the kind determines the sign on the ledger.
// CaseRef carries the processor's dispute case id for the dispute kinds.
type ProcessorRecord struct {
	Processor   string
	ExternalRef string
	Kind        RecordKind
	RawType     string
	AmountCents int64
	Currency    enums.Currency
	UserID      *uuid.UUID
	OrderID     *uuid.UUID
	PayoutID    *uuid.UUID
	CaseRef     string
	OccurredAt  time.Time
}

// IngestResult reports how a batch landed.
type IngestResult struct {
	Ingested int
	Skipped  int
	Failed   []FailedRecord
}

// FailedRecord pairs a rejected record with its error.
type FailedRecord struct {
	ExternalRef string
	Err         error
}

// Service ingests processor records into the ledger exactly once each.
type Service interface {
	Ingest(ctx context.Context, records []ProcessorRecord) (*IngestResult, error)
}

// ServiceParams groups dependencies for the payment sync service.
type ServiceParams struct {
	Ledger  ledger.Service
	ActorID uuid.UUID
	Logger  *logger.Logger
}

type service struct {
	ledger  ledger.Service
	actorID uuid.UUID
	logg    *logger.Logger
}

// NewService wires a payment sync service.
func NewService(params ServiceParams) (Service, error) {
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	if params.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sync actor id required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{ledger: params.Ledger, actorID: params.ActorID, logg: params.Logger}, nil
}

// Ingest posts one ledger entry per unseen record. Records whose external
// reference already exists in the ledger are skipped, so replaying a
// processor export is always safe. Bad records are collected rather than
// aborting the batch; a malformed row must not block the rest of a sync run.
func (s *service) Ingest(ctx context.Context, records []ProcessorRecord) (*IngestResult, error) {
	result := &IngestResult{}

	for _, record := range records {
		if err := validateRecord(record); err != nil {
			result.Failed = append(result.Failed, FailedRecord{ExternalRef: record.ExternalRef, Err: err})
			continue
		}

		seen, err := s.ledger.HasEntryWithExternalRef(ctx, record.ExternalRef)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking external reference")
		}
		if seen {
			result.Skipped++
			continue
		}

		input, err := s.buildEntry(record)
		if err != nil {
			result.Failed = append(result.Failed, FailedRecord{ExternalRef: record.ExternalRef, Err: err})
			continue
		}

		if _, err := s.ledger.Append(ctx, input); err != nil {
			result.Failed = append(result.Failed, FailedRecord{ExternalRef: record.ExternalRef, Err: err})
			failCtx := s.logg.WithFields(ctx, map[string]any{
				"external_ref": record.ExternalRef,
				"kind":         string(record.Kind),
			})
			s.logg.Error(failCtx, "failed to ingest processor record", err)
			continue
		}
		result.Ingested++
	}

	doneCtx := s.logg.WithFields(ctx, map[string]any{
		"ingested": result.Ingested,
		"skipped":  result.Skipped,
		"failed":   len(result.Failed),
	})
	s.logg.Info(doneCtx, "processor sync batch complete")
	return result, nil
}

func (s *service) buildEntry(record ProcessorRecord) (ledger.AppendEntryInput, error) {
	metadata, err := types.EncodeMetadata(metadataFor(record))
	if err != nil {
		return ledger.AppendEntryInput{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding processor metadata")
	}

	ref := record.ExternalRef
	return ledger.AppendEntryInput{
		Type:              ledgerTypeByKind[record.Kind],
		AmountCents:       signByKind[record.Kind] * record.AmountCents,
		Currency:          record.Currency,
		UserID:            record.UserID,
		OrderID:           record.OrderID,
		PayoutID:          record.PayoutID,
		ExternalChargeRef: &ref,
		Metadata:          metadata,
		CreatedBy:         s.actorID,
		OccurredAt:        record.OccurredAt,
	}, nil
}

// metadataFor shapes the jsonb payload by kind. Dispute entries carry the
// case context; everything else keeps the raw processor reference.
func metadataFor(record ProcessorRecord) any {
	outcome, isDispute := disputeOutcomeByKind[record.Kind]
	if !isDispute {
		return types.ProcessorMetadata{
			Processor:   record.Processor,
			ExternalRef: record.ExternalRef,
			RawType:     record.RawType,
		}
	}
	caseRef := record.CaseRef
	if caseRef == "" {
		caseRef = record.ExternalRef
	}
	return types.DisputeMetadata{
		CaseRef:   caseRef,
		Outcome:   outcome,
		Processor: record.Processor,
	}
}

func validateRecord(record ProcessorRecord) error {
	if record.Processor == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "processor name is required")
	}
	if record.ExternalRef == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "external reference is required")
	}
	if _, ok := ledgerTypeByKind[record.Kind]; !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown record kind").WithDetails(map[string]any{"kind": string(record.Kind)})
	}
	if record.AmountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be a positive magnitude")
	}
	return nil
}
