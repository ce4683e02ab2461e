package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/vendora-app/vendora-backend/pkg/db/models"
	"github.com/vendora-app/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-app/vendora-backend/pkg/errors"
	"github.com/vendora-app/vendora-backend/pkg/types"
)

// AdjustmentService posts corrective entries against the ledger. An
// adjustment never touches the original entry; it is a new signed entry whose
// metadata carries full provenance.
type AdjustmentService interface {
	PostAdjustment(ctx context.Context, input AdjustmentInput) (*models.LedgerEntry, error)
}

// AdjustmentInput describes a correction to an already-posted entry.
type AdjustmentInput struct {
	OriginalEntryID uuid.UUID
	DeltaCents      int64
	Reason          string
	CreatedBy       uuid.UUID
}

type adjustmentService struct {
	repo   Repository
	ledger Service
}

// NewAdjustmentService builds an adjustment poster on top of the ledger.
func NewAdjustmentService(repo Repository, ledger Service) (AdjustmentService, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger repository required")
	}
	if ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger service required")
	}
	return &adjustmentService{repo: repo, ledger: ledger}, nil
}

func (s *adjustmentService) PostAdjustment(ctx context.Context, input AdjustmentInput) (*models.LedgerEntry, error) {
	if input.OriginalEntryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "original entry id is required")
	}
	if input.DeltaCents == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment delta must not be zero")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment reason is required")
	}
	if input.CreatedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "created by is required")
	}

	original, err := s.repo.FindByID(ctx, input.OriginalEntryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading original entry")
	}
	if original == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "original ledger entry not found")
	}

	metadata, err := types.EncodeMetadata(types.AdjustmentMetadata{
		OriginalEntryID: original.ID,
		Reason:          input.Reason,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding adjustment metadata")
	}

	return s.ledger.Append(ctx, AppendEntryInput{
		Type:        enums.LedgerEntryTypeAdjustment,
		AmountCents: input.DeltaCents,
		Currency:    original.Currency,
		UserID:      original.UserID,
		OrderID:     original.OrderID,
		EventID:     original.EventID,
		PayoutID:    original.PayoutID,
		Metadata:    metadata,
		CreatedBy:   input.CreatedBy,
	})
}
