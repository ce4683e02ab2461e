package ledger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-app/vendora-backend/pkg/db/models"
	"github.com/vendora-app/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-app/vendora-backend/pkg/errors"
)

// Service defines the append-only ledger operations. Corrections are new
// adjustment entries; nothing here mutates or removes a posted entry.
type Service interface {
	Append(ctx context.Context, input AppendEntryInput) (*models.LedgerEntry, error)
	AppendMany(ctx context.Context, inputs []AppendEntryInput) ([]*models.LedgerEntry, error)
	Query(ctx context.Context, query ListQuery) ([]models.LedgerEntry, int64, error)
	EntriesForOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
	SumByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	SumAll(ctx context.Context) (int64, error)
	HasEntryWithExternalRef(ctx context.Context, ref string) (bool, error)
}

// txRunner runs fn inside a single database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AppendEntryInput captures the immutable data a ledger entry requires.
type AppendEntryInput struct {
	Type              enums.LedgerEntryType `json:"type"`
	AmountCents       int64                 `json:"amount_cents"`
	Currency          enums.Currency        `json:"currency"`
	UserID            *uuid.UUID            `json:"user_id,omitempty"`
	OrderID           *uuid.UUID            `json:"order_id,omitempty"`
	EventID           *uuid.UUID            `json:"event_id,omitempty"`
	PayoutID          *uuid.UUID            `json:"payout_id,omitempty"`
	ExternalChargeRef *string               `json:"external_charge_ref,omitempty"`
	Metadata          json.RawMessage       `json:"metadata,omitempty"`
	CreatedBy         uuid.UUID             `json:"created_by"`
	OccurredAt        time.Time             `json:"occurred_at"`
}

// ServiceParams groups dependencies for the ledger service.
type ServiceParams struct {
	Repo Repository
	DB   txRunner
}

type service struct {
	repo Repository
	db   txRunner
}

// NewService wires a ledger service with the provided repository and
// transaction runner.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger repository required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{repo: params.Repo, db: params.DB}, nil
}

func (s *service) Append(ctx context.Context, input AppendEntryInput) (*models.LedgerEntry, error) {
	entry, err := buildEntry(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "appending ledger entry")
	}
	return entry, nil
}

// AppendMany posts the whole batch inside one transaction. Either every entry
// lands or none does, so a reader can never observe half of a fee posting.
func (s *service) AppendMany(ctx context.Context, inputs []AppendEntryInput) ([]*models.LedgerEntry, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one entry is required")
	}

	entries := make([]*models.LedgerEntry, 0, len(inputs))
	for _, input := range inputs {
		entry, err := buildEntry(input)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateMany(ctx, entries)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "appending ledger batch")
	}
	return entries, nil
}

func (s *service) Query(ctx context.Context, query ListQuery) ([]models.LedgerEntry, int64, error) {
	entries, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "querying ledger")
	}
	return entries, total, nil
}

func (s *service) EntriesForOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	entries, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order ledger entries")
	}
	return entries, nil
}

func (s *service) SumByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.SumByUser(ctx, userID)
}

func (s *service) SumAll(ctx context.Context) (int64, error) {
	return s.repo.SumAll(ctx)
}

func (s *service) HasEntryWithExternalRef(ctx context.Context, ref string) (bool, error) {
	if ref == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "external reference is required")
	}
	return s.repo.ExistsByExternalRef(ctx, ref)
}

func buildEntry(input AppendEntryInput) (*models.LedgerEntry, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid ledger entry type").WithDetails(map[string]any{"type": string(input.Type)})
	}
	if input.AmountCents == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount cents must not be zero")
	}
	if input.CreatedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "created by is required")
	}

	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency").WithDetails(map[string]any{"currency": string(currency)})
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return &models.LedgerEntry{
		Type:              input.Type,
		AmountCents:       input.AmountCents,
		Currency:          currency,
		UserID:            input.UserID,
		OrderID:           input.OrderID,
		EventID:           input.EventID,
		PayoutID:          input.PayoutID,
		ExternalChargeRef: input.ExternalChargeRef,
		Metadata:          input.Metadata,
		CreatedBy:         input.CreatedBy,
		OccurredAt:        occurredAt,
	}, nil
}
