package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-app/vendora-backend/pkg/db/models"
	"github.com/vendora-app/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-app/vendora-backend/pkg/errors"
)

type fakeRepository struct {
	createFn     func(ctx context.Context, entry *models.LedgerEntry) error
	createManyFn func(ctx context.Context, entries []*models.LedgerEntry) error
	findByIDFn   func(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error)
	listFn       func(ctx context.Context, query ListQuery) ([]models.LedgerEntry, int64, error)
	existsFn     func(ctx context.Context, ref string) (bool, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if f.createFn != nil {
		return f.createFn(ctx, entry)
	}
	return nil
}

func (f *fakeRepository) CreateMany(ctx context.Context, entries []*models.LedgerEntry) error {
	if f.createManyFn != nil {
		return f.createManyFn(ctx, entries)
	}
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeRepository) List(ctx context.Context, query ListQuery) ([]models.LedgerEntry, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, query)
	}
	return nil, 0, nil
}

func (f *fakeRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	return nil, nil
}

func (f *fakeRepository) SumByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) SumAll(ctx context.Context) (int64, error) { return 0, nil }

func (f *fakeRepository) ExistsByExternalRef(ctx context.Context, ref string) (bool, error) {
	if f.existsFn != nil {
		return f.existsFn(ctx, ref)
	}
	return false, nil
}

type fakeTxRunner struct {
	calls int
	err   error
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

func newTestService(t *testing.T, repo Repository, runner txRunner) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, DB: runner})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestService_Append(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, &fakeTxRunner{})

	var created *models.LedgerEntry
	repo.createFn = func(ctx context.Context, entry *models.LedgerEntry) error {
		created = entry
		return nil
	}

	orderID := uuid.New()
	occurred := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	got, err := svc.Append(context.Background(), AppendEntryInput{
		Type:        enums.LedgerEntryTypeOrderFee,
		AmountCents: 1250,
		OrderID:     &orderID,
		CreatedBy:   uuid.New(),
		OccurredAt:  occurred,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if created == nil {
		t.Fatal("expected entry to be created")
	}
	if created.Type != enums.LedgerEntryTypeOrderFee || created.AmountCents != 1250 {
		t.Fatalf("unexpected entry data: %+v", created)
	}
	if created.Currency != enums.CurrencyUSD {
		t.Fatalf("expected USD default, got %s", created.Currency)
	}
	if !created.OccurredAt.Equal(occurred) {
		t.Fatalf("occurred at not preserved: %s", created.OccurredAt)
	}
	if got != created {
		t.Fatal("service should return created entry")
	}
}

func TestService_AppendDefaultsOccurredAt(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, &fakeTxRunner{})

	got, err := svc.Append(context.Background(), AppendEntryInput{
		Type:        enums.LedgerEntryTypeTaxCollected,
		AmountCents: 800,
		CreatedBy:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got.OccurredAt.IsZero() {
		t.Fatal("expected occurred at default")
	}
}

func TestService_AppendValidation(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, &fakeTxRunner{})

	tests := []struct {
		name  string
		input AppendEntryInput
	}{
		{
			name:  "invalid type",
			input: AppendEntryInput{Type: "cash_money", AmountCents: 100, CreatedBy: uuid.New()},
		},
		{
			name:  "zero amount",
			input: AppendEntryInput{Type: enums.LedgerEntryTypeOrderFee, CreatedBy: uuid.New()},
		},
		{
			name:  "missing actor",
			input: AppendEntryInput{Type: enums.LedgerEntryTypeOrderFee, AmountCents: 100},
		},
		{
			name:  "invalid currency",
			input: AppendEntryInput{Type: enums.LedgerEntryTypeOrderFee, AmountCents: 100, CreatedBy: uuid.New(), Currency: "doubloons"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Append(context.Background(), tc.input)
			if err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation code, got %v", err)
			}
		})
	}
}

func TestService_AppendManyRunsInTransaction(t *testing.T) {
	repo := &fakeRepository{}
	runner := &fakeTxRunner{}
	svc := newTestService(t, repo, runner)

	var batch []*models.LedgerEntry
	repo.createManyFn = func(ctx context.Context, entries []*models.LedgerEntry) error {
		batch = entries
		return nil
	}

	orderID := uuid.New()
	actor := uuid.New()
	entries, err := svc.AppendMany(context.Background(), []AppendEntryInput{
		{Type: enums.LedgerEntryTypeOrderFee, AmountCents: 1000, OrderID: &orderID, CreatedBy: actor},
		{Type: enums.LedgerEntryTypeProcessingFee, AmountCents: -320, OrderID: &orderID, CreatedBy: actor},
	})
	if err != nil {
		t.Fatalf("AppendMany: %v", err)
	}
	if runner.calls != 1 {
		t.Fatalf("expected one transaction, got %d", runner.calls)
	}
	if len(batch) != 2 || len(entries) != 2 {
		t.Fatalf("expected both entries in one batch, got %d/%d", len(batch), len(entries))
	}
}

func TestService_AppendManyRejectsBadEntryBeforeTx(t *testing.T) {
	runner := &fakeTxRunner{}
	svc := newTestService(t, &fakeRepository{}, runner)

	_, err := svc.AppendMany(context.Background(), []AppendEntryInput{
		{Type: enums.LedgerEntryTypeOrderFee, AmountCents: 1000, CreatedBy: uuid.New()},
		{Type: "nope", AmountCents: 50, CreatedBy: uuid.New()},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if runner.calls != 0 {
		t.Fatal("validation failures must not open a transaction")
	}
}

func TestService_AppendManyFailureAbortsWholeBatch(t *testing.T) {
	repo := &fakeRepository{}
	runner := &fakeTxRunner{}
	svc := newTestService(t, repo, runner)

	boom := errors.New("constraint violation")
	repo.createManyFn = func(ctx context.Context, entries []*models.LedgerEntry) error {
		return boom
	}

	_, err := svc.AppendMany(context.Background(), []AppendEntryInput{
		{Type: enums.LedgerEntryTypeOrderFee, AmountCents: 1000, CreatedBy: uuid.New()},
	})
	if err == nil {
		t.Fatal("expected batch failure to propagate")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
}

func TestService_HasEntryWithExternalRef(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, &fakeTxRunner{})

	repo.existsFn = func(ctx context.Context, ref string) (bool, error) {
		return ref == "ch_123", nil
	}

	found, err := svc.HasEntryWithExternalRef(context.Background(), "ch_123")
	if err != nil {
		t.Fatalf("HasEntryWithExternalRef: %v", err)
	}
	if !found {
		t.Fatal("expected existing ref to be found")
	}

	if _, err := svc.HasEntryWithExternalRef(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty ref")
	}
}
