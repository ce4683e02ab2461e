package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-app/vendora-backend/pkg/db/models"
	"github.com/vendora-app/vendora-backend/pkg/enums"
)

// Repository manages persistence for ledger entries. The surface is
// intentionally insert-and-read only: there is no update or delete path for a
// ledger row anywhere in this package.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerEntry) error
	CreateMany(ctx context.Context, entries []*models.LedgerEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error)
	List(ctx context.Context, query ListQuery) ([]models.LedgerEntry, int64, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
	SumByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	SumAll(ctx context.Context) (int64, error)
	ExistsByExternalRef(ctx context.Context, ref string) (bool, error)
}

// ListQuery filters paged ledger reads.
type ListQuery struct {
	Type       *enums.LedgerEntryType
	UserID     *uuid.UUID
	OrderID    *uuid.UUID
	EventID    *uuid.UUID
	PayoutID   *uuid.UUID
	OccurredAt *TimeRange
	Page       int
	Limit      int
}

// TimeRange is a half-open [From, To) window on occurred_at.
type TimeRange struct {
	From time.Time
	To   time.Time
}

const (
	defaultListLimit = 25
	maxListLimit     = 100
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) CreateMany(ctx context.Context, entries []*models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(entries).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&entry).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.LedgerEntry, int64, error) {
	scoped := r.applyFilters(r.db.WithContext(ctx).Model(&models.LedgerEntry{}), query)

	var total int64
	if err := scoped.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	page := query.Page
	if page < 1 {
		page = 1
	}

	var entries []models.LedgerEntry
	if err := scoped.
		Order("occurred_at ASC, id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *repository) applyFilters(scoped *gorm.DB, query ListQuery) *gorm.DB {
	if query.Type != nil {
		scoped = scoped.Where("type = ?", *query.Type)
	}
	if query.UserID != nil {
		scoped = scoped.Where("user_id = ?", *query.UserID)
	}
	if query.OrderID != nil {
		scoped = scoped.Where("order_id = ?", *query.OrderID)
	}
	if query.EventID != nil {
		scoped = scoped.Where("event_id = ?", *query.EventID)
	}
	if query.PayoutID != nil {
		scoped = scoped.Where("payout_id = ?", *query.PayoutID)
	}
	if query.OccurredAt != nil {
		scoped = scoped.Where("occurred_at >= ? AND occurred_at < ?", query.OccurredAt.From, query.OccurredAt.To)
	}
	return scoped
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("occurred_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SumByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) SumAll(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) ExistsByExternalRef(ctx context.Context, ref string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("external_charge_ref = ?", ref).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
