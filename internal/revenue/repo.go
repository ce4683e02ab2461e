package revenue

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vendora-app/vendora-backend/pkg/db/models"
	"github.com/vendora-app/vendora-backend/pkg/enums"
)

// Repository persists snapshots and reads the raw activity they are derived
// from. Snapshots are upserted by date, so recomputing a day is always safe.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertSnapshot(ctx context.Context, snapshot *models.RevenueSnapshot) error
	FindSnapshot(ctx context.Context, date string) (*models.RevenueSnapshot, error)
	ListSnapshots(ctx context.Context, fromDate, toDate string) ([]models.RevenueSnapshot, error)
	SumLedgerByType(ctx context.Context, from, to time.Time) (map[enums.LedgerEntryType]int64, error)
	OrderStats(ctx context.Context, from, to time.Time) (*OrderStats, error)
}

// OrderStats is the order-side input to a snapshot: counts and GMV for one
// window. GMV is pre-tax, so the sums are over subtotals.
type OrderStats struct {
	OrdersCount       int
	OrdersPaidCount   int
	SubtotalCents     int64
	PaidSubtotalCents int64
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a revenue repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) UpsertSnapshot(ctx context.Context, snapshot *models.RevenueSnapshot) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			UpdateAll: true,
		}).
		Create(snapshot).Error
}

func (r *repository) FindSnapshot(ctx context.Context, date string) (*models.RevenueSnapshot, error) {
	var snapshot models.RevenueSnapshot
	if err := r.db.WithContext(ctx).
		Where("date = ?", date).
		First(&snapshot).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

func (r *repository) ListSnapshots(ctx context.Context, fromDate, toDate string) ([]models.RevenueSnapshot, error) {
	var snapshots []models.RevenueSnapshot
	if err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", fromDate, toDate).
		Order("date ASC").
		Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

// SumLedgerByType folds the ledger over [from, to) into one signed total per
// entry type.
func (r *repository) SumLedgerByType(ctx context.Context, from, to time.Time) (map[enums.LedgerEntryType]int64, error) {
	var rows []struct {
		Type       enums.LedgerEntryType
		TotalCents int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("type, COALESCE(SUM(amount_cents), 0) AS total_cents").
		Where("occurred_at >= ? AND occurred_at < ?", from, to).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	sums := make(map[enums.LedgerEntryType]int64, len(rows))
	for _, row := range rows {
		sums[row.Type] = row.TotalCents
	}
	return sums, nil
}

func (r *repository) OrderStats(ctx context.Context, from, to time.Time) (*OrderStats, error) {
	var row struct {
		OrdersCount       int
		OrdersPaidCount   int
		SubtotalCents     int64
		PaidSubtotalCents int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select(
			"COUNT(*) AS orders_count, "+
				"COALESCE(SUM(CASE WHEN payment_status = ? THEN 1 ELSE 0 END), 0) AS orders_paid_count, "+
				"COALESCE(SUM(subtotal_cents), 0) AS subtotal_cents, "+
				"COALESCE(SUM(CASE WHEN payment_status = ? THEN subtotal_cents ELSE 0 END), 0) AS paid_subtotal_cents",
			enums.PaymentStatusPaid, enums.PaymentStatusPaid,
		).
		Where("created_at >= ? AND created_at < ?", from, to).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &OrderStats{
		OrdersCount:       row.OrdersCount,
		OrdersPaidCount:   row.OrdersPaidCount,
		SubtotalCents:     row.SubtotalCents,
		PaidSubtotalCents: row.PaidSubtotalCents,
	}, nil
}
