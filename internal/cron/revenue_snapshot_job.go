package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/vendora-app/vendora-backend/internal/revenue"
	"github.com/vendora-app/vendora-backend/pkg/logger"
)

const revenueSnapshotJobName = "revenue-snapshot"

// RevenueSnapshotJobParams configure the snapshot job.
type RevenueSnapshotJobParams struct {
	Logger     *logger.Logger
	Aggregator revenue.Aggregator
	// BackfillDays re-snapshots this many days before yesterday so late
	// ledger entries still land in the right day.
	BackfillDays int
	Now          func() time.Time
}

// RevenueSnapshotJob rolls up the previous UTC day plus a short backfill
// window. Re-running a day replaces its snapshot, so overlap is harmless.
type RevenueSnapshotJob struct {
	logg         *logger.Logger
	aggregator   revenue.Aggregator
	backfillDays int
	now          func() time.Time
}

// NewRevenueSnapshotJob builds the snapshot job.
func NewRevenueSnapshotJob(params RevenueSnapshotJobParams) (*RevenueSnapshotJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Aggregator == nil {
		return nil, fmt.Errorf("aggregator required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	backfill := params.BackfillDays
	if backfill < 0 {
		backfill = 0
	}
	return &RevenueSnapshotJob{
		logg:         params.Logger,
		aggregator:   params.Aggregator,
		backfillDays: backfill,
		now:          now,
	}, nil
}

// Name implements Job.
func (j *RevenueSnapshotJob) Name() string {
	return revenueSnapshotJobName
}

// Run implements Job.
func (j *RevenueSnapshotJob) Run(ctx context.Context) error {
	yesterday := j.now().UTC().AddDate(0, 0, -1)

	var failed int
	for offset := j.backfillDays; offset >= 0; offset-- {
		date := yesterday.AddDate(0, 0, -offset).Format("2006-01-02")
		dayCtx := j.logg.WithField(ctx, "date", date)

		snapshot, err := j.aggregator.UpsertSnapshot(ctx, date)
		if err != nil {
			failed++
			j.logg.Error(dayCtx, "revenue snapshot failed", err)
			continue
		}
		dayCtx = j.logg.WithFields(dayCtx, map[string]any{
			"gmv_cents":         snapshot.GMVCents,
			"net_revenue_cents": snapshot.NetRevenueCents,
			"orders_count":      snapshot.OrdersCount,
		})
		j.logg.Info(dayCtx, "revenue snapshot stored")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d snapshot days failed", failed, j.backfillDays+1)
	}
	return nil
}
