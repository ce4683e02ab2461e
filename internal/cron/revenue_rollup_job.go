package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/vendora-app/vendora-backend/internal/revenue"
	"github.com/vendora-app/vendora-backend/pkg/logger"
)

const revenueRollupJobName = "revenue-monthly-rollup"

// RevenueRollupJobParams configure the monthly rollup job.
type RevenueRollupJobParams struct {
	Logger     *logger.Logger
	Aggregator revenue.Aggregator
	Now        func() time.Time
}

// RevenueRollupJob replays the previous month's daily snapshots into one
// report. Report-only: the daily snapshots stay the stored rollup granularity.
type RevenueRollupJob struct {
	logg       *logger.Logger
	aggregator revenue.Aggregator
	now        func() time.Time
}

// NewRevenueRollupJob builds the rollup job.
func NewRevenueRollupJob(params RevenueRollupJobParams) (*RevenueRollupJob, error) {
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
	return &RevenueRollupJob{
		logg:       params.Logger,
		aggregator: params.Aggregator,
		now:        now,
	}, nil
}

// Name implements Job.
func (j *RevenueRollupJob) Name() string {
	return revenueRollupJobName
}

// Run implements Job.
func (j *RevenueRollupJob) Run(ctx context.Context) error {
	current := j.now().UTC()
	month := time.Date(current.Year(), current.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -1, 0).
		Format("2006-01")

	report, err := j.aggregator.MonthlyRollup(ctx, month)
	if err != nil {
		return fmt.Errorf("rolling up %s: %w", month, err)
	}

	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"month":             month,
		"days_covered":      report.DaysCovered,
		"days_expected":     report.DaysExpected,
		"gmv_cents":         report.GMVCents,
		"net_revenue_cents": report.NetRevenueCents,
		"take_rate_bps":     report.TakeRateBps,
	})
	if report.DaysCovered < report.DaysExpected {
		j.logg.Warn(reportCtx, "monthly rollup is missing snapshot days")
		return nil
	}
	j.logg.Info(reportCtx, "monthly revenue rollup computed")
	return nil
}
