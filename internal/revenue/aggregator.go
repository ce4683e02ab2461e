package revenue

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendora-app/vendora-backend/pkg/db/models"
	"github.com/vendora-app/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-app/vendora-backend/pkg/errors"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// Aggregator derives revenue rollups and KPIs from the ledger and the order
// read model. Everything here is recomputable; no aggregate is a source of
// truth.
type Aggregator interface {
	SnapshotFor(ctx context.Context, date string) (*models.RevenueSnapshot, error)
	UpsertSnapshot(ctx context.Context, date string) (*models.RevenueSnapshot, error)
	Trend(ctx context.Context, fromDate, toDate string) ([]models.RevenueSnapshot, error)
	MonthlyRollup(ctx context.Context, month string) (*MonthlyReport, error)
	KPIs(ctx context.Context, input KPIInput) (*KPIReport, error)
}

// MonthlyReport folds one calendar month of daily snapshots. DaysCovered below
// DaysExpected means some days were never snapshotted; the totals only cover
// what exists.
type MonthlyReport struct {
	Month                string `json:"month"`
	DaysExpected         int    `json:"days_expected"`
	DaysCovered          int    `json:"days_covered"`
	GMVCents             int64  `json:"gmv_cents"`
	PlatformRevenueCents int64  `json:"platform_revenue_cents"`
	NetRevenueCents      int64  `json:"net_revenue_cents"`
	ProcessingCostCents  int64  `json:"processing_cost_cents"`
	RefundsCents         int64  `json:"refunds_cents"`
	DisputesCents        int64  `json:"disputes_cents"`
	PayoutsCents         int64  `json:"payouts_cents"`
	OrdersCount          int    `json:"orders_count"`
	OrdersPaidCount      int    `json:"orders_paid_count"`
	TakeRateBps          int    `json:"take_rate_bps"`
}

// KPIInput selects the window and accounting mode for a KPI report.
type KPIInput struct {
	From time.Time
	To   time.Time
	Mode enums.KPIMode
}

// KPIReport summarizes platform performance over a window.
type KPIReport struct {
	From                 time.Time     `json:"from"`
	To                   time.Time     `json:"to"`
	Mode                 enums.KPIMode `json:"mode"`
	GMVCents             int64         `json:"gmv_cents"`
	PlatformRevenueCents int64         `json:"platform_revenue_cents"`
	NetRevenueCents      int64         `json:"net_revenue_cents"`
	OrdersCount          int           `json:"orders_count"`
	TakeRateBps          int           `json:"take_rate_bps"`
	AvgOrderValueCents   int64         `json:"avg_order_value_cents"`
}

// AggregatorParams groups dependencies for the aggregator.
type AggregatorParams struct {
	Repo Repository
}

type aggregator struct {
	repo Repository
}

// NewAggregator wires a revenue aggregator with the provided repository.
func NewAggregator(params AggregatorParams) (Aggregator, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "revenue repository required")
	}
	return &aggregator{repo: params.Repo}, nil
}

// SnapshotFor computes the rollup for one UTC day without persisting it.
// Running it twice over unchanged data yields byte-identical snapshots.
func (a *aggregator) SnapshotFor(ctx context.Context, date string) (*models.RevenueSnapshot, error) {
	from, to, err := dayWindow(date)
	if err != nil {
		return nil, err
	}

	sums, err := a.repo.SumLedgerByType(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing ledger for snapshot")
	}
	stats, err := a.repo.OrderStats(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order stats for snapshot")
	}

	return buildSnapshot(date, sums, stats), nil
}

// UpsertSnapshot computes and stores the rollup for one UTC day. Re-running a
// day replaces its row with the freshly derived values.
func (a *aggregator) UpsertSnapshot(ctx context.Context, date string) (*models.RevenueSnapshot, error) {
	snapshot, err := a.SnapshotFor(ctx, date)
	if err != nil {
		return nil, err
	}
	if err := a.repo.UpsertSnapshot(ctx, snapshot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing revenue snapshot")
	}
	return snapshot, nil
}

func (a *aggregator) Trend(ctx context.Context, fromDate, toDate string) ([]models.RevenueSnapshot, error) {
	from, err := time.Parse(dateLayout, fromDate)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid from date")
	}
	to, err := time.Parse(dateLayout, toDate)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid to date")
	}
	if to.Before(from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "to date precedes from date")
	}

	snapshots, err := a.repo.ListSnapshots(ctx, fromDate, toDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing revenue snapshots")
	}
	return snapshots, nil
}

// MonthlyRollup replays the month's stored daily snapshots into one report. It
// does not touch raw ledger rows, so it is cheap enough to recompute on every
// cycle.
func (a *aggregator) MonthlyRollup(ctx context.Context, month string) (*MonthlyReport, error) {
	start, err := time.Parse(monthLayout, month)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid rollup month").WithDetails(map[string]any{"month": month})
	}
	end := start.AddDate(0, 1, 0)

	snapshots, err := a.repo.ListSnapshots(ctx, start.Format(dateLayout), end.AddDate(0, 0, -1).Format(dateLayout))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing snapshots for rollup")
	}

	report := &MonthlyReport{
		Month:        month,
		DaysExpected: int(end.Sub(start).Hours() / 24),
		DaysCovered:  len(snapshots),
	}
	for _, snapshot := range snapshots {
		report.GMVCents += snapshot.GMVCents
		report.PlatformRevenueCents += snapshot.PlatformRevenueCents
		report.NetRevenueCents += snapshot.NetRevenueCents
		report.ProcessingCostCents += snapshot.ProcessingCostCents
		report.RefundsCents += snapshot.RefundsCents
		report.DisputesCents += snapshot.DisputesCents
		report.PayoutsCents += snapshot.PayoutsCents
		report.OrdersCount += snapshot.OrdersCount
		report.OrdersPaidCount += snapshot.OrdersPaidCount
	}
	report.TakeRateBps = takeRateBps(report.PlatformRevenueCents, report.GMVCents)
	return report, nil
}

// KPIs reports window-level performance straight from the raw data, not from
// snapshots, so partially-snapshotted windows still report correctly.
func (a *aggregator) KPIs(ctx context.Context, input KPIInput) (*KPIReport, error) {
	if !input.Mode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid kpi mode")
	}
	if input.From.IsZero() || input.To.IsZero() || !input.To.After(input.From) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kpi window must be a non-empty range")
	}

	sums, err := a.repo.SumLedgerByType(ctx, input.From, input.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing ledger for kpis")
	}
	stats, err := a.repo.OrderStats(ctx, input.From, input.To)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order stats for kpis")
	}

	gmv := stats.PaidSubtotalCents
	ordersCount := stats.OrdersPaidCount
	if input.Mode == enums.KPIModeAccrual {
		gmv = stats.SubtotalCents
		ordersCount = stats.OrdersCount
	}

	platformRevenue := platformRevenueCents(sums)
	netRevenue := netRevenueCents(platformRevenue, sums)

	report := &KPIReport{
		From:                 input.From,
		To:                   input.To,
		Mode:                 input.Mode,
		GMVCents:             gmv,
		PlatformRevenueCents: platformRevenue,
		NetRevenueCents:      netRevenue,
		OrdersCount:          ordersCount,
		TakeRateBps:          takeRateBps(platformRevenue, gmv),
	}
	if ordersCount > 0 {
		report.AvgOrderValueCents = gmv / int64(ordersCount)
	}
	return report, nil
}

func buildSnapshot(date string, sums map[enums.LedgerEntryType]int64, stats *OrderStats) *models.RevenueSnapshot {
	platformRevenue := platformRevenueCents(sums)
	gmv := stats.PaidSubtotalCents

	return &models.RevenueSnapshot{
		Date:                  date,
		GMVCents:              gmv,
		PlatformRevenueCents:  platformRevenue,
		OrderFeesCents:        sums[enums.LedgerEntryTypeOrderFee],
		EventFeesCents:        sums[enums.LedgerEntryTypeEventFee],
		SubscriptionFeesCents: sums[enums.LedgerEntryTypeSubscriptionFee],
		AdjustmentsCents:      sums[enums.LedgerEntryTypeAdjustment],
		ProcessingCostCents:   -sums[enums.LedgerEntryTypeProcessingFee],
		RefundsCents:          -sums[enums.LedgerEntryTypeRefund],
		DisputesCents:         -disputeNetCents(sums),
		PayoutsCents:          -sums[enums.LedgerEntryTypePayout],
		TaxCollectedCents:     sums[enums.LedgerEntryTypeTaxCollected],
		NetRevenueCents:       netRevenueCents(platformRevenue, sums),
		TakeRateBps:           takeRateBps(platformRevenue, gmv),
		OrdersCount:           stats.OrdersCount,
		OrdersPaidCount:       stats.OrdersPaidCount,
	}
}

// platformRevenueCents is what the platform earned: fees plus signed
// adjustments.
func platformRevenueCents(sums map[enums.LedgerEntryType]int64) int64 {
	return sums[enums.LedgerEntryTypeOrderFee] +
		sums[enums.LedgerEntryTypeEventFee] +
		sums[enums.LedgerEntryTypeSubscriptionFee] +
		sums[enums.LedgerEntryTypeAdjustment]
}

// netRevenueCents subtracts the costs the platform eats: processing, refunds
// and the net dispute outcome. Ledger costs are stored negative, so adding the
// signed sums subtracts them.
func netRevenueCents(platformRevenue int64, sums map[enums.LedgerEntryType]int64) int64 {
	return platformRevenue +
		sums[enums.LedgerEntryTypeProcessingFee] +
		sums[enums.LedgerEntryTypeRefund] +
		disputeNetCents(sums)
}

func disputeNetCents(sums map[enums.LedgerEntryType]int64) int64 {
	return sums[enums.LedgerEntryTypeDisputeHold] +
		sums[enums.LedgerEntryTypeDisputeWin] +
		sums[enums.LedgerEntryTypeDisputeLoss]
}

// takeRateBps divides revenue by GMV in basis points, rounding half up. The
// division runs through decimals so large windows cannot overflow int64 cents
// math.
func takeRateBps(platformRevenueCents, gmvCents int64) int {
	if gmvCents <= 0 || platformRevenueCents <= 0 {
		return 0
	}
	rate := decimal.NewFromInt(platformRevenueCents).
		Mul(decimal.NewFromInt(10_000)).
		DivRound(decimal.NewFromInt(gmvCents), 0)
	return int(rate.IntPart())
}

func dayWindow(date string) (time.Time, time.Time, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid snapshot date").WithDetails(map[string]any{"date": date})
	}
	from := day.UTC()
	return from, from.Add(24 * time.Hour), nil
}
