package revenue

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/vendora-app/vendora-backend/pkg/db/models"
	"github.com/vendora-app/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora-app/vendora-backend/pkg/errors"
)

type fakeRepository struct {
	upsertFn        func(ctx context.Context, snapshot *models.RevenueSnapshot) error
	sumLedgerFn     func(ctx context.Context, from, to time.Time) (map[enums.LedgerEntryType]int64, error)
	orderStatsFn    func(ctx context.Context, from, to time.Time) (*OrderStats, error)
	listSnapshotsFn func(ctx context.Context, fromDate, toDate string) ([]models.RevenueSnapshot, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) UpsertSnapshot(ctx context.Context, snapshot *models.RevenueSnapshot) error {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, snapshot)
	}
	return nil
}

func (f *fakeRepository) FindSnapshot(ctx context.Context, date string) (*models.RevenueSnapshot, error) {
	return nil, nil
}

func (f *fakeRepository) ListSnapshots(ctx context.Context, fromDate, toDate string) ([]models.RevenueSnapshot, error) {
	if f.listSnapshotsFn != nil {
		return f.listSnapshotsFn(ctx, fromDate, toDate)
	}
	return nil, nil
}

func (f *fakeRepository) SumLedgerByType(ctx context.Context, from, to time.Time) (map[enums.LedgerEntryType]int64, error) {
	if f.sumLedgerFn != nil {
		return f.sumLedgerFn(ctx, from, to)
	}
	return map[enums.LedgerEntryType]int64{}, nil
}

func (f *fakeRepository) OrderStats(ctx context.Context, from, to time.Time) (*OrderStats, error) {
	if f.orderStatsFn != nil {
		return f.orderStatsFn(ctx, from, to)
	}
	return &OrderStats{}, nil
}

func newTestAggregator(t *testing.T, repo Repository) Aggregator {
	t.Helper()
	agg, err := NewAggregator(AggregatorParams{Repo: repo})
	if err != nil {
		t.Fatalf("NewAggregator: %v", err)
	}
	return agg
}

func sampleDaySums() map[enums.LedgerEntryType]int64 {
	return map[enums.LedgerEntryType]int64{
		enums.LedgerEntryTypeOrderFee:        10_000,
		enums.LedgerEntryTypeEventFee:        2_000,
		enums.LedgerEntryTypeSubscriptionFee: 3_000,
		enums.LedgerEntryTypeAdjustment:      -500,
		enums.LedgerEntryTypeProcessingFee:   -4_000,
		enums.LedgerEntryTypeRefund:          -1_000,
		enums.LedgerEntryTypeDisputeHold:     -2_500,
		enums.LedgerEntryTypeDisputeWin:      2_500,
		enums.LedgerEntryTypeDisputeLoss:     -1_500,
		enums.LedgerEntryTypePayout:          -80_000,
		enums.LedgerEntryTypeTaxCollected:    6_000,
	}
}

func TestAggregator_SnapshotForBucketMath(t *testing.T) {
	repo := &fakeRepository{
		sumLedgerFn: func(ctx context.Context, from, to time.Time) (map[enums.LedgerEntryType]int64, error) {
			return sampleDaySums(), nil
		},
		orderStatsFn: func(ctx context.Context, from, to time.Time) (*OrderStats, error) {
			return &OrderStats{OrdersCount: 12, OrdersPaidCount: 10, SubtotalCents: 180_000, PaidSubtotalCents: 145_000}, nil
		},
	}
	agg := newTestAggregator(t, repo)

	snapshot, err := agg.SnapshotFor(context.Background(), "2026-03-01")
	if err != nil {
		t.Fatalf("SnapshotFor: %v", err)
	}

	if snapshot.Date != "2026-03-01" {
		t.Fatalf("unexpected date %s", snapshot.Date)
	}
	// platform revenue: 10000 + 2000 + 3000 - 500
	if snapshot.PlatformRevenueCents != 14_500 {
		t.Fatalf("platform revenue: got %d", snapshot.PlatformRevenueCents)
	}
	// costs flip sign into positive magnitudes
	if snapshot.ProcessingCostCents != 4_000 {
		t.Fatalf("processing cost: got %d", snapshot.ProcessingCostCents)
	}
	if snapshot.RefundsCents != 1_000 {
		t.Fatalf("refunds: got %d", snapshot.RefundsCents)
	}
	// disputes: -2500 + 2500 - 1500 = -1500 net, reported as 1500 cost
	if snapshot.DisputesCents != 1_500 {
		t.Fatalf("disputes: got %d", snapshot.DisputesCents)
	}
	if snapshot.PayoutsCents != 80_000 {
		t.Fatalf("payouts: got %d", snapshot.PayoutsCents)
	}
	// net: 14500 - 4000 - 1000 - 1500
	if snapshot.NetRevenueCents != 8_000 {
		t.Fatalf("net revenue: got %d", snapshot.NetRevenueCents)
	}
	// GMV is paid order volume
	if snapshot.GMVCents != 145_000 {
		t.Fatalf("gmv: got %d", snapshot.GMVCents)
	}
	// take rate: 14500 / 145000 = 10% = 1000 bps
	if snapshot.TakeRateBps != 1000 {
		t.Fatalf("take rate: got %d", snapshot.TakeRateBps)
	}
	if snapshot.OrdersCount != 12 || snapshot.OrdersPaidCount != 10 {
		t.Fatalf("order counts: got %d/%d", snapshot.OrdersCount, snapshot.OrdersPaidCount)
	}
}

func TestAggregator_SnapshotForDeterministic(t *testing.T) {
	repo := &fakeRepository{
		sumLedgerFn: func(ctx context.Context, from, to time.Time) (map[enums.LedgerEntryType]int64, error) {
			return sampleDaySums(), nil
		},
		orderStatsFn: func(ctx context.Context, from, to time.Time) (*OrderStats, error) {
			return &OrderStats{OrdersCount: 3, OrdersPaidCount: 3, SubtotalCents: 30_000, PaidSubtotalCents: 30_000}, nil
		},
	}
	agg := newTestAggregator(t, repo)

	first, err := agg.SnapshotFor(context.Background(), "2026-03-01")
	if err != nil {
		t.Fatalf("SnapshotFor: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := agg.SnapshotFor(context.Background(), "2026-03-01")
		if err != nil {
			t.Fatalf("SnapshotFor %d: %v", i, err)
		}
		if *again != *first {
			t.Fatalf("snapshot not deterministic: %+v vs %+v", again, first)
		}
	}
}

func TestAggregator_SnapshotForEmptyDay(t *testing.T) {
	agg := newTestAggregator(t, &fakeRepository{})

	snapshot, err := agg.SnapshotFor(context.Background(), "2026-03-02")
	if err != nil {
		t.Fatalf("SnapshotFor: %v", err)
	}
	if snapshot.PlatformRevenueCents != 0 || snapshot.GMVCents != 0 || snapshot.TakeRateBps != 0 {
		t.Fatalf("empty day must be all zeros, got %+v", snapshot)
	}
}

func TestAggregator_SnapshotForUsesUTCDayWindow(t *testing.T) {
	var gotFrom, gotTo time.Time
	repo := &fakeRepository{
		sumLedgerFn: func(ctx context.Context, from, to time.Time) (map[enums.LedgerEntryType]int64, error) {
			gotFrom, gotTo = from, to
			return map[enums.LedgerEntryType]int64{}, nil
		},
	}
	agg := newTestAggregator(t, repo)

	if _, err := agg.SnapshotFor(context.Background(), "2026-03-01"); err != nil {
		t.Fatalf("SnapshotFor: %v", err)
	}
	wantFrom := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !gotFrom.Equal(wantFrom) || !gotTo.Equal(wantFrom.Add(24*time.Hour)) {
		t.Fatalf("window [%s, %s) is not the UTC day", gotFrom, gotTo)
	}
}

func TestAggregator_SnapshotForInvalidDate(t *testing.T) {
	agg := newTestAggregator(t, &fakeRepository{})

	_, err := agg.SnapshotFor(context.Background(), "03/01/2026")
	if err == nil {
		t.Fatal("expected invalid date error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestAggregator_UpsertSnapshotStoresDerivedRow(t *testing.T) {
	var stored *models.RevenueSnapshot
	repo := &fakeRepository{
		sumLedgerFn: func(ctx context.Context, from, to time.Time) (map[enums.LedgerEntryType]int64, error) {
			return map[enums.LedgerEntryType]int64{enums.LedgerEntryTypeOrderFee: 500}, nil
		},
		upsertFn: func(ctx context.Context, snapshot *models.RevenueSnapshot) error {
			stored = snapshot
			return nil
		},
	}
	agg := newTestAggregator(t, repo)

	snapshot, err := agg.UpsertSnapshot(context.Background(), "2026-03-01")
	if err != nil {
		t.Fatalf("UpsertSnapshot: %v", err)
	}
	if stored == nil || stored != snapshot {
		t.Fatal("expected computed snapshot to be stored")
	}
	if stored.OrderFeesCents != 500 {
		t.Fatalf("unexpected stored snapshot: %+v", stored)
	}
}

func TestAggregator_MonthlyRollupFoldsSnapshots(t *testing.T) {
	var gotFrom, gotTo string
	repo := &fakeRepository{
		listSnapshotsFn: func(ctx context.Context, fromDate, toDate string) ([]models.RevenueSnapshot, error) {
			gotFrom, gotTo = fromDate, toDate
			return []models.RevenueSnapshot{
				{Date: "2026-02-01", GMVCents: 100_000, PlatformRevenueCents: 10_000, NetRevenueCents: 8_000, OrdersCount: 10, OrdersPaidCount: 9},
				{Date: "2026-02-02", GMVCents: 50_000, PlatformRevenueCents: 5_000, NetRevenueCents: 4_000, OrdersCount: 5, OrdersPaidCount: 5},
			}, nil
		},
	}
	agg := newTestAggregator(t, repo)

	report, err := agg.MonthlyRollup(context.Background(), "2026-02")
	if err != nil {
		t.Fatalf("MonthlyRollup: %v", err)
	}
	if gotFrom != "2026-02-01" || gotTo != "2026-02-28" {
		t.Fatalf("rollup window [%s, %s] is not the calendar month", gotFrom, gotTo)
	}
	if report.DaysExpected != 28 {
		t.Fatalf("2026-02 has 28 days, got %d", report.DaysExpected)
	}
	if report.DaysCovered != 2 {
		t.Fatalf("days covered: got %d", report.DaysCovered)
	}
	if report.GMVCents != 150_000 || report.PlatformRevenueCents != 15_000 || report.NetRevenueCents != 12_000 {
		t.Fatalf("unexpected totals: %+v", report)
	}
	if report.OrdersCount != 15 || report.OrdersPaidCount != 14 {
		t.Fatalf("unexpected order counts: %+v", report)
	}
	// 15000 / 150000 = 1000 bps
	if report.TakeRateBps != 1000 {
		t.Fatalf("take rate: got %d", report.TakeRateBps)
	}
}

func TestAggregator_MonthlyRollupInvalidMonth(t *testing.T) {
	agg := newTestAggregator(t, &fakeRepository{})

	_, err := agg.MonthlyRollup(context.Background(), "February 2026")
	if err == nil {
		t.Fatal("expected invalid month error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestAggregator_KPIsAccrualVsCash(t *testing.T) {
	repo := &fakeRepository{
		sumLedgerFn: func(ctx context.Context, from, to time.Time) (map[enums.LedgerEntryType]int64, error) {
			return map[enums.LedgerEntryType]int64{enums.LedgerEntryTypeOrderFee: 9_000}, nil
		},
		orderStatsFn: func(ctx context.Context, from, to time.Time) (*OrderStats, error) {
			return &OrderStats{OrdersCount: 20, OrdersPaidCount: 15, SubtotalCents: 200_000, PaidSubtotalCents: 150_000}, nil
		},
	}
	agg := newTestAggregator(t, repo)

	window := KPIInput{
		From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}

	window.Mode = enums.KPIModeAccrual
	accrual, err := agg.KPIs(context.Background(), window)
	if err != nil {
		t.Fatalf("KPIs accrual: %v", err)
	}
	if accrual.GMVCents != 200_000 || accrual.OrdersCount != 20 {
		t.Fatalf("accrual counts all orders, got %+v", accrual)
	}
	// 9000 / 200000 = 450 bps
	if accrual.TakeRateBps != 450 {
		t.Fatalf("accrual take rate: got %d", accrual.TakeRateBps)
	}
	if accrual.AvgOrderValueCents != 10_000 {
		t.Fatalf("accrual avg order value: got %d", accrual.AvgOrderValueCents)
	}

	window.Mode = enums.KPIModeCash
	cash, err := agg.KPIs(context.Background(), window)
	if err != nil {
		t.Fatalf("KPIs cash: %v", err)
	}
	if cash.GMVCents != 150_000 || cash.OrdersCount != 15 {
		t.Fatalf("cash counts paid orders only, got %+v", cash)
	}
	// 9000 / 150000 = 600 bps
	if cash.TakeRateBps != 600 {
		t.Fatalf("cash take rate: got %d", cash.TakeRateBps)
	}
}

func TestAggregator_KPIsValidation(t *testing.T) {
	agg := newTestAggregator(t, &fakeRepository{})

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := agg.KPIs(context.Background(), KPIInput{From: from, To: from.Add(time.Hour), Mode: "forecast"})
	if err == nil {
		t.Fatal("expected invalid mode error")
	}

	_, err = agg.KPIs(context.Background(), KPIInput{From: from, To: from, Mode: enums.KPIModeCash})
	if err == nil {
		t.Fatal("expected empty window error")
	}
}

func TestTakeRateBpsRounding(t *testing.T) {
	tests := []struct {
		revenue int64
		gmv     int64
		want    int
	}{
		{0, 100_000, 0},
		{10_000, 0, 0},
		{10_000, 100_000, 1000},
		{333, 100_000, 33},    // 33.3 rounds down
		{335, 100_000, 34},    // 33.5 rounds up
		{1, 3, 3333},          // repeating decimal
	}

	for _, tc := range tests {
		if got := takeRateBps(tc.revenue, tc.gmv); got != tc.want {
			t.Fatalf("takeRateBps(%d, %d) = %d, want %d", tc.revenue, tc.gmv, got, tc.want)
		}
	}
}
