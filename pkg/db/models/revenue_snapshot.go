package models

import "time"

// RevenueSnapshot is the derived daily rollup of ledger and order activity.
// It is keyed by UTC date and fully recomputable from the ledger, so rows are
// safe to delete and rebuild.
type RevenueSnapshot struct {
	Date                  string    `gorm:"column:date;type:date;primaryKey"`
	GMVCents              int64     `gorm:"column:gmv_cents;not null"`
	PlatformRevenueCents  int64     `gorm:"column:platform_revenue_cents;not null"`
	OrderFeesCents        int64     `gorm:"column:order_fees_cents;not null"`
	EventFeesCents        int64     `gorm:"column:event_fees_cents;not null"`
	SubscriptionFeesCents int64     `gorm:"column:subscription_fees_cents;not null"`
	AdjustmentsCents      int64     `gorm:"column:adjustments_cents;not null"`
	ProcessingCostCents   int64     `gorm:"column:processing_cost_cents;not null"`
	RefundsCents          int64     `gorm:"column:refunds_cents;not null"`
	DisputesCents         int64     `gorm:"column:disputes_cents;not null"`
	PayoutsCents          int64     `gorm:"column:payouts_cents;not null"`
	TaxCollectedCents     int64     `gorm:"column:tax_collected_cents;not null"`
	NetRevenueCents       int64     `gorm:"column:net_revenue_cents;not null"`
	TakeRateBps           int       `gorm:"column:take_rate_bps;not null"`
	OrdersCount           int       `gorm:"column:orders_count;not null"`
	OrdersPaidCount       int       `gorm:"column:orders_paid_count;not null"`
	CreatedAt             time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
