package orbsync

import (
	"context"
	"time"

	"github.com/meterwise/orb-sync/internal/client/orb"
	"github.com/meterwise/orb-sync/internal/orbsync/postgres"
)

// syncSubscriptions flattens the nested customer and plan identifiers into
// scalar foreign-key columns; the mirror stores relations as columns, not
// nested structures.
func (s *Syncer) syncSubscriptions(ctx context.Context, subscriptions []orb.Subscription, eventTime time.Time) (int64, error) {
	rows := make([]postgres.Row, 0, len(subscriptions))
	for _, sub := range subscriptions {
		rows = append(rows, postgres.Row{
			"id":                                sub.ID,
			"active_plan_phase_order":           sub.ActivePlanPhaseOrder,
			"auto_collection":                   sub.AutoCollection,
			"billing_cycle_day":                 sub.BillingCycleDay,
			"created_at":                        sub.CreatedAt,
			"current_billing_period_start_date": sub.CurrentBillingPeriodStartDate,
			"current_billing_period_end_date":   sub.CurrentBillingPeriodEndDate,
			"customer_id":                       sub.Customer.ID,
			"default_invoice_memo":              sub.DefaultInvoiceMemo,
			"discount_intervals":                sub.DiscountIntervals,
			"end_date":                          sub.EndDate,
			"fixed_fee_quantity_schedule":       sub.FixedFeeQuantitySchedule,
			"invoicing_threshold":               sub.InvoicingThreshold,
			"maximum_intervals":                 sub.MaximumIntervals,
			"metadata":                          sub.Metadata,
			"minimum_intervals":                 sub.MinimumIntervals,
			"net_terms":                         sub.NetTerms,
			"plan":                              sub.Plan.Raw,
			"plan_id":                           sub.Plan.ID,
			"price_intervals":                   sub.PriceIntervals,
			"redeemed_coupon":                   sub.RedeemedCoupon,
			"start_date":                        sub.StartDate,
			"status":                            sub.Status,
			"trial_info":                        sub.TrialInfo,
		})
	}
	return s.store.UpsertManyProtected(ctx, rows, subscriptionSchema, eventTime)
}

// syncCurrentBillingCycle writes back only the refreshed billing-period
// fields of the given subscriptions. The narrow update keeps a stale bulk
// response from overwriting anything but the window itself.
func (s *Syncer) syncCurrentBillingCycle(ctx context.Context, subscriptions []orb.Subscription) error {
	rows := make([]postgres.Row, 0, len(subscriptions))
	for _, sub := range subscriptions {
		rows = append(rows, postgres.Row{
			"id":                                sub.ID,
			"current_billing_period_start_date": sub.CurrentBillingPeriodStartDate,
			"current_billing_period_end_date":   sub.CurrentBillingPeriodEndDate,
		})
	}
	return s.store.UpdateMany(ctx, rows, billingCycleSchema)
}
