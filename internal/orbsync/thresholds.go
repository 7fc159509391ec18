package orbsync

import (
	"context"
	"time"

	"github.com/meterwise/orb-sync/internal/client/orb"
	"github.com/meterwise/orb-sync/internal/orbsync/postgres"
	"github.com/shopspring/decimal"
)

// Threshold-exceeded notifications are appended per occurrence; unlike the
// mirrored entities there is nothing to merge into.

type usageExceededProperties struct {
	BillableMetricID  string    `json:"billable_metric_id"`
	TimeframeStart    time.Time `json:"timeframe_start"`
	TimeframeEnd      time.Time `json:"timeframe_end"`
	QuantityThreshold float64   `json:"quantity_threshold"`
}

type costExceededProperties struct {
	TimeframeStart  time.Time `json:"timeframe_start"`
	TimeframeEnd    time.Time `json:"timeframe_end"`
	AmountThreshold float64   `json:"amount_threshold"`
}

func (s *Syncer) syncSubscriptionUsageExceeded(ctx context.Context, sub orb.Subscription, props usageExceededProperties) error {
	row := postgres.Row{
		"subscription_id":      sub.ID,
		"customer_id":          sub.Customer.ID,
		"external_customer_id": sub.Customer.ExternalCustomerID,
		"billable_metric_id":   props.BillableMetricID,
		"timeframe_start":      props.TimeframeStart,
		"timeframe_end":        props.TimeframeEnd,
		"quantity_threshold":   decimal.NewFromFloat(props.QuantityThreshold),
	}
	_, err := s.store.InsertMany(ctx, []postgres.Row{row}, subscriptionUsageExceededSchema)
	return err
}

func (s *Syncer) syncSubscriptionCostExceeded(ctx context.Context, sub orb.Subscription, props costExceededProperties) error {
	row := postgres.Row{
		"subscription_id":      sub.ID,
		"customer_id":          sub.Customer.ID,
		"external_customer_id": sub.Customer.ExternalCustomerID,
		"timeframe_start":      props.TimeframeStart,
		"timeframe_end":        props.TimeframeEnd,
		"amount_threshold":     decimal.NewFromFloat(props.AmountThreshold),
	}
	_, err := s.store.InsertMany(ctx, []postgres.Row{row}, subscriptionCostExceededSchema)
	return err
}
