package orbsync

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/meterwise/orb-sync/internal/client/orb"
	"github.com/meterwise/orb-sync/internal/logger"
	"github.com/meterwise/orb-sync/internal/orbsync/postgres"

	"go.uber.org/zap"
)

// planLineItemSuffix identifies the fixed-price line item that bills the
// subscription's plan charge; its service window is the billing period.
const planLineItemSuffix = "Plan"

// BillingCycle is the [start, end) window an invoice's plan line item covers.
type BillingCycle struct {
	Start time.Time
	End   time.Time
}

type invoiceLineItem struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Price     *struct {
		PriceType      string          `json:"price_type"`
		BillableMetric json.RawMessage `json:"billable_metric"`
	} `json:"price"`
}

// billingCycleFromInvoice returns the billing cycle the invoice's plan line
// item applies to. Not every invoice has one: usage-only invoices and
// invoices with unrelated fixed-price items return false.
func billingCycleFromInvoice(inv orb.Invoice) (BillingCycle, bool) {
	if len(inv.LineItems) == 0 {
		return BillingCycle{}, false
	}
	var items []invoiceLineItem
	if err := json.Unmarshal(inv.LineItems, &items); err != nil {
		logger.Warn("Could not parse invoice line items",
			zap.String("invoice_id", inv.ID),
			zap.Error(err),
		)
		return BillingCycle{}, false
	}

	for _, item := range items {
		if item.Price == nil || item.Price.PriceType != "fixed_price" {
			continue
		}
		if !isJSONNull(item.Price.BillableMetric) {
			continue
		}
		if !strings.HasSuffix(item.Name, planLineItemSuffix) {
			continue
		}
		start, err := parseLineItemDate(item.StartDate)
		if err != nil {
			return BillingCycle{}, false
		}
		end, err := parseLineItemDate(item.EndDate)
		if err != nil {
			return BillingCycle{}, false
		}
		return BillingCycle{Start: start, End: end}, true
	}
	return BillingCycle{}, false
}

// parseLineItemDate accepts both the date-time and date-only forms Orb uses
// on line items.
func parseLineItemDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

func isJSONNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

// repairBillingCycle conditionally corrects the stored billing window of the
// invoice's subscription. The candidate window must itself be open right now;
// the store-side predicate additionally requires the stored window to have
// elapsed, so a valid window is never moved backward.
func (s *Syncer) repairBillingCycle(ctx context.Context, inv orb.Invoice, now time.Time) error {
	if inv.Subscription == nil {
		return nil
	}
	cycle, ok := billingCycleFromInvoice(inv)
	if !ok {
		return nil
	}
	if !cycle.Start.Before(now) || !cycle.End.After(now) {
		logger.Debug("Skipping billing cycle repair, candidate window not currently open",
			zap.String("subscription_id", inv.Subscription.ID),
			zap.Time("candidate_start", cycle.Start),
			zap.Time("candidate_end", cycle.End),
		)
		return nil
	}

	applied, err := s.store.UpdateSubscriptionBillingCycle(ctx, postgres.BillingCycleUpdate{
		SubscriptionID: inv.Subscription.ID,
		PeriodStart:    cycle.Start,
		PeriodEnd:      cycle.End,
	}, now)
	if err != nil {
		return err
	}
	if applied {
		logger.Info("Repaired subscription billing cycle",
			zap.String("subscription_id", inv.Subscription.ID),
			zap.Time("period_start", cycle.Start),
			zap.Time("period_end", cycle.End),
		)
	}
	return nil
}
