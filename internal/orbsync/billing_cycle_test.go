package orbsync

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/meterwise/orb-sync/internal/client/orb"
	"github.com/meterwise/orb-sync/internal/orbsync/postgres"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func invoiceWithLineItems(items string) orb.Invoice {
	return orb.Invoice{
		ID:           "inv_1",
		Subscription: &orb.ResourceRef{ID: "sub_1"},
		LineItems:    json.RawMessage(items),
	}
}

func TestBillingCycleFromInvoice(t *testing.T) {
	t.Run("finds the plan line item window", func(t *testing.T) {
		inv := invoiceWithLineItems(`[
			{"name": "API Requests", "start_date": "2025-04-10", "end_date": "2025-05-10",
			 "price": {"price_type": "usage_price", "billable_metric": {"id": "bm_1"}}},
			{"name": "Enterprise Plan", "start_date": "2025-04-10T00:00:00Z", "end_date": "2025-05-10T00:00:00Z",
			 "price": {"price_type": "fixed_price", "billable_metric": null}}
		]`)

		cycle, ok := billingCycleFromInvoice(inv)
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC), cycle.Start)
		assert.Equal(t, time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC), cycle.End)
	})

	t.Run("accepts date-only line item dates", func(t *testing.T) {
		inv := invoiceWithLineItems(`[
			{"name": "Starter Plan", "start_date": "2025-04-10", "end_date": "2025-05-10",
			 "price": {"price_type": "fixed_price", "billable_metric": null}}
		]`)

		cycle, ok := billingCycleFromInvoice(inv)
		require.True(t, ok)
		assert.Equal(t, time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC), cycle.Start)
	})

	t.Run("usage-only invoices have no plan window", func(t *testing.T) {
		inv := invoiceWithLineItems(`[
			{"name": "API Requests", "start_date": "2025-04-10", "end_date": "2025-05-10",
			 "price": {"price_type": "usage_price", "billable_metric": {"id": "bm_1"}}}
		]`)

		_, ok := billingCycleFromInvoice(inv)
		assert.False(t, ok)
	})

	t.Run("fixed price with a billable metric is not the plan item", func(t *testing.T) {
		inv := invoiceWithLineItems(`[
			{"name": "Support Plan", "start_date": "2025-04-10", "end_date": "2025-05-10",
			 "price": {"price_type": "fixed_price", "billable_metric": {"id": "bm_1"}}}
		]`)

		_, ok := billingCycleFromInvoice(inv)
		assert.False(t, ok)
	})

	t.Run("fixed price without the name suffix is not the plan item", func(t *testing.T) {
		inv := invoiceWithLineItems(`[
			{"name": "One-time setup fee", "start_date": "2025-04-10", "end_date": "2025-05-10",
			 "price": {"price_type": "fixed_price", "billable_metric": null}}
		]`)

		_, ok := billingCycleFromInvoice(inv)
		assert.False(t, ok)
	})

	t.Run("empty and unparsable line items", func(t *testing.T) {
		_, ok := billingCycleFromInvoice(orb.Invoice{ID: "inv_1"})
		assert.False(t, ok)

		_, ok = billingCycleFromInvoice(invoiceWithLineItems(`{"not": "an array"`))
		assert.False(t, ok)
	})
}

func TestRepairBillingCycle(t *testing.T) {
	window := `[
		{"name": "Enterprise Plan", "start_date": "2025-04-10T00:00:00Z", "end_date": "2025-05-10T00:00:00Z",
		 "price": {"price_type": "fixed_price", "billable_metric": null}}
	]`

	t.Run("updates when the candidate window is currently open", func(t *testing.T) {
		store := new(MockStore)
		syncer := NewSyncer(store, new(MockProvider), false)
		now := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)

		store.On("UpdateSubscriptionBillingCycle", mock.Anything, postgres.BillingCycleUpdate{
			SubscriptionID: "sub_1",
			PeriodStart:    time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
			PeriodEnd:      time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
		}, now).Return(true, nil)

		err := syncer.repairBillingCycle(context.Background(), invoiceWithLineItems(window), now)
		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("skips when the candidate window has already closed", func(t *testing.T) {
		store := new(MockStore)
		syncer := NewSyncer(store, new(MockProvider), false)
		now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

		err := syncer.repairBillingCycle(context.Background(), invoiceWithLineItems(window), now)
		require.NoError(t, err)
		store.AssertNotCalled(t, "UpdateSubscriptionBillingCycle", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("skips when the candidate window has not started", func(t *testing.T) {
		store := new(MockStore)
		syncer := NewSyncer(store, new(MockProvider), false)
		now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

		err := syncer.repairBillingCycle(context.Background(), invoiceWithLineItems(window), now)
		require.NoError(t, err)
		store.AssertNotCalled(t, "UpdateSubscriptionBillingCycle", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("skips invoices without a subscription", func(t *testing.T) {
		store := new(MockStore)
		syncer := NewSyncer(store, new(MockProvider), false)

		inv := invoiceWithLineItems(window)
		inv.Subscription = nil
		err := syncer.repairBillingCycle(context.Background(), inv, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		store.AssertNotCalled(t, "UpdateSubscriptionBillingCycle", mock.Anything, mock.Anything, mock.Anything)
	})
}
