package orbsync

import "github.com/meterwise/orb-sync/internal/orbsync/postgres"

// Column manifests for every mirrored table. These are the single source of
// truth for what the mirror stores: the generic writer binds exactly these
// columns, in this order, and drops anything else a provider record carries.
//
// customers, subscriptions, invoices and credit notes carry last_synced_at
// and get timestamp-protected writes; plans and billable metrics churn
// rarely enough that plain upserts are acceptable.

var customerSchema = postgres.Schema{
	Table: "customers",
	Columns: []postgres.Column{
		{Name: "id", Kind: postgres.KindString},
		{Name: "additional_emails", Kind: postgres.KindArray},
		{Name: "auto_collection", Kind: postgres.KindBoolean},
		{Name: "balance", Kind: postgres.KindNumber},
		{Name: "billing_address", Kind: postgres.KindObject},
		{Name: "shipping_address", Kind: postgres.KindObject},
		{Name: "created_at", Kind: postgres.KindString},
		{Name: "currency", Kind: postgres.KindString},
		{Name: "email", Kind: postgres.KindString},
		{Name: "email_delivery", Kind: postgres.KindBoolean},
		{Name: "external_customer_id", Kind: postgres.KindString},
		{Name: "metadata", Kind: postgres.KindObject},
		{Name: "name", Kind: postgres.KindString},
		{Name: "payment_provider", Kind: postgres.KindString},
		{Name: "payment_provider_id", Kind: postgres.KindString},
		{Name: "portal_url", Kind: postgres.KindString},
		{Name: "tax_id", Kind: postgres.KindObject},
		{Name: "timezone", Kind: postgres.KindString},
		{Name: "accounting_sync_configuration", Kind: postgres.KindObject},
		{Name: "reporting_configuration", Kind: postgres.KindObject},
		{Name: "last_synced_at", Kind: postgres.KindString},
	},
}

var subscriptionSchema = postgres.Schema{
	Table: "subscriptions",
	Columns: []postgres.Column{
		{Name: "id", Kind: postgres.KindString},
		{Name: "active_plan_phase_order", Kind: postgres.KindNumber},
		{Name: "auto_collection", Kind: postgres.KindBoolean},
		{Name: "billing_cycle_day", Kind: postgres.KindNumber},
		{Name: "created_at", Kind: postgres.KindString},
		{Name: "current_billing_period_start_date", Kind: postgres.KindString},
		{Name: "current_billing_period_end_date", Kind: postgres.KindString},
		{Name: "customer_id", Kind: postgres.KindString},
		{Name: "default_invoice_memo", Kind: postgres.KindString},
		{Name: "discount_intervals", Kind: postgres.KindObject},
		{Name: "end_date", Kind: postgres.KindString},
		{Name: "fixed_fee_quantity_schedule", Kind: postgres.KindObject},
		{Name: "invoicing_threshold", Kind: postgres.KindString},
		{Name: "maximum_intervals", Kind: postgres.KindObject},
		{Name: "metadata", Kind: postgres.KindObject},
		{Name: "minimum_intervals", Kind: postgres.KindObject},
		{Name: "net_terms", Kind: postgres.KindNumber},
		{Name: "plan", Kind: postgres.KindObject},
		{Name: "plan_id", Kind: postgres.KindString},
		{Name: "price_intervals", Kind: postgres.KindObject},
		{Name: "redeemed_coupon", Kind: postgres.KindObject},
		{Name: "start_date", Kind: postgres.KindString},
		{Name: "status", Kind: postgres.KindString},
		{Name: "trial_info", Kind: postgres.KindObject},
		{Name: "last_synced_at", Kind: postgres.KindString},
	},
}

// billingCycleSchema is the narrow update path used by the staleness sweep so
// a stale bulk response can only touch the billing window, nothing else.
var billingCycleSchema = postgres.Schema{
	Table: "subscriptions",
	Columns: []postgres.Column{
		{Name: "id", Kind: postgres.KindString},
		{Name: "current_billing_period_start_date", Kind: postgres.KindString},
		{Name: "current_billing_period_end_date", Kind: postgres.KindString},
	},
}

var invoiceSchema = postgres.Schema{
	Table: "invoices",
	Columns: []postgres.Column{
		{Name: "id", Kind: postgres.KindString},
		{Name: "amount_due", Kind: postgres.KindNumber},
		{Name: "auto_collection", Kind: postgres.KindObject},
		{Name: "billing_address", Kind: postgres.KindObject},
		{Name: "created_at", Kind: postgres.KindString},
		{Name: "credit_notes", Kind: postgres.KindObject},
		{Name: "currency", Kind: postgres.KindString},
		{Name: "customer_id", Kind: postgres.KindString},
		{Name: "customer_balance_transactions", Kind: postgres.KindObject},
		{Name: "customer_tax_id", Kind: postgres.KindObject},
		{Name: "discount", Kind: postgres.KindObject},
		{Name: "discounts", Kind: postgres.KindObject},
		{Name: "due_date", Kind: postgres.KindString},
		{Name: "eligible_to_issue_at", Kind: postgres.KindString},
		{Name: "hosted_invoice_url", Kind: postgres.KindString},
		{Name: "invoice_date", Kind: postgres.KindString},
		{Name: "invoice_number", Kind: postgres.KindString},
		{Name: "invoice_pdf", Kind: postgres.KindString},
		{Name: "invoice_source", Kind: postgres.KindString},
		{Name: "issue_failed_at", Kind: postgres.KindString},
		{Name: "issued_at", Kind: postgres.KindString},
		{Name: "line_items", Kind: postgres.KindObject},
		{Name: "maximum", Kind: postgres.KindObject},
		{Name: "maximum_amount", Kind: postgres.KindNumber},
		{Name: "memo", Kind: postgres.KindString},
		{Name: "metadata", Kind: postgres.KindObject},
		{Name: "minimum", Kind: postgres.KindObject},
		{Name: "minimum_amount", Kind: postgres.KindNumber},
		{Name: "paid_at", Kind: postgres.KindString},
		{Name: "payment_failed_at", Kind: postgres.KindString},
		{Name: "scheduled_issue_at", Kind: postgres.KindString},
		{Name: "shipping_address", Kind: postgres.KindObject},
		{Name: "status", Kind: postgres.KindString},
		{Name: "subscription_id", Kind: postgres.KindString},
		{Name: "subtotal", Kind: postgres.KindNumber},
		{Name: "total", Kind: postgres.KindNumber},
		{Name: "sync_failed_at", Kind: postgres.KindString},
		{Name: "voided_at", Kind: postgres.KindString},
		{Name: "will_auto_issue", Kind: postgres.KindBoolean},
		{Name: "last_synced_at", Kind: postgres.KindString},
	},
}

var creditNoteSchema = postgres.Schema{
	Table: "credit_notes",
	Columns: []postgres.Column{
		{Name: "id", Kind: postgres.KindString},
		{Name: "created_at", Kind: postgres.KindString},
		{Name: "credit_note_number", Kind: postgres.KindString},
		{Name: "credit_note_pdf", Kind: postgres.KindString},
		{Name: "customer_id", Kind: postgres.KindString},
		{Name: "discounts", Kind: postgres.KindObject},
		{Name: "invoice_id", Kind: postgres.KindString},
		{Name: "line_items", Kind: postgres.KindObject},
		{Name: "maximum_amount_adjustment", Kind: postgres.KindObject},
		{Name: "memo", Kind: postgres.KindString},
		{Name: "minimum_amount_refunded", Kind: postgres.KindNumber},
		{Name: "reason", Kind: postgres.KindString},
		{Name: "subtotal", Kind: postgres.KindNumber},
		{Name: "total", Kind: postgres.KindNumber},
		{Name: "type", Kind: postgres.KindString},
		{Name: "voided_at", Kind: postgres.KindString},
		{Name: "last_synced_at", Kind: postgres.KindString},
	},
}

var planSchema = postgres.Schema{
	Table: "plans",
	Columns: []postgres.Column{
		{Name: "id", Kind: postgres.KindString},
		{Name: "created_at", Kind: postgres.KindString},
		{Name: "currency", Kind: postgres.KindString},
		{Name: "description", Kind: postgres.KindString},
		{Name: "external_plan_id", Kind: postgres.KindString},
		{Name: "invoicing_currency", Kind: postgres.KindString},
		{Name: "maximum_amount", Kind: postgres.KindNumber},
		{Name: "metadata", Kind: postgres.KindObject},
		{Name: "minimum_amount", Kind: postgres.KindNumber},
		{Name: "name", Kind: postgres.KindString},
		{Name: "net_terms", Kind: postgres.KindNumber},
		{Name: "prices", Kind: postgres.KindObject},
		{Name: "product", Kind: postgres.KindObject},
		{Name: "status", Kind: postgres.KindString},
		{Name: "trial_config", Kind: postgres.KindObject},
		{Name: "version", Kind: postgres.KindNumber},
	},
}

var billableMetricSchema = postgres.Schema{
	Table: "billable_metrics",
	Columns: []postgres.Column{
		{Name: "id", Kind: postgres.KindString},
		{Name: "name", Kind: postgres.KindString},
		{Name: "description", Kind: postgres.KindString},
		{Name: "status", Kind: postgres.KindString},
		{Name: "item_id", Kind: postgres.KindString},
		{Name: "metadata", Kind: postgres.KindObject},
	},
}

var subscriptionUsageExceededSchema = postgres.Schema{
	Table: "subscription_usage_exceeded",
	Columns: []postgres.Column{
		{Name: "subscription_id", Kind: postgres.KindString},
		{Name: "customer_id", Kind: postgres.KindString},
		{Name: "external_customer_id", Kind: postgres.KindString},
		{Name: "billable_metric_id", Kind: postgres.KindString},
		{Name: "timeframe_start", Kind: postgres.KindString},
		{Name: "timeframe_end", Kind: postgres.KindString},
		{Name: "quantity_threshold", Kind: postgres.KindNumber},
	},
}

var subscriptionCostExceededSchema = postgres.Schema{
	Table: "subscription_cost_exceeded",
	Columns: []postgres.Column{
		{Name: "subscription_id", Kind: postgres.KindString},
		{Name: "customer_id", Kind: postgres.KindString},
		{Name: "external_customer_id", Kind: postgres.KindString},
		{Name: "timeframe_start", Kind: postgres.KindString},
		{Name: "timeframe_end", Kind: postgres.KindString},
		{Name: "amount_threshold", Kind: postgres.KindNumber},
	},
}
