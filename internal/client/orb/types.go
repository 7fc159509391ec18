package orb

import (
	"encoding/json"
	"time"
)

// ResourceRef is the minified form Orb uses when one resource embeds another,
// e.g. the customer object nested inside a subscription.
type ResourceRef struct {
	ID                 string  `json:"id"`
	ExternalCustomerID *string `json:"external_customer_id,omitempty"`
}

// PaginationMetadata is returned by every list endpoint.
type PaginationMetadata struct {
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// Page is a single page of a cursor-paginated list response.
type Page[T any] struct {
	Data               []T                `json:"data"`
	PaginationMetadata PaginationMetadata `json:"pagination_metadata"`
}

// Customer mirrors the Orb customer resource.
type Customer struct {
	ID                          string            `json:"id"`
	AdditionalEmails            []string          `json:"additional_emails"`
	AutoCollection              bool              `json:"auto_collection"`
	Balance                     string            `json:"balance"`
	BillingAddress              json.RawMessage   `json:"billing_address"`
	ShippingAddress             json.RawMessage   `json:"shipping_address"`
	CreatedAt                   time.Time         `json:"created_at"`
	Currency                    *string           `json:"currency"`
	Email                       string            `json:"email"`
	EmailDelivery               bool              `json:"email_delivery"`
	ExternalCustomerID          *string           `json:"external_customer_id"`
	Metadata                    map[string]string `json:"metadata"`
	Name                        string            `json:"name"`
	PaymentProvider             *string           `json:"payment_provider"`
	PaymentProviderID           *string           `json:"payment_provider_id"`
	PortalURL                   *string           `json:"portal_url"`
	TaxID                       json.RawMessage   `json:"tax_id"`
	Timezone                    string            `json:"timezone"`
	AccountingSyncConfiguration json.RawMessage   `json:"accounting_sync_configuration"`
	ReportingConfiguration      json.RawMessage   `json:"reporting_configuration"`
}

// SubscriptionPlan is the plan object embedded in a subscription. The raw
// payload is retained because the mirror stores the full object alongside the
// flattened plan_id.
type SubscriptionPlan struct {
	ID  string
	Raw json.RawMessage
}

func (p *SubscriptionPlan) UnmarshalJSON(data []byte) error {
	p.Raw = append(p.Raw[:0], data...)
	var stub struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &stub); err != nil {
		return err
	}
	p.ID = stub.ID
	return nil
}

func (p SubscriptionPlan) MarshalJSON() ([]byte, error) {
	if p.Raw == nil {
		return []byte("null"), nil
	}
	return p.Raw, nil
}

// Subscription mirrors the Orb subscription resource.
type Subscription struct {
	ID                            string            `json:"id"`
	ActivePlanPhaseOrder          *int              `json:"active_plan_phase_order"`
	AutoCollection                *bool             `json:"auto_collection"`
	BillingCycleDay               int               `json:"billing_cycle_day"`
	CreatedAt                     time.Time         `json:"created_at"`
	CurrentBillingPeriodStartDate *time.Time        `json:"current_billing_period_start_date"`
	CurrentBillingPeriodEndDate   *time.Time        `json:"current_billing_period_end_date"`
	Customer                      ResourceRef       `json:"customer"`
	DefaultInvoiceMemo            *string           `json:"default_invoice_memo"`
	DiscountIntervals             json.RawMessage   `json:"discount_intervals"`
	EndDate                       *time.Time        `json:"end_date"`
	FixedFeeQuantitySchedule      json.RawMessage   `json:"fixed_fee_quantity_schedule"`
	InvoicingThreshold            *string           `json:"invoicing_threshold"`
	MaximumIntervals              json.RawMessage   `json:"maximum_intervals"`
	Metadata                      map[string]string `json:"metadata"`
	MinimumIntervals              json.RawMessage   `json:"minimum_intervals"`
	NetTerms                      int               `json:"net_terms"`
	Plan                          SubscriptionPlan  `json:"plan"`
	PriceIntervals                json.RawMessage   `json:"price_intervals"`
	RedeemedCoupon                json.RawMessage   `json:"redeemed_coupon"`
	StartDate                     *time.Time        `json:"start_date"`
	Status                        string            `json:"status"`
	TrialInfo                     json.RawMessage   `json:"trial_info"`
}

// Invoice mirrors the Orb invoice resource. Line items are kept raw so the
// stored copy is byte-for-byte what the provider sent; the billing-cycle
// logic parses the fields it needs separately.
type Invoice struct {
	ID                          string            `json:"id"`
	AmountDue                   string            `json:"amount_due"`
	AutoCollection              json.RawMessage   `json:"auto_collection"`
	BillingAddress              json.RawMessage   `json:"billing_address"`
	CreatedAt                   time.Time         `json:"created_at"`
	CreditNotes                 json.RawMessage   `json:"credit_notes"`
	Currency                    string            `json:"currency"`
	Customer                    ResourceRef       `json:"customer"`
	CustomerBalanceTransactions json.RawMessage   `json:"customer_balance_transactions"`
	CustomerTaxID               json.RawMessage   `json:"customer_tax_id"`
	Discount                    json.RawMessage   `json:"discount"`
	Discounts                   json.RawMessage   `json:"discounts"`
	DueDate                     *time.Time        `json:"due_date"`
	EligibleToIssueAt           *time.Time        `json:"eligible_to_issue_at"`
	HostedInvoiceURL            *string           `json:"hosted_invoice_url"`
	InvoiceDate                 time.Time         `json:"invoice_date"`
	InvoiceNumber               string            `json:"invoice_number"`
	InvoicePDF                  *string           `json:"invoice_pdf"`
	InvoiceSource               string            `json:"invoice_source"`
	IssueFailedAt               *time.Time        `json:"issue_failed_at"`
	IssuedAt                    *time.Time        `json:"issued_at"`
	LineItems                   json.RawMessage   `json:"line_items"`
	Maximum                     json.RawMessage   `json:"maximum"`
	MaximumAmount               *string           `json:"maximum_amount"`
	Memo                        *string           `json:"memo"`
	Metadata                    map[string]string `json:"metadata"`
	Minimum                     json.RawMessage   `json:"minimum"`
	MinimumAmount               *string           `json:"minimum_amount"`
	PaidAt                      *time.Time        `json:"paid_at"`
	PaymentFailedAt             *time.Time        `json:"payment_failed_at"`
	ScheduledIssueAt            *time.Time        `json:"scheduled_issue_at"`
	ShippingAddress             json.RawMessage   `json:"shipping_address"`
	Status                      string            `json:"status"`
	Subscription                *ResourceRef      `json:"subscription"`
	Subtotal                    string            `json:"subtotal"`
	Total                       string            `json:"total"`
	SyncFailedAt                *time.Time        `json:"sync_failed_at"`
	VoidedAt                    *time.Time        `json:"voided_at"`
	WillAutoIssue               bool              `json:"will_auto_issue"`
}

// CreditNote mirrors the Orb credit note resource.
type CreditNote struct {
	ID                      string          `json:"id"`
	CreatedAt               time.Time       `json:"created_at"`
	CreditNoteNumber        string          `json:"credit_note_number"`
	CreditNotePDF           *string         `json:"credit_note_pdf"`
	Customer                ResourceRef     `json:"customer"`
	Discounts               json.RawMessage `json:"discounts"`
	InvoiceID               string          `json:"invoice_id"`
	LineItems               json.RawMessage `json:"line_items"`
	MaximumAmountAdjustment json.RawMessage `json:"maximum_amount_adjustment"`
	Memo                    *string         `json:"memo"`
	MinimumAmountRefunded   *string         `json:"minimum_amount_refunded"`
	Reason                  *string         `json:"reason"`
	Subtotal                string          `json:"subtotal"`
	Total                   string          `json:"total"`
	Type                    string          `json:"type"`
	VoidedAt                *time.Time      `json:"voided_at"`
}

// Plan mirrors the Orb plan resource.
type Plan struct {
	ID                string            `json:"id"`
	CreatedAt         time.Time         `json:"created_at"`
	Currency          string            `json:"currency"`
	Description       string            `json:"description"`
	ExternalPlanID    *string           `json:"external_plan_id"`
	InvoicingCurrency string            `json:"invoicing_currency"`
	MaximumAmount     *string           `json:"maximum_amount"`
	Metadata          map[string]string `json:"metadata"`
	MinimumAmount     *string           `json:"minimum_amount"`
	Name              string            `json:"name"`
	NetTerms          *int              `json:"net_terms"`
	Prices            json.RawMessage   `json:"prices"`
	Product           json.RawMessage   `json:"product"`
	Status            string            `json:"status"`
	TrialConfig       json.RawMessage   `json:"trial_config"`
	Version           int               `json:"version"`
}

// BillableMetric mirrors the Orb billable metric resource.
type BillableMetric struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	Status      string            `json:"status"`
	Item        ResourceRef       `json:"item"`
	Metadata    map[string]string `json:"metadata"`
}
