package orbsync

import (
	"context"
	"time"

	"github.com/meterwise/orb-sync/internal/client/orb"
	"github.com/meterwise/orb-sync/internal/orbsync/postgres"
)

func (s *Syncer) syncInvoices(ctx context.Context, invoices []orb.Invoice, eventTime time.Time) (int64, error) {
	rows := make([]postgres.Row, 0, len(invoices))
	for _, inv := range invoices {
		row := postgres.Row{
			"id":                            inv.ID,
			"amount_due":                    numeric(inv.AmountDue),
			"auto_collection":               inv.AutoCollection,
			"billing_address":               inv.BillingAddress,
			"created_at":                    inv.CreatedAt,
			"credit_notes":                  inv.CreditNotes,
			"currency":                      inv.Currency,
			"customer_id":                   inv.Customer.ID,
			"customer_balance_transactions": inv.CustomerBalanceTransactions,
			"customer_tax_id":               inv.CustomerTaxID,
			"discount":                      inv.Discount,
			"discounts":                     inv.Discounts,
			"due_date":                      inv.DueDate,
			"eligible_to_issue_at":          inv.EligibleToIssueAt,
			"hosted_invoice_url":            inv.HostedInvoiceURL,
			"invoice_date":                  inv.InvoiceDate,
			"invoice_number":                inv.InvoiceNumber,
			"invoice_pdf":                   inv.InvoicePDF,
			"invoice_source":                inv.InvoiceSource,
			"issue_failed_at":               inv.IssueFailedAt,
			"issued_at":                     inv.IssuedAt,
			"line_items":                    inv.LineItems,
			"maximum":                       inv.Maximum,
			"maximum_amount":                numericPtr(inv.MaximumAmount),
			"memo":                          inv.Memo,
			"metadata":                      inv.Metadata,
			"minimum":                       inv.Minimum,
			"minimum_amount":                numericPtr(inv.MinimumAmount),
			"paid_at":                       inv.PaidAt,
			"payment_failed_at":             inv.PaymentFailedAt,
			"scheduled_issue_at":            inv.ScheduledIssueAt,
			"shipping_address":              inv.ShippingAddress,
			"status":                        inv.Status,
			"subtotal":                      numeric(inv.Subtotal),
			"total":                         numeric(inv.Total),
			"sync_failed_at":                inv.SyncFailedAt,
			"voided_at":                     inv.VoidedAt,
			"will_auto_issue":               inv.WillAutoIssue,
		}
		if inv.Subscription != nil {
			row["subscription_id"] = inv.Subscription.ID
		}
		rows = append(rows, row)
	}
	return s.store.UpsertManyProtected(ctx, rows, invoiceSchema, eventTime)
}
