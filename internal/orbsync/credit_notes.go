package orbsync

import (
	"context"
	"time"

	"github.com/meterwise/orb-sync/internal/client/orb"
	"github.com/meterwise/orb-sync/internal/orbsync/postgres"
)

func (s *Syncer) syncCreditNotes(ctx context.Context, creditNotes []orb.CreditNote, eventTime time.Time) (int64, error) {
	rows := make([]postgres.Row, 0, len(creditNotes))
	for _, cn := range creditNotes {
		rows = append(rows, postgres.Row{
			"id":                        cn.ID,
			"created_at":                cn.CreatedAt,
			"credit_note_number":        cn.CreditNoteNumber,
			"credit_note_pdf":           cn.CreditNotePDF,
			"customer_id":               cn.Customer.ID,
			"discounts":                 cn.Discounts,
			"invoice_id":                cn.InvoiceID,
			"line_items":                cn.LineItems,
			"maximum_amount_adjustment": cn.MaximumAmountAdjustment,
			"memo":                      cn.Memo,
			"minimum_amount_refunded":   numericPtr(cn.MinimumAmountRefunded),
			"reason":                    cn.Reason,
			"subtotal":                  numeric(cn.Subtotal),
			"total":                     numeric(cn.Total),
			"type":                      cn.Type,
			"voided_at":                 cn.VoidedAt,
		})
	}
	return s.store.UpsertManyProtected(ctx, rows, creditNoteSchema, eventTime)
}
