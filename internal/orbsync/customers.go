package orbsync

import (
	"context"
	"time"

	"github.com/meterwise/orb-sync/internal/client/orb"
	"github.com/meterwise/orb-sync/internal/orbsync/postgres"
)

func (s *Syncer) syncCustomers(ctx context.Context, customers []orb.Customer, eventTime time.Time) (int64, error) {
	rows := make([]postgres.Row, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, postgres.Row{
			"id":                            c.ID,
			"additional_emails":             c.AdditionalEmails,
			"auto_collection":               c.AutoCollection,
			"balance":                       numeric(c.Balance),
			"billing_address":               c.BillingAddress,
			"shipping_address":              c.ShippingAddress,
			"created_at":                    c.CreatedAt,
			"currency":                      c.Currency,
			"email":                         c.Email,
			"email_delivery":                c.EmailDelivery,
			"external_customer_id":          c.ExternalCustomerID,
			"metadata":                      c.Metadata,
			"name":                          c.Name,
			"payment_provider":              c.PaymentProvider,
			"payment_provider_id":           c.PaymentProviderID,
			"portal_url":                    c.PortalURL,
			"tax_id":                        c.TaxID,
			"timezone":                      c.Timezone,
			"accounting_sync_configuration": c.AccountingSyncConfiguration,
			"reporting_configuration":       c.ReportingConfiguration,
		})
	}
	return s.store.UpsertManyProtected(ctx, rows, customerSchema, eventTime)
}
