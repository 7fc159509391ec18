package orbsync

import (
	"context"
	"time"

	"github.com/meterwise/orb-sync/internal/client/orb"
	"github.com/meterwise/orb-sync/internal/orbsync/postgres"
)

// syncPlans uses the plain upsert; plans change rarely and carry no
// last_synced_at column.
func (s *Syncer) syncPlans(ctx context.Context, plans []orb.Plan, _ time.Time) (int64, error) {
	rows := make([]postgres.Row, 0, len(plans))
	for _, p := range plans {
		rows = append(rows, postgres.Row{
			"id":                 p.ID,
			"created_at":         p.CreatedAt,
			"currency":           p.Currency,
			"description":        p.Description,
			"external_plan_id":   p.ExternalPlanID,
			"invoicing_currency": p.InvoicingCurrency,
			"maximum_amount":     numericPtr(p.MaximumAmount),
			"metadata":           p.Metadata,
			"minimum_amount":     numericPtr(p.MinimumAmount),
			"name":               p.Name,
			"net_terms":          p.NetTerms,
			"prices":             p.Prices,
			"product":            p.Product,
			"status":             p.Status,
			"trial_config":       p.TrialConfig,
			"version":            p.Version,
		})
	}
	return s.store.UpsertMany(ctx, rows, planSchema)
}
