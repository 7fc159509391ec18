package orbsync

import (
	"context"
	"time"

	"github.com/meterwise/orb-sync/internal/client/orb"
	"github.com/meterwise/orb-sync/internal/orbsync/postgres"
)

// syncBillableMetrics uses the plain upsert; metrics change rarely and carry
// no last_synced_at column.
func (s *Syncer) syncBillableMetrics(ctx context.Context, metrics []orb.BillableMetric, _ time.Time) (int64, error) {
	rows := make([]postgres.Row, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, postgres.Row{
			"id":          m.ID,
			"name":        m.Name,
			"description": m.Description,
			"status":      m.Status,
			"item_id":     m.Item.ID,
			"metadata":    m.Metadata,
		})
	}
	return s.store.UpsertMany(ctx, rows, billableMetricSchema)
}
