// Package orbsync maintains the local relational mirror of Orb-owned billing
// entities. Records arrive over two channels, webhook deliveries and
// paginated bulk fetches, and every write goes through a schema-driven store
// adapter that arbitrates ordering by event time.
package orbsync

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/meterwise/orb-sync/internal/client/orb"
	"github.com/meterwise/orb-sync/internal/logger"
	"github.com/meterwise/orb-sync/internal/orbsync/postgres"

	"go.uber.org/zap"
)

// Entity names a mirrored entity type.
type Entity string

const (
	EntityCustomers       Entity = "customers"
	EntitySubscriptions   Entity = "subscriptions"
	EntityInvoices        Entity = "invoices"
	EntityCreditNotes     Entity = "credit_notes"
	EntityPlans           Entity = "plans"
	EntityBillableMetrics Entity = "billable_metrics"
)

// ErrUnknownEntity is returned for entity names outside the mirrored set.
var ErrUnknownEntity = fmt.Errorf("unknown entity type")

// ParseEntity validates an entity name from a request path.
func ParseEntity(name string) (Entity, error) {
	switch Entity(name) {
	case EntityCustomers, EntitySubscriptions, EntityInvoices, EntityCreditNotes, EntityPlans, EntityBillableMetrics:
		return Entity(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntity, name)
}

const (
	defaultPageSize       = 100
	defaultMetricPageSize = 50

	// staleSubscriptionLimit bounds one sweep of the billing-cycle refresh.
	staleSubscriptionLimit = 2500
	// staleRefreshChunk is how many customers are re-fetched per Orb call.
	staleRefreshChunk = 100
)

// FetchParams filter a bulk sync. The creation-time bounds are RFC 3339
// strings; empty means unbounded.
type FetchParams struct {
	Limit        int
	CreatedAtGt  string
	CreatedAtGte string
	CreatedAtLt  string
	CreatedAtLte string
}

func (p FetchParams) listParams(defaultLimit int) orb.ListParams {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	return orb.ListParams{
		Limit:        limit,
		CreatedAtGt:  p.CreatedAtGt,
		CreatedAtGte: p.CreatedAtGte,
		CreatedAtLt:  p.CreatedAtLt,
		CreatedAtLte: p.CreatedAtLte,
	}
}

// Store is the persistence surface the sync modules write through.
type Store interface {
	UpsertMany(ctx context.Context, rows []postgres.Row, schema postgres.Schema) (int64, error)
	UpsertManyProtected(ctx context.Context, rows []postgres.Row, schema postgres.Schema, eventTime time.Time) (int64, error)
	InsertMany(ctx context.Context, rows []postgres.Row, schema postgres.Schema) (int64, error)
	UpdateMany(ctx context.Context, rows []postgres.Row, schema postgres.Schema) error
	UpdateSubscriptionBillingCycle(ctx context.Context, upd postgres.BillingCycleUpdate, now time.Time) (bool, error)
	StaleSubscriptionCustomerIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// Provider is the Orb API surface the syncer consumes.
type Provider interface {
	ListCustomers(ctx context.Context, p orb.ListParams) (orb.Page[orb.Customer], error)
	FetchCustomer(ctx context.Context, id string) (orb.Customer, error)
	ListSubscriptions(ctx context.Context, p orb.ListParams) (orb.Page[orb.Subscription], error)
	ListSubscriptionsForCustomers(ctx context.Context, customerIDs []string, limit int) (orb.Page[orb.Subscription], error)
	FetchSubscription(ctx context.Context, id string) (orb.Subscription, error)
	ListInvoices(ctx context.Context, p orb.ListParams) (orb.Page[orb.Invoice], error)
	FetchInvoice(ctx context.Context, id string) (orb.Invoice, error)
	ListCreditNotes(ctx context.Context, p orb.ListParams) (orb.Page[orb.CreditNote], error)
	FetchCreditNote(ctx context.Context, id string) (orb.CreditNote, error)
	ListPlans(ctx context.Context, p orb.ListParams) (orb.Page[orb.Plan], error)
	FetchPlan(ctx context.Context, id string) (orb.Plan, error)
	ListBillableMetrics(ctx context.Context, p orb.ListParams) (orb.Page[orb.BillableMetric], error)
	FetchBillableMetric(ctx context.Context, id string) (orb.BillableMetric, error)
	VerifyWebhookSignature(payload []byte, headers http.Header) error
}

// Syncer wires the store, the provider client and the webhook router.
type Syncer struct {
	store            Store
	orb              Provider
	verifySignatures bool
}

// NewSyncer creates a Syncer. verifySignatures should only be false in test
// environments.
func NewSyncer(store Store, provider Provider, verifySignatures bool) *Syncer {
	return &Syncer{store: store, orb: provider, verifySignatures: verifySignatures}
}

// Sync bulk-fetches one entity type under the given filter, page by page,
// syncing each page as it arrives. Returns the total number of records
// synced. Any page fetch or write failure aborts the call; re-running is
// safe because every record write is idempotent.
func (s *Syncer) Sync(ctx context.Context, entity Entity, params FetchParams) (int, error) {
	logger.Info("Starting bulk sync", zap.String("entity", string(entity)))

	var (
		count int
		err   error
	)
	switch entity {
	case EntityCustomers:
		count, err = fetchAndSyncAll(ctx, params.listParams(defaultPageSize), s.orb.ListCustomers, s.syncCustomers)
	case EntitySubscriptions:
		count, err = fetchAndSyncAll(ctx, params.listParams(defaultPageSize), s.orb.ListSubscriptions, s.syncSubscriptions)
	case EntityInvoices:
		count, err = fetchAndSyncAll(ctx, params.listParams(defaultPageSize), s.orb.ListInvoices, s.syncInvoices)
	case EntityCreditNotes:
		count, err = fetchAndSyncAll(ctx, params.listParams(defaultPageSize), s.orb.ListCreditNotes, s.syncCreditNotes)
	case EntityPlans:
		count, err = fetchAndSyncAll(ctx, params.listParams(defaultPageSize), s.orb.ListPlans, s.syncPlans)
	case EntityBillableMetrics:
		count, err = fetchAndSyncAll(ctx, params.listParams(defaultMetricPageSize), s.orb.ListBillableMetrics, s.syncBillableMetrics)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	if err != nil {
		return count, err
	}

	logger.Info("Finished bulk sync", zap.String("entity", string(entity)), zap.Int("count", count))
	return count, nil
}

// fetchAndSyncAll drives cursor pagination for one entity type, handing each
// page to the entity's sync function before requesting the next. Pages are
// synced as they arrive so a large backfill never materializes in memory.
// Bulk records have no provider event time; the fetch time is used, since
// the data is current as of the moment Orb served it.
func fetchAndSyncAll[T any](
	ctx context.Context,
	params orb.ListParams,
	listPage func(context.Context, orb.ListParams) (orb.Page[T], error),
	syncPage func(context.Context, []T, time.Time) (int64, error),
) (int, error) {
	total := 0
	for {
		page, err := listPage(ctx, params)
		if err != nil {
			return total, err
		}
		if _, err := syncPage(ctx, page.Data, time.Now().UTC()); err != nil {
			return total, err
		}
		total += len(page.Data)

		if !page.PaginationMetadata.HasMore || page.PaginationMetadata.NextCursor == nil {
			return total, nil
		}
		params.Cursor = *page.PaginationMetadata.NextCursor
	}
}

// SyncSingle point-refreshes one record by id.
func (s *Syncer) SyncSingle(ctx context.Context, entity Entity, id string) error {
	now := time.Now().UTC()
	switch entity {
	case EntityCustomers:
		customer, err := s.orb.FetchCustomer(ctx, id)
		if err != nil {
			return err
		}
		_, err = s.syncCustomers(ctx, []orb.Customer{customer}, now)
		return err
	case EntitySubscriptions:
		sub, err := s.orb.FetchSubscription(ctx, id)
		if err != nil {
			return err
		}
		_, err = s.syncSubscriptions(ctx, []orb.Subscription{sub}, now)
		return err
	case EntityInvoices:
		inv, err := s.orb.FetchInvoice(ctx, id)
		if err != nil {
			return err
		}
		_, err = s.syncInvoices(ctx, []orb.Invoice{inv}, now)
		return err
	case EntityCreditNotes:
		cn, err := s.orb.FetchCreditNote(ctx, id)
		if err != nil {
			return err
		}
		_, err = s.syncCreditNotes(ctx, []orb.CreditNote{cn}, now)
		return err
	case EntityPlans:
		plan, err := s.orb.FetchPlan(ctx, id)
		if err != nil {
			return err
		}
		_, err = s.syncPlans(ctx, []orb.Plan{plan}, now)
		return err
	case EntityBillableMetrics:
		metric, err := s.orb.FetchBillableMetric(ctx, id)
		if err != nil {
			return err
		}
		_, err = s.syncBillableMetrics(ctx, []orb.BillableMetric{metric}, now)
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
}

// RefreshStaleSubscriptions finds active subscriptions whose stored billing
// period has already elapsed and re-pulls their current state from Orb,
// writing back only the billing-period fields. Orb has no webhook for a
// billing cycle rolling over, so without this sweep the mirror's windows
// drift stale. Returns the number of subscriptions refreshed.
func (s *Syncer) RefreshStaleSubscriptions(ctx context.Context) (int, error) {
	logger.Info("Starting to refresh stale subscriptions")

	now := time.Now().UTC()
	customerIDs, err := s.store.StaleSubscriptionCustomerIDs(ctx, now, staleSubscriptionLimit)
	if err != nil {
		return 0, err
	}
	logger.Info("Found customers with stale subscriptions", zap.Int("count", len(customerIDs)))

	refreshed := 0
	for i := 0; i < len(customerIDs); i += staleRefreshChunk {
		chunk := customerIDs[i:min(i+staleRefreshChunk, len(customerIDs))]
		page, err := s.orb.ListSubscriptionsForCustomers(ctx, chunk, staleRefreshChunk)
		if err != nil {
			return refreshed, err
		}
		if err := s.syncCurrentBillingCycle(ctx, page.Data); err != nil {
			return refreshed, err
		}
		refreshed += len(page.Data)
	}

	logger.Info("Done refreshing stale subscriptions", zap.Int("refreshed", refreshed))
	return refreshed, nil
}
