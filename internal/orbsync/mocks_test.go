package orbsync

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/meterwise/orb-sync/internal/client/orb"
	"github.com/meterwise/orb-sync/internal/logger"
	"github.com/meterwise/orb-sync/internal/orbsync/postgres"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) UpsertMany(ctx context.Context, rows []postgres.Row, schema postgres.Schema) (int64, error) {
	args := m.Called(ctx, rows, schema)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) UpsertManyProtected(ctx context.Context, rows []postgres.Row, schema postgres.Schema, eventTime time.Time) (int64, error) {
	args := m.Called(ctx, rows, schema, eventTime)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) InsertMany(ctx context.Context, rows []postgres.Row, schema postgres.Schema) (int64, error) {
	args := m.Called(ctx, rows, schema)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) UpdateMany(ctx context.Context, rows []postgres.Row, schema postgres.Schema) error {
	args := m.Called(ctx, rows, schema)
	return args.Error(0)
}

func (m *MockStore) UpdateSubscriptionBillingCycle(ctx context.Context, upd postgres.BillingCycleUpdate, now time.Time) (bool, error) {
	args := m.Called(ctx, upd, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) StaleSubscriptionCustomerIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]string), args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) ListCustomers(ctx context.Context, p orb.ListParams) (orb.Page[orb.Customer], error) {
	args := m.Called(ctx, p)
	return args.Get(0).(orb.Page[orb.Customer]), args.Error(1)
}

func (m *MockProvider) FetchCustomer(ctx context.Context, id string) (orb.Customer, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(orb.Customer), args.Error(1)
}

func (m *MockProvider) ListSubscriptions(ctx context.Context, p orb.ListParams) (orb.Page[orb.Subscription], error) {
	args := m.Called(ctx, p)
	return args.Get(0).(orb.Page[orb.Subscription]), args.Error(1)
}

func (m *MockProvider) ListSubscriptionsForCustomers(ctx context.Context, customerIDs []string, limit int) (orb.Page[orb.Subscription], error) {
	args := m.Called(ctx, customerIDs, limit)
	return args.Get(0).(orb.Page[orb.Subscription]), args.Error(1)
}

func (m *MockProvider) FetchSubscription(ctx context.Context, id string) (orb.Subscription, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(orb.Subscription), args.Error(1)
}

func (m *MockProvider) ListInvoices(ctx context.Context, p orb.ListParams) (orb.Page[orb.Invoice], error) {
	args := m.Called(ctx, p)
	return args.Get(0).(orb.Page[orb.Invoice]), args.Error(1)
}

func (m *MockProvider) FetchInvoice(ctx context.Context, id string) (orb.Invoice, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(orb.Invoice), args.Error(1)
}

func (m *MockProvider) ListCreditNotes(ctx context.Context, p orb.ListParams) (orb.Page[orb.CreditNote], error) {
	args := m.Called(ctx, p)
	return args.Get(0).(orb.Page[orb.CreditNote]), args.Error(1)
}

func (m *MockProvider) FetchCreditNote(ctx context.Context, id string) (orb.CreditNote, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(orb.CreditNote), args.Error(1)
}

func (m *MockProvider) ListPlans(ctx context.Context, p orb.ListParams) (orb.Page[orb.Plan], error) {
	args := m.Called(ctx, p)
	return args.Get(0).(orb.Page[orb.Plan]), args.Error(1)
}

func (m *MockProvider) FetchPlan(ctx context.Context, id string) (orb.Plan, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(orb.Plan), args.Error(1)
}

func (m *MockProvider) ListBillableMetrics(ctx context.Context, p orb.ListParams) (orb.Page[orb.BillableMetric], error) {
	args := m.Called(ctx, p)
	return args.Get(0).(orb.Page[orb.BillableMetric]), args.Error(1)
}

func (m *MockProvider) FetchBillableMetric(ctx context.Context, id string) (orb.BillableMetric, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(orb.BillableMetric), args.Error(1)
}

func (m *MockProvider) VerifyWebhookSignature(payload []byte, headers http.Header) error {
	args := m.Called(payload, headers)
	return args.Error(0)
}
