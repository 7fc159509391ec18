package orb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/meterwise/orb-sync/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func TestListCustomersPagination(t *testing.T) {
	var requests []*http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Clone(context.Background()))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cursor") == "" {
			w.Write([]byte(`{
				"data": [{"id": "cus_1"}, {"id": "cus_2"}],
				"pagination_metadata": {"has_more": true, "next_cursor": "abc"}
			}`))
			return
		}
		w.Write([]byte(`{
			"data": [{"id": "cus_3"}],
			"pagination_metadata": {"has_more": false, "next_cursor": null}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	page, err := client.ListCustomers(context.Background(), ListParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	require.True(t, page.PaginationMetadata.HasMore)
	require.NotNil(t, page.PaginationMetadata.NextCursor)

	page, err = client.ListCustomers(context.Background(), ListParams{Limit: 2, Cursor: *page.PaginationMetadata.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.False(t, page.PaginationMetadata.HasMore)

	require.Len(t, requests, 2)
	assert.Equal(t, "Bearer test-key", requests[0].Header.Get("Authorization"))
	assert.Equal(t, "/customers", requests[0].URL.Path)
	assert.Equal(t, "2", requests[0].URL.Query().Get("limit"))
	assert.Equal(t, "abc", requests[1].URL.Query().Get("cursor"))
}

func TestListInvoicesFiltersOnInvoiceDate(t *testing.T) {
	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [], "pagination_metadata": {"has_more": false, "next_cursor": null}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.ListInvoices(context.Background(), ListParams{
		CreatedAtGte: "2025-04-01T00:00:00Z",
		CreatedAtLt:  "2025-05-01T00:00:00Z",
	})
	require.NoError(t, err)

	query := captured.URL.Query()
	assert.Equal(t, "2025-04-01T00:00:00Z", query.Get("invoice_date[gte]"))
	assert.Equal(t, "2025-05-01T00:00:00Z", query.Get("invoice_date[lt]"))
	assert.Empty(t, query.Get("created_at[gte]"))
}

func TestListSubscriptionsForCustomers(t *testing.T) {
	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [], "pagination_metadata": {"has_more": false, "next_cursor": null}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.ListSubscriptionsForCustomers(context.Background(), []string{"cus_1", "cus_2"}, 100)
	require.NoError(t, err)

	assert.Equal(t, "/subscriptions", captured.URL.Path)
	assert.Equal(t, []string{"cus_1", "cus_2"}, captured.URL.Query()["customer_id[]"])
	assert.Equal(t, "100", captured.URL.Query().Get("limit"))
}

func TestFetchCustomerEscapesID(t *testing.T) {
	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "cus_1", "name": "Acme"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	customer, err := client.FetchCustomer(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", customer.Name)
	assert.Equal(t, "/customers/cus_1", captured.URL.Path)
}

func TestAPIErrorDecoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status": 404, "title": "Not Found", "detail": "Customer not found"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.FetchCustomer(context.Background(), "cus_missing")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Not Found", apiErr.Title)
	assert.Equal(t, "Customer not found", apiErr.Detail)
}
