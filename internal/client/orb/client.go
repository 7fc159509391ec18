package orb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/meterwise/orb-sync/internal/logger"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.withorb.com/v1"
	defaultTimeout = 30 * time.Second
)

// Client manages communication with the Orb API.
type Client struct {
	apiKey        string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithWebhookSecret sets the shared secret used to verify webhook signatures.
func WithWebhookSecret(secret string) Option {
	return func(c *Client) { c.webhookSecret = secret }
}

// NewClient creates a new Orb API client. The API key may be empty for
// webhook-only deployments; fetch calls will then fail with 401 from Orb.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Error represents an API error returned by Orb.
type Error struct {
	StatusCode int    `json:"status"`
	Title      string `json:"title"`
	Detail     string `json:"detail"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("orb API error: status %d, title: %s, detail: %s", e.StatusCode, e.Title, e.Detail)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &Error{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil {
			apiErr.Detail = string(body)
		}
		apiErr.StatusCode = resp.StatusCode
		logger.Warn("Orb API request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// ListParams are the shared query parameters of Orb list endpoints. The
// creation-time bounds are RFC 3339 strings; empty means unset.
type ListParams struct {
	Limit        int
	Cursor       string
	CreatedAtGt  string
	CreatedAtGte string
	CreatedAtLt  string
	CreatedAtLte string
}

// values renders the params using the given range field name, because the
// invoices endpoint filters on invoice_date where the others use created_at.
func (p ListParams) values(rangeField string) url.Values {
	v := url.Values{}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Cursor != "" {
		v.Set("cursor", p.Cursor)
	}
	setRangeParam(v, rangeField+"[gt]", p.CreatedAtGt)
	setRangeParam(v, rangeField+"[gte]", p.CreatedAtGte)
	setRangeParam(v, rangeField+"[lt]", p.CreatedAtLt)
	setRangeParam(v, rangeField+"[lte]", p.CreatedAtLte)
	return v
}

func setRangeParam(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func list[T any](ctx context.Context, c *Client, path string, query url.Values) (Page[T], error) {
	var page Page[T]
	err := c.get(ctx, path, query, &page)
	return page, err
}

func fetch[T any](ctx context.Context, c *Client, path, id string) (T, error) {
	var out T
	err := c.get(ctx, path+"/"+url.PathEscape(id), nil, &out)
	return out, err
}

// ListCustomers returns one page of customers.
func (c *Client) ListCustomers(ctx context.Context, p ListParams) (Page[Customer], error) {
	return list[Customer](ctx, c, "/customers", p.values("created_at"))
}

// FetchCustomer returns a single customer by id.
func (c *Client) FetchCustomer(ctx context.Context, id string) (Customer, error) {
	return fetch[Customer](ctx, c, "/customers", id)
}

// ListSubscriptions returns one page of subscriptions.
func (c *Client) ListSubscriptions(ctx context.Context, p ListParams) (Page[Subscription], error) {
	return list[Subscription](ctx, c, "/subscriptions", p.values("created_at"))
}

// ListSubscriptionsForCustomers returns one page of subscriptions belonging
// to the given customers. Orb accepts multiple customer ids per call, which
// keeps the stale-subscription sweep within rate limits.
func (c *Client) ListSubscriptionsForCustomers(ctx context.Context, customerIDs []string, limit int) (Page[Subscription], error) {
	v := url.Values{}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	for _, id := range customerIDs {
		v.Add("customer_id[]", id)
	}
	return list[Subscription](ctx, c, "/subscriptions", v)
}

// FetchSubscription returns a single subscription by id.
func (c *Client) FetchSubscription(ctx context.Context, id string) (Subscription, error) {
	return fetch[Subscription](ctx, c, "/subscriptions", id)
}

// ListInvoices returns one page of invoices, range-filtered on invoice_date.
func (c *Client) ListInvoices(ctx context.Context, p ListParams) (Page[Invoice], error) {
	return list[Invoice](ctx, c, "/invoices", p.values("invoice_date"))
}

// FetchInvoice returns a single invoice by id.
func (c *Client) FetchInvoice(ctx context.Context, id string) (Invoice, error) {
	return fetch[Invoice](ctx, c, "/invoices", id)
}

// ListCreditNotes returns one page of credit notes.
func (c *Client) ListCreditNotes(ctx context.Context, p ListParams) (Page[CreditNote], error) {
	return list[CreditNote](ctx, c, "/credit_notes", p.values("created_at"))
}

// FetchCreditNote returns a single credit note by id.
func (c *Client) FetchCreditNote(ctx context.Context, id string) (CreditNote, error) {
	return fetch[CreditNote](ctx, c, "/credit_notes", id)
}

// ListPlans returns one page of plans.
func (c *Client) ListPlans(ctx context.Context, p ListParams) (Page[Plan], error) {
	return list[Plan](ctx, c, "/plans", p.values("created_at"))
}

// FetchPlan returns a single plan by id.
func (c *Client) FetchPlan(ctx context.Context, id string) (Plan, error) {
	return fetch[Plan](ctx, c, "/plans", id)
}

// ListBillableMetrics returns one page of billable metrics.
func (c *Client) ListBillableMetrics(ctx context.Context, p ListParams) (Page[BillableMetric], error) {
	return list[BillableMetric](ctx, c, "/metrics", p.values("created_at"))
}

// FetchBillableMetric returns a single billable metric by id.
func (c *Client) FetchBillableMetric(ctx context.Context, id string) (BillableMetric, error) {
	return fetch[BillableMetric](ctx, c, "/metrics", id)
}
