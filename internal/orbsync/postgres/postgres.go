// Package postgres executes the generic, schema-driven writes behind every
// entity sync. Statements are generated from static column manifests, so a
// new mirrored entity only needs a Schema value and a table, not hand-written
// SQL.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Kind classifies how a column's values are serialized before binding.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
)

// Column is one entry of an entity's column manifest.
type Column struct {
	Name string
	Kind Kind
}

// Schema is the static column manifest for one mirrored table. The first
// column must be the primary key "id" (or the table's equivalent key) so the
// generated statements can rely on its position.
type Schema struct {
	Table   string
	Columns []Column
}

// Has reports whether the manifest contains the named column.
func (s Schema) Has(name string) bool {
	for _, col := range s.Columns {
		if col.Name == name {
			return true
		}
	}
	return false
}

// Row holds one record's values keyed by column name. Writers only bind
// columns present in the schema; anything else in the row is dropped, which
// lets sync modules pass provider records through without the registry
// failing on new provider fields.
type Row map[string]any

// lastSyncedAtColumn is written by the timestamp-protected upsert and gates
// its conflict update.
const lastSyncedAtColumn = "last_synced_at"

// chunkSize bounds how many statements are in flight per call so bulk syncs
// cannot exhaust the connection pool.
const chunkSize = 5

// DB is the subset of pgxpool.Pool the client needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Client executes generic upsert/update/select operations against the mirror.
type Client struct {
	db     DB
	schema string
}

// NewClient creates a store client writing into the given Postgres schema.
func NewClient(db DB, schemaName string) *Client {
	return &Client{db: db, schema: schemaName}
}

// UpsertMany inserts or replaces the given rows. Each row is one independent
// statement; rows already committed stay committed if a later row fails.
func (c *Client) UpsertMany(ctx context.Context, rows []Row, schema Schema) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	return c.execMany(ctx, rows, schema, c.upsertSQL(schema, false))
}

// UpsertManyProtected is the write-ordering arbiter: the conflict update only
// applies when the stored last_synced_at is null or older than eventTime, so
// a redelivered or out-of-order event becomes a silent no-op instead of
// regressing the row. The predicate is evaluated atomically by Postgres for
// the conflicting row, which makes it safe under concurrent writers.
func (c *Client) UpsertManyProtected(ctx context.Context, rows []Row, schema Schema, eventTime time.Time) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if !schema.Has(lastSyncedAtColumn) {
		return 0, errors.Errorf("schema for %q has no %s column", schema.Table, lastSyncedAtColumn)
	}

	stamped := make([]Row, 0, len(rows))
	for _, row := range rows {
		copied := make(Row, len(row)+1)
		for k, v := range row {
			copied[k] = v
		}
		copied[lastSyncedAtColumn] = eventTime.UTC()
		stamped = append(stamped, copied)
	}
	return c.execMany(ctx, stamped, schema, c.upsertSQL(schema, true))
}

// InsertMany appends rows without conflict handling, for the threshold event
// tables that record every occurrence.
func (c *Client) InsertMany(ctx context.Context, rows []Row, schema Schema) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	return c.execMany(ctx, rows, schema, c.insertSQL(schema))
}

// UpdateMany updates the schema's column subset by id, for narrow corrections
// where a full-row upsert would overwrite fields the caller never fetched.
func (c *Client) UpdateMany(ctx context.Context, rows []Row, schema Schema) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := c.execMany(ctx, rows, schema, c.updateSQL(schema))
	return err
}

// BillingCycleUpdate names the target subscription and its candidate window.
type BillingCycleUpdate struct {
	SubscriptionID string
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

// UpdateSubscriptionBillingCycle replaces a subscription's billing window
// only when the stored window has already elapsed. The staleness check runs
// inside the UPDATE so there is no window between an application-level check
// and the write. Returns whether the update was applied.
func (c *Client) UpdateSubscriptionBillingCycle(ctx context.Context, upd BillingCycleUpdate, now time.Time) (bool, error) {
	sqlText := fmt.Sprintf(
		`UPDATE %s SET "current_billing_period_start_date" = $2, "current_billing_period_end_date" = $3 `+
			`WHERE "id" = $1 AND ("current_billing_period_end_date" IS NULL OR "current_billing_period_end_date" < $4)`,
		c.qualify("subscriptions"),
	)
	tag, err := c.db.Exec(ctx, sqlText, upd.SubscriptionID, upd.PeriodStart, upd.PeriodEnd, now)
	if err != nil {
		return false, errors.Wrap(err, "update subscription billing cycle")
	}
	return tag.RowsAffected() > 0, nil
}

// StaleSubscriptionCustomerIDs returns customers owning active subscriptions
// whose stored billing period has already elapsed, oldest first.
func (c *Client) StaleSubscriptionCustomerIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	sqlText := fmt.Sprintf(
		`SELECT "customer_id" FROM %s WHERE "status" = 'active' AND "current_billing_period_end_date" < $1 `+
			`ORDER BY "current_billing_period_end_date" LIMIT $2`,
		c.qualify("subscriptions"),
	)
	rows, err := c.db.Query(ctx, sqlText, now, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select stale subscriptions")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Wrap(err, "collect stale subscription customer ids")
	}
	return ids, nil
}

// execMany runs one statement per row in chunks of chunkSize. There is no
// ordering guarantee across rows within a call.
func (c *Client) execMany(ctx context.Context, rows []Row, schema Schema, sqlText string) (int64, error) {
	var affected atomic.Int64
	for i := 0; i < len(rows); i += chunkSize {
		g, gctx := errgroup.WithContext(ctx)
		for _, row := range rows[i:min(i+chunkSize, len(rows))] {
			row := row
			g.Go(func() error {
				args, err := bindArgs(row, schema)
				if err != nil {
					return err
				}
				tag, err := c.db.Exec(gctx, sqlText, args...)
				if err != nil {
					return errors.Wrapf(err, "write %s", schema.Table)
				}
				affected.Add(tag.RowsAffected())
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return affected.Load(), err
		}
	}
	return affected.Load(), nil
}

// bindArgs produces the positional arguments for one row in manifest order.
// Missing columns bind NULL. Slices headed for a non-array column and any
// value headed for an object column are serialized to JSON.
func bindArgs(row Row, schema Schema) ([]any, error) {
	args := make([]any, 0, len(schema.Columns))
	for _, col := range schema.Columns {
		value, ok := row[col.Name]
		if !ok || value == nil {
			args = append(args, nil)
			continue
		}
		bound, err := bindValue(value, col.Kind)
		if err != nil {
			return nil, errors.Wrapf(err, "column %s.%s", schema.Table, col.Name)
		}
		args = append(args, bound)
	}
	return args, nil
}

func bindValue(value any, kind Kind) (any, error) {
	switch kind {
	case KindObject:
		return asJSON(value)
	case KindArray:
		return value, nil
	default:
		// Arrays that land in a scalar column are stored as serialized text.
		if isSlice(value) {
			return asJSON(value)
		}
		return value, nil
	}
}

func asJSON(value any) (json.RawMessage, error) {
	switch v := value.(type) {
	case json.RawMessage:
		if len(v) == 0 {
			return nil, nil
		}
		return v, nil
	case []byte:
		if len(v) == 0 {
			return nil, nil
		}
		return json.RawMessage(v), nil
	case string:
		return json.RawMessage(v), nil
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}

func isSlice(value any) bool {
	switch value.(type) {
	case []byte, json.RawMessage:
		return false
	}
	return reflect.ValueOf(value).Kind() == reflect.Slice
}

func (c *Client) qualify(table string) string {
	return fmt.Sprintf("%q.%q", c.schema, table)
}

func (c *Client) upsertSQL(schema Schema, protected bool) string {
	names := make([]string, 0, len(schema.Columns))
	placeholders := make([]string, 0, len(schema.Columns))
	assignments := make([]string, 0, len(schema.Columns))
	for i, col := range schema.Columns {
		quoted := fmt.Sprintf("%q", col.Name)
		names = append(names, quoted)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		if col.Name != "id" {
			assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", quoted, quoted))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s AS t (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
		c.qualify(schema.Table),
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(assignments, ", "),
	)
	if protected {
		fmt.Fprintf(&b, " WHERE t.%q IS NULL OR t.%q < EXCLUDED.%q",
			lastSyncedAtColumn, lastSyncedAtColumn, lastSyncedAtColumn)
	}
	return b.String()
}

func (c *Client) insertSQL(schema Schema) string {
	names := make([]string, 0, len(schema.Columns))
	placeholders := make([]string, 0, len(schema.Columns))
	for i, col := range schema.Columns {
		names = append(names, fmt.Sprintf("%q", col.Name))
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.qualify(schema.Table),
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "),
	)
}

func (c *Client) updateSQL(schema Schema) string {
	assignments := make([]string, 0, len(schema.Columns))
	for i, col := range schema.Columns {
		if col.Name == "id" {
			continue
		}
		assignments = append(assignments, fmt.Sprintf("%q = $%d", col.Name, i+1))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE \"id\" = $1",
		c.qualify(schema.Table),
		strings.Join(assignments, ", "),
	)
}
