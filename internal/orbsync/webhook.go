package orbsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/meterwise/orb-sync/internal/client/orb"
	"github.com/meterwise/orb-sync/internal/logger"

	"go.uber.org/zap"
)

var (
	// ErrInvalidSignature indicates the delivery failed signature verification.
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	// ErrMalformedPayload indicates the envelope could not be parsed.
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrUnsupportedEventType indicates an event type outside the known set.
	// Unknown types fail hard so provider API drift surfaces immediately
	// instead of being silently dropped.
	ErrUnsupportedEventType = errors.New("unsupported webhook event type")
)

// webhookEnvelope is the wire shape of an Orb webhook delivery: the event
// metadata plus exactly one nested resource depending on the type.
type webhookEnvelope struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	Type         string          `json:"type"`
	Customer     json.RawMessage `json:"customer"`
	Subscription json.RawMessage `json:"subscription"`
	Invoice      json.RawMessage `json:"invoice"`
	CreditNote   json.RawMessage `json:"credit_note"`
	Properties   json.RawMessage `json:"properties"`
}

// eventClass partitions the known event types by how they are handled. The
// dispatch switch below covers every class; wire values outside the known
// set classify as eventUnknown and fail the request.
type eventClass int

const (
	eventUnknown eventClass = iota
	eventIgnored
	eventCustomer
	eventSubscription
	eventUsageExceeded
	eventCostExceeded
	eventInvoice
	eventInvoiceIssued
	eventCreditNote
	eventMetricEdited
)

func classifyEventType(eventType string) eventClass {
	switch eventType {
	case
		// Test pings and export/accounting notifications carry nothing to mirror.
		"resource_event.test",
		"data_exports.transfer_success",
		"data_exports.transfer_error",
		"customer.accounting_sync_succeeded",
		"customer.accounting_sync_failed",
		"invoice.accounting_sync_succeeded",
		"invoice.accounting_sync_failed",
		"credit_note.accounting_sync_succeeded",
		"credit_note.accounting_sync_failed",
		"transaction.accounting_sync_succeeded",
		"transaction.accounting_sync_failed",
		// Carries a minified invoice that would clobber full rows.
		"invoice.invoice_date_elapsed":
		return eventIgnored

	case
		"customer.created",
		"customer.edited",
		"customer.balance_transaction_created",
		"customer.credit_balance_depleted",
		"customer.credit_balance_dropped",
		"customer.credit_balance_recovered":
		return eventCustomer

	case
		"subscription.created",
		"subscription.started",
		"subscription.ended",
		"subscription.edited",
		"subscription.plan_changed",
		"subscription.plan_change_scheduled",
		"subscription.plan_version_changed",
		"subscription.plan_version_change_scheduled",
		"subscription.fixed_fee_quantity_updated",
		"subscription.cancellation_scheduled",
		"subscription.cancellation_unscheduled":
		return eventSubscription

	case "subscription.usage_exceeded":
		return eventUsageExceeded

	case "subscription.cost_exceeded":
		return eventCostExceeded

	case "invoice.issued":
		return eventInvoiceIssued

	case
		"invoice.edited",
		"invoice.issue_failed",
		"invoice.manually_marked_as_paid",
		"invoice.manually_marked_as_void",
		"invoice.payment_failed",
		"invoice.payment_processing",
		"invoice.payment_succeeded",
		"invoice.sync_failed",
		"invoice.sync_succeded",
		"invoice.undo_mark_as_paid":
		return eventInvoice

	case
		"credit_note.issued",
		"credit_note.marked_as_void":
		return eventCreditNote

	case "billable_metric.edited":
		return eventMetricEdited
	}
	return eventUnknown
}

// ProcessWebhook verifies, parses and dispatches one webhook delivery. The
// envelope's created_at is the event time handed to the timestamp-protected
// writes, so redelivered and out-of-order events cannot regress the mirror.
func (s *Syncer) ProcessWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if s.verifySignatures {
		if err := s.orb.VerifyWebhookSignature(payload, headers); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
		}
	}

	var env webhookEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedPayload, err)
	}
	if env.Type == "" {
		return fmt.Errorf("%w: missing event type", ErrMalformedPayload)
	}

	logger.Info("Processing webhook event",
		zap.String("event_id", env.ID),
		zap.String("event_type", env.Type),
	)

	switch classifyEventType(env.Type) {
	case eventIgnored:
		logger.Debug("Ignoring webhook event", zap.String("event_type", env.Type))
		return nil

	case eventCustomer:
		var customer orb.Customer
		if err := unmarshalResource(env.Customer, "customer", &customer); err != nil {
			return err
		}
		_, err := s.syncCustomers(ctx, []orb.Customer{customer}, env.CreatedAt)
		return err

	case eventSubscription:
		var sub orb.Subscription
		if err := unmarshalResource(env.Subscription, "subscription", &sub); err != nil {
			return err
		}
		_, err := s.syncSubscriptions(ctx, []orb.Subscription{sub}, env.CreatedAt)
		return err

	case eventUsageExceeded:
		var sub orb.Subscription
		if err := unmarshalResource(env.Subscription, "subscription", &sub); err != nil {
			return err
		}
		var props usageExceededProperties
		if err := unmarshalResource(env.Properties, "properties", &props); err != nil {
			return err
		}
		return s.syncSubscriptionUsageExceeded(ctx, sub, props)

	case eventCostExceeded:
		var sub orb.Subscription
		if err := unmarshalResource(env.Subscription, "subscription", &sub); err != nil {
			return err
		}
		var props costExceededProperties
		if err := unmarshalResource(env.Properties, "properties", &props); err != nil {
			return err
		}
		return s.syncSubscriptionCostExceeded(ctx, sub, props)

	case eventInvoiceIssued:
		var inv orb.Invoice
		if err := unmarshalResource(env.Invoice, "invoice", &inv); err != nil {
			return err
		}
		if _, err := s.syncInvoices(ctx, []orb.Invoice{inv}, env.CreatedAt); err != nil {
			return err
		}
		return s.repairBillingCycle(ctx, inv, time.Now().UTC())

	case eventInvoice:
		var inv orb.Invoice
		if err := unmarshalResource(env.Invoice, "invoice", &inv); err != nil {
			return err
		}
		_, err := s.syncInvoices(ctx, []orb.Invoice{inv}, env.CreatedAt)
		return err

	case eventCreditNote:
		var cn orb.CreditNote
		if err := unmarshalResource(env.CreditNote, "credit_note", &cn); err != nil {
			return err
		}
		_, err := s.syncCreditNotes(ctx, []orb.CreditNote{cn}, env.CreatedAt)
		return err

	case eventMetricEdited:
		// The billable metric payload does not carry the changed record's id,
		// so refresh all metrics instead of a point update.
		_, err := s.Sync(ctx, EntityBillableMetrics, FetchParams{Limit: defaultMetricPageSize})
		return err
	}

	return fmt.Errorf("%w: %q", ErrUnsupportedEventType, env.Type)
}

func unmarshalResource(raw json.RawMessage, name string, out any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing %s resource", ErrMalformedPayload, name)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: invalid %s resource: %s", ErrMalformedPayload, name, err)
	}
	return nil
}
