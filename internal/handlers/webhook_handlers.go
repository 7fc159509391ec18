package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/meterwise/orb-sync/internal/orbsync"

	"github.com/gin-gonic/gin"
)

// maxWebhookBodyBytes bounds webhook payload size; Orb invoices with many
// line items stay well under this.
const maxWebhookBodyBytes = 2 << 20

// WebhookHandler accepts webhook deliveries from Orb.
type WebhookHandler struct {
	syncer SyncService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(syncer SyncService) *WebhookHandler {
	return &WebhookHandler{syncer: syncer}
}

// HandleWebhook processes a single webhook delivery. The raw body is passed
// through untouched because the signature is computed over the exact bytes.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	if c.ContentType() != "application/json" {
		sendError(c, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes+1))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Failed to read request body", err)
		return
	}
	if len(body) > maxWebhookBodyBytes {
		sendError(c, http.StatusRequestEntityTooLarge, "Request body too large", nil)
		return
	}

	if err := h.syncer.ProcessWebhook(c.Request.Context(), body, c.Request.Header); err != nil {
		switch {
		case errors.Is(err, orbsync.ErrInvalidSignature):
			sendError(c, http.StatusUnauthorized, "Invalid webhook signature", err)
		case errors.Is(err, orbsync.ErrMalformedPayload):
			sendError(c, http.StatusBadRequest, "Malformed webhook payload", err)
		case errors.Is(err, orbsync.ErrUnsupportedEventType):
			sendError(c, http.StatusBadRequest, "Unsupported webhook event type", err)
		default:
			sendError(c, http.StatusInternalServerError, "Failed to process webhook", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
