package handlers

import (
	"context"
	"net/http"

	"github.com/meterwise/orb-sync/internal/logger"
	"github.com/meterwise/orb-sync/internal/orbsync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SyncService is the surface of orbsync.Syncer the handlers depend on.
type SyncService interface {
	Sync(ctx context.Context, entity orbsync.Entity, params orbsync.FetchParams) (int, error)
	SyncSingle(ctx context.Context, entity orbsync.Entity, id string) error
	RefreshStaleSubscriptions(ctx context.Context) (int, error)
	ProcessWebhook(ctx context.Context, payload []byte, headers http.Header) error
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// sendError is a helper function that combines logging and error response
// It logs the error with the given message and sends a JSON error response
func sendError(c *gin.Context, statusCode int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(statusCode, ErrorResponse{Error: message})
}
