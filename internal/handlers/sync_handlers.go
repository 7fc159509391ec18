package handlers

import (
	"errors"
	"net/http"

	"github.com/meterwise/orb-sync/internal/orbsync"

	"github.com/gin-gonic/gin"
)

// SyncHandler exposes the bulk and point sync operations.
type SyncHandler struct {
	syncer SyncService
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncer SyncService) *SyncHandler {
	return &SyncHandler{syncer: syncer}
}

type syncQuery struct {
	Limit        int    `form:"limit" binding:"omitempty,min=1,max=100"`
	CreatedAtGt  string `form:"createdAtGt" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	CreatedAtGte string `form:"createdAtGte" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	CreatedAtLt  string `form:"createdAtLt" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	CreatedAtLte string `form:"createdAtLte" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// SyncEntity bulk-syncs one entity type and returns the record count.
func (h *SyncHandler) SyncEntity(c *gin.Context) {
	entity, err := orbsync.ParseEntity(c.Param("entity"))
	if err != nil {
		sendError(c, http.StatusNotFound, "Unknown entity type", err)
		return
	}

	var query syncQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}

	count, err := h.syncer.Sync(c.Request.Context(), entity, orbsync.FetchParams{
		Limit:        query.Limit,
		CreatedAtGt:  query.CreatedAtGt,
		CreatedAtGte: query.CreatedAtGte,
		CreatedAtLt:  query.CreatedAtLt,
		CreatedAtLte: query.CreatedAtLte,
	})
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Sync failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// SyncEntityByID point-refreshes one record.
func (h *SyncHandler) SyncEntityByID(c *gin.Context) {
	entity, err := orbsync.ParseEntity(c.Param("entity"))
	if err != nil {
		sendError(c, http.StatusNotFound, "Unknown entity type", err)
		return
	}

	if err := h.syncer.SyncSingle(c.Request.Context(), entity, c.Param("id")); err != nil {
		if errors.Is(err, orbsync.ErrUnknownEntity) {
			sendError(c, http.StatusNotFound, "Unknown entity type", err)
			return
		}
		sendError(c, http.StatusInternalServerError, "Sync failed", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RefreshStaleSubscriptions runs the billing-cycle staleness sweep. An
// external scheduler invokes this periodically.
func (h *SyncHandler) RefreshStaleSubscriptions(c *gin.Context) {
	refreshed, err := h.syncer.RefreshStaleSubscriptions(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to refresh stale subscriptions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"refreshed": refreshed})
}
