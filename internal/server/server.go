package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/meterwise/orb-sync/internal/client/orb"
	"github.com/meterwise/orb-sync/internal/config"
	"github.com/meterwise/orb-sync/internal/database"
	"github.com/meterwise/orb-sync/internal/handlers"
	"github.com/meterwise/orb-sync/internal/orbsync"
	"github.com/meterwise/orb-sync/internal/orbsync/postgres"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Server owns the HTTP engine and the resources behind it.
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	pool   *pgxpool.Pool
}

// New wires the connection pool, the Orb client, the syncer and all routes.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	store := postgres.NewClient(pool, cfg.DatabaseSchema)
	orbClient := orb.NewClient(cfg.OrbAPIKey, orb.WithWebhookSecret(cfg.OrbWebhookSecret))
	syncer := orbsync.NewSyncer(store, orbClient, cfg.VerifyWebhookSignature)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handlers.RequestLogger())
	engine.Use(configureCORS())

	registerRoutes(engine, cfg, syncer)

	return &Server{cfg: cfg, engine: engine, pool: pool}, nil
}

// Run serves HTTP until the listener fails.
func (s *Server) Run() error {
	return s.engine.Run(fmt.Sprintf(":%d", s.cfg.Port))
}

// Close releases the connection pool.
func (s *Server) Close() {
	s.pool.Close()
}

func registerRoutes(router *gin.Engine, cfg *config.Config, syncer handlers.SyncService) {
	healthHandler := handlers.NewHealthHandler()
	webhookHandler := handlers.NewWebhookHandler(syncer)
	syncHandler := handlers.NewSyncHandler(syncer)

	router.GET("/health", healthHandler.Check)

	// Webhook deliveries authenticate via signature, not the API key.
	router.POST("/webhooks", webhookHandler.HandleWebhook)

	authorized := router.Group("/", handlers.RequireAPIKey(cfg.SyncAPIKey, cfg.SyncAPIKeyAlt))
	authorized.POST("/sync/:entity", syncHandler.SyncEntity)
	authorized.POST("/sync/:entity/:id", syncHandler.SyncEntityByID)
	authorized.POST("/crons/refresh-stale-subscriptions", syncHandler.RefreshStaleSubscriptions)
}

func configureCORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}
