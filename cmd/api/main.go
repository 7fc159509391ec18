package main

import (
	"context"
	"log"

	"github.com/meterwise/orb-sync/internal/config"
	"github.com/meterwise/orb-sync/internal/logger"
	"github.com/meterwise/orb-sync/internal/server"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Fine in deployed environments where variables are set directly.
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	logger.InitLogger()
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to initialize server", zap.Error(err))
	}
	defer srv.Close()

	logger.Info("Server starting", zap.Int("port", cfg.Port))
	if err := srv.Run(); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
