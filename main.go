package main

import (
	"context"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"tradeboard/config"
	"tradeboard/internal/adapters/logger"
	"tradeboard/internal/adapters/sqlite"
	"tradeboard/internal/app"
	httpserver "tradeboard/internal/http"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.NewZapLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// 4. Initialize Application Service
	tradeService, err := app.NewTradeService(appLogger, repo, repo)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize trade service")
		log.Fatalf("FATAL: Failed to initialize trade service: %v", err)
	}
	appLogger.Info(context.Background(), "Trade service initialized")

	// 5. Start the HTTP Server
	server := httpserver.NewServer(httpserver.Config{
		Service:      tradeService,
		Logger:       appLogger,
		CORSOrigin:   cfg.CORSOrigin,
		DefaultLimit: cfg.DefaultLeaderboardLimit,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)
	appLogger.Info(context.Background(), "HTTP server listening", map[string]interface{}{"addr": addr})
	if err := server.Run(addr); err != nil {
		appLogger.Error(context.Background(), err, "HTTP server exited with error")
		log.Fatalf("FATAL: HTTP server exited with error: %v", err)
	}
}
