package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"trades-export-go/internal/config"
	"trades-export-go/internal/dashboard"
	"trades-export-go/internal/database"
	"trades-export-go/internal/export"
	"trades-export-go/internal/github"
	"trades-export-go/internal/logger"
)

func main() {
	flags := pflag.NewFlagSet("ui", pflag.ExitOnError)
	configDir := flags.String("config", "./configs", "directory containing config.yml")
	_ = flags.Parse(os.Args[1:])

	// Load configuration
	cfg, err := config.LoadConfig(*configDir, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Export history is optional
	var runs dashboard.RunLister
	if cfg.Database.Enabled {
		db, err := database.NewDatabase(cfg.Database.DSN)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		runs = database.NewRunStore(db)
	}

	var gh github.ClientInterface
	if cfg.GitHub.User != "" {
		gh = github.NewClient(&cfg.GitHub, log)
	}

	cache := dashboard.NewTradeCache(cfg.Export.OutputPath, cfg.Server.CacheTTL, export.ReadDocument, nil)
	apiHandler := dashboard.NewAPIHandler(log, cache, runs, gh, cfg.GitHub.Repos)

	mux := http.NewServeMux()
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("Shutdown signal received, gracefully shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Web server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting web server",
		zap.String("address", server.Addr),
		zap.String("trades", cfg.Export.OutputPath))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Web server failed", zap.Error(err))
	}
}
