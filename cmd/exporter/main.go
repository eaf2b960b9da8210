package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"trades-export-go/internal/config"
	"trades-export-go/internal/database"
	"trades-export-go/internal/export"
	"trades-export-go/internal/logger"
	"trades-export-go/internal/scheduler"
	"trades-export-go/internal/sheet"
)

func main() {
	flags := pflag.NewFlagSet("exporter", pflag.ExitOnError)
	configDir := flags.String("config", "./configs", "directory containing config.yml")
	flags.String("input", "", "spreadsheet to read")
	flags.String("sheet", "", "worksheet name")
	flags.String("output", "", "JSON file to write")
	flags.String("market", "", "market label for every trade")
	flags.Bool("strict", false, "reject rows whose side is neither UP nor DOWN")
	flags.String("cron", "", "re-run the export on this cron schedule")
	_ = flags.Parse(os.Args[1:])

	// Load application configuration
	cfg, err := config.LoadConfig(*configDir, flags)
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
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

	var store export.RunStore
	if cfg.Database.Enabled {
		db, err := database.NewDatabase(cfg.Database.DSN)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		store = database.NewRunStore(db)
		log.Debug("Export history enabled", zap.String("dsn", cfg.Database.DSN))
	}

	exporter := export.NewExporter(
		log,
		cfg.Export,
		sheet.ReadRows,
		export.NewWriter(cfg.Export.OutputPath, nil),
		export.NewReporter(os.Stdout),
		store,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := exporter.Run(ctx); err != nil {
		log.Fatal("Export failed", zap.Error(err))
	}

	if cfg.Export.Schedule == "" {
		return
	}

	sched := scheduler.New(log)
	err = sched.Add(ctx, cfg.Export.Schedule, func(ctx context.Context) {
		if _, err := exporter.Run(ctx); err != nil {
			log.Error("Scheduled export failed", zap.Error(err))
		}
	})
	if err != nil {
		log.Fatal("Failed to schedule export", zap.Error(err))
	}
	log.Info("Watching for changes", zap.String("schedule", cfg.Export.Schedule))
	sched.Run(ctx)
	log.Info("Exporter has been shut down.")
}
