package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"bankroll/internal/amqp"
	"bankroll/internal/backend"
	"bankroll/internal/cli"
	"bankroll/internal/config"
	"bankroll/internal/log"
	"bankroll/internal/metrics"
	gsheet "bankroll/internal/sheets/google"
	"bankroll/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting bankroll-export")
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateExport)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize storage backend", log.FieldError, err, log.FieldBackend, backendCfg.Type.String())
		os.Exit(1)
	}
	defer func() { _ = result.Cleanup() }()

	tabs, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, gsheet.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer func() { _ = consumer.Close() }()

	m := metrics.New()
	metricsSrv := &http.Server{Addr: ":" + cfg.Port, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("Metrics endpoint stopped", log.FieldError, err)
		}
	}()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		_ = metricsSrv.Shutdown(ctx)
	})

	w := worker.NewExportWorker(result.Gateway, tabs, cfg.GoogleBetsSheetName, cfg.GoogleTradesSheetName, m, logger)
	logger.Info("Export worker running",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"schedule", cfg.ExportSchedule,
		log.FieldBackend, backendCfg.Type.String())
	if err := w.Run(ctx, consumer, cfg.ExportSchedule); err != nil {
		logger.Error("Export worker failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Export worker stopped")
}
