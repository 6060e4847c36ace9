package main

import (
	"context"
	"errors"
	"os"
	"time"

	"payguard/internal/amqp"
	"payguard/internal/cli"
	"payguard/internal/export/google"
	"payguard/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger()
	logger.Info("Starting payguard-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	// The worker reads committed transactions from the same ledger the
	// server writes to.
	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	// Initialize Google Sheets client for statement export (optional)
	var sheetsClient *google.Client
	if cfg.ExportEnabled() {
		var err error
		sheetsClient, err = google.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Statement export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	// Initialize AMQP client for consuming transfer events
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		logger.Info("Stopping transfer event consumption")
	})

	var exportWorker *worker.ExportWorker
	if sheetsClient != nil {
		exportWorker = worker.NewExportWorker(sqliteRepo, sheetsClient)
	} else {
		exportWorker = worker.NewExportWorker(sqliteRepo, nil)
	}

	go func() {
		handler := func(msg *amqp.TransferEventMessage) error {
			return exportWorker.HandleTransferEvent(ctx, msg)
		}
		if err := amqpClient.ConsumeTransferEvents(ctx, handler); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Transfer event consumption failed", "error", err)
			}
		}
	}()

	logger.Info("Worker started, consuming transfer events", "queue", cfg.AMQPQueue)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
