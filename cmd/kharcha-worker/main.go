package main

import (
	"context"
	"errors"
	"os"
	"time"

	"kharcha/internal/amqp"
	"kharcha/internal/cli"
	"kharcha/internal/log"
	"kharcha/internal/sheets/google"
	"kharcha/internal/storage"
	"kharcha/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Mirror configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, logger)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sheetsClient, err := google.New(context.Background(), cfg.GoogleSpreadsheetID, google.Credentials{
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		OAuthClientFile:    cfg.GoogleOAuthClientFile,
		OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(repo, sheetsClient, logger)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	logger.Info("Starting kharcha worker", "queue", cfg.AMQPQueue)
	if err := amqpClient.Consume(ctx, mirror.Handler()); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
