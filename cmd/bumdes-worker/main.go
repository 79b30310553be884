package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"bumdes/internal/amqp"
	"bumdes/internal/backend"
	"bumdes/internal/cli"
	"bumdes/internal/config"
	"bumdes/internal/core"
	"bumdes/internal/log"
	gsheet "bumdes/internal/sheets/google"
	"bumdes/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	if err := cfg.ValidateExport(); err != nil {
		logger.Error("Configuration validation failed", log.FieldOperation, log.OpValidate, log.FieldError, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	// The worker only reads the mirror; it never publishes change events.
	bcfg.AMQPURL = ""
	be, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer be.Close()

	exporter, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return err
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	w := worker.NewExportWorker(be.Mirror, exporter, core.SeedUnits()).WithLogger(logger)

	// Catch up on changes made while the worker was down.
	if err := w.Sync(ctx); err != nil {
		logger.Error("Startup export failed", log.FieldOperation, log.OpStartup, log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumeLedgerChanged(gctx, w.HandleLedgerChanged)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return g.Wait()
}
