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

	"golang.org/x/sync/errgroup"

	"finexpress/internal/amqp"
	"finexpress/internal/backend"
	"finexpress/internal/cli"
	"finexpress/internal/config"
	apphttp "finexpress/internal/http"
	"finexpress/internal/ledger"
	applog "finexpress/internal/log"
	"finexpress/internal/sheets"
	gsheet "finexpress/internal/sheets/google"
	"finexpress/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("finexpress exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(ctx, bcfg)
	if err != nil {
		return fmt.Errorf("create storage backend: %w", err)
	}
	if res.Cleanup != nil {
		defer func() {
			if err := res.Cleanup(); err != nil {
				logger.Error("Storage cleanup failed", "error", err)
			}
		}()
	}

	ledgerOpts := []ledger.Option{
		ledger.WithLogger(logger.WithComponent(applog.ComponentLedger).Slog()),
	}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
		} else {
			defer client.Close()
			ledgerOpts = append(ledgerOpts, ledger.WithNotifier(client))
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	slot := storage.NewSlot(res.Store, cfg.SlotKey)
	store, err := ledger.Open(ctx, slot, ledgerOpts...)
	if err != nil {
		return err
	}

	var exporter sheets.Exporter
	if cfg.SheetsEnabled() {
		exp, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Warn("Failed to initialize spreadsheet exporter, export disabled", "error", err)
		} else {
			exporter = exp
			logger.Info("Initialized spreadsheet exporter", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		}
	}

	srv := apphttp.NewServer(cfg.Addr(), store, exporter, apphttp.Options{
		RecentLimit:    cfg.RecentLimit,
		CurrencySymbol: cfg.CurrencySymbol,
		ViewCacheSize:  cfg.ViewCacheSize,
		ViewCacheTTL:   cfg.ViewCacheTTL,
		Logger:         logger,
	})
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting finexpress server",
			applog.FieldOperation, applog.OpStartup,
			"addr", cfg.Addr(),
			"backend", cfg.StorageBackend,
			"slot", slot.Key())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
