package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/joseph-ayodele/receipt-parser/internal/common"
	"github.com/joseph-ayodele/receipt-parser/internal/extract"
	"github.com/joseph-ayodele/receipt-parser/internal/ingest"
	"github.com/joseph-ayodele/receipt-parser/internal/parse"
	"github.com/joseph-ayodele/receipt-parser/internal/server"
	"github.com/joseph-ayodele/receipt-parser/internal/store"
	"github.com/joseph-ayodele/receipt-parser/internal/vendors"
)

func main() {
	cfg := common.LoadConfig()

	fs := ff.NewFlagSet("receiptsd")
	var (
		addr        = fs.StringLong("addr", cfg.Server.HTTPAddr, "HTTP listen address")
		dbPath      = fs.StringLong("db", cfg.Database.Path, "SQLite database file path")
		uploadDir   = fs.StringLong("uploads", cfg.Ingest.UploadDir, "Upload directory path")
		vendorsPath = fs.StringLong("vendors", cfg.Ingest.VendorsConfig, "Vendors config JSON path (optional)")
		tesseract   = fs.StringLong("tesseract", cfg.Extract.Tesseract, "Tesseract binary")
		pdftotext   = fs.StringLong("pdftotext", cfg.Extract.Pdftotext, "pdftotext binary")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("RECEIPTS")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		Path:        *dbPath,
		BusyTimeout: cfg.Database.BusyTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	table := vendors.Defaults()
	if *vendorsPath != "" {
		table, err = vendors.LoadFile(*vendorsPath)
		if err != nil {
			logger.Error("failed to load vendors config", "path", *vendorsPath, "error", err)
			os.Exit(1)
		}
		logger.Info("loaded vendors config", "path", *vendorsPath, "vendors", len(table.Entries()))
	}

	extractor := extract.NewExtractor(extract.Config{
		Tesseract:     *tesseract,
		TesseractLang: cfg.Extract.TesseractLang,
		Pdftotext:     *pdftotext,
	}, logger)
	parser := parse.NewParser(table)
	ingestSvc := ingest.NewService(st, extractor, parser, *uploadDir, logger)

	srv := server.New(st, ingestSvc, server.Config{
		MaxUploadSize: cfg.Ingest.MaxUploadSize,
	}, logger)

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("http server listening", "addr", *addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
