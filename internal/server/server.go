// Package server exposes the receipt store over an HTTP JSON API. Each user
// action maps to one request/response handler.
package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/receipt-parser/internal/ingest"
	"github.com/joseph-ayodele/receipt-parser/internal/store"
)

type Config struct {
	MaxUploadSize int64
}

type Server struct {
	store  *store.Store
	ingest *ingest.Service
	cfg    Config
	logger *slog.Logger
	router chi.Router
}

func New(st *store.Store, ing *ingest.Service, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 50 << 20
	}
	s := &Server{
		store:  st,
		ingest: ing,
		cfg:    cfg,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/receipts", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/upload", s.handleUpload)
		r.Post("/upload-zip", s.handleUploadZip)
		r.Post("/", s.handleSave)
		r.Delete("/{id}", s.handleDelete)
		r.Get("/stats", s.handleStats)
	})
	r.Route("/export", func(r chi.Router) {
		r.Get("/csv", s.handleExportCSV)
		r.Get("/json", s.handleExportJSON)
		r.Get("/pdf", s.handleExportPDF)
		r.Get("/xlsx", s.handleExportXLSX)
	})

	s.router = r
	return s
}

// Router returns the configured HTTP handler.
func (s *Server) Router() chi.Router {
	return s.router
}
