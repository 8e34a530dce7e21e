// Package ingest handles upload intake: extension checks, duplicate-filename
// detection, text extraction, field parsing, and saving confirmed records.
package ingest

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-parser/constants"
	"github.com/joseph-ayodele/receipt-parser/internal/extract"
	"github.com/joseph-ayodele/receipt-parser/internal/parse"
	"github.com/joseph-ayodele/receipt-parser/internal/store"
)

// TextExtractor is the behavior the service depends on for raw text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (extract.Result, error)
}

// Preview is the proposed record shown to the user before confirmation.
type Preview struct {
	Filename string       `json:"filename"`
	Text     string       `json:"text"`
	Fields   parse.Fields `json:"fields"`
	Warnings []string     `json:"warnings,omitempty"`
}

// FileReport is the per-file outcome of a batch ingest.
type FileReport struct {
	Filename  string               `json:"filename"`
	Status    constants.FileStatus `json:"status"`
	Detail    string               `json:"detail,omitempty"`
	ReceiptID int64                `json:"receipt_id,omitempty"`
}

// BatchStats summarizes a zip ingest.
type BatchStats struct {
	BatchID    string `json:"batch_id"`
	Total      uint32 `json:"total"`
	Parsed     uint32 `json:"parsed"`
	Invalid    uint32 `json:"invalid"`
	Duplicates uint32 `json:"duplicates"`
	Failed     uint32 `json:"failed"`
}

type Service struct {
	store     *store.Store
	extractor TextExtractor
	parser    *parse.Parser
	uploadDir string
	logger    *slog.Logger

	// now is swappable in tests; it feeds the missing-date default.
	now func() time.Time
}

func NewService(st *store.Store, ex TextExtractor, p *parse.Parser, uploadDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     st,
		extractor: ex,
		parser:    p,
		uploadDir: uploadDir,
		logger:    logger,
		now:       time.Now,
	}
}

// SaveUpload writes an uploaded file into the upload directory and returns
// its path. The filename must already have passed the extension check.
func (s *Service) SaveUpload(filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir upload dir: %w", err)
	}
	path, err := s.safeJoin(filename)
	if err != nil {
		return "", err
	}
	if dir := filepath.Dir(path); dir != s.uploadDir {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}

// IsDuplicate reports whether a record with this filename is already stored.
// Duplicate detection keys on filename alone, so a renamed copy of the same
// content is accepted.
func (s *Service) IsDuplicate(ctx context.Context, filename string) (bool, error) {
	existing, err := s.store.ListFilenames(ctx)
	if err != nil {
		return false, err
	}
	_, ok := existing[filename]
	return ok, nil
}

// ParseUpload extracts text from a stored upload and derives proposed fields.
// An extraction failure is returned as an error, not folded into the text.
func (s *Service) ParseUpload(ctx context.Context, filename string) (*Preview, error) {
	path, err := s.safeJoin(filename)
	if err != nil {
		return nil, err
	}
	res, err := s.extractor.Extract(ctx, path)
	if err != nil {
		s.logger.Error("extraction failed", "filename", filename, "error", err)
		return nil, err
	}
	fields := s.parser.ExtractFields(res.Text)
	return &Preview{
		Filename: filename,
		Text:     res.Text,
		Fields:   fields,
		Warnings: res.Warnings,
	}, nil
}

// Save persists a record, applying the insert-time defaults: today's date,
// zero amount, "Uncategorized".
func (s *Service) Save(ctx context.Context, filename string, f parse.Fields) (*store.Receipt, error) {
	rec := s.toRecord(filename, f)
	if _, err := s.store.Insert(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("receipt saved", "id", rec.ID, "filename", rec.Filename, "vendor", rec.Vendor)
	return rec, nil
}

func (s *Service) toRecord(filename string, f parse.Fields) *store.Receipt {
	rec := &store.Receipt{Filename: filename, Category: "Uncategorized"}
	if f.Vendor != nil {
		rec.Vendor = *f.Vendor
	}
	date := s.now().Format("2006-01-02")
	if f.Date != nil && *f.Date != "" {
		date = *f.Date
	}
	rec.Date = &date
	amount := 0.0
	if f.Amount != nil {
		amount = *f.Amount
	}
	rec.Amount = &amount
	if f.Category != nil && *f.Category != "" {
		rec.Category = *f.Category
	}
	return rec
}

// IngestZip expands a zip archive into the upload directory and ingests each
// entry. The archive is expanded all-or-nothing, but every entry gets its own
// outcome; a failed entry never aborts the batch.
func (s *Service) IngestZip(ctx context.Context, r io.ReaderAt, size int64) ([]FileReport, BatchStats, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, BatchStats{}, fmt.Errorf("open zip: %w", err)
	}
	batchID := uuid.NewString()

	// Expand everything first, matching the all-or-nothing archive policy.
	var names []string
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		if err := s.expandEntry(zf); err != nil {
			return nil, BatchStats{}, fmt.Errorf("expand %s: %w", zf.Name, err)
		}
		names = append(names, zf.Name)
	}

	existing, err := s.store.ListFilenames(ctx)
	if err != nil {
		return nil, BatchStats{}, err
	}

	var (
		reports []FileReport
		stats   = BatchStats{BatchID: batchID}
	)
	for _, name := range names {
		stats.Total++
		report := s.ingestEntry(ctx, name, existing)
		switch report.Status {
		case constants.StatusParsed:
			stats.Parsed++
			existing[name] = struct{}{}
		case constants.StatusInvalidType:
			stats.Invalid++
		case constants.StatusDuplicate:
			stats.Duplicates++
		case constants.StatusError:
			stats.Failed++
		}
		reports = append(reports, report)
	}

	s.logger.Info("zip ingest completed",
		"batch_id", batchID,
		"total", stats.Total,
		"parsed", stats.Parsed,
		"invalid", stats.Invalid,
		"duplicates", stats.Duplicates,
		"failed", stats.Failed,
	)
	return reports, stats, nil
}

func (s *Service) ingestEntry(ctx context.Context, name string, existing map[string]struct{}) FileReport {
	if !constants.IsAllowedExt(filepath.Ext(name)) {
		return FileReport{Filename: name, Status: constants.StatusInvalidType}
	}
	if _, dup := existing[name]; dup {
		return FileReport{Filename: name, Status: constants.StatusDuplicate}
	}

	preview, err := s.ParseUpload(ctx, name)
	if err != nil {
		return FileReport{Filename: name, Status: constants.StatusError, Detail: err.Error()}
	}
	rec, err := s.Save(ctx, name, preview.Fields)
	if err != nil {
		return FileReport{Filename: name, Status: constants.StatusError, Detail: err.Error()}
	}
	return FileReport{Filename: name, Status: constants.StatusParsed, ReceiptID: rec.ID}
}

func (s *Service) expandEntry(zf *zip.File) error {
	path, err := s.safeJoin(zf.Name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	src, err := zf.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}

// safeJoin resolves name under the upload directory, rejecting traversal.
func (s *Service) safeJoin(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty filename")
	}
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid filename %q", name)
	}
	return filepath.Join(s.uploadDir, cleaned), nil
}
