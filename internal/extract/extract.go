// Package extract turns a receipt file into raw text. Dispatch is strictly by
// file extension: images go through tesseract, PDFs through the pdftotext text
// layer, .txt files are read as-is.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/receipt-parser/constants"
)

// ErrUnsupportedType marks a file whose extension is not in the allowed set.
var ErrUnsupportedType = errors.New("unsupported file type")

type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	Pdftotext     string // binary name or absolute path; if empty -> "pdftotext"
}

// Result is the outcome of a successful extraction. Failures are reported as
// ordinary errors, never folded into the text.
type Result struct {
	Text     string
	Format   constants.Format
	Pages    int
	Duration time.Duration
	Warnings []string
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks a backend based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting text extraction", "path", path, "ext", ext)

	var res Result
	var err error
	switch format := constants.MapExtToFormat(ext); format {
	case constants.IMAGE:
		res, err = e.extractImage(ctx, path)
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.TXT:
		res, err = e.extractTxt(path)
	default:
		e.logger.Warn("unsupported extension", "path", path, "ext", ext)
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	if err != nil {
		return res, err
	}
	res.Duration = time.Since(start)
	return res, nil
}

func (e *Extractor) extractImage(ctx context.Context, path string) (Result, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		return Result{Format: constants.IMAGE, Warnings: []string{string(errb)}},
			fmt.Errorf("tesseract: %w", err)
	}
	return Result{
		Text:   string(out),
		Format: constants.IMAGE,
		Pages:  1,
	}, nil
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return Result{Format: constants.PDF, Warnings: []string{string(errb)}},
			fmt.Errorf("pdftotext: %w", err)
	}
	text := string(out)
	// A form-feed \f is the page separator by default.
	pages := 1 + strings.Count(text, "\f")
	return Result{
		Text:   text,
		Format: constants.PDF,
		Pages:  pages,
	}, nil
}

func (e *Extractor) extractTxt(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Format: constants.TXT}, fmt.Errorf("read txt: %w", err)
	}
	return Result{
		Text:   string(data),
		Format: constants.TXT,
		Pages:  1,
	}, nil
}
