// Package store persists receipt records in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Schema is applied idempotently on open. No migrations.
const Schema = `
CREATE TABLE IF NOT EXISTS receipts (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT,
	vendor   TEXT,
	date     TEXT,
	amount   REAL,
	category TEXT
);`

// Receipt is one stored parsed document.
type Receipt struct {
	ID       int64    `json:"id"`
	Filename string   `json:"filename"`
	Vendor   string   `json:"vendor"`
	Date     *string  `json:"date"`
	Amount   *float64 `json:"amount"`
	Category string   `json:"category"`
}

// SortField is the enum-constrained sort key. Arbitrary column names are
// never interpolated into query text.
type SortField string

const (
	SortByID       SortField = "id"
	SortByFilename SortField = "filename"
	SortByVendor   SortField = "vendor"
	SortByDate     SortField = "date"
	SortByAmount   SortField = "amount"
	SortByCategory SortField = "category"
)

// SortOrder is the fixed sort direction flag.
type SortOrder string

const (
	Ascending  SortOrder = "ASC"
	Descending SortOrder = "DESC"
)

var sortColumns = map[SortField]string{
	SortByID:       "id",
	SortByFilename: "filename",
	SortByVendor:   "vendor",
	SortByDate:     "date",
	SortByAmount:   "amount",
	SortByCategory: "category",
}

// ParseSortField resolves a user-supplied field name against the allow-list.
func ParseSortField(s string) (SortField, error) {
	f := SortField(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := sortColumns[f]; !ok {
		return "", fmt.Errorf("invalid sort field %q", s)
	}
	return f, nil
}

// ParseSortOrder resolves a user-supplied direction token.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(Ascending):
		return Ascending, nil
	case string(Descending):
		return Descending, nil
	}
	return "", fmt.Errorf("invalid sort order %q", s)
}

type Config struct {
	Path        string
	BusyTimeout time.Duration
}

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating parent directories if needed) the SQLite database at
// cfg.Path, applies pragmas and the schema, and returns the store.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if cfg.Path == ":memory:" {
		// Each connection to ":memory:" creates a separate database.
		db.SetMaxOpenConns(1)
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 10 * time.Second
	}
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d;", busy.Milliseconds()),
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("database ready", "path", cfg.Path)
	return &Store{db: db, logger: logger}, nil
}

// OpenMemory opens an in-memory store, for tests.
func OpenMemory(ctx context.Context, logger *slog.Logger) (*Store, error) {
	return Open(ctx, Config{Path: ":memory:"}, logger)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Insert appends a new record and returns its assigned id. No uniqueness or
// validation checks.
func (s *Store) Insert(ctx context.Context, r *Receipt) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO receipts (filename, vendor, date, amount, category) VALUES (?, ?, ?, ?, ?)`,
		r.Filename, r.Vendor, r.Date, r.Amount, r.Category)
	if err != nil {
		s.logger.Error("insert receipt failed", "filename", r.Filename, "error", err)
		return 0, fmt.Errorf("insert receipt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	r.ID = id
	return id, nil
}

// ListAll returns every record in insertion order.
func (s *Store) ListAll(ctx context.Context) ([]Receipt, error) {
	return s.query(ctx, `SELECT id, filename, vendor, date, amount, category FROM receipts`)
}

// SearchByVendor returns records whose vendor contains substr,
// case-insensitively.
func (s *Store) SearchByVendor(ctx context.Context, substr string) ([]Receipt, error) {
	return s.query(ctx,
		`SELECT id, filename, vendor, date, amount, category FROM receipts
		 WHERE LOWER(vendor) LIKE '%' || LOWER(?) || '%'`, substr)
}

// SortBy returns every record ordered by the given field and direction.
// Ties are broken by insertion order.
func (s *Store) SortBy(ctx context.Context, field SortField, order SortOrder) ([]Receipt, error) {
	col, ok := sortColumns[field]
	if !ok {
		return nil, fmt.Errorf("invalid sort field %q", field)
	}
	if order != Ascending && order != Descending {
		return nil, fmt.Errorf("invalid sort order %q", order)
	}
	q := fmt.Sprintf(
		`SELECT id, filename, vendor, date, amount, category FROM receipts ORDER BY %s %s, id ASC`,
		col, order)
	return s.query(ctx, q)
}

// Delete removes the record with the given id. Deleting a missing id is a
// no-op.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM receipts WHERE id = ?`, id); err != nil {
		s.logger.Error("delete receipt failed", "id", id, "error", err)
		return fmt.Errorf("delete receipt: %w", err)
	}
	return nil
}

// ListFilenames returns all stored filenames, for duplicate detection.
func (s *Store) ListFilenames(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT filename FROM receipts`)
	if err != nil {
		return nil, fmt.Errorf("list filenames: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan filename: %w", err)
		}
		if name.Valid {
			out[name.String] = struct{}{}
		}
	}
	return out, rows.Err()
}

// QueryOptions combines the dashboard filters: vendor substring, category
// multi-select, inclusive date range, and sort.
type QueryOptions struct {
	VendorSubstr string
	Categories   []string
	DateFrom     string // inclusive, YYYY-MM-DD; empty = unbounded
	DateTo       string // inclusive, YYYY-MM-DD; empty = unbounded
	SortField    SortField
	SortOrder    SortOrder
}

// Query returns records matching every set filter, sorted as requested.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]Receipt, error) {
	var (
		where []string
		args  []any
	)
	if opts.VendorSubstr != "" {
		where = append(where, `LOWER(vendor) LIKE '%' || LOWER(?) || '%'`)
		args = append(args, opts.VendorSubstr)
	}
	if len(opts.Categories) > 0 {
		ph := make([]string, len(opts.Categories))
		for i, c := range opts.Categories {
			ph[i] = "?"
			args = append(args, c)
		}
		where = append(where, fmt.Sprintf("category IN (%s)", strings.Join(ph, ", ")))
	}
	if opts.DateFrom != "" {
		where = append(where, "date >= ?")
		args = append(args, opts.DateFrom)
	}
	if opts.DateTo != "" {
		where = append(where, "date <= ?")
		args = append(args, opts.DateTo)
	}

	q := `SELECT id, filename, vendor, date, amount, category FROM receipts`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	if opts.SortField != "" {
		col, ok := sortColumns[opts.SortField]
		if !ok {
			return nil, fmt.Errorf("invalid sort field %q", opts.SortField)
		}
		order := opts.SortOrder
		if order == "" {
			order = Ascending
		}
		if order != Ascending && order != Descending {
			return nil, fmt.Errorf("invalid sort order %q", order)
		}
		q += fmt.Sprintf(" ORDER BY %s %s, id ASC", col, order)
	}
	return s.query(ctx, q, args...)
}

// Stats summarizes stored receipts for the dashboard.
type Stats struct {
	Count        int64              `json:"count"`
	TotalSpend   float64            `json:"total_spend"`
	AverageSpend float64            `json:"average_spend"`
	HighestSpend float64            `json:"highest_spend"`
	VendorCounts map[string]int64   `json:"vendor_counts"`
	MonthlySpend map[string]float64 `json:"monthly_spend"`
}

// Summarize computes aggregate spend statistics.
func (s *Store) Summarize(ctx context.Context) (*Stats, error) {
	st := &Stats{
		VendorCounts: make(map[string]int64),
		MonthlySpend: make(map[string]float64),
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount), 0), COALESCE(AVG(amount), 0), COALESCE(MAX(amount), 0) FROM receipts`)
	if err := row.Scan(&st.Count, &st.TotalSpend, &st.AverageSpend, &st.HighestSpend); err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(vendor, ''), COUNT(*) FROM receipts GROUP BY vendor`)
	if err != nil {
		return nil, fmt.Errorf("vendor counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var vendor string
		var n int64
		if err := rows.Scan(&vendor, &n); err != nil {
			return nil, fmt.Errorf("scan vendor count: %w", err)
		}
		st.VendorCounts[vendor] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Month buckets come from the YYYY-MM prefix; rows whose date never
	// parsed to YYYY-MM-DD fall outside any bucket.
	mrows, err := s.db.QueryContext(ctx,
		`SELECT substr(date, 1, 7), COALESCE(SUM(amount), 0) FROM receipts
		 WHERE date GLOB '[0-9][0-9][0-9][0-9]-[0-9][0-9]-[0-9][0-9]'
		 GROUP BY substr(date, 1, 7)`)
	if err != nil {
		return nil, fmt.Errorf("monthly spend: %w", err)
	}
	defer mrows.Close()
	for mrows.Next() {
		var month string
		var total float64
		if err := mrows.Scan(&month, &total); err != nil {
			return nil, fmt.Errorf("scan monthly spend: %w", err)
		}
		st.MonthlySpend[month] = total
	}
	return st, mrows.Err()
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Receipt, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logger.Error("query receipts failed", "error", err)
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	var out []Receipt
	for rows.Next() {
		var (
			r        Receipt
			filename sql.NullString
			vendor   sql.NullString
			category sql.NullString
		)
		if err := rows.Scan(&r.ID, &filename, &vendor, &r.Date, &r.Amount, &category); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		r.Filename = filename.String
		r.Vendor = vendor.String
		r.Category = category.String
		out = append(out, r)
	}
	return out, rows.Err()
}
