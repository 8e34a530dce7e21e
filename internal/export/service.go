// Package export renders receipt records as CSV, JSON, PDF and XLSX.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/joseph-ayodele/receipt-parser/internal/store"
)

var csvHeader = []string{"ID", "Filename", "Vendor", "Date", "Amount", "Category"}

// CSV renders records as UTF-8 comma-separated values with a header row.
func CSV(recs []store.Receipt) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range recs {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Filename,
			r.Vendor,
			dateOrEmpty(r.Date),
			amountOrEmpty(r.Amount),
			r.Category,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JSON renders records as an indented array of record objects.
func JSON(recs []store.Receipt) ([]byte, error) {
	if recs == nil {
		recs = []store.Receipt{}
	}
	return json.MarshalIndent(recs, "", "  ")
}

func dateOrEmpty(d *string) string {
	if d == nil {
		return ""
	}
	return *d
}

func amountOrEmpty(a *float64) string {
	if a == nil {
		return ""
	}
	return strconv.FormatFloat(*a, 'f', 2, 64)
}
