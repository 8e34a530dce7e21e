package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/joseph-ayodele/receipt-parser/internal/store"
)

// PDF renders a one-line-per-record summary document:
// "date | vendor | amount | category".
func PDF(recs []store.Receipt) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Arial", "", 12)
	doc.CellFormat(190, 10, "Receipt Summary", "", 1, "C", false, 0, "")
	doc.Ln(10)

	for _, r := range recs {
		date := dateOrEmpty(r.Date)
		if date == "" {
			date = "-"
		}
		line := fmt.Sprintf("%s | %s | %s | %s", date, r.Vendor, amountOrEmpty(r.Amount), r.Category)
		doc.CellFormat(190, 10, line, "", 1, "", false, 0, "")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
