// Package parse derives structured receipt fields from raw extracted text.
// Extraction is a pure deterministic function of the input text and the
// injected vendor table.
package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/receipt-parser/internal/vendors"
)

// vendorScanLines caps how many leading lines are scanned for a known vendor.
const vendorScanLines = 5

var (
	dateRe   = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
	amountRe = regexp.MustCompile(`\d+\.\d{2}`)
)

// Fields holds the parsed receipt fields. A nil pointer means the field was
// not found in the text.
type Fields struct {
	Vendor   *string  `json:"vendor"`
	Date     *string  `json:"date"`
	Amount   *float64 `json:"amount"`
	Category *string  `json:"category"`
}

type Parser struct {
	vendors *vendors.Table
}

func NewParser(table *vendors.Table) *Parser {
	if table == nil {
		table = vendors.Defaults()
	}
	return &Parser{vendors: table}
}

// ExtractFields parses vendor, category, date and amount out of text.
func (p *Parser) ExtractFields(text string) Fields {
	var f Fields

	lines := nonEmptyLines(text)

	// Vendor: a known vendor in the top lines wins; otherwise the first
	// non-empty line verbatim, with no category.
	limit := len(lines)
	if limit > vendorScanLines {
		limit = vendorScanLines
	}
	for _, line := range lines[:limit] {
		if e, ok := p.vendors.Match(line); ok {
			name, cat := e.Name, e.Category
			f.Vendor = &name
			f.Category = &cat
			break
		}
	}
	if f.Vendor == nil && len(lines) > 0 {
		f.Vendor = &lines[0]
	}

	// Date: first date-like fragment; parsed to YYYY-MM-DD when it is a valid
	// day-month-year, otherwise kept raw.
	if m := dateRe.FindString(text); m != "" {
		d := parseDate(m)
		f.Date = &d
	}

	// Amount: first well-delimited amount with exactly two decimal digits.
	if v, ok := firstAmount(text); ok {
		f.Amount = &v
	}

	return f
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// parseDate interprets a matched fragment as day-month-year, trying the '-'
// separator first, then '/'. Unparseable fragments pass through unchanged.
func parseDate(fragment string) string {
	for _, layout := range []string{"2-1-2006", "2/1/2006"} {
		if t, err := time.Parse(layout, fragment); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return fragment
}

// firstAmount returns the first substring of the form \d+\.\d{2} that is not
// adjacent to more digits, a comma or another decimal point. Amounts with
// thousands separators or the wrong decimal precision never match.
func firstAmount(text string) (float64, bool) {
	for _, loc := range amountRe.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 {
			switch text[start-1] {
			case ',', '.', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
				continue
			}
		}
		if end < len(text) && text[end] >= '0' && text[end] <= '9' {
			continue
		}
		v, err := strconv.ParseFloat(text[start:end], 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}
