package parse

import (
	"testing"

	"github.com/joseph-ayodele/receipt-parser/internal/vendors"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	return NewParser(vendors.Defaults())
}

func TestExtractFieldsEmptyText(t *testing.T) {
	p := newParser(t)
	for _, text := range []string{"", "   \n\t\n  "} {
		f := p.ExtractFields(text)
		if f.Vendor != nil {
			t.Errorf("Vendor: got %q, want nil", *f.Vendor)
		}
		if f.Category != nil {
			t.Errorf("Category: got %q, want nil", *f.Category)
		}
		if f.Date != nil {
			t.Errorf("Date: got %q, want nil", *f.Date)
		}
		if f.Amount != nil {
			t.Errorf("Amount: got %v, want nil", *f.Amount)
		}
	}
}

func TestExtractFieldsKnownVendor(t *testing.T) {
	p := newParser(t)
	f := p.ExtractFields("Receipt\nAmazon Order #123\nThanks for shopping")
	if f.Vendor == nil || *f.Vendor != "Amazon" {
		t.Fatalf("Vendor: got %v, want Amazon", f.Vendor)
	}
	if f.Category == nil || *f.Category != "Shopping" {
		t.Fatalf("Category: got %v, want Shopping", f.Category)
	}
}

func TestExtractFieldsVendorCaseInsensitive(t *testing.T) {
	p := newParser(t)
	f := p.ExtractFields("order from AMAZON marketplace")
	if f.Vendor == nil || *f.Vendor != "Amazon" {
		t.Fatalf("Vendor: got %v, want Amazon", f.Vendor)
	}
}

func TestExtractFieldsVendorFallbackFirstLine(t *testing.T) {
	p := newParser(t)
	f := p.ExtractFields("\n  Corner Store  \nsome item 12.00\n")
	if f.Vendor == nil || *f.Vendor != "Corner Store" {
		t.Fatalf("Vendor: got %v, want Corner Store", f.Vendor)
	}
	if f.Category != nil {
		t.Fatalf("Category: got %q, want nil", *f.Category)
	}
}

func TestExtractFieldsVendorOnlyTopFiveLines(t *testing.T) {
	p := newParser(t)
	text := "a\nb\nc\nd\ne\nAmazon Order #123"
	f := p.ExtractFields(text)
	if f.Vendor == nil || *f.Vendor != "a" {
		t.Fatalf("Vendor: got %v, want fallback first line", f.Vendor)
	}
	if f.Category != nil {
		t.Fatalf("Category: got %q, want nil", *f.Category)
	}
}

func TestExtractFieldsDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"dash day-month-year", "Date: 12-05-2023", "2023-05-12"},
		{"slash day-month-year", "Date: 12/05/2023", "2023-05-12"},
		{"single digit fields", "on 1-2-2023 we", "2023-02-01"},
		{"first match wins", "Date: 12-05-2023 corrected 99-99-9999", "2023-05-12"},
		{"unparseable kept raw", "weird 99-99-9999 stamp", "99-99-9999"},
	}
	p := newParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := p.ExtractFields(tt.text)
			if f.Date == nil {
				t.Fatalf("Date: got nil, want %q", tt.want)
			}
			if *f.Date != tt.want {
				t.Errorf("Date: got %q, want %q", *f.Date, tt.want)
			}
		})
	}
}

func TestExtractFieldsNoDate(t *testing.T) {
	p := newParser(t)
	if f := p.ExtractFields("no dates here"); f.Date != nil {
		t.Fatalf("Date: got %q, want nil", *f.Date)
	}
}

func TestExtractFieldsAmountFirstMatch(t *testing.T) {
	p := newParser(t)
	f := p.ExtractFields("Total: ₹45.00\nChange: ₹9.50")
	if f.Amount == nil {
		t.Fatal("Amount: got nil, want 45.00")
	}
	if *f.Amount != 45.00 {
		t.Errorf("Amount: got %v, want 45.00", *f.Amount)
	}
}

func TestExtractFieldsAmountRejectsLooseFormats(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"one decimal digit", "Total: ₹45.5"},
		{"three decimal digits", "Total: ₹45.005"},
		{"thousands separator", "Total: ₹1,045.00"},
		{"no decimals", "Total: 45"},
	}
	p := newParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if f := p.ExtractFields(tt.text); f.Amount != nil {
				t.Errorf("Amount: got %v, want nil", *f.Amount)
			}
		})
	}
}

func TestExtractFieldsDeterministic(t *testing.T) {
	p := newParser(t)
	text := "Swiggy\nOrder on 02/01/2024\nTotal ₹129.50"
	a := p.ExtractFields(text)
	b := p.ExtractFields(text)
	if *a.Vendor != *b.Vendor || *a.Category != *b.Category || *a.Date != *b.Date || *a.Amount != *b.Amount {
		t.Fatal("identical text must yield identical fields")
	}
	if *a.Vendor != "Swiggy" || *a.Category != "Food Delivery" {
		t.Errorf("vendor/category: got %q/%q", *a.Vendor, *a.Category)
	}
	if *a.Date != "2024-01-02" {
		t.Errorf("Date: got %q, want 2024-01-02", *a.Date)
	}
	if *a.Amount != 129.50 {
		t.Errorf("Amount: got %v, want 129.50", *a.Amount)
	}
}

func TestExtractFieldsCustomTable(t *testing.T) {
	table, err := vendors.Load([]byte(`{"vendors":[{"name":"Blue Bottle","category":"Coffee"}]}`))
	if err != nil {
		t.Fatalf("load table: %v", err)
	}
	p := NewParser(table)
	f := p.ExtractFields("Blue Bottle Coffee\n08/02/2024\n4.50")
	if f.Vendor == nil || *f.Vendor != "Blue Bottle" {
		t.Fatalf("Vendor: got %v, want Blue Bottle", f.Vendor)
	}
	if f.Category == nil || *f.Category != "Coffee" {
		t.Fatalf("Category: got %v, want Coffee", f.Category)
	}
}
