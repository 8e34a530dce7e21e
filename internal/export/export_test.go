package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/receipt-parser/internal/store"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }

func sampleRecords() []store.Receipt {
	return []store.Receipt{
		{ID: 1, Filename: "amazon.txt", Vendor: "Amazon", Date: strPtr("2023-05-12"), Amount: f64Ptr(45.00), Category: "Shopping"},
		{ID: 2, Filename: "scan.pdf", Vendor: "Corner Store", Date: nil, Amount: nil, Category: "Uncategorized"},
	}
}

func TestCSV(t *testing.T) {
	data, err := CSV(sampleRecords())
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines: got %d, want header + 2 rows", len(lines))
	}
	if lines[0] != "ID,Filename,Vendor,Date,Amount,Category" {
		t.Errorf("header: got %q", lines[0])
	}
	if lines[1] != "1,amazon.txt,Amazon,2023-05-12,45.00,Shopping" {
		t.Errorf("row 1: got %q", lines[1])
	}
	if lines[2] != "2,scan.pdf,Corner Store,,,Uncategorized" {
		t.Errorf("row 2: got %q", lines[2])
	}
}

func TestCSVEmpty(t *testing.T) {
	data, err := CSV(nil)
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if strings.TrimRight(string(data), "\n") != "ID,Filename,Vendor,Date,Amount,Category" {
		t.Errorf("empty export: got %q, want header only", string(data))
	}
}

func TestJSON(t *testing.T) {
	data, err := JSON(sampleRecords())
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.HasPrefix(string(data), "[\n  {") {
		t.Errorf("output must be a 2-space indented array, got prefix %q", string(data[:10]))
	}

	var out []store.Receipt
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("records: got %d, want 2", len(out))
	}
	if out[0].Vendor != "Amazon" || out[1].Date != nil {
		t.Errorf("records: got %+v", out)
	}

	empty, err := JSON(nil)
	if err != nil {
		t.Fatalf("json nil: %v", err)
	}
	if string(empty) != "[]" {
		t.Errorf("nil export: got %q, want []", string(empty))
	}
}

func TestPDF(t *testing.T) {
	data, err := PDF(sampleRecords())
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("output is not a PDF document")
	}
}

func TestXLSX(t *testing.T) {
	data, err := XLSX(sampleRecords())
	if err != nil {
		t.Fatalf("xlsx: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue("Receipts", "C2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "Amazon" {
		t.Errorf("C2: got %q, want Amazon", got)
	}
}
