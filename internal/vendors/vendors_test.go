package vendors

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsTable(t *testing.T) {
	table := Defaults()
	entries := table.Entries()
	if len(entries) != 5 {
		t.Fatalf("Entries: got %d, want 5", len(entries))
	}
	if entries[0].Name != "Reliance Jio" || entries[0].Category != "Internet" {
		t.Errorf("first entry: got %+v", entries[0])
	}

	e, ok := table.Match("Your Amazon order has shipped")
	if !ok || e.Name != "Amazon" || e.Category != "Shopping" {
		t.Errorf("Match: got %+v, %v", e, ok)
	}
	if _, ok := table.Match("Unknown Corner Shop"); ok {
		t.Error("Match: unexpected hit for unknown vendor")
	}
}

func TestMatchPrecedenceIsEntryOrder(t *testing.T) {
	table, err := Load([]byte(`{"vendors":[
	  {"name":"Star Market","category":"Groceries"},
	  {"name":"Star","category":"Coffee"}
	]}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	e, ok := table.Match("star market downtown")
	if !ok || e.Category != "Groceries" {
		t.Fatalf("Match: got %+v, want the earlier entry", e)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "vendors: yes"},
		{"missing vendors key", `{"merchants":[]}`},
		{"empty list", `{"vendors":[]}`},
		{"missing category", `{"vendors":[{"name":"Amazon"}]}`},
		{"empty name", `{"vendors":[{"name":"","category":"Shopping"}]}`},
		{"extra field", `{"vendors":[{"name":"Amazon","category":"Shopping","priority":1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load([]byte(tt.data)); err == nil {
				t.Errorf("Load(%s): expected error", tt.data)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendors.json")
	doc := `{"vendors":[{"name":"Blue Bottle","category":"Coffee"}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	table, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if len(table.Entries()) != 1 {
		t.Fatalf("Entries: got %d, want 1", len(table.Entries()))
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
