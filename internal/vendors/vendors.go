// Package vendors holds the known-vendor lookup used to classify receipts.
// The table is loaded once at startup and injected into the parser; entry
// order is match precedence.
package vendors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Entry maps a vendor name to its spending category.
type Entry struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Table is an immutable, ordered vendor -> category lookup.
type Table struct {
	entries []Entry
}

// Defaults returns the built-in vendor table.
func Defaults() *Table {
	return &Table{entries: []Entry{
		{Name: "Reliance Jio", Category: "Internet"},
		{Name: "Amazon", Category: "Shopping"},
		{Name: "Big Bazaar", Category: "Groceries"},
		{Name: "Swiggy", Category: "Food Delivery"},
		{Name: "Flipkart", Category: "Shopping"},
	}}
}

// configSchema constrains the vendors config document.
const configSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["vendors"],
  "properties": {
    "vendors": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["name", "category"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "category": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

// LoadFile reads a JSON vendors config, validates it against the embedded
// schema, and returns the resulting table. File order is match precedence.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vendors config: %w", err)
	}
	return Load(data)
}

// Load parses and validates a vendors config document.
func Load(data []byte) (*Table, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	var doc struct {
		Vendors []Entry `json:"vendors"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal vendors config: %w", err)
	}
	return &Table{entries: doc.Vendors}, nil
}

func validate(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("vendors.schema.json", bytes.NewReader([]byte(configSchema))); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("vendors.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal vendors config: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("vendors config does not match schema: %w", err)
	}
	return nil
}

// Entries returns the table contents in precedence order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Match scans line for a known vendor name, case-insensitively. The first
// entry whose name occurs as a substring wins.
func (t *Table) Match(line string) (Entry, bool) {
	lower := strings.ToLower(line)
	for _, e := range t.entries {
		if strings.Contains(lower, strings.ToLower(e.Name)) {
			return e, true
		}
	}
	return Entry{}, false
}
