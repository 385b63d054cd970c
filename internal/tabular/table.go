// Package tabular reads and writes the header-keyed CSV and XLSX tables the
// pipeline consumes and produces.
package tabular

import (
	"fmt"
	"regexp"
	"strings"
)

// SchemaError reports required columns absent from an input table. It names
// every missing column in one message so the operator fixes the file once.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("tabular: %s missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
}

// Table is an in-memory tabular file with a normalized header index.
type Table struct {
	Source string
	Header []string
	Rows   [][]string
	colIdx map[string]int
}

// NewTable builds a Table from a header row and data rows.
func NewTable(source string, header []string, rows [][]string) *Table {
	t := &Table{Source: source, Header: header, Rows: rows}
	t.colIdx = make(map[string]int, len(header))
	for i, col := range header {
		t.colIdx[NormalizeCol(col)] = i
	}
	return t
}

// Col returns the value of the named column in a row, or "" when the column
// is absent or the row is short.
func (t *Table) Col(row []string, name string) string {
	idx, ok := t.colIdx[NormalizeCol(name)]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colIdx[NormalizeCol(name)]
	return ok
}

// RequireColumns returns a *SchemaError naming every absent column, or nil.
func (t *Table) RequireColumns(names ...string) error {
	var missing []string
	for _, name := range names {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Source: t.Source, Missing: missing}
	}
	return nil
}

// MatchColumn returns the first header whose normalized name matches the
// case-insensitive pattern. Vendor exports rename columns between
// deliveries, so share tables are located by fragment ("naics", "share")
// rather than exact name.
func (t *Table) MatchColumn(pattern string) (string, bool) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return "", false
	}
	for _, col := range t.Header {
		if re.MatchString(col) {
			return col, true
		}
	}
	return "", false
}

// NormalizeCol strips parentheses and lowercases for cross-format column
// matching: "Segment ID" → "segment id".
func NormalizeCol(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "(", "")
	s = strings.ReplaceAll(s, ")", "")
	return s
}
