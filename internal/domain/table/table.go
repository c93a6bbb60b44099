// Package table is the tabular exchange format for topics and retrieved results.
package table

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Column names every topic or result table may carry.
const (
	QID   = "qid"
	Query = "query"
	Docno = "docno"
	Score = "score"
	Rank  = "rank"
)

// Row maps column names to values. A nil value is the null marker.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	return maps.Clone(r)
}

// QID returns the query id in its canonical string form.
func (r Row) QID() string {
	return Key(r[QID])
}

// Query returns the query text.
func (r Row) Query() string {
	switch q := r[Query].(type) {
	case string:
		return q
	case nil:
		return ""
	default:
		return fmt.Sprint(q)
	}
}

// Float returns a numeric column as float64.
func (r Row) Float(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

// String returns a column value as string, or "" for null.
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Key converts a qid value to the form used for grouping.
func Key(v any) string {
	switch k := v.(type) {
	case nil:
		return ""
	case string:
		return k
	default:
		return fmt.Sprint(k)
	}
}

// Table is an ordered set of columns with rows.
type Table struct {
	Columns []string
	Rows    []Row
}

// New creates a table with the given columns.
func New(columns ...string) Table {
	return Table{Columns: columns}
}

// FromRows builds a table whose columns are the union of row keys in first-seen order.
// Keys within a row are ordered lexically since maps carry no order.
func FromRows(rows []Row, leading ...string) Table {
	t := Table{Columns: slices.Clone(leading), Rows: rows}
	seen := make(map[string]struct{}, len(leading))
	for _, c := range leading {
		seen[c] = struct{}{}
	}
	for _, r := range rows {
		for _, c := range slices.Sorted(maps.Keys(r)) {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			t.Columns = append(t.Columns, c)
		}
	}
	return t
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// HasColumn reports whether the table declares col.
func (t Table) HasColumn(col string) bool {
	return slices.Contains(t.Columns, col)
}

// Append adds a row, extending the column list with unseen keys.
func (t *Table) Append(r Row) {
	for _, c := range slices.Sorted(maps.Keys(r)) {
		if !t.HasColumn(c) {
			t.Columns = append(t.Columns, c)
		}
	}
	t.Rows = append(t.Rows, r)
}
