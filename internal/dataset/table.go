// Package dataset loads tabular files into an in-memory table and helps
// pick the column worth classifying. The rest of the pipeline consumes only
// the Table abstraction; file formats stop here.
package dataset

import (
	"fmt"
	"strings"
)

// Cell is one nullable table cell.
type Cell struct {
	Value string
	Null  bool
}

// Table is an in-memory dataset: named columns over rows of nullable cells.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// columnIndex returns the index of the named column, matching
// case-insensitively when no exact match exists.
func (t *Table) columnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no column %q in table (have %s)", name, strings.Join(t.Columns, ", "))
}

// Column returns the named column's non-null, non-blank values in row
// order.
func (t *Table) Column(name string) ([]string, error) {
	idx, err := t.columnIndex(name)
	if err != nil {
		return nil, err
	}

	var values []string
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		cell := row[idx]
		if cell.Null || strings.TrimSpace(cell.Value) == "" {
			continue
		}
		values = append(values, cell.Value)
	}
	return values, nil
}

// ColumnWithIndexes returns the column's non-null values together with
// their source row indexes, for mapping classifications back to rows.
func (t *Table) ColumnWithIndexes(name string) ([]string, []int, error) {
	idx, err := t.columnIndex(name)
	if err != nil {
		return nil, nil, err
	}

	var values []string
	var indexes []int
	for i, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		cell := row[idx]
		if cell.Null || strings.TrimSpace(cell.Value) == "" {
			continue
		}
		values = append(values, cell.Value)
		indexes = append(indexes, i)
	}
	return values, indexes, nil
}
