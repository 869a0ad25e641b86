package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadCSV parses CSV data into a Table. The first record is the header;
// short rows are padded with nulls, long rows truncated to the header
// width.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv: file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	table := &Table{Columns: trimAll(header)}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: %w", len(table.Rows)+2, err)
		}
		table.Rows = append(table.Rows, recordToRow(record, len(table.Columns)))
	}
	return table, nil
}

// LoadCSV reads a CSV file from disk.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

func recordToRow(record []string, width int) []Cell {
	row := make([]Cell, width)
	for i := range row {
		if i >= len(record) || strings.TrimSpace(record[i]) == "" {
			row[i] = Cell{Null: true}
		} else {
			row[i] = Cell{Value: record[i]}
		}
	}
	return row
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
