package dataset

import (
	"strings"
	"testing"
)

const sampleCSV = `ticket,priority,count
"login failed",high,3
"can't pay",medium,1
,low,2
"app crashes",high,5
`

func TestReadCSV(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(table.Columns) != 3 || table.Columns[0] != "ticket" {
		t.Errorf("Columns = %v", table.Columns)
	}
	if table.NumRows() != 4 {
		t.Errorf("NumRows = %d, want 4", table.NumRows())
	}
	if !table.Rows[2][0].Null {
		t.Error("empty cell should be null")
	}
}

func TestReadCSV_RaggedRows(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("a,b\n1\n1,2,3\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(table.Rows[0]) != 2 || !table.Rows[0][1].Null {
		t.Errorf("short row should be padded with nulls: %+v", table.Rows[0])
	}
	if len(table.Rows[1]) != 2 {
		t.Errorf("long row should be truncated to header width: %+v", table.Rows[1])
	}
}

func TestReadCSV_Empty(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestColumn_SkipsNulls(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	values, err := table.Column("ticket")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"login failed", "can't pay", "app crashes"}
	if len(values) != len(want) {
		t.Fatalf("got %v", values)
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("values[%d] = %q, want %q", i, values[i], want[i])
		}
	}
}

func TestColumnWithIndexes(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	values, indexes, err := table.ColumnWithIndexes("ticket")
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 3 {
		t.Fatalf("got %d values", len(values))
	}
	// Row 2 (the null) is skipped, so indexes jump from 1 to 3.
	if indexes[0] != 0 || indexes[1] != 1 || indexes[2] != 3 {
		t.Errorf("indexes = %v, want [0 1 3]", indexes)
	}
}

func TestColumn_CaseInsensitiveFallback(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := table.Column("Ticket"); err != nil {
		t.Errorf("case-insensitive match should succeed: %v", err)
	}
	if _, err := table.Column("missing"); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestStats(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	stats := table.Stats()
	byName := map[string]ColumnStats{}
	for _, s := range stats {
		byName[s.Name] = s
	}

	if !byName["ticket"].IsText {
		t.Error("ticket should be text-like")
	}
	if byName["count"].IsText {
		t.Error("count is numeric, not text-like")
	}
	if byName["ticket"].NonNull != 3 || byName["ticket"].Unique != 3 {
		t.Errorf("ticket stats = %+v", byName["ticket"])
	}
}

func TestTextColumns_OrderedByAvgLength(t *testing.T) {
	csv := "code,description\nab,a long description of the thing\ncd,another fairly long description\n"
	table, err := ReadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatal(err)
	}
	cols := table.TextColumns()
	if len(cols) != 2 || cols[0] != "description" {
		t.Errorf("TextColumns = %v, want description first", cols)
	}
}

func TestIsNumeric(t *testing.T) {
	cases := map[string]bool{
		"42":      true,
		"3.14":    true,
		"1,000":   true,
		"-5":      true,
		"":        false,
		"hello":   false,
		"42 left": false,
	}
	for in, want := range cases {
		if got := isNumeric(in); got != want {
			t.Errorf("isNumeric(%q) = %v, want %v", in, got, want)
		}
	}
}
