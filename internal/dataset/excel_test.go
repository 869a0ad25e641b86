package dataset

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeTestWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{
		{"ticket", "priority"},
		{"login failed", "high"},
		{"can't pay", "medium"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := f.NewSheet("Extra"); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "test.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExcel(t *testing.T) {
	path := writeTestWorkbook(t)

	table, err := LoadExcel(path, "Sheet1")
	if err != nil {
		t.Fatalf("LoadExcel: %v", err)
	}
	if len(table.Columns) != 2 || table.Columns[0] != "ticket" {
		t.Errorf("Columns = %v", table.Columns)
	}
	if table.NumRows() != 2 {
		t.Errorf("NumRows = %d, want 2", table.NumRows())
	}
	values, err := table.Column("ticket")
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 2 || values[0] != "login failed" {
		t.Errorf("values = %v", values)
	}
}

func TestLoadExcel_DefaultSheet(t *testing.T) {
	path := writeTestWorkbook(t)

	table, err := LoadExcel(path, "")
	if err != nil {
		t.Fatalf("LoadExcel: %v", err)
	}
	if table.NumRows() != 2 {
		t.Errorf("empty sheet name should pick the first sheet, got %d rows", table.NumRows())
	}
}

func TestSheetNames(t *testing.T) {
	path := writeTestWorkbook(t)

	sheets, err := SheetNames(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(sheets) != 2 {
		t.Errorf("sheets = %v", sheets)
	}
}

func TestLoadExcel_MissingFile(t *testing.T) {
	if _, err := LoadExcel(filepath.Join(t.TempDir(), "nope.xlsx"), ""); err == nil {
		t.Fatal("expected error for missing file")
	}
}
