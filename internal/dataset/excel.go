package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetNames lists the sheets of an Excel workbook.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("excel: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// LoadExcel reads one sheet of an Excel workbook into a Table. An empty
// sheet name selects the workbook's first sheet. The first row is the
// header.
func LoadExcel(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("excel: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("excel: workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("excel: read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel: sheet %q is empty", sheet)
	}

	table := &Table{Columns: trimAll(rows[0])}
	for _, record := range rows[1:] {
		table.Rows = append(table.Rows, recordToRow(record, len(table.Columns)))
	}
	return table, nil
}
