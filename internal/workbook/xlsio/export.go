package xlsio

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
)

// WriteWorkbook serializes tables into a single .xlsx artifact, one sheet
// per entry in order. Null cells are written as empty cells.
func WriteWorkbook(order []string, sheets map[string]entity.Table) ([]byte, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("no sheets to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		t, ok := sheets[name]
		if !ok {
			return nil, fmt.Errorf("sheet %q has no table", name)
		}

		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, err
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, err
			}
		}

		header := make([]any, len(t.Columns))
		for c, col := range t.Columns {
			header[c] = col.Name
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return nil, err
		}

		for r, row := range t.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, err
			}
			line := make([]any, len(row))
			copy(line, row)
			if err := f.SetSheetRow(name, cell, &line); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV serializes one table as delimited text with a header row.
func WriteCSV(t entity.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.ColumnNames()); err != nil {
		return nil, err
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for c, v := range row {
			record[c] = entity.FormatValue(v)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
