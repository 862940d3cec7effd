// Package xlsio reads uploaded workbooks into tables and serializes tables
// back into downloadable artifacts. It is the only place byte-level format
// knowledge lives.
package xlsio

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
)

// Load parses raw workbook bytes into one table per sheet. Loading is
// all-or-nothing: any unreadable sheet fails the whole load and the returned
// error wraps the cause as *entity.LoadError.
func Load(fileName string, data []byte) (entity.Workbook, map[string]entity.Table, error) {
	var (
		names  []string
		sheets map[string]entity.Table
		err    error
	)

	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".xlsx", ".xlsm":
		names, sheets, err = loadModern(data)
	case ".xls":
		names, sheets, err = loadLegacy(data)
	default:
		err = fmt.Errorf("unsupported file extension %q", ext)
	}
	if err != nil {
		return entity.Workbook{}, nil, &entity.LoadError{FileName: fileName, Err: err}
	}

	wb := entity.Workbook{
		FileName:   fileName,
		Size:       int64(len(data)),
		SheetNames: names,
	}
	return wb, sheets, nil
}

func loadModern(data []byte) ([]string, map[string]entity.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	sheets := make(map[string]entity.Table, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		sheets[name] = buildTable(rows)
	}

	return names, sheets, nil
}

func loadLegacy(data []byte) ([]string, map[string]entity.Table, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, nil, err
	}
	if wb.NumSheets() == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	names := make([]string, 0, wb.NumSheets())
	sheets := make(map[string]entity.Table, wb.NumSheets())
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			return nil, nil, fmt.Errorf("sheet %d is unreadable", i)
		}

		var rows [][]string
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			line := make([]string, row.LastCol()+1)
			for c := 0; c <= row.LastCol(); c++ {
				line[c] = row.Col(c)
			}
			rows = append(rows, line)
		}

		names = append(names, sheet.Name)
		sheets[sheet.Name] = buildTable(rows)
	}

	return names, sheets, nil
}

// buildTable turns raw string cells into a typed table. The first row is the
// header; remaining rows are data, padded to the header width.
func buildTable(raw [][]string) entity.Table {
	if len(raw) == 0 {
		return entity.Table{}
	}

	width := 0
	for _, row := range raw {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return entity.Table{}
	}

	header := makeHeader(raw[0], width)
	data := raw[1:]

	cells := make([][]string, len(data))
	for i, row := range data {
		line := make([]string, width)
		copy(line, row)
		cells[i] = line
	}

	cols := make([]entity.Column, width)
	for c := 0; c < width; c++ {
		col := make([]string, len(cells))
		for r := range cells {
			col[r] = cells[r][c]
		}
		cols[c] = entity.Column{Name: header[c], Type: inferColumnType(col)}
	}

	rows := make([][]entity.Value, len(cells))
	for r := range cells {
		row := make([]entity.Value, width)
		for c := 0; c < width; c++ {
			row[c] = convertCell(cells[r][c], cols[c].Type)
		}
		rows[r] = row
	}

	return entity.Table{Columns: cols, Rows: rows}
}

// makeHeader fills empty header cells with positional names and suffixes
// duplicates, so column names stay unique within a table.
func makeHeader(first []string, width int) []string {
	header := make([]string, width)
	seen := make(map[string]int, width)

	for i := 0; i < width; i++ {
		name := ""
		if i < len(first) {
			name = strings.TrimSpace(first[i])
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}

		if n, dup := seen[name]; dup {
			// A later column may already carry the suffixed name, so keep
			// bumping until the rename itself is unused.
			renamed := fmt.Sprintf("%s.%d", name, n)
			for _, taken := seen[renamed]; taken; _, taken = seen[renamed] {
				n++
				renamed = fmt.Sprintf("%s.%d", name, n)
			}
			seen[name] = n + 1
			name = renamed
		}
		seen[name] = 1
		header[i] = name
	}

	return header
}
