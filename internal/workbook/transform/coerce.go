package transform

import (
	"math"
	"strconv"
	"strings"

	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
)

// CoerceRows converts a freely edited text grid back toward the baseline
// column types. Coercion is column-independent and never fails as a whole;
// a cell the type cannot parse degrades to null. Columns not present in the
// baseline become text columns. Empty cells become null, matching the
// loader's empty-cell rule.
func CoerceRows(baseline entity.Table, header []string, rows [][]string) entity.Table {
	cols := make([]entity.Column, len(header))
	for i, name := range header {
		colType := entity.TypeText
		if idx, ok := baseline.ColumnIndex(name); ok {
			colType = baseline.Columns[idx].Type
		}
		cols[i] = entity.Column{Name: name, Type: colType}
	}

	out := entity.Table{
		Columns: cols,
		Rows:    make([][]entity.Value, len(rows)),
	}
	for r, row := range rows {
		line := make([]entity.Value, len(cols))
		for c := range cols {
			cell := ""
			if c < len(row) {
				cell = row[c]
			}
			line[c] = coerceCell(cell, cols[c].Type)
		}
		out.Rows[r] = line
	}

	return out
}

func coerceCell(cell string, t entity.ColumnType) entity.Value {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}

	switch t {
	case entity.TypeInteger:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		// Accept decimal literals that are exactly integral ("3.0" -> 3).
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
			return int64(f)
		}
		return nil
	case entity.TypeFloat:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return nil
	case entity.TypeBoolean:
		switch strings.ToLower(s) {
		case "true", "1":
			return true
		case "false", "0":
			return false
		}
		return nil
	default:
		return cell
	}
}
