package transform

import (
	"slices"
	"sort"
	"strings"

	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
)

// Sort orders rows by one column. The sort is stable, and null values sort
// last regardless of direction.
type Sort struct {
	Column     string
	Descending bool
}

func (s Sort) Name() string {
	return "sort"
}

func (s Sort) Apply(t entity.Table) (entity.Table, error) {
	idx, ok := t.ColumnIndex(s.Column)
	if !ok {
		return entity.Table{}, &entity.ColumnNotFoundError{Column: s.Column}
	}

	out := entity.Table{
		Columns: slices.Clone(t.Columns),
		Rows:    make([][]entity.Value, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = cloneRow(row)
	}

	colType := t.Columns[idx].Type
	sort.SliceStable(out.Rows, func(i, j int) bool {
		a, b := out.Rows[i][idx], out.Rows[j][idx]
		if a == nil || b == nil {
			// Nulls after everything, in both directions.
			return a != nil && b == nil
		}
		if s.Descending {
			return compareValues(b, a, colType) < 0
		}
		return compareValues(a, b, colType) < 0
	})

	return out, nil
}

func compareValues(a, b entity.Value, t entity.ColumnType) int {
	switch t {
	case entity.TypeInteger, entity.TypeFloat:
		fa, _ := entity.AsFloat(a)
		fb, _ := entity.AsFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	case entity.TypeBoolean:
		ba, _ := a.(bool)
		bb, _ := b.(bool)
		switch {
		case !ba && bb:
			return -1
		case ba && !bb:
			return 1
		default:
			return 0
		}
	default:
		return strings.Compare(entity.FormatValue(a), entity.FormatValue(b))
	}
}
