package transform

import (
	"slices"

	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
)

// AddColumn appends a new column with Default applied to every row (null
// when Default is nil). The new column's type derives from the default
// value; a null default makes a text column.
type AddColumn struct {
	Column  string
	Default entity.Value
}

func (a AddColumn) Name() string {
	return "add_column"
}

func (a AddColumn) Apply(t entity.Table) (entity.Table, error) {
	if _, exists := t.ColumnIndex(a.Column); exists {
		return entity.Table{}, &entity.DuplicateColumnError{Column: a.Column}
	}

	out := entity.Table{
		Columns: append(slices.Clone(t.Columns), entity.Column{
			Name: a.Column,
			Type: typeForValue(a.Default),
		}),
		Rows: make([][]entity.Value, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append(cloneRow(row), a.Default)
	}

	return out, nil
}

func typeForValue(v entity.Value) entity.ColumnType {
	switch v.(type) {
	case int64:
		return entity.TypeInteger
	case float64:
		return entity.TypeFloat
	case bool:
		return entity.TypeBoolean
	default:
		return entity.TypeText
	}
}

// RemoveColumns drops the named columns from the column sequence and every
// row. If any name is absent nothing is removed.
type RemoveColumns struct {
	Columns []string
}

func (r RemoveColumns) Name() string {
	return "remove_columns"
}

func (r RemoveColumns) Apply(t entity.Table) (entity.Table, error) {
	drop := make(map[int]struct{}, len(r.Columns))
	for _, name := range r.Columns {
		idx, ok := t.ColumnIndex(name)
		if !ok {
			return entity.Table{}, &entity.ColumnNotFoundError{Column: name}
		}
		drop[idx] = struct{}{}
	}

	keep := make([]int, 0, len(t.Columns)-len(drop))
	for i := range t.Columns {
		if _, dropped := drop[i]; !dropped {
			keep = append(keep, i)
		}
	}

	out := entity.Table{
		Columns: make([]entity.Column, len(keep)),
		Rows:    make([][]entity.Value, len(t.Rows)),
	}
	for n, i := range keep {
		out.Columns[n] = t.Columns[i]
	}
	for rIdx, row := range t.Rows {
		line := make([]entity.Value, len(keep))
		for n, i := range keep {
			line[n] = row[i]
		}
		out.Rows[rIdx] = line
	}

	return out, nil
}
