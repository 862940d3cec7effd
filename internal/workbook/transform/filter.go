package transform

import (
	"slices"

	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
)

// CategoricalFilter keeps rows whose column value is a member of Values.
// Values are matched on the cell's canonical string form, since that is
// what a caller picked from the displayed distinct values. Null cells are
// excluded unless IncludeNull is set.
type CategoricalFilter struct {
	Column      string
	Values      []string
	IncludeNull bool
}

func (f CategoricalFilter) Name() string {
	return "filter_values"
}

func (f CategoricalFilter) Apply(t entity.Table) (entity.Table, error) {
	idx, ok := t.ColumnIndex(f.Column)
	if !ok {
		return entity.Table{}, &entity.ColumnNotFoundError{Column: f.Column}
	}

	allowed := make(map[string]struct{}, len(f.Values))
	for _, v := range f.Values {
		allowed[v] = struct{}{}
	}

	out := entity.Table{Columns: slices.Clone(t.Columns)}
	for _, row := range t.Rows {
		v := row[idx]
		if v == nil {
			if !f.IncludeNull {
				continue
			}
		} else if _, keep := allowed[entity.FormatValue(v)]; !keep {
			continue
		}
		out.Rows = append(out.Rows, cloneRow(row))
	}

	return out, nil
}

// NumericRangeFilter keeps rows where Min <= value <= Max. Null cells are
// always excluded.
type NumericRangeFilter struct {
	Column string
	Min    float64
	Max    float64
}

func (f NumericRangeFilter) Name() string {
	return "filter_range"
}

func (f NumericRangeFilter) Apply(t entity.Table) (entity.Table, error) {
	idx, ok := t.ColumnIndex(f.Column)
	if !ok {
		return entity.Table{}, &entity.ColumnNotFoundError{Column: f.Column}
	}
	if f.Min > f.Max {
		return entity.Table{}, &entity.InvalidRangeError{Min: f.Min, Max: f.Max}
	}
	if col := t.Columns[idx]; !col.Type.Numeric() {
		return entity.Table{}, &entity.TypeMismatchError{Column: col.Name, Type: col.Type}
	}

	out := entity.Table{Columns: slices.Clone(t.Columns)}
	for _, row := range t.Rows {
		x, ok := entity.AsFloat(row[idx])
		if !ok || x < f.Min || x > f.Max {
			continue
		}
		out.Rows = append(out.Rows, cloneRow(row))
	}

	return out, nil
}
