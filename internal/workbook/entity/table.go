package entity

import (
	"slices"
	"strconv"
)

// Value is a single cell. A nil Value is a missing cell; non-nil values are
// int64, float64, bool, or string, matching the column's ColumnType.
type Value = any

// Column pairs a name with its inferred type.
type Column struct {
	Name string
	Type ColumnType
}

// Table is one sheet's data: an ordered column sequence plus rows. Every row
// holds exactly len(Columns) values.
type Table struct {
	Columns []Column
	Rows    [][]Value
}

func (t Table) NumRows() int {
	return len(t.Rows)
}

func (t Table) NumCols() int {
	return len(t.Columns)
}

// ColumnIndex returns the position of the named column.
func (t Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// ColumnNames returns the ordered column names.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Clone returns a deep copy. Cell values are scalars, so copying the row
// slices is enough.
func (t Table) Clone() Table {
	out := Table{Columns: slices.Clone(t.Columns)}
	if t.Rows != nil {
		out.Rows = make([][]Value, len(t.Rows))
		for i, row := range t.Rows {
			out.Rows[i] = slices.Clone(row)
		}
	}
	return out
}

// AsFloat converts a numeric cell to float64. It returns false for nulls and
// non-numeric values.
func AsFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

// FormatValue renders a cell in its canonical string form. Nulls render as
// the empty string.
func FormatValue(v Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return ""
	}
}
