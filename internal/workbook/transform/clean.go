package transform

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
)

// Deduplicate removes rows that are exact value-for-value duplicates of an
// earlier row, keeping the first occurrence.
type Deduplicate struct{}

func (Deduplicate) Name() string {
	return "deduplicate"
}

func (Deduplicate) Apply(t entity.Table) (entity.Table, error) {
	out := entity.Table{Columns: slices.Clone(t.Columns)}
	seen := make(map[string]struct{}, len(t.Rows))

	for _, row := range t.Rows {
		key := rowKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, cloneRow(row))
	}

	return out, nil
}

// rowKey builds a collision-safe identity for a row. Each cell is tagged
// with its kind so int64(1), "1", and true stay distinct.
func rowKey(row []entity.Value) string {
	var b strings.Builder
	for _, v := range row {
		switch v.(type) {
		case nil:
			b.WriteByte('n')
		case int64:
			b.WriteByte('i')
		case float64:
			b.WriteByte('f')
		case bool:
			b.WriteByte('b')
		default:
			b.WriteByte('s')
		}
		b.WriteString(entity.FormatValue(v))
		b.WriteByte(0x1f)
	}
	return b.String()
}

// DropMissing removes every row containing at least one null.
type DropMissing struct{}

func (DropMissing) Name() string {
	return "drop_missing"
}

func (DropMissing) Apply(t entity.Table) (entity.Table, error) {
	out := entity.Table{Columns: slices.Clone(t.Columns)}

rows:
	for _, row := range t.Rows {
		for _, v := range row {
			if v == nil {
				continue rows
			}
		}
		out.Rows = append(out.Rows, cloneRow(row))
	}

	return out, nil
}

// FillMissing replaces nulls according to Strategy. Forward and backward
// fill copy the nearest non-null neighbor in row order, per column. Zero
// fill writes the column's zero value. Mean fill touches numeric columns
// only, using the mean over the current non-null values; an integer column
// whose mean is fractional is promoted to float.
type FillMissing struct {
	Strategy entity.FillStrategy
}

func (f FillMissing) Name() string {
	return "fill_missing"
}

func (f FillMissing) Apply(t entity.Table) (entity.Table, error) {
	out := t.Clone()

	switch f.Strategy {
	case entity.FillForward:
		for c := range out.Columns {
			var last entity.Value
			for r := range out.Rows {
				if out.Rows[r][c] == nil {
					out.Rows[r][c] = last
				} else {
					last = out.Rows[r][c]
				}
			}
		}
	case entity.FillBackward:
		for c := range out.Columns {
			var next entity.Value
			for r := len(out.Rows) - 1; r >= 0; r-- {
				if out.Rows[r][c] == nil {
					out.Rows[r][c] = next
				} else {
					next = out.Rows[r][c]
				}
			}
		}
	case entity.FillZero:
		for c, col := range out.Columns {
			zero := zeroFor(col.Type)
			for r := range out.Rows {
				if out.Rows[r][c] == nil {
					out.Rows[r][c] = zero
				}
			}
		}
	case entity.FillMean:
		fillMean(&out)
	default:
		return entity.Table{}, fmt.Errorf("unknown fill strategy %q", f.Strategy)
	}

	return out, nil
}

func zeroFor(t entity.ColumnType) entity.Value {
	switch t {
	case entity.TypeInteger:
		return int64(0)
	case entity.TypeFloat:
		return float64(0)
	case entity.TypeBoolean:
		return false
	default:
		return "0"
	}
}

func fillMean(t *entity.Table) {
	for c, col := range t.Columns {
		if !col.Type.Numeric() {
			continue
		}

		var sum float64
		var n int
		for r := range t.Rows {
			if x, ok := entity.AsFloat(t.Rows[r][c]); ok {
				sum += x
				n++
			}
		}
		if n == 0 {
			continue
		}
		mean := sum / float64(n)

		if col.Type == entity.TypeInteger && mean != math.Trunc(mean) {
			// The mean does not fit the integer column; promote it.
			t.Columns[c].Type = entity.TypeFloat
			for r := range t.Rows {
				if v, ok := t.Rows[r][c].(int64); ok {
					t.Rows[r][c] = float64(v)
				}
			}
		}

		fill := entity.Value(mean)
		if t.Columns[c].Type == entity.TypeInteger {
			fill = int64(mean)
		}
		for r := range t.Rows {
			if t.Rows[r][c] == nil {
				t.Rows[r][c] = fill
			}
		}
	}
}
