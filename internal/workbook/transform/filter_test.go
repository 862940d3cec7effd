package transform

import (
	"errors"
	"testing"

	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
)

func salesTable() entity.Table {
	return entity.Table{
		Columns: []entity.Column{
			{Name: "Region", Type: entity.TypeText},
			{Name: "Amount", Type: entity.TypeInteger},
		},
		Rows: [][]entity.Value{
			{"North", int64(100)},
			{"South", int64(250)},
			{"North", int64(75)},
			{nil, int64(40)},
			{"East", nil},
		},
	}
}

func TestCategoricalFilter_Apply(t *testing.T) {
	t.Parallel()

	in := salesTable()
	out, err := CategoricalFilter{Column: "Region", Values: []string{"North"}}.Apply(in)
	if err != nil {
		t.Fatalf("Apply() err = %v", err)
	}

	if out.NumRows() != 2 {
		t.Fatalf("Apply() rows = %d, want 2", out.NumRows())
	}
	for _, row := range out.Rows {
		if row[0] != "North" {
			t.Fatalf("Apply() kept row with region %v", row[0])
		}
	}

	// Source table is untouched.
	if in.NumRows() != 5 {
		t.Fatalf("Apply() mutated input, rows = %d", in.NumRows())
	}
}

func TestCategoricalFilter_IncludeNull(t *testing.T) {
	t.Parallel()

	out, err := CategoricalFilter{Column: "Region", Values: []string{"North"}, IncludeNull: true}.Apply(salesTable())
	if err != nil {
		t.Fatalf("Apply() err = %v", err)
	}

	if out.NumRows() != 3 {
		t.Fatalf("Apply() rows = %d, want 3", out.NumRows())
	}
}

func TestCategoricalFilter_Idempotent(t *testing.T) {
	t.Parallel()

	filter := CategoricalFilter{Column: "Region", Values: []string{"South"}}

	once, err := filter.Apply(salesTable())
	if err != nil {
		t.Fatalf("Apply() err = %v", err)
	}
	twice, err := filter.Apply(once)
	if err != nil {
		t.Fatalf("Apply() second err = %v", err)
	}

	if twice.NumRows() != once.NumRows() {
		t.Fatalf("Apply() twice rows = %d, want %d", twice.NumRows(), once.NumRows())
	}
}

func TestCategoricalFilter_ColumnNotFound(t *testing.T) {
	t.Parallel()

	_, err := CategoricalFilter{Column: "Nope", Values: []string{"x"}}.Apply(salesTable())

	var colErr *entity.ColumnNotFoundError
	if !errors.As(err, &colErr) {
		t.Fatalf("Apply() err = %v, want ColumnNotFoundError", err)
	}
	if colErr.Column != "Nope" {
		t.Fatalf("Apply() error column = %q, want %q", colErr.Column, "Nope")
	}
}

func TestNumericRangeFilter_Apply(t *testing.T) {
	t.Parallel()

	out, err := NumericRangeFilter{Column: "Amount", Min: 75, Max: 100}.Apply(salesTable())
	if err != nil {
		t.Fatalf("Apply() err = %v", err)
	}

	// Inclusive on both edges, null amounts excluded.
	if out.NumRows() != 2 {
		t.Fatalf("Apply() rows = %d, want 2", out.NumRows())
	}
}

func TestNumericRangeFilter_InvalidRange(t *testing.T) {
	t.Parallel()

	_, err := NumericRangeFilter{Column: "Amount", Min: 10, Max: 5}.Apply(salesTable())

	var rangeErr *entity.InvalidRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("Apply() err = %v, want InvalidRangeError", err)
	}
}

func TestNumericRangeFilter_NonNumericColumn(t *testing.T) {
	t.Parallel()

	_, err := NumericRangeFilter{Column: "Region", Min: 0, Max: 1}.Apply(salesTable())

	var typeErr *entity.TypeMismatchError
	if !errors.As(err, &typeErr) {
		t.Fatalf("Apply() err = %v, want TypeMismatchError", err)
	}
	if typeErr.Column != "Region" {
		t.Fatalf("Apply() error column = %q, want %q", typeErr.Column, "Region")
	}
}
