// Package transform implements the pure table operations a session can
// apply: filters, sorting, column edits, cleaning, and manual-edit
// coercion. Every operation returns a new table and never mutates its
// input, so transforms compose and test in isolation.
package transform

import (
	"slices"

	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
)

// Transform maps one table to another. Name identifies the operation in
// error messages and the session history.
type Transform interface {
	Name() string
	Apply(t entity.Table) (entity.Table, error)
}

func cloneRow(row []entity.Value) []entity.Value {
	return slices.Clone(row)
}
