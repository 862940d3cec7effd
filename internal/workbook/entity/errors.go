package entity

import "fmt"

// LoadError reports a workbook parse failure. The session keeps its prior
// state when a load fails.
type LoadError struct {
	FileName string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load workbook %q: %v", e.FileName, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// UnknownSheetError reports a sheet name that is not a baseline key.
type UnknownSheetError struct {
	Sheet string
}

func (e *UnknownSheetError) Error() string {
	return fmt.Sprintf("unknown sheet %q", e.Sheet)
}

// ColumnNotFoundError reports a referenced column that is absent from the
// table.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}

// DuplicateColumnError reports an attempt to add a column that already
// exists.
type DuplicateColumnError struct {
	Column string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("column %q already exists", e.Column)
}

// TypeMismatchError reports an operation applied to a column whose type
// cannot support it.
type TypeMismatchError struct {
	Column string
	Type   ColumnType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("column %q is %s, not numeric", e.Column, e.Type)
}

// InvalidRangeError reports a numeric range whose minimum exceeds its
// maximum.
type InvalidRangeError struct {
	Min float64
	Max float64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: min %v is greater than max %v", e.Min, e.Max)
}
