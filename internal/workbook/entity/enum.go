package entity

// ColumnType is the scalar type of a column, inferred once at load time and
// carried through every transform.
type ColumnType string

const (
	TypeInteger ColumnType = "integer"
	TypeFloat   ColumnType = "float"
	TypeBoolean ColumnType = "boolean"
	TypeText    ColumnType = "text"
)

// Numeric reports whether values of this type participate in numeric
// operations such as range filters, mean fill, and correlation.
func (t ColumnType) Numeric() bool {
	return t == TypeInteger || t == TypeFloat
}

// FillStrategy selects how missing values are replaced.
type FillStrategy string

const (
	FillForward  FillStrategy = "forward"
	FillBackward FillStrategy = "backward"
	FillZero     FillStrategy = "zero"
	FillMean     FillStrategy = "mean"
)
