package xlsio

import (
	"strconv"
	"strings"

	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
)

// inferColumnType picks the narrowest type covering every non-empty cell:
// integer, then float, then boolean, falling back to text. A column with no
// values at all is text.
func inferColumnType(cells []string) entity.ColumnType {
	allInt := true
	allFloat := true
	allBool := true
	any := false

	for _, cell := range cells {
		s := strings.TrimSpace(cell)
		if s == "" {
			continue
		}
		any = true

		if allInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				allFloat = false
			}
		}
		if allBool && !isBoolToken(s) {
			allBool = false
		}

		if !allInt && !allFloat && !allBool {
			return entity.TypeText
		}
	}

	switch {
	case !any:
		return entity.TypeText
	case allInt:
		return entity.TypeInteger
	case allFloat:
		return entity.TypeFloat
	case allBool:
		return entity.TypeBoolean
	default:
		return entity.TypeText
	}
}

func isBoolToken(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false":
		return true
	default:
		return false
	}
}

// convertCell parses one raw cell according to the column type. Empty cells
// become null; a cell the type cannot hold degrades to null rather than
// failing the load.
func convertCell(cell string, t entity.ColumnType) entity.Value {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil
	}

	switch t {
	case entity.TypeInteger:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case entity.TypeFloat:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case entity.TypeBoolean:
		switch strings.ToLower(s) {
		case "true":
			return true
		case "false":
			return false
		}
	case entity.TypeText:
		return cell
	}
	return nil
}
