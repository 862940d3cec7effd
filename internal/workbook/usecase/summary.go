package usecase

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/tudusp/excel-data-analyzer/internal/pkg/pkgerror"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
)

// Summary computes per-column statistics for a sheet's current working
// table. Everything is computed on demand from the table itself, so it
// always reflects the latest transforms and edits.
func (u *Usecase) Summary(ctx context.Context, sessionID, sheet string) (SummaryResult, error) {
	if sessionID == "" || sheet == "" {
		return SummaryResult{}, pkgerror.NewInvalidInput(errors.New("session_id and sheet are required"))
	}

	t, err := u.store.Table(ctx, sessionID, sheet)
	if err != nil {
		return SummaryResult{}, mapDomainErr("sheet summary", err)
	}

	cols := columnInfos(t)
	missing := 0
	for _, c := range cols {
		missing += c.Nulls
	}

	cells := t.NumRows() * t.NumCols()
	pct := 0.0
	if cells > 0 {
		pct = float64(missing) / float64(cells) * 100
	}

	return SummaryResult{
		Sheet:          sheet,
		Rows:           t.NumRows(),
		Columns:        cols,
		MissingCells:   missing,
		MissingPercent: pct,
	}, nil
}

// Correlation computes the Pearson matrix over all numeric columns, using
// pairwise-complete observations. Pairs with fewer than two complete rows,
// or with zero variance on either side, get NaN.
func (u *Usecase) Correlation(ctx context.Context, sessionID, sheet string) (CorrelationResult, error) {
	if sessionID == "" || sheet == "" {
		return CorrelationResult{}, pkgerror.NewInvalidInput(errors.New("session_id and sheet are required"))
	}

	t, err := u.store.Table(ctx, sessionID, sheet)
	if err != nil {
		return CorrelationResult{}, mapDomainErr("correlation", err)
	}

	var names []string
	var idx []int
	for ci, col := range t.Columns {
		if col.Type.Numeric() {
			names = append(names, col.Name)
			idx = append(idx, ci)
		}
	}

	if len(names) < 2 {
		return CorrelationResult{}, pkgerror.NewValidation(
			"correlation: sheet needs at least two numeric columns", pkgerror.CodeInvalidInput)
	}

	series := make([][]entity.Value, len(idx))
	for i, ci := range idx {
		col := make([]entity.Value, t.NumRows())
		for r, row := range t.Rows {
			col[r] = row[ci]
		}
		series[i] = col
	}

	n := len(names)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		for j := range matrix[i] {
			if i == j {
				matrix[i][j] = 1
				continue
			}
			if j < i {
				matrix[i][j] = matrix[j][i]
				continue
			}
			matrix[i][j] = pearson(series[i], series[j])
		}
	}

	return CorrelationResult{Sheet: sheet, Columns: names, Matrix: matrix}, nil
}

// pearson correlates two columns over rows where both are non-null.
func pearson(xs, ys []entity.Value) float64 {
	var xv, yv []float64
	for i := range xs {
		x, okX := entity.AsFloat(xs[i])
		y, okY := entity.AsFloat(ys[i])
		if okX && okY {
			xv = append(xv, x)
			yv = append(yv, y)
		}
	}

	n := float64(len(xv))
	if n < 2 {
		return math.NaN()
	}

	var sumX, sumY float64
	for i := range xv {
		sumX += xv[i]
		sumY += yv[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var cov, varX, varY float64
	for i := range xv {
		dx := xv[i] - meanX
		dy := yv[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return math.NaN()
	}

	return cov / math.Sqrt(varX*varY)
}

// Histogram bins a numeric column into equal-width buckets. Edges has one
// more entry than Counts; the last bucket includes its upper edge.
func (u *Usecase) Histogram(ctx context.Context, sessionID, sheet, column string, bins int) (HistogramResult, error) {
	if sessionID == "" || sheet == "" || column == "" {
		return HistogramResult{}, pkgerror.NewInvalidInput(errors.New("session_id, sheet and column are required"))
	}

	t, err := u.store.Table(ctx, sessionID, sheet)
	if err != nil {
		return HistogramResult{}, mapDomainErr("histogram", err)
	}

	ci, ok := t.ColumnIndex(column)
	if !ok {
		return HistogramResult{}, mapDomainErr("histogram", &entity.ColumnNotFoundError{Column: column})
	}
	if !t.Columns[ci].Type.Numeric() {
		return HistogramResult{}, mapDomainErr("histogram",
			&entity.TypeMismatchError{Column: column, Type: t.Columns[ci].Type})
	}

	if bins < 1 {
		bins = 10
	}
	if bins > 100 {
		bins = 100
	}

	var values []float64
	for _, row := range t.Rows {
		if v, ok := entity.AsFloat(row[ci]); ok {
			values = append(values, v)
		}
	}

	if len(values) == 0 {
		return HistogramResult{Sheet: sheet, Column: column, Edges: []float64{}, Counts: []int{}}, nil
	}

	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	if minV == maxV {
		return HistogramResult{
			Sheet:  sheet,
			Column: column,
			Edges:  []float64{minV, maxV},
			Counts: []int{len(values)},
		}, nil
	}

	width := (maxV - minV) / float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = minV + width*float64(i)
	}
	edges[bins] = maxV

	counts := make([]int, bins)
	for _, v := range values {
		b := int((v - minV) / width)
		if b >= bins {
			b = bins - 1
		}
		counts[b]++
	}

	return HistogramResult{Sheet: sheet, Column: column, Edges: edges, Counts: counts}, nil
}

// ValueCounts tallies a column's distinct values by canonical string form,
// most frequent first with ties broken alphabetically. Values beyond the
// limit are folded into Other.
func (u *Usecase) ValueCounts(ctx context.Context, sessionID, sheet, column string, limit int) (ValueCountsResult, error) {
	if sessionID == "" || sheet == "" || column == "" {
		return ValueCountsResult{}, pkgerror.NewInvalidInput(errors.New("session_id, sheet and column are required"))
	}

	t, err := u.store.Table(ctx, sessionID, sheet)
	if err != nil {
		return ValueCountsResult{}, mapDomainErr("value counts", err)
	}

	ci, ok := t.ColumnIndex(column)
	if !ok {
		return ValueCountsResult{}, mapDomainErr("value counts", &entity.ColumnNotFoundError{Column: column})
	}

	if limit < 1 {
		limit = 20
	}

	tally := make(map[string]int)
	nulls := 0
	for _, row := range t.Rows {
		v := row[ci]
		if v == nil {
			nulls++
			continue
		}
		tally[entity.FormatValue(v)]++
	}

	counts := make([]ValueCount, 0, len(tally))
	for value, count := range tally {
		counts = append(counts, ValueCount{Value: value, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Value < counts[j].Value
	})

	other := 0
	if len(counts) > limit {
		for _, vc := range counts[limit:] {
			other += vc.Count
		}
		counts = counts[:limit]
	}

	return ValueCountsResult{
		Sheet:  sheet,
		Column: column,
		Counts: counts,
		Nulls:  nulls,
		Other:  other,
	}, nil
}
