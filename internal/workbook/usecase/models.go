package usecase

import (
	"time"

	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
)

// SheetStatus summarizes one sheet: baseline size plus the current working
// size when the sheet has edits.
type SheetStatus struct {
	Name         string
	BaselineRows int
	WorkingRows  int
	Columns      int
	MissingCells int
	Edited       bool
}

// SessionView is a read-only snapshot of a session.
type SessionView struct {
	SessionID     string
	FileName      string
	FileSize      int64
	SheetNames    []string
	SelectedSheet string
	CreatedAt     time.Time
	Sheets        []SheetStatus
}

// PreviewResult is a slice of the current working table.
type PreviewResult struct {
	Sheet     string
	Columns   []ColumnInfo
	Rows      [][]entity.Value
	TotalRows int
	Offset    int
}

// ColumnInfo is the per-column breakdown shown with previews and summaries.
type ColumnInfo struct {
	Name     string
	Type     entity.ColumnType
	NonNull  int
	Nulls    int
	Distinct int
}

// TransformResult reports one applied transform.
type TransformResult struct {
	SessionID   string
	Sheet       string
	Op          string
	RowsBefore  int
	RowsAfter   int
	RowsRemoved int
	Revision    int64
}

// CommitResult reports a manual-edit commit.
type CommitResult struct {
	SessionID string
	Sheet     string
	Rows      int
	Columns   int
	Revision  int64
}

// SummaryResult carries the on-demand sheet statistics.
type SummaryResult struct {
	Sheet          string
	Rows           int
	Columns        []ColumnInfo
	MissingCells   int
	MissingPercent float64
}

// CorrelationResult is a Pearson matrix over the numeric columns. Matrix
// entries for column pairs with fewer than two complete observations (or
// zero variance) are NaN.
type CorrelationResult struct {
	Sheet   string
	Columns []string
	Matrix  [][]float64
}

// HistogramResult is a pre-shaped numeric series for the charting
// collaborator: len(Edges) == len(Counts)+1.
type HistogramResult struct {
	Sheet  string
	Column string
	Edges  []float64
	Counts []int
}

// ValueCount is one categorical bucket.
type ValueCount struct {
	Value string
	Count int
}

// ValueCountsResult is a pre-shaped categorical series for the charting
// collaborator.
type ValueCountsResult struct {
	Sheet  string
	Column string
	Counts []ValueCount
	Nulls  int
	Other  int
}

// ExportResult is a downloadable artifact.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}
