package entity

import "time"

// Workbook describes the uploaded artifact. It is immutable once loaded and
// replaced wholesale when a new file is uploaded.
type Workbook struct {
	FileName   string
	Size       int64
	SheetNames []string // order as stored in the file
}

// Session is one user's editing session over a single workbook. Baseline
// holds the as-loaded tables and is never mutated after load.
type Session struct {
	ID        string
	Workbook  Workbook
	Baseline  map[string]Table
	CreatedAt time.Time
}

// Revision records one applied transform for the session history.
type Revision struct {
	ID         int64
	Sheet      string
	Op         string
	RowsBefore int
	RowsAfter  int
	AppliedAt  time.Time
}
