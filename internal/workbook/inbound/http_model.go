package inbound

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/usecase"
)

type SelectSheetRequest struct {
	Sheet string `json:"sheet"`
}

type CommitEditsRequest struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

type TransformRequest struct {
	Op          string          `json:"op"`
	Column      string          `json:"column"`
	Columns     []string        `json:"columns"`
	Values      []string        `json:"values"`
	IncludeNull bool            `json:"include_null"`
	Min         *float64        `json:"min"`
	Max         *float64        `json:"max"`
	Descending  bool            `json:"descending"`
	Default     json.RawMessage `json:"default"`
	Strategy    string          `json:"strategy"`
}

type SheetStatus struct {
	Name         string `json:"name"`
	BaselineRows int    `json:"baseline_rows"`
	WorkingRows  int    `json:"working_rows"`
	Columns      int    `json:"columns"`
	MissingCells int    `json:"missing_cells"`
	Edited       bool   `json:"edited"`
}

type SessionResponse struct {
	SessionID     string        `json:"session_id"`
	FileName      string        `json:"file_name"`
	FileSize      int64         `json:"file_size"`
	SheetNames    []string      `json:"sheet_names"`
	SelectedSheet string        `json:"selected_sheet"`
	CreatedAt     time.Time     `json:"created_at"`
	Sheets        []SheetStatus `json:"sheets"`
}

// CreatedSessionResponse is the upload response; same shape, 201.
type CreatedSessionResponse struct {
	SessionResponse
}

func (CreatedSessionResponse) StatusCode() int {
	return http.StatusCreated
}

func (CreatedSessionResponse) Message() string {
	return "workbook session created"
}

type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	NonNull  int    `json:"non_null"`
	Nulls    int    `json:"nulls"`
	Distinct int    `json:"distinct"`
}

type PreviewResponse struct {
	Sheet   string           `json:"sheet"`
	Columns []ColumnInfo     `json:"columns"`
	Rows    [][]entity.Value `json:"rows"`
	offset  int
	total   int
}

func (r PreviewResponse) Meta() map[string]any {
	return map[string]any{
		"offset":     r.offset,
		"total_rows": r.total,
	}
}

type TransformResponse struct {
	SessionID   string `json:"session_id"`
	Sheet       string `json:"sheet"`
	Op          string `json:"op"`
	RowsBefore  int    `json:"rows_before"`
	RowsAfter   int    `json:"rows_after"`
	RowsRemoved int    `json:"rows_removed"`
	Revision    int64  `json:"revision"`
}

type CommitResponse struct {
	SessionID string `json:"session_id"`
	Sheet     string `json:"sheet"`
	Rows      int    `json:"rows"`
	Columns   int    `json:"columns"`
	Revision  int64  `json:"revision"`
}

type RevisionEntry struct {
	Revision   int64     `json:"revision"`
	Sheet      string    `json:"sheet"`
	Op         string    `json:"op"`
	RowsBefore int       `json:"rows_before"`
	RowsAfter  int       `json:"rows_after"`
	AppliedAt  time.Time `json:"applied_at"`
}

type HistoryResponse struct {
	SessionID string          `json:"session_id"`
	Revisions []RevisionEntry `json:"revisions"`
}

type SummaryResponse struct {
	Sheet          string       `json:"sheet"`
	Rows           int          `json:"rows"`
	Columns        []ColumnInfo `json:"columns"`
	MissingCells   int          `json:"missing_cells"`
	MissingPercent float64      `json:"missing_percent"`
}

// CorrelationResponse renders the Pearson matrix with JSON-safe cells:
// NaN entries become null.
type CorrelationResponse struct {
	Sheet   string       `json:"sheet"`
	Columns []string     `json:"columns"`
	Matrix  [][]*float64 `json:"matrix"`
}

type HistogramResponse struct {
	Sheet  string    `json:"sheet"`
	Column string    `json:"column"`
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
}

type ValueCountEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type ValueCountsResponse struct {
	Sheet  string            `json:"sheet"`
	Column string            `json:"column"`
	Counts []ValueCountEntry `json:"counts"`
	Nulls  int               `json:"nulls"`
	Other  int               `json:"other"`
}

// FileResponse streams a generated file back to the caller.
type FileResponse struct {
	fileName    string
	contentType string
	data        []byte
}

func (f FileResponse) ContentType() string {
	return f.contentType
}

func (f FileResponse) Filename() string {
	return f.fileName
}

func (f FileResponse) Bytes() []byte {
	return f.data
}

func toSessionResponse(view usecase.SessionView) SessionResponse {
	sheets := make([]SheetStatus, 0, len(view.Sheets))
	for _, s := range view.Sheets {
		sheets = append(sheets, SheetStatus{
			Name:         s.Name,
			BaselineRows: s.BaselineRows,
			WorkingRows:  s.WorkingRows,
			Columns:      s.Columns,
			MissingCells: s.MissingCells,
			Edited:       s.Edited,
		})
	}

	return SessionResponse{
		SessionID:     view.SessionID,
		FileName:      view.FileName,
		FileSize:      view.FileSize,
		SheetNames:    view.SheetNames,
		SelectedSheet: view.SelectedSheet,
		CreatedAt:     view.CreatedAt,
		Sheets:        sheets,
	}
}

func toColumnInfos(cols []usecase.ColumnInfo) []ColumnInfo {
	infos := make([]ColumnInfo, 0, len(cols))
	for _, c := range cols {
		infos = append(infos, ColumnInfo{
			Name:     c.Name,
			Type:     string(c.Type),
			NonNull:  c.NonNull,
			Nulls:    c.Nulls,
			Distinct: c.Distinct,
		})
	}
	return infos
}

func toPreviewResponse(result usecase.PreviewResult) PreviewResponse {
	return PreviewResponse{
		Sheet:   result.Sheet,
		Columns: toColumnInfos(result.Columns),
		Rows:    result.Rows,
		offset:  result.Offset,
		total:   result.TotalRows,
	}
}

func toCorrelationResponse(result usecase.CorrelationResult) CorrelationResponse {
	matrix := make([][]*float64, len(result.Matrix))
	for i, row := range result.Matrix {
		matrix[i] = make([]*float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			value := v
			matrix[i][j] = &value
		}
	}

	return CorrelationResponse{
		Sheet:   result.Sheet,
		Columns: result.Columns,
		Matrix:  matrix,
	}
}

func toRevisionEntry(rev entity.Revision) RevisionEntry {
	return RevisionEntry{
		Revision:   rev.ID,
		Sheet:      rev.Sheet,
		Op:         rev.Op,
		RowsBefore: rev.RowsBefore,
		RowsAfter:  rev.RowsAfter,
		AppliedAt:  rev.AppliedAt,
	}
}
