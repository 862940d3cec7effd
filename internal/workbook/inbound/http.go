package inbound

import (
	"context"

	"github.com/tudusp/excel-data-analyzer/internal/pkg/pkgrouter"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/transform"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/usecase"
)

type uc interface {
	CreateSession(ctx context.Context, fileName string, data []byte) (usecase.SessionView, error)
	Overview(ctx context.Context, sessionID string) (usecase.SessionView, error)
	SelectSheet(ctx context.Context, sessionID, sheet string) (usecase.SessionView, error)
	Preview(ctx context.Context, sessionID, sheet string, offset, limit int) (usecase.PreviewResult, error)
	ApplyTransform(ctx context.Context, sessionID, sheet string, tr transform.Transform) (usecase.TransformResult, error)
	CommitEdits(ctx context.Context, sessionID, sheet string, header []string, rows [][]string) (usecase.CommitResult, error)
	ResetSheet(ctx context.Context, sessionID, sheet string) (usecase.SessionView, error)
	History(ctx context.Context, sessionID string) ([]entity.Revision, error)
	Summary(ctx context.Context, sessionID, sheet string) (usecase.SummaryResult, error)
	Correlation(ctx context.Context, sessionID, sheet string) (usecase.CorrelationResult, error)
	Histogram(ctx context.Context, sessionID, sheet, column string, bins int) (usecase.HistogramResult, error)
	ValueCounts(ctx context.Context, sessionID, sheet, column string, limit int) (usecase.ValueCountsResult, error)
	ExportSheet(ctx context.Context, sessionID, sheet, format string) (usecase.ExportResult, error)
	ExportWorkbook(ctx context.Context, sessionID string) (usecase.ExportResult, error)
	DropSession(ctx context.Context, sessionID string) error
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc, maxUploadBytes int64) {
	end := &HTTPEndpoint{uc: uc, maxUploadBytes: maxUploadBytes}

	r.POST("/workbooks", end.Upload)
	r.GET("/workbooks/:id", end.Overview)
	r.DELETE("/workbooks/:id", end.Drop)
	r.PUT("/workbooks/:id/selection", end.SelectSheet)
	r.GET("/workbooks/:id/history", end.History)
	r.GET("/workbooks/:id/export", end.ExportWorkbook)

	r.GET("/workbooks/:id/sheets/:sheet", end.Preview) // ?offset=&limit=
	r.POST("/workbooks/:id/sheets/:sheet/transforms", end.ApplyTransform)
	r.PUT("/workbooks/:id/sheets/:sheet/rows", end.CommitEdits)
	r.DELETE("/workbooks/:id/sheets/:sheet/edits", end.ResetSheet)
	r.GET("/workbooks/:id/sheets/:sheet/summary", end.Summary)
	r.GET("/workbooks/:id/sheets/:sheet/correlation", end.Correlation)
	r.GET("/workbooks/:id/sheets/:sheet/histogram", end.Histogram)      // ?column=&bins=
	r.GET("/workbooks/:id/sheets/:sheet/value-counts", end.ValueCounts) // ?column=&limit=
	r.GET("/workbooks/:id/sheets/:sheet/export", end.ExportSheet)       // ?format=
}
