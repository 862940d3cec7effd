package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/tudusp/excel-data-analyzer/internal/pkg/pkgerror"
	"github.com/tudusp/excel-data-analyzer/internal/pkg/pkgrouter"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/transform"
)

type HTTPEndpoint struct {
	uc             uc
	maxUploadBytes int64
}

func (h *HTTPEndpoint) Upload(ctx context.Context, r *http.Request) (any, error) {
	if h.maxUploadBytes > 0 {
		// Reject declared-oversized bodies up front; the reader limit below
		// still covers chunked uploads with no Content-Length.
		if r.ContentLength > h.maxUploadBytes {
			return nil, pkgerror.NewValidation(
				fmt.Sprintf("upload: file exceeds %d bytes", h.maxUploadBytes), pkgerror.CodeInvalidInput)
		}
		r.Body = http.MaxBytesReader(nil, r.Body, h.maxUploadBytes)
	}

	fileName, part, cleanup, err := extractWorkbookFile(r)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	data, err := io.ReadAll(part)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerror.NewValidation(
				fmt.Sprintf("upload: file exceeds %d bytes", tooLarge.Limit), pkgerror.CodeInvalidInput)
		}
		return nil, pkgerror.NewServer(err)
	}

	view, err := h.uc.CreateSession(ctx, fileName, data)
	if err != nil {
		return nil, err
	}

	return CreatedSessionResponse{SessionResponse: toSessionResponse(view)}, nil
}

func (h *HTTPEndpoint) Overview(ctx context.Context, r *http.Request) (any, error) {
	view, err := h.uc.Overview(ctx, pathParam(r, "id"))
	if err != nil {
		return nil, err
	}
	return toSessionResponse(view), nil
}

func (h *HTTPEndpoint) Drop(ctx context.Context, r *http.Request) (any, error) {
	if err := h.uc.DropSession(ctx, pathParam(r, "id")); err != nil {
		return nil, err
	}
	return nil, nil
}

func (h *HTTPEndpoint) SelectSheet(ctx context.Context, r *http.Request) (any, error) {
	var req SelectSheetRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	view, err := h.uc.SelectSheet(ctx, pathParam(r, "id"), req.Sheet)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(view), nil
}

func (h *HTTPEndpoint) History(ctx context.Context, r *http.Request) (any, error) {
	revs, err := h.uc.History(ctx, pathParam(r, "id"))
	if err != nil {
		return nil, err
	}

	entries := make([]RevisionEntry, 0, len(revs))
	for _, rev := range revs {
		entries = append(entries, toRevisionEntry(rev))
	}

	return HistoryResponse{SessionID: pathParam(r, "id"), Revisions: entries}, nil
}

func (h *HTTPEndpoint) Preview(ctx context.Context, r *http.Request) (any, error) {
	query := r.URL.Query()

	offset, err := parseIntParam(query.Get("offset"), 0)
	if err != nil {
		return nil, err
	}
	limit, err := parseIntParam(query.Get("limit"), 0)
	if err != nil {
		return nil, err
	}

	result, err := h.uc.Preview(ctx, pathParam(r, "id"), pathParam(r, "sheet"), offset, limit)
	if err != nil {
		return nil, err
	}

	return toPreviewResponse(result), nil
}

func (h *HTTPEndpoint) ApplyTransform(ctx context.Context, r *http.Request) (any, error) {
	tr, err := parseTransform(r)
	if err != nil {
		return nil, err
	}

	result, err := h.uc.ApplyTransform(ctx, pathParam(r, "id"), pathParam(r, "sheet"), tr)
	if err != nil {
		return nil, err
	}

	return TransformResponse{
		SessionID:   result.SessionID,
		Sheet:       result.Sheet,
		Op:          result.Op,
		RowsBefore:  result.RowsBefore,
		RowsAfter:   result.RowsAfter,
		RowsRemoved: result.RowsRemoved,
		Revision:    result.Revision,
	}, nil
}

func (h *HTTPEndpoint) CommitEdits(ctx context.Context, r *http.Request) (any, error) {
	var req CommitEditsRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	result, err := h.uc.CommitEdits(ctx, pathParam(r, "id"), pathParam(r, "sheet"), req.Header, req.Rows)
	if err != nil {
		return nil, err
	}

	return CommitResponse{
		SessionID: result.SessionID,
		Sheet:     result.Sheet,
		Rows:      result.Rows,
		Columns:   result.Columns,
		Revision:  result.Revision,
	}, nil
}

func (h *HTTPEndpoint) ResetSheet(ctx context.Context, r *http.Request) (any, error) {
	view, err := h.uc.ResetSheet(ctx, pathParam(r, "id"), pathParam(r, "sheet"))
	if err != nil {
		return nil, err
	}
	return toSessionResponse(view), nil
}

func (h *HTTPEndpoint) Summary(ctx context.Context, r *http.Request) (any, error) {
	result, err := h.uc.Summary(ctx, pathParam(r, "id"), pathParam(r, "sheet"))
	if err != nil {
		return nil, err
	}

	return SummaryResponse{
		Sheet:          result.Sheet,
		Rows:           result.Rows,
		Columns:        toColumnInfos(result.Columns),
		MissingCells:   result.MissingCells,
		MissingPercent: result.MissingPercent,
	}, nil
}

func (h *HTTPEndpoint) Correlation(ctx context.Context, r *http.Request) (any, error) {
	result, err := h.uc.Correlation(ctx, pathParam(r, "id"), pathParam(r, "sheet"))
	if err != nil {
		return nil, err
	}
	return toCorrelationResponse(result), nil
}

func (h *HTTPEndpoint) Histogram(ctx context.Context, r *http.Request) (any, error) {
	query := r.URL.Query()

	column := strings.TrimSpace(query.Get("column"))
	if column == "" {
		return nil, pkgerror.NewInvalidInput(errors.New("column is required"))
	}

	bins, err := parseIntParam(query.Get("bins"), 0)
	if err != nil {
		return nil, err
	}

	result, err := h.uc.Histogram(ctx, pathParam(r, "id"), pathParam(r, "sheet"), column, bins)
	if err != nil {
		return nil, err
	}

	return HistogramResponse{
		Sheet:  result.Sheet,
		Column: result.Column,
		Edges:  result.Edges,
		Counts: result.Counts,
	}, nil
}

func (h *HTTPEndpoint) ValueCounts(ctx context.Context, r *http.Request) (any, error) {
	query := r.URL.Query()

	column := strings.TrimSpace(query.Get("column"))
	if column == "" {
		return nil, pkgerror.NewInvalidInput(errors.New("column is required"))
	}

	limit, err := parseIntParam(query.Get("limit"), 0)
	if err != nil {
		return nil, err
	}

	result, err := h.uc.ValueCounts(ctx, pathParam(r, "id"), pathParam(r, "sheet"), column, limit)
	if err != nil {
		return nil, err
	}

	counts := make([]ValueCountEntry, 0, len(result.Counts))
	for _, vc := range result.Counts {
		counts = append(counts, ValueCountEntry{Value: vc.Value, Count: vc.Count})
	}

	return ValueCountsResponse{
		Sheet:  result.Sheet,
		Column: result.Column,
		Counts: counts,
		Nulls:  result.Nulls,
		Other:  result.Other,
	}, nil
}

func (h *HTTPEndpoint) ExportSheet(ctx context.Context, r *http.Request) (any, error) {
	format := strings.TrimSpace(r.URL.Query().Get("format"))

	result, err := h.uc.ExportSheet(ctx, pathParam(r, "id"), pathParam(r, "sheet"), format)
	if err != nil {
		return nil, err
	}

	return FileResponse{
		fileName:    result.FileName,
		contentType: result.ContentType,
		data:        result.Data,
	}, nil
}

func (h *HTTPEndpoint) ExportWorkbook(ctx context.Context, r *http.Request) (any, error) {
	result, err := h.uc.ExportWorkbook(ctx, pathParam(r, "id"))
	if err != nil {
		return nil, err
	}

	return FileResponse{
		fileName:    result.FileName,
		contentType: result.ContentType,
		data:        result.Data,
	}, nil
}

func pathParam(r *http.Request, name string) string {
	return pkgrouter.GetParam(r.Context(), name)
}

func parseIntParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, pkgerror.NewInvalidInput(fmt.Errorf("invalid value %q", raw))
	}
	return value, nil
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return pkgerror.NewInvalidInput(errors.New("empty request body"))
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return pkgerror.NewInvalidFormat()
	}
	return nil
}

// parseTransform turns a JSON transform request into the matching transform
// value. The body carries an "op" discriminator plus op-specific fields.
func parseTransform(r *http.Request) (transform.Transform, error) {
	var req TransformRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	switch req.Op {
	case "filter_values":
		if req.Column == "" {
			return nil, pkgerror.NewValidation("filter_values: column is required", pkgerror.CodeInvalidInput)
		}
		return transform.CategoricalFilter{
			Column:      req.Column,
			Values:      req.Values,
			IncludeNull: req.IncludeNull,
		}, nil
	case "filter_range":
		if req.Column == "" {
			return nil, pkgerror.NewValidation("filter_range: column is required", pkgerror.CodeInvalidInput)
		}
		if req.Min == nil || req.Max == nil {
			return nil, pkgerror.NewValidation("filter_range: min and max are required", pkgerror.CodeInvalidInput)
		}
		return transform.NumericRangeFilter{
			Column: req.Column,
			Min:    *req.Min,
			Max:    *req.Max,
		}, nil
	case "sort":
		if req.Column == "" {
			return nil, pkgerror.NewValidation("sort: column is required", pkgerror.CodeInvalidInput)
		}
		return transform.Sort{Column: req.Column, Descending: req.Descending}, nil
	case "add_column":
		if req.Column == "" {
			return nil, pkgerror.NewValidation("add_column: column is required", pkgerror.CodeInvalidInput)
		}
		def, err := decodeDefault(req.Default)
		if err != nil {
			return nil, err
		}
		return transform.AddColumn{Column: req.Column, Default: def}, nil
	case "remove_columns":
		if len(req.Columns) == 0 {
			return nil, pkgerror.NewValidation("remove_columns: columns is required", pkgerror.CodeInvalidInput)
		}
		return transform.RemoveColumns{Columns: req.Columns}, nil
	case "deduplicate":
		return transform.Deduplicate{}, nil
	case "drop_missing":
		return transform.DropMissing{}, nil
	case "fill_missing":
		switch entity.FillStrategy(req.Strategy) {
		case entity.FillForward, entity.FillBackward, entity.FillZero, entity.FillMean:
			return transform.FillMissing{Strategy: entity.FillStrategy(req.Strategy)}, nil
		default:
			return nil, pkgerror.NewValidation(
				fmt.Sprintf("fill_missing: unknown strategy %q", req.Strategy), pkgerror.CodeInvalidInput)
		}
	default:
		return nil, pkgerror.NewValidation(
			fmt.Sprintf("unknown transform op %q", req.Op), pkgerror.CodeInvalidInput)
	}
}

// decodeDefault decodes an add_column default. JSON numbers without a
// fractional part become int64 so the new column infers as integer.
func decodeDefault(raw json.RawMessage) (entity.Value, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, pkgerror.NewInvalidFormat()
	}

	switch x := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, pkgerror.NewInvalidFormat()
		}
		return f, nil
	case bool:
		return x, nil
	case string:
		return x, nil
	default:
		return nil, pkgerror.NewValidation("add_column: default must be a scalar", pkgerror.CodeInvalidInput)
	}
}

func extractWorkbookFile(r *http.Request) (string, io.ReadCloser, func(), error) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return "", nil, func() {}, pkgerror.NewInvalidInput(errors.New("multipart/form-data body is required"))
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.EqualFold(mediaType, "multipart/form-data") {
		return "", nil, func() {}, pkgerror.NewInvalidInput(errors.New("multipart/form-data body is required"))
	}

	reader, err := r.MultipartReader()
	if err != nil {
		return "", nil, func() {}, pkgerror.NewInvalidFormat()
	}

	for {
		part, err := reader.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", nil, func() {}, pkgerror.NewInvalidInput(errors.New("file part is required"))
			}
			return "", nil, func() {}, pkgerror.NewInvalidFormat()
		}

		if part.FormName() == "file" {
			return part.FileName(), part, func() { _ = part.Close() }, nil
		}
		_ = part.Close()
	}
}
