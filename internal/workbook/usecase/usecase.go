package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tudusp/excel-data-analyzer/internal/pkg/pkgerror"
	"github.com/tudusp/excel-data-analyzer/internal/pkg/pkguid"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/transform"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/xlsio"
)

type Store interface {
	Create(ctx context.Context, sess entity.Session) error
	Describe(ctx context.Context, sessionID string) (SessionView, error)
	SelectSheet(ctx context.Context, sessionID, sheet string) error
	Table(ctx context.Context, sessionID, sheet string) (entity.Table, error)
	Baseline(ctx context.Context, sessionID, sheet string) (entity.Table, error)
	Apply(ctx context.Context, sessionID, sheet string, tr transform.Transform) (entity.Table, int, error)
	Commit(ctx context.Context, sessionID, sheet string, t entity.Table) error
	Reset(ctx context.Context, sessionID, sheet string) error
	WorkingSet(ctx context.Context, sessionID string) ([]string, map[string]entity.Table, error)
	AppendRevision(ctx context.Context, sessionID string, rev entity.Revision) error
	Revisions(ctx context.Context, sessionID string) ([]entity.Revision, error)
	Delete(ctx context.Context, sessionID string) error
}

type Clock interface {
	Now() time.Time
}

type Dependency struct {
	Store          Store
	Clock          Clock
	ID             pkguid.StringID
	Revision       pkguid.NumberID
	PreviewMaxRows int
}

type Usecase struct {
	store          Store
	clock          Clock
	id             pkguid.StringID
	revision       pkguid.NumberID
	previewMaxRows int
}

func New(dep Dependency) *Usecase {
	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	previewMaxRows := dep.PreviewMaxRows
	if previewMaxRows < 1 {
		previewMaxRows = 100
	}

	return &Usecase{
		store:          dep.Store,
		clock:          clock,
		id:             dep.ID,
		revision:       dep.Revision,
		previewMaxRows: previewMaxRows,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// CreateSession parses an uploaded workbook and opens a session around it.
// The first sheet in file order starts selected.
func (u *Usecase) CreateSession(ctx context.Context, fileName string, data []byte) (SessionView, error) {
	if u.store == nil || u.id == nil {
		return SessionView{}, pkgerror.NewServer(errors.New("missing dependency"))
	}

	if len(data) == 0 {
		return SessionView{}, pkgerror.NewValidation("create session: file is empty", pkgerror.CodeInvalidInput)
	}

	wb, tables, err := xlsio.Load(fileName, data)
	if err != nil {
		return SessionView{}, mapDomainErr("create session", err)
	}

	sessionID := u.id.Generate()
	sess := entity.Session{
		ID:        sessionID,
		Workbook:  wb,
		Baseline:  tables,
		CreatedAt: u.clock.Now(),
	}

	if err := u.store.Create(ctx, sess); err != nil {
		return SessionView{}, mapDomainErr("create session", err)
	}

	if len(wb.SheetNames) > 0 {
		if err := u.store.SelectSheet(ctx, sessionID, wb.SheetNames[0]); err != nil {
			return SessionView{}, mapDomainErr("create session", err)
		}
	}

	slog.InfoContext(ctx, "workbook session created",
		"session_id", sessionID, "file", fileName, "sheets", len(wb.SheetNames))

	return u.store.Describe(ctx, sessionID)
}

// Overview returns the session snapshot with per-sheet status.
func (u *Usecase) Overview(ctx context.Context, sessionID string) (SessionView, error) {
	if sessionID == "" {
		return SessionView{}, pkgerror.NewInvalidInput(errors.New("session_id is required"))
	}

	view, err := u.store.Describe(ctx, sessionID)
	if err != nil {
		return SessionView{}, mapDomainErr("describe session", err)
	}
	return view, nil
}

// SelectSheet switches the session's active sheet.
func (u *Usecase) SelectSheet(ctx context.Context, sessionID, sheet string) (SessionView, error) {
	if sessionID == "" || sheet == "" {
		return SessionView{}, pkgerror.NewInvalidInput(errors.New("session_id and sheet are required"))
	}

	if err := u.store.SelectSheet(ctx, sessionID, sheet); err != nil {
		return SessionView{}, mapDomainErr("select sheet", err)
	}

	return u.store.Describe(ctx, sessionID)
}

// Preview returns a window of the current working table.
func (u *Usecase) Preview(ctx context.Context, sessionID, sheet string, offset, limit int) (PreviewResult, error) {
	if sessionID == "" || sheet == "" {
		return PreviewResult{}, pkgerror.NewInvalidInput(errors.New("session_id and sheet are required"))
	}

	t, err := u.store.Table(ctx, sessionID, sheet)
	if err != nil {
		return PreviewResult{}, mapDomainErr("preview sheet", err)
	}

	if offset < 0 {
		offset = 0
	}
	if limit < 1 || limit > u.previewMaxRows {
		limit = u.previewMaxRows
	}

	total := t.NumRows()
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	rows := make([][]entity.Value, 0, end-offset)
	for _, row := range t.Rows[offset:end] {
		rows = append(rows, append([]entity.Value(nil), row...))
	}

	return PreviewResult{
		Sheet:     sheet,
		Columns:   columnInfos(t),
		Rows:      rows,
		TotalRows: total,
		Offset:    offset,
	}, nil
}

// ApplyTransform runs one transform against a sheet and records it in the
// session history. On failure the sheet is untouched.
func (u *Usecase) ApplyTransform(ctx context.Context, sessionID, sheet string, tr transform.Transform) (TransformResult, error) {
	if sessionID == "" || sheet == "" {
		return TransformResult{}, pkgerror.NewInvalidInput(errors.New("session_id and sheet are required"))
	}

	result, rowsBefore, err := u.store.Apply(ctx, sessionID, sheet, tr)
	if err != nil {
		return TransformResult{}, mapDomainErr(tr.Name(), err)
	}

	rev := entity.Revision{
		ID:         u.revision.Generate(),
		Sheet:      sheet,
		Op:         tr.Name(),
		RowsBefore: rowsBefore,
		RowsAfter:  result.NumRows(),
		AppliedAt:  u.clock.Now(),
	}
	if err := u.store.AppendRevision(ctx, sessionID, rev); err != nil {
		return TransformResult{}, mapDomainErr(tr.Name(), err)
	}

	slog.InfoContext(ctx, "transform applied",
		"session_id", sessionID, "sheet", sheet, "op", tr.Name(),
		"rows_before", rowsBefore, "rows_after", result.NumRows())

	return TransformResult{
		SessionID:   sessionID,
		Sheet:       sheet,
		Op:          tr.Name(),
		RowsBefore:  rowsBefore,
		RowsAfter:   result.NumRows(),
		RowsRemoved: rowsBefore - result.NumRows(),
		Revision:    rev.ID,
	}, nil
}

// CommitEdits replaces a sheet's working rows with manually edited cells.
// Every cell arrives as text and is coerced back to the baseline column
// type; values that do not parse become null rather than failing the edit.
func (u *Usecase) CommitEdits(ctx context.Context, sessionID, sheet string, header []string, rows [][]string) (CommitResult, error) {
	if sessionID == "" || sheet == "" {
		return CommitResult{}, pkgerror.NewInvalidInput(errors.New("session_id and sheet are required"))
	}
	if len(header) == 0 {
		return CommitResult{}, pkgerror.NewValidation("edit cells: header must not be empty", pkgerror.CodeInvalidInput)
	}
	for _, row := range rows {
		if len(row) != len(header) {
			return CommitResult{}, pkgerror.NewValidation(
				fmt.Sprintf("edit cells: row has %d cells, header has %d", len(row), len(header)),
				pkgerror.CodeInvalidInput)
		}
	}

	baseline, err := u.store.Baseline(ctx, sessionID, sheet)
	if err != nil {
		return CommitResult{}, mapDomainErr("edit cells", err)
	}

	// The grid the user edited is the current working table, so that is the
	// before-count the history records.
	working, err := u.store.Table(ctx, sessionID, sheet)
	if err != nil {
		return CommitResult{}, mapDomainErr("edit cells", err)
	}

	t := transform.CoerceRows(baseline, header, rows)
	if err := u.store.Commit(ctx, sessionID, sheet, t); err != nil {
		return CommitResult{}, mapDomainErr("edit cells", err)
	}

	rev := entity.Revision{
		ID:         u.revision.Generate(),
		Sheet:      sheet,
		Op:         "edit_cells",
		RowsBefore: working.NumRows(),
		RowsAfter:  t.NumRows(),
		AppliedAt:  u.clock.Now(),
	}
	if err := u.store.AppendRevision(ctx, sessionID, rev); err != nil {
		return CommitResult{}, mapDomainErr("edit cells", err)
	}

	return CommitResult{
		SessionID: sessionID,
		Sheet:     sheet,
		Rows:      t.NumRows(),
		Columns:   t.NumCols(),
		Revision:  rev.ID,
	}, nil
}

// ResetSheet reverts a sheet to its baseline.
func (u *Usecase) ResetSheet(ctx context.Context, sessionID, sheet string) (SessionView, error) {
	if sessionID == "" || sheet == "" {
		return SessionView{}, pkgerror.NewInvalidInput(errors.New("session_id and sheet are required"))
	}

	if err := u.store.Reset(ctx, sessionID, sheet); err != nil {
		return SessionView{}, mapDomainErr("reset sheet", err)
	}

	return u.store.Describe(ctx, sessionID)
}

// History lists every transform applied in the session, in order.
func (u *Usecase) History(ctx context.Context, sessionID string) ([]entity.Revision, error) {
	if sessionID == "" {
		return nil, pkgerror.NewInvalidInput(errors.New("session_id is required"))
	}

	revs, err := u.store.Revisions(ctx, sessionID)
	if err != nil {
		return nil, mapDomainErr("session history", err)
	}
	return revs, nil
}

// ExportSheet renders one sheet in the requested format, csv or xlsx.
func (u *Usecase) ExportSheet(ctx context.Context, sessionID, sheet, format string) (ExportResult, error) {
	if sessionID == "" || sheet == "" {
		return ExportResult{}, pkgerror.NewInvalidInput(errors.New("session_id and sheet are required"))
	}

	t, err := u.store.Table(ctx, sessionID, sheet)
	if err != nil {
		return ExportResult{}, mapDomainErr("export sheet", err)
	}

	stamp := u.clock.Now().Format("20060102_150405")

	switch format {
	case "", "xlsx":
		data, err := xlsio.WriteWorkbook([]string{sheet}, map[string]entity.Table{sheet: t})
		if err != nil {
			return ExportResult{}, pkgerror.NewServer(err)
		}
		return ExportResult{
			FileName:    fmt.Sprintf("modified_excel_%s.xlsx", stamp),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	case "csv":
		data, err := xlsio.WriteCSV(t)
		if err != nil {
			return ExportResult{}, pkgerror.NewServer(err)
		}
		return ExportResult{
			FileName:    fmt.Sprintf("modified_excel_%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	default:
		return ExportResult{}, pkgerror.NewValidation(
			fmt.Sprintf("export sheet: unsupported format %q", format), pkgerror.CodeInvalidInput)
	}
}

// ExportWorkbook renders every sheet, edited or not, as a single xlsx file
// in original sheet order.
func (u *Usecase) ExportWorkbook(ctx context.Context, sessionID string) (ExportResult, error) {
	if sessionID == "" {
		return ExportResult{}, pkgerror.NewInvalidInput(errors.New("session_id is required"))
	}

	order, tables, err := u.store.WorkingSet(ctx, sessionID)
	if err != nil {
		return ExportResult{}, mapDomainErr("export workbook", err)
	}

	data, err := xlsio.WriteWorkbook(order, tables)
	if err != nil {
		return ExportResult{}, pkgerror.NewServer(err)
	}

	return ExportResult{
		FileName:    fmt.Sprintf("modified_excel_%s.xlsx", u.clock.Now().Format("20060102_150405")),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        data,
	}, nil
}

// DropSession discards a session and everything in it.
func (u *Usecase) DropSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerror.NewInvalidInput(errors.New("session_id is required"))
	}

	if err := u.store.Delete(ctx, sessionID); err != nil {
		return mapDomainErr("drop session", err)
	}

	slog.InfoContext(ctx, "workbook session dropped", "session_id", sessionID)
	return nil
}

// mapDomainErr converts domain errors into the structured errors the
// transport layer knows how to render, prefixing the failing operation so
// the message names both the operation and the offending input.
func mapDomainErr(op string, err error) error {
	var (
		loadErr     *entity.LoadError
		sheetErr    *entity.UnknownSheetError
		colErr      *entity.ColumnNotFoundError
		dupErr      *entity.DuplicateColumnError
		typeErr     *entity.TypeMismatchError
		rangeErr    *entity.InvalidRangeError
		structified *pkgerror.Error
	)

	switch {
	case errors.As(err, &loadErr):
		return pkgerror.NewValidation(fmt.Sprintf("%s: %s", op, loadErr.Error()), pkgerror.CodeInvalidFormat)
	case errors.As(err, &sheetErr):
		return pkgerror.NewBusiness(fmt.Sprintf("%s: %s", op, sheetErr.Error()), pkgerror.CodeNotFound)
	case errors.As(err, &colErr):
		return pkgerror.NewBusiness(fmt.Sprintf("%s: %s", op, colErr.Error()), pkgerror.CodeNotFound)
	case errors.As(err, &dupErr):
		return pkgerror.NewBusiness(fmt.Sprintf("%s: %s", op, dupErr.Error()), pkgerror.CodeConflict)
	case errors.As(err, &typeErr):
		return pkgerror.NewValidation(fmt.Sprintf("%s: %s", op, typeErr.Error()), pkgerror.CodeInvalidInput)
	case errors.As(err, &rangeErr):
		return pkgerror.NewValidation(fmt.Sprintf("%s: %s", op, rangeErr.Error()), pkgerror.CodeInvalidInput)
	case errors.Is(err, pkgerror.ErrNotFound):
		return pkgerror.NewBusiness("workbook session not found", pkgerror.CodeNotFound)
	case errors.As(err, &structified):
		return structified
	default:
		return pkgerror.NewServer(err)
	}
}

func columnInfos(t entity.Table) []ColumnInfo {
	infos := make([]ColumnInfo, 0, len(t.Columns))
	for ci, col := range t.Columns {
		distinct := make(map[string]struct{})
		nonNull := 0
		for _, row := range t.Rows {
			v := row[ci]
			if v == nil {
				continue
			}
			nonNull++
			distinct[entity.FormatValue(v)] = struct{}{}
		}
		infos = append(infos, ColumnInfo{
			Name:     col.Name,
			Type:     col.Type,
			NonNull:  nonNull,
			Nulls:    t.NumRows() - nonNull,
			Distinct: len(distinct),
		})
	}
	return infos
}
