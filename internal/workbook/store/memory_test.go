package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tudusp/excel-data-analyzer/internal/pkg/pkgerror"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/transform"
)

func testSession(id string) entity.Session {
	return entity.Session{
		ID: id,
		Workbook: entity.Workbook{
			FileName:   "report.xlsx",
			Size:       1024,
			SheetNames: []string{"Sales", "Inventory"},
		},
		Baseline: map[string]entity.Table{
			"Sales": {
				Columns: []entity.Column{
					{Name: "Region", Type: entity.TypeText},
					{Name: "Amount", Type: entity.TypeInteger},
				},
				Rows: [][]entity.Value{
					{"North", int64(100)},
					{"South", int64(250)},
					{"North", nil},
				},
			},
			"Inventory": {
				Columns: []entity.Column{{Name: "SKU", Type: entity.TypeText}},
				Rows:    [][]entity.Value{{"A-1"}, {"B-2"}},
			},
		},
		CreatedAt: time.Unix(1700000000, 0),
	}
}

func TestInMemoryStore_Create_Duplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInMemoryStore()

	if err := store.Create(ctx, testSession("s-1")); err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	err := store.Create(ctx, testSession("s-1"))
	if err == nil {
		t.Fatal("Create() expected error, got nil")
	}

	var perr *pkgerror.Error
	if !errors.As(err, &perr) {
		t.Fatalf("Create() expected pkgerror.Error, got %T", err)
	}
	if perr.Code() != pkgerror.CodeConflict {
		t.Fatalf("Create() error code = %v, want %v", perr.Code(), pkgerror.CodeConflict)
	}
}

func TestInMemoryStore_Create_CopiesBaseline(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInMemoryStore()
	sess := testSession("s-2")

	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	// Mutating the caller's table must not reach the stored baseline.
	sess.Baseline["Sales"].Rows[0][1] = int64(-1)

	got, err := store.Baseline(ctx, "s-2", "Sales")
	if err != nil {
		t.Fatalf("Baseline() err = %v", err)
	}
	if got.Rows[0][1] != int64(100) {
		t.Fatalf("Baseline() cell = %v, want 100", got.Rows[0][1])
	}
}

func TestInMemoryStore_Apply_And_Fallback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInMemoryStore()
	if err := store.Create(ctx, testSession("s-3")); err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	result, rowsBefore, err := store.Apply(ctx, "s-3", "Sales", transform.DropMissing{})
	if err != nil {
		t.Fatalf("Apply() err = %v", err)
	}
	if rowsBefore != 3 {
		t.Fatalf("Apply() rowsBefore = %d, want 3", rowsBefore)
	}
	if result.NumRows() != 2 {
		t.Fatalf("Apply() rows = %d, want 2", result.NumRows())
	}

	// Table now serves the working copy, Baseline still the original.
	working, err := store.Table(ctx, "s-3", "Sales")
	if err != nil {
		t.Fatalf("Table() err = %v", err)
	}
	if working.NumRows() != 2 {
		t.Fatalf("Table() rows = %d, want 2", working.NumRows())
	}

	baseline, err := store.Baseline(ctx, "s-3", "Sales")
	if err != nil {
		t.Fatalf("Baseline() err = %v", err)
	}
	if baseline.NumRows() != 3 {
		t.Fatalf("Baseline() rows = %d, want 3", baseline.NumRows())
	}

	// The untouched sheet falls back to its baseline.
	other, err := store.Table(ctx, "s-3", "Inventory")
	if err != nil {
		t.Fatalf("Table() err = %v", err)
	}
	if other.NumRows() != 2 {
		t.Fatalf("Table() inventory rows = %d, want 2", other.NumRows())
	}
}

func TestInMemoryStore_Apply_FailureIsNoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInMemoryStore()
	if err := store.Create(ctx, testSession("s-4")); err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	_, _, err := store.Apply(ctx, "s-4", "Sales", transform.Sort{Column: "Ghost"})

	var colErr *entity.ColumnNotFoundError
	if !errors.As(err, &colErr) {
		t.Fatalf("Apply() err = %v, want ColumnNotFoundError", err)
	}

	got, err := store.Table(ctx, "s-4", "Sales")
	if err != nil {
		t.Fatalf("Table() err = %v", err)
	}
	if got.NumRows() != 3 {
		t.Fatalf("Table() rows = %d, want 3 after failed transform", got.NumRows())
	}
}

func TestInMemoryStore_Reset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInMemoryStore()
	if err := store.Create(ctx, testSession("s-5")); err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	if _, _, err := store.Apply(ctx, "s-5", "Sales", transform.DropMissing{}); err != nil {
		t.Fatalf("Apply() err = %v", err)
	}
	if err := store.Reset(ctx, "s-5", "Sales"); err != nil {
		t.Fatalf("Reset() err = %v", err)
	}

	got, err := store.Table(ctx, "s-5", "Sales")
	if err != nil {
		t.Fatalf("Table() err = %v", err)
	}
	if got.NumRows() != 3 {
		t.Fatalf("Table() rows = %d, want 3 after reset", got.NumRows())
	}
}

func TestInMemoryStore_Describe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInMemoryStore()
	if err := store.Create(ctx, testSession("s-6")); err != nil {
		t.Fatalf("Create() err = %v", err)
	}
	if err := store.SelectSheet(ctx, "s-6", "Inventory"); err != nil {
		t.Fatalf("SelectSheet() err = %v", err)
	}
	if _, _, err := store.Apply(ctx, "s-6", "Sales", transform.DropMissing{}); err != nil {
		t.Fatalf("Apply() err = %v", err)
	}

	view, err := store.Describe(ctx, "s-6")
	if err != nil {
		t.Fatalf("Describe() err = %v", err)
	}

	if view.SelectedSheet != "Inventory" {
		t.Fatalf("Describe() selected = %q, want Inventory", view.SelectedSheet)
	}
	if len(view.Sheets) != 2 {
		t.Fatalf("Describe() sheets = %d, want 2", len(view.Sheets))
	}

	sales := view.Sheets[0]
	if sales.Name != "Sales" || !sales.Edited {
		t.Fatalf("Describe() sales status = %+v, want edited", sales)
	}
	if sales.BaselineRows != 3 || sales.WorkingRows != 2 {
		t.Fatalf("Describe() sales rows = %d/%d, want 3/2", sales.BaselineRows, sales.WorkingRows)
	}
	if sales.MissingCells != 0 {
		t.Fatalf("Describe() sales missing = %d, want 0", sales.MissingCells)
	}

	inv := view.Sheets[1]
	if inv.Edited {
		t.Fatalf("Describe() inventory status = %+v, want untouched", inv)
	}
}

func TestInMemoryStore_SelectSheet_Unknown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInMemoryStore()
	if err := store.Create(ctx, testSession("s-7")); err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	err := store.SelectSheet(ctx, "s-7", "Ghost")

	var sheetErr *entity.UnknownSheetError
	if !errors.As(err, &sheetErr) {
		t.Fatalf("SelectSheet() err = %v, want UnknownSheetError", err)
	}
}

func TestInMemoryStore_WorkingSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInMemoryStore()
	if err := store.Create(ctx, testSession("s-8")); err != nil {
		t.Fatalf("Create() err = %v", err)
	}
	if _, _, err := store.Apply(ctx, "s-8", "Sales", transform.DropMissing{}); err != nil {
		t.Fatalf("Apply() err = %v", err)
	}

	order, tables, err := store.WorkingSet(ctx, "s-8")
	if err != nil {
		t.Fatalf("WorkingSet() err = %v", err)
	}

	if len(order) != 2 || order[0] != "Sales" || order[1] != "Inventory" {
		t.Fatalf("WorkingSet() order = %v", order)
	}
	if tables["Sales"].NumRows() != 2 {
		t.Fatalf("WorkingSet() sales rows = %d, want 2", tables["Sales"].NumRows())
	}
	if tables["Inventory"].NumRows() != 2 {
		t.Fatalf("WorkingSet() inventory rows = %d, want 2", tables["Inventory"].NumRows())
	}
}

func TestInMemoryStore_Revisions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInMemoryStore()
	if err := store.Create(ctx, testSession("s-9")); err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	revs := []entity.Revision{
		{ID: 1, Sheet: "Sales", Op: "sort", RowsBefore: 3, RowsAfter: 3},
		{ID: 2, Sheet: "Sales", Op: "drop_missing", RowsBefore: 3, RowsAfter: 2},
	}
	for _, rev := range revs {
		if err := store.AppendRevision(ctx, "s-9", rev); err != nil {
			t.Fatalf("AppendRevision() err = %v", err)
		}
	}

	got, err := store.Revisions(ctx, "s-9")
	if err != nil {
		t.Fatalf("Revisions() err = %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].Op != "drop_missing" {
		t.Fatalf("Revisions() = %+v", got)
	}
}

func TestInMemoryStore_NotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInMemoryStore()

	if _, err := store.Describe(ctx, "missing"); !errors.Is(err, pkgerror.ErrNotFound) {
		t.Fatalf("Describe() err = %v, want ErrNotFound", err)
	}
	if _, err := store.Table(ctx, "missing", "Sales"); !errors.Is(err, pkgerror.ErrNotFound) {
		t.Fatalf("Table() err = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "missing"); !errors.Is(err, pkgerror.ErrNotFound) {
		t.Fatalf("Delete() err = %v, want ErrNotFound", err)
	}
}

func TestInMemoryStore_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInMemoryStore()
	if err := store.Create(ctx, testSession("s-10")); err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	if err := store.Delete(ctx, "s-10"); err != nil {
		t.Fatalf("Delete() err = %v", err)
	}
	if _, err := store.Describe(ctx, "s-10"); !errors.Is(err, pkgerror.ErrNotFound) {
		t.Fatalf("Describe() err = %v, want ErrNotFound after delete", err)
	}
}

func TestInMemoryStore_Sweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInMemoryStore()

	current := time.Unix(1700000000, 0)
	store.now = func() time.Time { return current }

	if err := store.Create(ctx, testSession("old")); err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	current = current.Add(10 * time.Minute)
	if err := store.Create(ctx, testSession("fresh")); err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	expired := store.Sweep(5 * time.Minute)
	if len(expired) != 1 || expired[0] != "old" {
		t.Fatalf("Sweep() = %v, want [old]", expired)
	}

	if _, err := store.Describe(ctx, "old"); !errors.Is(err, pkgerror.ErrNotFound) {
		t.Fatalf("Describe() err = %v, want ErrNotFound after sweep", err)
	}
	if _, err := store.Describe(ctx, "fresh"); err != nil {
		t.Fatalf("Describe() fresh err = %v", err)
	}
}

func TestInMemoryStore_TouchKeepsSessionAlive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInMemoryStore()

	current := time.Unix(1700000000, 0)
	store.now = func() time.Time { return current }

	if err := store.Create(ctx, testSession("busy")); err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	current = current.Add(4 * time.Minute)
	if _, err := store.Table(ctx, "busy", "Sales"); err != nil {
		t.Fatalf("Table() err = %v", err)
	}

	current = current.Add(4 * time.Minute)
	if expired := store.Sweep(5 * time.Minute); len(expired) != 0 {
		t.Fatalf("Sweep() = %v, want none", expired)
	}
}
