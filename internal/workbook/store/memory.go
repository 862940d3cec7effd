package store

import (
	"context"
	"sync"
	"time"

	"github.com/tudusp/excel-data-analyzer/internal/pkg/pkgerror"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/entity"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/transform"
	"github.com/tudusp/excel-data-analyzer/internal/workbook/usecase"
)

// InMemoryStore keeps every live editing session. Each session holds the
// never-mutated baseline tables and a working map of edited tables; a sheet
// absent from working is identical to its baseline.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionRecord
	now      func() time.Time
}

type sessionRecord struct {
	mu        sync.RWMutex
	session   entity.Session
	working   map[string]entity.Table
	selected  string
	revisions []entity.Revision
	touched   time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*sessionRecord),
		now:      time.Now,
	}
}

// Create registers a new session. The baseline tables are deep-copied so a
// caller holding the originals can never alias them.
func (s *InMemoryStore) Create(ctx context.Context, sess entity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return pkgerror.NewBusiness("session already exists", pkgerror.CodeConflict)
	}

	baseline := make(map[string]entity.Table, len(sess.Baseline))
	for name, t := range sess.Baseline {
		baseline[name] = t.Clone()
	}
	sess.Baseline = baseline

	s.sessions[sess.ID] = &sessionRecord{
		session: sess,
		working: make(map[string]entity.Table),
		touched: s.now(),
	}

	return nil
}

// Describe returns a snapshot of the session and its per-sheet status.
func (s *InMemoryStore) Describe(ctx context.Context, sessionID string) (usecase.SessionView, error) {
	rec, err := s.get(sessionID)
	if err != nil {
		return usecase.SessionView{}, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	view := usecase.SessionView{
		SessionID:     rec.session.ID,
		FileName:      rec.session.Workbook.FileName,
		FileSize:      rec.session.Workbook.Size,
		SheetNames:    append([]string(nil), rec.session.Workbook.SheetNames...),
		SelectedSheet: rec.selected,
		CreatedAt:     rec.session.CreatedAt,
	}

	for _, name := range rec.session.Workbook.SheetNames {
		base := rec.session.Baseline[name]
		current, edited := rec.working[name]
		if !edited {
			current = base
		}

		missing := 0
		for _, row := range current.Rows {
			for _, v := range row {
				if v == nil {
					missing++
				}
			}
		}

		view.Sheets = append(view.Sheets, usecase.SheetStatus{
			Name:         name,
			BaselineRows: base.NumRows(),
			WorkingRows:  current.NumRows(),
			Columns:      current.NumCols(),
			MissingCells: missing,
			Edited:       edited,
		})
	}

	return view, nil
}

// SelectSheet sets the session's active sheet.
func (s *InMemoryStore) SelectSheet(ctx context.Context, sessionID, sheet string) error {
	rec, err := s.get(sessionID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if _, ok := rec.session.Baseline[sheet]; !ok {
		return &entity.UnknownSheetError{Sheet: sheet}
	}

	rec.selected = sheet
	return nil
}

// Table returns the current working table for a sheet, falling back to the
// baseline copy when no edits exist. Callers must treat the result as
// read-only; transforms always produce fresh tables.
func (s *InMemoryStore) Table(ctx context.Context, sessionID, sheet string) (entity.Table, error) {
	rec, err := s.get(sessionID)
	if err != nil {
		return entity.Table{}, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	return rec.currentLocked(sheet)
}

// Baseline returns the as-loaded table for a sheet.
func (s *InMemoryStore) Baseline(ctx context.Context, sessionID, sheet string) (entity.Table, error) {
	rec, err := s.get(sessionID)
	if err != nil {
		return entity.Table{}, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	base, ok := rec.session.Baseline[sheet]
	if !ok {
		return entity.Table{}, &entity.UnknownSheetError{Sheet: sheet}
	}
	return base, nil
}

// Apply runs a transform against the working table (or baseline when no
// edits exist) and stores the result as the new working entry. A failing
// transform is a no-op: the working entry is only replaced on success, and
// the transform's own error surfaces unchanged.
func (s *InMemoryStore) Apply(ctx context.Context, sessionID, sheet string, tr transform.Transform) (entity.Table, int, error) {
	rec, err := s.get(sessionID)
	if err != nil {
		return entity.Table{}, 0, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	current, err := rec.currentLocked(sheet)
	if err != nil {
		return entity.Table{}, 0, err
	}

	result, err := tr.Apply(current)
	if err != nil {
		return entity.Table{}, 0, err
	}

	rec.working[sheet] = result
	return result, current.NumRows(), nil
}

// Commit replaces the working entry with an externally edited table.
func (s *InMemoryStore) Commit(ctx context.Context, sessionID, sheet string, t entity.Table) error {
	rec, err := s.get(sessionID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if _, ok := rec.session.Baseline[sheet]; !ok {
		return &entity.UnknownSheetError{Sheet: sheet}
	}

	rec.working[sheet] = t
	return nil
}

// Reset deletes the working entry, reverting the sheet to baseline.
func (s *InMemoryStore) Reset(ctx context.Context, sessionID, sheet string) error {
	rec, err := s.get(sessionID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if _, ok := rec.session.Baseline[sheet]; !ok {
		return &entity.UnknownSheetError{Sheet: sheet}
	}

	delete(rec.working, sheet)
	return nil
}

// WorkingSet returns every sheet in file order with its current table, the
// union of working entries and untouched baselines.
func (s *InMemoryStore) WorkingSet(ctx context.Context, sessionID string) ([]string, map[string]entity.Table, error) {
	rec, err := s.get(sessionID)
	if err != nil {
		return nil, nil, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	order := append([]string(nil), rec.session.Workbook.SheetNames...)
	tables := make(map[string]entity.Table, len(order))
	for _, name := range order {
		t, err := rec.currentLocked(name)
		if err != nil {
			return nil, nil, err
		}
		tables[name] = t
	}

	return order, tables, nil
}

// AppendRevision records one applied transform in the session history.
func (s *InMemoryStore) AppendRevision(ctx context.Context, sessionID string, rev entity.Revision) error {
	rec, err := s.get(sessionID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.revisions = append(rec.revisions, rev)
	return nil
}

// Revisions returns the session's transform history in applied order.
func (s *InMemoryStore) Revisions(ctx context.Context, sessionID string) ([]entity.Revision, error) {
	rec, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	return append([]entity.Revision(nil), rec.revisions...), nil
}

// Delete discards a session entirely.
func (s *InMemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return pkgerror.ErrNotFound
	}

	delete(s.sessions, sessionID)
	return nil
}

// Sweep deletes sessions idle for longer than ttl and returns their IDs.
func (s *InMemoryStore) Sweep(ttl time.Duration) []string {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []string
	for id, rec := range s.sessions {
		rec.mu.RLock()
		idle := rec.touched.Before(cutoff)
		rec.mu.RUnlock()
		if idle {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}

	return expired
}

func (s *InMemoryStore) get(sessionID string) (*sessionRecord, error) {
	s.mu.RLock()
	rec, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerror.ErrNotFound
	}

	rec.mu.Lock()
	rec.touched = s.now()
	rec.mu.Unlock()

	return rec, nil
}

// currentLocked needs at least a read lock on rec.mu.
func (rec *sessionRecord) currentLocked(sheet string) (entity.Table, error) {
	if t, ok := rec.working[sheet]; ok {
		return t, nil
	}
	t, ok := rec.session.Baseline[sheet]
	if !ok {
		return entity.Table{}, &entity.UnknownSheetError{Sheet: sheet}
	}
	return t, nil
}
