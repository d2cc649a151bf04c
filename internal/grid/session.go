// Package grid implements the editable requirement grid: optimistic cell
// edits, debounced persistence of dirty rows, bounded undo/redo and bulk
// field operations.
package grid

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitfield/reqwell/internal/common"
	"github.com/mwhitfield/reqwell/internal/model"
)

// Store is the slice of the persistence contract the grid session needs.
type Store interface {
	CreateRequirement(ctx context.Context, record *model.Requirement) (*model.Requirement, error)
	UpdateRequirement(ctx context.Context, id string, patch model.Patch) error
	BulkUpdateRequirements(ctx context.Context, ids []string, patch model.Patch) error
	BulkDeleteRequirements(ctx context.Context, ids []string, actorID string) error
	BulkSubmitForReview(ctx context.Context, projectID string, ids []string, actorID string) error
}

// SaveStatus is the grid's persistence state reported to the host UI.
type SaveStatus string

// Save statuses.
const (
	SaveIdle   SaveStatus = "idle"
	SaveSaving SaveStatus = "saving"
	SaveSaved  SaveStatus = "saved"
	SaveError  SaveStatus = "error"
)

// Row is a requirement augmented with session-local flags.
type Row struct {
	model.Requirement
	IsNew   bool // no durable identity yet
	IsDirty bool // local edits not yet confirmed saved
}

// tempIDPrefix marks session-local row identities.
const tempIDPrefix = "temp-"

// IsTempID reports whether an id is session-local rather than durable.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

const (
	// DefaultDebounce is how long the session waits after the last cell edit
	// before flushing pending deltas.
	DefaultDebounce = 500 * time.Millisecond
	// maxUndoFrames bounds the undo stack; the oldest frame is discarded first.
	maxUndoFrames = 50
)

// Options configures a grid session.
type Options struct {
	ProjectID string
	ActorID   string
	Debounce  time.Duration
}

// Session holds the live row collection for one editable grid. All state is
// guarded by a single mutex so the flush timer goroutine and the caller can
// interleave safely.
type Session struct {
	ctx       context.Context
	store     Store
	timer     *time.Timer
	pending   map[string]model.Patch
	lastErr   error
	projectID string
	actorID   string
	rows      []Row
	undo      [][]Row
	redo      [][]Row
	debounce  time.Duration
	status    SaveStatus
	mu        sync.Mutex
}

// NewSession creates a grid session over the given persisted rows. The
// context bounds every remote call the session makes, including timer-driven
// flushes.
func NewSession(ctx context.Context, store Store, existing []model.Requirement, opts Options) *Session {
	rows := make([]Row, len(existing))
	for i, rec := range existing {
		rows[i] = Row{Requirement: rec}
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Session{
		ctx:       ctx,
		store:     store,
		projectID: opts.ProjectID,
		actorID:   opts.ActorID,
		rows:      rows,
		pending:   make(map[string]model.Patch),
		debounce:  debounce,
		status:    SaveIdle,
	}
}

// Rows returns a copy of the current collection.
func (s *Session) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.rows)
}

// Status returns the save status and the last flush error, if any.
func (s *Session) Status() (SaveStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.lastErr
}

// UndoCount reports how many undo frames are available.
func (s *Session) UndoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo)
}

// RedoCount reports how many redo frames are available.
func (s *Session) RedoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo)
}

// EditCell applies a cell edit optimistically, records an undo frame of the
// pre-edit collection and (re)starts the debounce timer. Rapid successive
// edits to one row coalesce into a single remote update when the timer fires.
func (s *Session) EditCell(id string, patch model.Patch) error {
	if patch.IsZero() {
		return fmt.Errorf("%w: patch", common.ErrInvalidConfig)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("row %s: %w", id, common.ErrNotFound)
	}

	s.pushUndoLocked()
	patch.Apply(&s.rows[idx].Requirement)
	s.rows[idx].IsDirty = true
	s.pending[id] = mergePatch(s.pending[id], patch)
	s.scheduleFlushLocked()
	return nil
}

// AddRow appends a new row with a temporary identity and field defaults. The
// row is persisted on its first flushed edit.
func (s *Session) AddRow() Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pushUndoLocked()
	row := Row{
		Requirement: model.Requirement{
			ID:        tempIDPrefix + uuid.NewString(),
			ProjectID: s.projectID,
			Title:     "New requirement",
			Priority:  model.PriorityShouldHave,
			Status:    model.StatusDraft,
		},
		IsNew:   true,
		IsDirty: true,
	}
	s.rows = append(s.rows, row)
	return row
}

// DeleteSelected removes the selected rows. Durable ids are deleted remotely
// first; temporary rows are discarded locally only. On remote failure no rows
// are removed and the error status is surfaced.
func (s *Session) DeleteSelected(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	durable := make([]string, 0, len(ids))
	for _, id := range ids {
		if !IsTempID(id) {
			durable = append(durable, id)
		}
	}

	if len(durable) > 0 {
		if err := s.store.BulkDeleteRequirements(s.ctx, durable, s.actorID); err != nil {
			s.status = SaveError
			s.lastErr = err
			return fmt.Errorf("failed to delete %d requirements: %w", len(durable), err)
		}
	}

	s.pushUndoLocked()
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
		delete(s.pending, id)
	}
	kept := s.rows[:0:0]
	for _, row := range s.rows {
		if !selected[row.ID] {
			kept = append(kept, row)
		}
	}
	s.rows = kept
	return nil
}

// Undo restores the collection to the most recent undo frame. It operates
// purely on local state: no remote calls are issued or reversed, so a
// persisted row may drift from remote truth until its next edit flushes it.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undo) == 0 {
		return false
	}
	frame := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, snapshot(s.rows))
	s.rows = frame
	return true
}

// Redo is the symmetric inverse of Undo.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redo) == 0 {
		return false
	}
	frame := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, snapshot(s.rows))
	s.rows = frame
	return true
}

// Flush synchronously persists all pending deltas, bypassing the debounce
// timer. Used when the grid is closing and by tests.
func (s *Session) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return s.flush()
}

// Close stops the debounce timer without flushing.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// scheduleFlushLocked resets the single debounce timer. Called with the mutex
// held.
func (s *Session) scheduleFlushLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		_ = s.flush()
	})
}

// flush drains the pending delta map and issues one remote call per dirty
// row: a create for rows without a durable identity, an update otherwise.
// Failed rows keep their dirty flag and their deltas are re-queued, so the
// next flush resends them; there is no timer-driven retry.
func (s *Session) flush() error {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return nil
	}
	work := s.pending
	s.pending = make(map[string]model.Patch)
	s.status = SaveSaving
	s.mu.Unlock()

	var firstErr error
	for id, patch := range work {
		if err := s.flushRow(id, patch); err != nil {
			common.LogError(err, "Failed to save row", common.Fields{"row_id": id})
			// Re-queue under any edits made since the drain, so nothing is
			// lost and newer values win.
			s.mu.Lock()
			s.pending[id] = mergePatch(patch, s.pending[id])
			s.mu.Unlock()
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if firstErr != nil {
		s.status = SaveError
		s.lastErr = firstErr
		return firstErr
	}
	common.LogDebug("Flushed pending edits", common.Fields{"rows": len(work)})
	s.status = SaveSaved
	s.lastErr = nil
	return nil
}

// flushRow persists one row's coalesced deltas.
func (s *Session) flushRow(id string, patch model.Patch) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		// Row was deleted between the edit and the flush.
		s.mu.Unlock()
		return nil
	}
	row := s.rows[idx]
	s.mu.Unlock()

	if row.IsNew {
		rec := row.Requirement
		created, err := s.store.CreateRequirement(s.ctx, &rec)
		if err != nil {
			return fmt.Errorf("failed to create row: %w", err)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx := s.indexOf(id); idx >= 0 {
			// Adopt the durable identity and server-assigned attributes.
			s.rows[idx].Requirement = *created
			s.rows[idx].IsNew = false
			s.rows[idx].IsDirty = false
		}
		return nil
	}

	if err := s.store.UpdateRequirement(s.ctx, id, patch); err != nil {
		return fmt.Errorf("failed to update row: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(id); idx >= 0 {
		s.rows[idx].IsDirty = false
	}
	return nil
}

// pushUndoLocked records the pre-mutation collection and clears the redo
// stack. Called with the mutex held before every mutating action.
func (s *Session) pushUndoLocked() {
	if len(s.undo) >= maxUndoFrames {
		s.undo = s.undo[1:]
	}
	s.undo = append(s.undo, snapshot(s.rows))
	s.redo = nil
}

func (s *Session) indexOf(id string) int {
	for i := range s.rows {
		if s.rows[i].ID == id {
			return i
		}
	}
	return -1
}

// snapshot copies the collection. Row contains only value fields, so an
// element-wise copy is a full snapshot.
func snapshot(rows []Row) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}

// mergePatch overlays b's populated fields onto a.
func mergePatch(a, b model.Patch) model.Patch {
	if b.Title != nil {
		a.Title = b.Title
	}
	if b.Description != nil {
		a.Description = b.Description
	}
	if b.Priority != nil {
		a.Priority = b.Priority
	}
	if b.Status != nil {
		a.Status = b.Status
	}
	if b.CategoryID != nil {
		a.CategoryID = b.CategoryID
	}
	if b.StakeholderAreaID != nil {
		a.StakeholderAreaID = b.StakeholderAreaID
	}
	if b.SourceType != nil {
		a.SourceType = b.SourceType
	}
	if b.SourceReference != nil {
		a.SourceReference = b.SourceReference
	}
	if b.AcceptanceCriteria != nil {
		a.AcceptanceCriteria = b.AcceptanceCriteria
	}
	if b.Weighting != nil {
		a.Weighting = b.Weighting
	}
	return a
}
