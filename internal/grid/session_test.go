package grid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/reqwell/internal/common"
	"github.com/mwhitfield/reqwell/internal/model"
)

// fakeStore records every persistence call and can be told to fail.
type fakeStore struct {
	mu          sync.Mutex
	creates     []model.Requirement
	updates     map[string][]model.Patch
	bulkUpdates [][]string
	deletes     [][]string
	submits     [][]string
	failCreate  error
	failUpdate  error
	failBulk    error
	failDelete  error
	failSubmit  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{updates: make(map[string][]model.Patch)}
}

func (f *fakeStore) CreateRequirement(_ context.Context, record *model.Requirement) (*model.Requirement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	created := *record
	created.ID = uuid.NewString()
	created.Reference = fmt.Sprintf("REQ-%04d", len(f.creates)+1)
	f.creates = append(f.creates, created)
	return &created, nil
}

func (f *fakeStore) UpdateRequirement(_ context.Context, id string, patch model.Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		return f.failUpdate
	}
	f.updates[id] = append(f.updates[id], patch)
	return nil
}

func (f *fakeStore) BulkUpdateRequirements(_ context.Context, ids []string, _ model.Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failBulk != nil {
		return f.failBulk
	}
	f.bulkUpdates = append(f.bulkUpdates, ids)
	return nil
}

func (f *fakeStore) BulkDeleteRequirements(_ context.Context, ids []string, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	f.deletes = append(f.deletes, ids)
	return nil
}

func (f *fakeStore) BulkSubmitForReview(_ context.Context, _ string, ids []string, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSubmit != nil {
		return f.failSubmit
	}
	f.submits = append(f.submits, ids)
	return nil
}

func (f *fakeStore) updateCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates[id])
}

func strPtr(s string) *string { return &s }

func statusPtr(s model.Status) *model.Status { return &s }

func priorityPtr(p model.Priority) *model.Priority { return &p }

func existingRows(n int) []model.Requirement {
	rows := make([]model.Requirement, n)
	for i := range rows {
		rows[i] = model.Requirement{
			ID:        fmt.Sprintf("id-%d", i+1),
			Reference: fmt.Sprintf("REQ-%04d", i+1),
			Title:     fmt.Sprintf("Requirement %d", i+1),
			Status:    model.StatusDraft,
			Priority:  model.PriorityShouldHave,
		}
	}
	return rows
}

func newTestSession(t *testing.T, store Store, rows []model.Requirement) *Session {
	t.Helper()
	sess := NewSession(context.Background(), store, rows, Options{
		ProjectID: "proj-1",
		ActorID:   "tester",
		Debounce:  10 * time.Millisecond,
	})
	t.Cleanup(sess.Close)
	return sess
}

func TestSession_EditCellOptimistic(t *testing.T) {
	store := newFakeStore()
	sess := newTestSession(t, store, existingRows(2))

	err := sess.EditCell("id-1", model.Patch{Title: strPtr("Renamed")})
	require.NoError(t, err)

	rows := sess.Rows()
	assert.Equal(t, "Renamed", rows[0].Title)
	assert.True(t, rows[0].IsDirty)
	assert.Equal(t, 0, store.updateCount("id-1"), "edit is local until the flush")

	require.NoError(t, sess.Flush())
	assert.Equal(t, 1, store.updateCount("id-1"))
	rows = sess.Rows()
	assert.False(t, rows[0].IsDirty)

	status, statusErr := sess.Status()
	assert.Equal(t, SaveSaved, status)
	assert.NoError(t, statusErr)
}

func TestSession_EditCellUnknownRow(t *testing.T) {
	sess := newTestSession(t, newFakeStore(), existingRows(1))
	err := sess.EditCell("missing", model.Patch{Title: strPtr("x")})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSession_EditCellRejectsEmptyPatch(t *testing.T) {
	sess := newTestSession(t, newFakeStore(), existingRows(1))
	assert.Error(t, sess.EditCell("id-1", model.Patch{}))
}

func TestSession_DebounceCoalescesEdits(t *testing.T) {
	store := newFakeStore()
	sess := newTestSession(t, store, existingRows(1))

	// Three rapid edits to the same row inside the debounce window.
	require.NoError(t, sess.EditCell("id-1", model.Patch{Title: strPtr("a")}))
	require.NoError(t, sess.EditCell("id-1", model.Patch{Title: strPtr("ab")}))
	require.NoError(t, sess.EditCell("id-1", model.Patch{Priority: priorityPtr(model.PriorityMustHave)}))

	require.Eventually(t, func() bool {
		return store.updateCount("id-1") > 0
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, store.updateCount("id-1"), "edits coalesce into one update")

	store.mu.Lock()
	patch := store.updates["id-1"][0]
	store.mu.Unlock()
	require.NotNil(t, patch.Title)
	assert.Equal(t, "ab", *patch.Title)
	require.NotNil(t, patch.Priority)
	assert.Equal(t, model.PriorityMustHave, *patch.Priority)
}

func TestSession_AddRowPersistsOnFirstFlushedEdit(t *testing.T) {
	store := newFakeStore()
	sess := newTestSession(t, store, nil)

	row := sess.AddRow()
	assert.True(t, IsTempID(row.ID))
	assert.True(t, row.IsNew)
	assert.Equal(t, "New requirement", row.Title)
	assert.Equal(t, model.StatusDraft, row.Status)

	// Nothing pending yet: an untouched new row is not persisted.
	require.NoError(t, sess.Flush())
	assert.Empty(t, store.creates)

	require.NoError(t, sess.EditCell(row.ID, model.Patch{Title: strPtr("User login")}))
	require.NoError(t, sess.Flush())

	require.Len(t, store.creates, 1)
	assert.Equal(t, "User login", store.creates[0].Title)
	assert.Equal(t, "proj-1", store.creates[0].ProjectID)

	// The row adopted its durable identity.
	rows := sess.Rows()
	require.Len(t, rows, 1)
	assert.False(t, IsTempID(rows[0].ID))
	assert.False(t, rows[0].IsNew)
	assert.Equal(t, "REQ-0001", rows[0].Reference)
}

func TestSession_FailedFlushRequeuesDeltas(t *testing.T) {
	store := newFakeStore()
	store.failUpdate = errors.New("store down")
	sess := newTestSession(t, store, existingRows(1))

	require.NoError(t, sess.EditCell("id-1", model.Patch{Title: strPtr("Renamed")}))
	require.Error(t, sess.Flush())

	// The store recovers; a later edit to a different field must not shed
	// the unsaved title.
	store.mu.Lock()
	store.failUpdate = nil
	store.mu.Unlock()
	require.NoError(t, sess.EditCell("id-1", model.Patch{Priority: priorityPtr(model.PriorityMustHave)}))
	require.NoError(t, sess.Flush())

	require.Equal(t, 1, store.updateCount("id-1"))
	store.mu.Lock()
	patch := store.updates["id-1"][0]
	store.mu.Unlock()
	require.NotNil(t, patch.Title, "the failed delta is resent on the next flush")
	assert.Equal(t, "Renamed", *patch.Title)
	require.NotNil(t, patch.Priority)
	assert.Equal(t, model.PriorityMustHave, *patch.Priority)

	rows := sess.Rows()
	assert.False(t, rows[0].IsDirty)
	status, statusErr := sess.Status()
	assert.Equal(t, SaveSaved, status)
	assert.NoError(t, statusErr)
}

func TestSession_RequeuedDeltaYieldsToNewerEdits(t *testing.T) {
	store := newFakeStore()
	store.failUpdate = errors.New("store down")
	sess := newTestSession(t, store, existingRows(1))

	require.NoError(t, sess.EditCell("id-1", model.Patch{Title: strPtr("first")}))
	require.Error(t, sess.Flush())

	store.mu.Lock()
	store.failUpdate = nil
	store.mu.Unlock()
	require.NoError(t, sess.EditCell("id-1", model.Patch{Title: strPtr("second")}))
	require.NoError(t, sess.Flush())

	store.mu.Lock()
	patch := store.updates["id-1"][0]
	store.mu.Unlock()
	require.NotNil(t, patch.Title)
	assert.Equal(t, "second", *patch.Title, "the newer value wins over the re-queued one")
}

func TestSession_FlushFailureKeepsDirty(t *testing.T) {
	store := newFakeStore()
	store.failUpdate = errors.New("store down")
	sess := newTestSession(t, store, existingRows(1))

	require.NoError(t, sess.EditCell("id-1", model.Patch{Title: strPtr("x")}))
	err := sess.Flush()
	require.Error(t, err)

	status, statusErr := sess.Status()
	assert.Equal(t, SaveError, status)
	assert.Error(t, statusErr)

	rows := sess.Rows()
	assert.True(t, rows[0].IsDirty, "failed rows stay dirty")
	assert.Equal(t, "x", rows[0].Title, "optimistic value is kept")
}

func TestSession_DeleteSelected(t *testing.T) {
	store := newFakeStore()
	sess := newTestSession(t, store, existingRows(3))
	temp := sess.AddRow()

	err := sess.DeleteSelected([]string{"id-2", temp.ID})
	require.NoError(t, err)

	// Only the durable id reached the store.
	require.Len(t, store.deletes, 1)
	assert.Equal(t, []string{"id-2"}, store.deletes[0])

	ids := make([]string, 0)
	for _, row := range sess.Rows() {
		ids = append(ids, row.ID)
	}
	assert.Equal(t, []string{"id-1", "id-3"}, ids)
}

func TestSession_DeleteOnlyTemporaryRows(t *testing.T) {
	store := newFakeStore()
	sess := newTestSession(t, store, nil)
	temp := sess.AddRow()

	require.NoError(t, sess.DeleteSelected([]string{temp.ID}))
	assert.Empty(t, store.deletes, "no remote call for temporary-only selections")
	assert.Empty(t, sess.Rows())
}

func TestSession_DeleteFailureLeavesRows(t *testing.T) {
	store := newFakeStore()
	store.failDelete = errors.New("store down")
	sess := newTestSession(t, store, existingRows(2))

	err := sess.DeleteSelected([]string{"id-1"})
	require.Error(t, err)
	assert.Len(t, sess.Rows(), 2, "nothing is removed when the remote delete fails")

	status, _ := sess.Status()
	assert.Equal(t, SaveError, status)
}

func TestSession_DeleteDropsPendingDeltas(t *testing.T) {
	store := newFakeStore()
	sess := newTestSession(t, store, existingRows(1))

	require.NoError(t, sess.EditCell("id-1", model.Patch{Title: strPtr("doomed")}))
	require.NoError(t, sess.DeleteSelected([]string{"id-1"}))
	require.NoError(t, sess.Flush())

	assert.Equal(t, 0, store.updateCount("id-1"), "deltas for deleted rows are discarded")
}

func TestSession_UndoRedo(t *testing.T) {
	store := newFakeStore()
	sess := newTestSession(t, store, existingRows(1))

	require.NoError(t, sess.EditCell("id-1", model.Patch{Title: strPtr("edited")}))
	assert.Equal(t, 1, sess.UndoCount())

	assert.True(t, sess.Undo())
	assert.Equal(t, "Requirement 1", sess.Rows()[0].Title)
	assert.Equal(t, 0, sess.UndoCount())
	assert.Equal(t, 1, sess.RedoCount())

	assert.True(t, sess.Redo())
	assert.Equal(t, "edited", sess.Rows()[0].Title)
	assert.Equal(t, 1, sess.UndoCount())
	assert.Equal(t, 0, sess.RedoCount())

	// Undo and redo issue no remote calls.
	assert.Empty(t, store.updates["id-1"])
}

func TestSession_UndoRestoresDeletedRows(t *testing.T) {
	store := newFakeStore()
	sess := newTestSession(t, store, existingRows(2))

	require.NoError(t, sess.DeleteSelected([]string{"id-2"}))
	assert.Len(t, sess.Rows(), 1)

	assert.True(t, sess.Undo())
	assert.Len(t, sess.Rows(), 2, "undo restores the collection locally")
	require.Len(t, store.deletes, 1, "the remote delete is not reversed")
}

func TestSession_UndoEmptyStacks(t *testing.T) {
	sess := newTestSession(t, newFakeStore(), existingRows(1))
	assert.False(t, sess.Undo())
	assert.False(t, sess.Redo())
}

func TestSession_MutationClearsRedo(t *testing.T) {
	sess := newTestSession(t, newFakeStore(), existingRows(1))

	require.NoError(t, sess.EditCell("id-1", model.Patch{Title: strPtr("one")}))
	require.True(t, sess.Undo())
	assert.Equal(t, 1, sess.RedoCount())

	require.NoError(t, sess.EditCell("id-1", model.Patch{Title: strPtr("two")}))
	assert.Equal(t, 0, sess.RedoCount(), "a new mutation invalidates redo history")
}

func TestSession_UndoStackBounded(t *testing.T) {
	sess := newTestSession(t, newFakeStore(), existingRows(1))

	for i := 0; i < maxUndoFrames+10; i++ {
		require.NoError(t, sess.EditCell("id-1", model.Patch{Title: strPtr(fmt.Sprintf("v%d", i))}))
	}
	assert.Equal(t, maxUndoFrames, sess.UndoCount())

	// Walking all the way back lands on the oldest retained frame, not the
	// original state.
	for sess.Undo() {
	}
	assert.Equal(t, "v9", sess.Rows()[0].Title)
}
