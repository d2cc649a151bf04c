package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/reqwell/internal/model"
)

func TestBulkSetField_ExcludesTemporaryIDsRemotely(t *testing.T) {
	store := newFakeStore()
	sess := newTestSession(t, store, existingRows(2))
	temp := sess.AddRow()

	patch := model.Patch{Priority: priorityPtr(model.PriorityMustHave)}
	err := sess.BulkSetField([]string{"id-1", "id-2", temp.ID}, patch)
	require.NoError(t, err)

	// One remote call carrying only durable ids.
	require.Len(t, store.bulkUpdates, 1)
	assert.Equal(t, []string{"id-1", "id-2"}, store.bulkUpdates[0])

	// All selected rows updated locally, the temporary one included.
	for _, row := range sess.Rows() {
		assert.Equal(t, model.PriorityMustHave, row.Priority)
	}
}

func TestBulkSetField_TemporaryOnlySkipsRemoteCall(t *testing.T) {
	store := newFakeStore()
	sess := newTestSession(t, store, nil)
	temp := sess.AddRow()

	patch := model.Patch{Status: statusPtr(model.StatusApproved)}
	require.NoError(t, sess.BulkSetField([]string{temp.ID}, patch))

	assert.Empty(t, store.bulkUpdates)
	assert.Equal(t, model.StatusApproved, sess.Rows()[0].Status)
}

func TestBulkSetField_FailureLeavesLocalStateUntouched(t *testing.T) {
	store := newFakeStore()
	store.failBulk = errors.New("store down")
	sess := newTestSession(t, store, existingRows(2))

	patch := model.Patch{Priority: priorityPtr(model.PriorityCouldHave)}
	err := sess.BulkSetField([]string{"id-1", "id-2"}, patch)
	require.Error(t, err)

	for _, row := range sess.Rows() {
		assert.Equal(t, model.PriorityShouldHave, row.Priority)
	}
	status, _ := sess.Status()
	assert.Equal(t, SaveError, status)
}

func TestBulkSetField_Validation(t *testing.T) {
	sess := newTestSession(t, newFakeStore(), existingRows(1))

	assert.NoError(t, sess.BulkSetField(nil, model.Patch{}), "empty selection is a no-op")
	assert.Error(t, sess.BulkSetField([]string{"id-1"}, model.Patch{}), "empty patch is rejected")
}

func TestBulkSetField_IsUndoable(t *testing.T) {
	sess := newTestSession(t, newFakeStore(), existingRows(2))

	patch := model.Patch{Priority: priorityPtr(model.PriorityWontHave)}
	require.NoError(t, sess.BulkSetField([]string{"id-1", "id-2"}, patch))

	require.True(t, sess.Undo())
	for _, row := range sess.Rows() {
		assert.Equal(t, model.PriorityShouldHave, row.Priority)
	}
}

func TestSubmitForApproval_OnlyDrafts(t *testing.T) {
	store := newFakeStore()
	rows := existingRows(3)
	rows[1].Status = model.StatusApproved
	sess := newTestSession(t, store, rows)

	count, err := sess.SubmitForApproval([]string{"id-1", "id-2", "id-3"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.Len(t, store.submits, 1)
	assert.Equal(t, []string{"id-1", "id-3"}, store.submits[0])

	got := sess.Rows()
	assert.Equal(t, model.StatusInReview, got[0].Status)
	assert.Equal(t, model.StatusApproved, got[1].Status, "non-draft rows are untouched")
	assert.Equal(t, model.StatusInReview, got[2].Status)
}

func TestSubmitForApproval_NoDraftsIsNoOp(t *testing.T) {
	store := newFakeStore()
	rows := existingRows(1)
	rows[0].Status = model.StatusImplemented
	sess := newTestSession(t, store, rows)

	count, err := sess.SubmitForApproval([]string{"id-1"})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, store.submits)
	assert.Zero(t, sess.UndoCount(), "a no-op records no undo frame")
}

func TestSubmitForApproval_TemporaryDraftsUpdateLocallyOnly(t *testing.T) {
	store := newFakeStore()
	sess := newTestSession(t, store, existingRows(1))
	temp := sess.AddRow()

	count, err := sess.SubmitForApproval([]string{"id-1", temp.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.Len(t, store.submits, 1)
	assert.Equal(t, []string{"id-1"}, store.submits[0])

	for _, row := range sess.Rows() {
		assert.Equal(t, model.StatusInReview, row.Status)
	}
}

func TestSubmitForApproval_FailureLeavesStatuses(t *testing.T) {
	store := newFakeStore()
	store.failSubmit = errors.New("store down")
	sess := newTestSession(t, store, existingRows(2))

	count, err := sess.SubmitForApproval([]string{"id-1", "id-2"})
	require.Error(t, err)
	assert.Zero(t, count)

	for _, row := range sess.Rows() {
		assert.Equal(t, model.StatusDraft, row.Status)
	}
}
