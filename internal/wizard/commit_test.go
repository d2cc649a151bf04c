package wizard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/reqwell/internal/common"
	"github.com/mwhitfield/reqwell/internal/decode"
	"github.com/mwhitfield/reqwell/internal/model"
	"github.com/mwhitfield/reqwell/internal/normalize"
)

// fakeCreator records every batch it receives and can fail or reject records
// on demand.
type fakeCreator struct {
	cancelCtx   context.CancelFunc
	batches     [][]model.Requirement
	projectIDs  []string
	failOnBatch int // 1-based batch number to fail, 0 for never
	rejectIndex int // per-batch record index to reject, -1 for none
	cancelAfter int // cancel the supplied context after this many batches
}

func newFakeCreator() *fakeCreator {
	return &fakeCreator{rejectIndex: -1}
}

func (f *fakeCreator) BulkCreateRequirements(_ context.Context, projectID string, records []model.Requirement) (*model.BulkCreateResult, error) {
	f.batches = append(f.batches, records)
	f.projectIDs = append(f.projectIDs, projectID)

	if f.failOnBatch > 0 && len(f.batches) == f.failOnBatch {
		return nil, errors.New("store unavailable")
	}
	if f.cancelAfter > 0 && len(f.batches) == f.cancelAfter && f.cancelCtx != nil {
		f.cancelCtx()
	}

	result := &model.BulkCreateResult{Created: len(records)}
	if f.rejectIndex >= 0 && f.rejectIndex < len(records) {
		result.Created--
		result.Errors = append(result.Errors, model.BulkError{
			Index:   f.rejectIndex,
			Message: "duplicate reference",
		})
	}
	return result, nil
}

func makeRecords(n int) []model.Requirement {
	records := make([]model.Requirement, n)
	for i := range records {
		records[i] = model.Requirement{Title: fmt.Sprintf("Requirement %d", i+1)}
	}
	return records
}

func TestCommitRecords_Batching(t *testing.T) {
	tests := []struct {
		name        string
		records     int
		batchSize   int
		wantBatches int
		wantLast    int
	}{
		{name: "exact multiple", records: 50, batchSize: 25, wantBatches: 2, wantLast: 25},
		{name: "remainder batch", records: 60, batchSize: 25, wantBatches: 3, wantLast: 10},
		{name: "fewer than one batch", records: 7, batchSize: 25, wantBatches: 1, wantLast: 7},
		{name: "zero batch size uses default", records: 26, batchSize: 0, wantBatches: 2, wantLast: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := newFakeCreator()
			var progress []Progress

			result, err := CommitRecords(context.Background(), creator, makeRecords(tt.records), CommitOptions{
				ProjectID: "proj-1",
				BatchSize: tt.batchSize,
				OnProgress: func(p Progress) {
					progress = append(progress, p)
				},
			})
			require.NoError(t, err)

			assert.Equal(t, tt.records, result.Created)
			assert.Equal(t, tt.records, result.Total)
			require.Len(t, creator.batches, tt.wantBatches)
			assert.Len(t, creator.batches[tt.wantBatches-1], tt.wantLast)

			// Progress is monotonic and ends at the total.
			require.Len(t, progress, tt.wantBatches)
			for i := 1; i < len(progress); i++ {
				assert.Greater(t, progress[i].Current, progress[i-1].Current)
			}
			assert.Equal(t, tt.records, progress[len(progress)-1].Current)
		})
	}
}

func TestCommitRecords_PerRecordErrorsReanchored(t *testing.T) {
	creator := newFakeCreator()
	creator.rejectIndex = 3 // fourth record of every batch

	result, err := CommitRecords(context.Background(), creator, makeRecords(50), CommitOptions{BatchSize: 25})
	require.NoError(t, err)

	assert.Equal(t, 48, result.Created)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 3, result.Errors[0].Index)
	assert.Equal(t, 28, result.Errors[1].Index)
}

func TestCommitRecords_BatchFailureReturnsPartialResult(t *testing.T) {
	creator := newFakeCreator()
	creator.failOnBatch = 2

	result, err := CommitRecords(context.Background(), creator, makeRecords(60), CommitOptions{BatchSize: 25})
	require.Error(t, err)
	require.NotNil(t, result)

	// The first batch committed and stays committed.
	assert.Equal(t, 25, result.Created)
	assert.Len(t, creator.batches, 2, "no chunks after the failing one")
}

func TestCommitRecords_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	creator := newFakeCreator()
	creator.cancelAfter = 1
	creator.cancelCtx = cancel

	result, err := CommitRecords(ctx, creator, makeRecords(60), CommitOptions{BatchSize: 25})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 25, result.Created)
	assert.Len(t, creator.batches, 1)
}

func TestCommitRecords_Empty(t *testing.T) {
	_, err := CommitRecords(context.Background(), newFakeCreator(), nil, CommitOptions{})
	assert.ErrorIs(t, err, common.ErrNoRecords)
}

func validatedSession(t *testing.T, dataRows int) *Session {
	t.Helper()
	rows := [][]string{{"Title"}}
	for i := 0; i < dataRows; i++ {
		rows = append(rows, []string{fmt.Sprintf("Requirement %d", i+1)})
	}
	sess := NewSession(normalize.Lookups{})
	require.NoError(t, sess.LoadSheets([]decode.Sheet{{Name: "Sheet1", Rows: rows}}))
	require.NoError(t, sess.Validate())
	return sess
}

func TestSessionCommit_Success(t *testing.T) {
	sess := validatedSession(t, 30)
	creator := newFakeCreator()

	result, err := sess.Commit(context.Background(), creator, CommitOptions{ProjectID: "proj-1"})
	require.NoError(t, err)
	assert.Equal(t, StepComplete, sess.Step())
	assert.Equal(t, 30, result.Created)
	assert.Len(t, creator.batches, 2)
	assert.Equal(t, []string{"proj-1", "proj-1"}, creator.projectIDs)

	stored, storedErr := sess.CommitOutcome()
	assert.Equal(t, result, stored)
	assert.NoError(t, storedErr)
}

func TestSessionCommit_FailureStaysInCommitting(t *testing.T) {
	sess := validatedSession(t, 30)
	creator := newFakeCreator()
	creator.failOnBatch = 2

	result, err := sess.Commit(context.Background(), creator, CommitOptions{})
	require.Error(t, err)
	assert.Equal(t, StepCommitting, sess.Step())
	assert.Equal(t, 25, result.Created)

	stored, storedErr := sess.CommitOutcome()
	assert.Equal(t, result, stored)
	assert.Error(t, storedErr)

	// No forward or backward transition is available after a failed commit.
	assert.ErrorIs(t, sess.Back(), common.ErrInvalidTransition)
	_, err = sess.Commit(context.Background(), creator, CommitOptions{})
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
}

func TestSessionCommit_RequiresValidatedStep(t *testing.T) {
	sess := NewSession(normalize.Lookups{})
	_, err := sess.Commit(context.Background(), newFakeCreator(), CommitOptions{})
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
}

func TestSessionCommit_RequiresRecords(t *testing.T) {
	sess := NewSession(normalize.Lookups{})
	require.NoError(t, sess.LoadSheets([]decode.Sheet{{Name: "Sheet1", Rows: [][]string{
		{"Title"},
		{""},
	}}}))
	require.NoError(t, sess.Validate())

	_, err := sess.Commit(context.Background(), newFakeCreator(), CommitOptions{})
	assert.ErrorIs(t, err, common.ErrNoRecords)
}
