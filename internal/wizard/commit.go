package wizard

import (
	"context"
	"fmt"

	"github.com/mwhitfield/reqwell/internal/common"
	"github.com/mwhitfield/reqwell/internal/model"
)

// DefaultBatchSize is the number of records sent per remote call.
const DefaultBatchSize = 25

// BulkCreator is the slice of the persistence contract the commit driver needs.
type BulkCreator interface {
	BulkCreateRequirements(ctx context.Context, projectID string, records []model.Requirement) (*model.BulkCreateResult, error)
}

// Progress reports live commit progress after each batch.
type Progress struct {
	Current int
	Total   int
}

// CommitResult aggregates the outcome of a batched commit.
type CommitResult struct {
	Errors  []model.BulkError
	Created int
	Total   int
}

// CommitOptions configures a batched commit.
type CommitOptions struct {
	OnProgress func(Progress)
	ProjectID  string
	BatchSize  int
}

// commitBatches submits records in consecutive chunks, one remote call at a
// time. Sequential submission preserves record order and bounds load on the
// store; progress moves monotonically after each chunk.
//
// A chunk-level failure aborts the remaining chunks and returns the partial
// result alongside the error; already-committed chunks are not rolled back.
func commitBatches(ctx context.Context, creator BulkCreator, records []model.Requirement, opts CommitOptions) (*CommitResult, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	result := &CommitResult{Total: len(records)}
	processed := 0

	for start := 0; start < len(records); start += batchSize {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("commit canceled after %d of %d records: %w", processed, result.Total, err)
		}

		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		created, err := creator.BulkCreateRequirements(ctx, opts.ProjectID, chunk)
		if err != nil {
			return result, fmt.Errorf("batch starting at record %d failed: %w", start+1, err)
		}

		result.Created += created.Created
		for _, bulkErr := range created.Errors {
			// Re-anchor per-batch indices to the full record set.
			result.Errors = append(result.Errors, model.BulkError{
				Index:   start + bulkErr.Index,
				Message: bulkErr.Message,
			})
		}

		processed += len(chunk)
		if processed > result.Total {
			processed = result.Total
		}
		if opts.OnProgress != nil {
			opts.OnProgress(Progress{Current: processed, Total: result.Total})
		}
	}

	common.LogInfo("Commit finished", common.Fields{
		"created": result.Created,
		"total":   result.Total,
		"errors":  len(result.Errors),
	})
	return result, nil
}

// CommitRecords submits records directly, outside a file-wizard session. The
// paste flow forwards its current records here.
func CommitRecords(ctx context.Context, creator BulkCreator, records []model.Requirement, opts CommitOptions) (*CommitResult, error) {
	if len(records) == 0 {
		return nil, common.ErrNoRecords
	}
	return commitBatches(ctx, creator, records, opts)
}

// Commit submits the validated records to the store. It requires the wizard to
// be in Validated with at least one record, passes through Committing, and
// lands in Complete on success.
//
// On a chunk failure the session stays in Committing with the partial result
// and error retained for display; cancel remains the only exit, which mirrors
// the fact that already-committed batches stand.
func (s *Session) Commit(ctx context.Context, creator BulkCreator, opts CommitOptions) (*CommitResult, error) {
	if s.step != StepValidated {
		return nil, fmt.Errorf("%w: cannot commit in step %s", common.ErrInvalidTransition, s.step)
	}
	if s.result == nil || len(s.result.Records) == 0 {
		return nil, common.ErrNoRecords
	}

	s.step = StepCommitting
	result, err := commitBatches(ctx, creator, s.result.Records, opts)
	s.commit = result
	s.commitErr = err
	if err != nil {
		return result, err
	}
	s.step = StepComplete
	return result, nil
}

// CommitOutcome returns the stored commit result and error, if any.
func (s *Session) CommitOutcome() (*CommitResult, error) {
	return s.commit, s.commitErr
}
