package grid

import (
	"fmt"

	"github.com/mwhitfield/reqwell/internal/model"
)

// BulkSetField applies one field value across the selected rows via a single
// remote call. Temporary rows are excluded from the remote id list but still
// updated locally so the grid stays visually consistent. On remote failure
// local state is left untouched and the error status is surfaced.
func (s *Session) BulkSetField(ids []string, patch model.Patch) error {
	if len(ids) == 0 {
		return nil
	}
	if patch.IsZero() {
		return fmt.Errorf("bulk update requires a field value")
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
		if err := s.store.BulkUpdateRequirements(s.ctx, durable, patch); err != nil {
			s.status = SaveError
			s.lastErr = err
			return fmt.Errorf("failed to bulk update %d requirements: %w", len(durable), err)
		}
	}

	s.pushUndoLocked()
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}
	for i := range s.rows {
		if selected[s.rows[i].ID] {
			patch.Apply(&s.rows[i].Requirement)
		}
	}
	return nil
}

// SubmitForApproval moves the selected draft rows to in_review via one remote
// call. Rows whose status is not draft are filtered out first; the returned
// count is how many rows were submitted, zero meaning the action was a no-op.
func (s *Session) SubmitForApproval(ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var drafts []string
	var durable []string
	for _, id := range ids {
		idx := s.indexOf(id)
		if idx < 0 || s.rows[idx].Status != model.StatusDraft {
			continue
		}
		drafts = append(drafts, id)
		if !IsTempID(id) {
			durable = append(durable, id)
		}
	}
	if len(drafts) == 0 {
		return 0, nil
	}

	if len(durable) > 0 {
		if err := s.store.BulkSubmitForReview(s.ctx, s.projectID, durable, s.actorID); err != nil {
			s.status = SaveError
			s.lastErr = err
			return 0, fmt.Errorf("failed to submit %d requirements for review: %w", len(durable), err)
		}
	}

	s.pushUndoLocked()
	status := model.StatusInReview
	for _, id := range drafts {
		if idx := s.indexOf(id); idx >= 0 {
			s.rows[idx].Status = status
		}
	}
	return len(drafts), nil
}
