package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mwhitfield/reqwell/internal/common"
	"github.com/mwhitfield/reqwell/internal/model"
	"github.com/mwhitfield/reqwell/internal/service"
)

const requirementColumns = `id, reference, project_id, title, description, priority, status,
	category_id, stakeholder_area_id, source_type, source_reference,
	acceptance_criteria, weighting, source_row, created_at, updated_at`

// BulkCreateRequirements inserts records in one transaction, assigning ids and
// generated references. Individual record failures are collected rather than
// aborting the whole batch.
func (s *SQLiteStore) BulkCreateRequirements(ctx context.Context, projectID string, records []model.Requirement) (*model.BulkCreateResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(projectID, "projectID"); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &model.BulkCreateResult{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	next, err := nextReferenceNumber(ctx, tx)
	if err != nil {
		return nil, err
	}

	result := &model.BulkCreateResult{}
	for i := range records {
		rec := records[i]
		if vErr := validateRequirement(&rec); vErr != nil {
			result.Errors = append(result.Errors, model.BulkError{Index: i, Message: vErr.Error()})
			continue
		}
		rec.ID = uuid.NewString()
		rec.ProjectID = projectID
		rec.Reference = formatReference(next)

		if insErr := insertRequirement(ctx, tx, &rec); insErr != nil {
			result.Errors = append(result.Errors, model.BulkError{Index: i, Message: insErr.Error()})
			continue
		}
		next++
		result.Created++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bulk create: %w", err)
	}
	return result, nil
}

// CreateRequirement inserts a single requirement, assigning an id and a
// generated reference, and returns the stored record.
func (s *SQLiteStore) CreateRequirement(ctx context.Context, record *model.Requirement) (*model.Requirement, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateRequirement(record); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	next, err := nextReferenceNumber(ctx, tx)
	if err != nil {
		return nil, err
	}

	created := *record
	if created.ID == "" || strings.HasPrefix(created.ID, "temp-") {
		created.ID = uuid.NewString()
	}
	created.Reference = formatReference(next)
	if created.Priority == "" {
		created.Priority = model.PriorityShouldHave
	}
	if created.Status == "" {
		created.Status = model.StatusDraft
	}

	if err := insertRequirement(ctx, tx, &created); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit create: %w", err)
	}
	return s.GetRequirement(ctx, created.ID)
}

// UpdateRequirement applies a partial update to one requirement.
func (s *SQLiteStore) UpdateRequirement(ctx context.Context, id string, patch model.Patch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if patch.IsZero() {
		return ErrEmptyPatch
	}

	set, args := patchClause(patch)
	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE requirements SET %s, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, set),
		args...)
	if err != nil {
		return fmt.Errorf("failed to update requirement %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("requirement %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// BulkUpdateRequirements applies one partial update to every given id.
func (s *SQLiteStore) BulkUpdateRequirements(ctx context.Context, ids []string, patch model.Patch) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateIDs(ids); err != nil {
		return err
	}
	if patch.IsZero() {
		return ErrEmptyPatch
	}

	set, args := patchClause(patch)
	for _, id := range ids {
		args = append(args, id)
	}
	query := fmt.Sprintf(
		`UPDATE requirements SET %s, updated_at = CURRENT_TIMESTAMP WHERE id IN (%s)`,
		set, placeholders(len(ids)))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to bulk update %d requirements: %w", len(ids), err)
	}
	return nil
}

// BulkDeleteRequirements deletes the given requirements and records the
// deletion in the audit log attributed to actorID.
func (s *SQLiteStore) BulkDeleteRequirements(ctx context.Context, ids []string, actorID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateIDs(ids); err != nil {
		return err
	}
	if err := validateString(actorID, "actorID"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	logQuery := fmt.Sprintf(
		`INSERT INTO deletion_log (requirement_id, reference, actor_id)
		 SELECT id, reference, ? FROM requirements WHERE id IN (%s)`,
		placeholders(len(ids)))
	args := make([]any, 0, len(ids)+1)
	args = append(args, actorID)
	for _, id := range ids {
		args = append(args, id)
	}
	if _, err := tx.ExecContext(ctx, logQuery, args...); err != nil {
		return fmt.Errorf("failed to record deletions: %w", err)
	}

	delQuery := fmt.Sprintf(`DELETE FROM requirements WHERE id IN (%s)`, placeholders(len(ids)))
	delArgs := make([]any, 0, len(ids))
	for _, id := range ids {
		delArgs = append(delArgs, id)
	}
	if _, err := tx.ExecContext(ctx, delQuery, delArgs...); err != nil {
		return fmt.Errorf("failed to delete requirements: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// BulkSubmitForReview moves the given requirements from draft to in_review.
// Rows not in draft are left untouched.
func (s *SQLiteStore) BulkSubmitForReview(ctx context.Context, projectID string, ids []string, actorID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(projectID, "projectID"); err != nil {
		return err
	}
	if err := validateIDs(ids); err != nil {
		return err
	}
	if err := validateString(actorID, "actorID"); err != nil {
		return err
	}

	query := fmt.Sprintf(
		`UPDATE requirements SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE project_id = ? AND status = ? AND id IN (%s)`,
		placeholders(len(ids)))
	args := make([]any, 0, len(ids)+3)
	args = append(args, string(model.StatusInReview), projectID, string(model.StatusDraft))
	for _, id := range ids {
		args = append(args, id)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to submit requirements for review: %w", err)
	}
	return nil
}

// GetRequirement fetches a single requirement by id.
func (s *SQLiteStore) GetRequirement(ctx context.Context, id string) (*model.Requirement, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM requirements
		LEFT JOIN categories c ON c.id = requirements.category_id
		LEFT JOIN stakeholder_areas a ON a.id = requirements.stakeholder_area_id
		WHERE requirements.id = ?`, selectColumns())
	row := s.db.QueryRowContext(ctx, query, id)
	rec, err := scanRequirement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("requirement %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get requirement %s: %w", id, err)
	}
	return rec, nil
}

// GetRequirements fetches requirements matching the filter, newest first.
func (s *SQLiteStore) GetRequirements(ctx context.Context, filter service.RequirementFilter) ([]model.Requirement, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var conds []string
	var args []any
	if filter.ProjectID != "" {
		conds = append(conds, "requirements.project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.Status != "" {
		conds = append(conds, "requirements.status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		conds = append(conds, "requirements.priority = ?")
		args = append(args, string(filter.Priority))
	}

	query := fmt.Sprintf(`SELECT %s FROM requirements
		LEFT JOIN categories c ON c.id = requirements.category_id
		LEFT JOIN stakeholder_areas a ON a.id = requirements.stakeholder_area_id`, selectColumns())
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY requirements.reference"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requirements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Requirement
	for rows.Next() {
		rec, scanErr := scanRequirement(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan requirement: %w", scanErr)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate requirements: %w", err)
	}
	return out, nil
}

func selectColumns() string {
	return `requirements.id, requirements.reference, requirements.project_id,
		requirements.title, requirements.description, requirements.priority,
		requirements.status, requirements.category_id, requirements.stakeholder_area_id,
		requirements.source_type, requirements.source_reference,
		requirements.acceptance_criteria, requirements.weighting,
		requirements.source_row, requirements.created_at, requirements.updated_at,
		COALESCE(c.name, ''), COALESCE(a.name, '')`
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRequirement(row scannable) (*model.Requirement, error) {
	var rec model.Requirement
	var categoryID, areaID sql.NullInt64
	if err := row.Scan(
		&rec.ID, &rec.Reference, &rec.ProjectID, &rec.Title, &rec.Description,
		&rec.Priority, &rec.Status, &categoryID, &areaID, &rec.SourceType,
		&rec.SourceReference, &rec.AcceptanceCriteria, &rec.Weighting,
		&rec.SourceRow, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.CategoryName, &rec.StakeholderAreaName,
	); err != nil {
		return nil, err
	}
	rec.CategoryID = int(categoryID.Int64)
	rec.StakeholderAreaID = int(areaID.Int64)
	return &rec, nil
}

func insertRequirement(ctx context.Context, tx *sql.Tx, rec *model.Requirement) error {
	query := fmt.Sprintf(`INSERT INTO requirements (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		requirementColumns)
	_, err := tx.ExecContext(ctx, query,
		rec.ID, rec.Reference, rec.ProjectID, rec.Title, rec.Description,
		string(rec.Priority), string(rec.Status),
		nullableID(rec.CategoryID), nullableID(rec.StakeholderAreaID),
		rec.SourceType, rec.SourceReference, rec.AcceptanceCriteria,
		rec.Weighting, rec.SourceRow)
	if err != nil {
		return fmt.Errorf("failed to insert requirement %q: %w", rec.Title, err)
	}
	return nil
}

func nullableID(id int) any {
	if id == 0 {
		return nil
	}
	return id
}

// nextReferenceNumber returns the next free numeric suffix for a generated
// reference, scoped to the whole database.
func nextReferenceNumber(ctx context.Context, tx *sql.Tx) (int, error) {
	var maxRef sql.NullInt64
	err := tx.QueryRowContext(ctx,
		`SELECT MAX(CAST(SUBSTR(reference, 5) AS INTEGER)) FROM requirements WHERE reference LIKE 'REQ-%'`,
	).Scan(&maxRef)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next reference: %w", err)
	}
	return int(maxRef.Int64) + 1, nil
}

func formatReference(n int) string {
	return fmt.Sprintf("REQ-%04d", n)
}

// patchClause renders a Patch as a SET fragment plus its arguments.
func patchClause(patch model.Patch) (string, []any) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Priority != nil {
		add("priority", string(*patch.Priority))
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.CategoryID != nil {
		add("category_id", nullableID(*patch.CategoryID))
	}
	if patch.StakeholderAreaID != nil {
		add("stakeholder_area_id", nullableID(*patch.StakeholderAreaID))
	}
	if patch.SourceType != nil {
		add("source_type", *patch.SourceType)
	}
	if patch.SourceReference != nil {
		add("source_reference", *patch.SourceReference)
	}
	if patch.AcceptanceCriteria != nil {
		add("acceptance_criteria", *patch.AcceptanceCriteria)
	}
	if patch.Weighting != nil {
		add("weighting", *patch.Weighting)
	}
	return strings.Join(sets, ", "), args
}
