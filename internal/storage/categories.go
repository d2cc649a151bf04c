package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/mwhitfield/reqwell/internal/common"
	"github.com/mwhitfield/reqwell/internal/model"
)

// isUniqueViolation reports whether err is a SQLite unique-constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// GetCategories returns all active categories ordered by name.
func (s *SQLiteStore) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, is_active, created_at
		 FROM categories WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// GetCategoryByName fetches a category by exact name.
func (s *SQLiteStore) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	var c model.Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, is_active, created_at FROM categories WHERE name = ?`,
		name).Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category %s: %w", name, err)
	}
	return &c, nil
}

// CreateCategory inserts a new category and returns it.
func (s *SQLiteStore) CreateCategory(ctx context.Context, name, description string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, description) VALUES (?, ?)`, name, description)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("category %s: %w", name, common.ErrDuplicateEntry)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create category %s: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read category id: %w", err)
	}

	var c model.Category
	err = s.db.QueryRowContext(ctx,
		`SELECT id, name, description, is_active, created_at FROM categories WHERE id = ?`,
		id).Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load created category: %w", err)
	}
	return &c, nil
}

// GetStakeholderAreas returns all active stakeholder areas ordered by name.
func (s *SQLiteStore) GetStakeholderAreas(ctx context.Context) ([]model.StakeholderArea, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, is_active, created_at
		 FROM stakeholder_areas WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stakeholder areas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var areas []model.StakeholderArea
	for rows.Next() {
		var a model.StakeholderArea
		if err := rows.Scan(&a.ID, &a.Name, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stakeholder area: %w", err)
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stakeholder areas: %w", err)
	}
	return areas, nil
}

// CreateStakeholderArea inserts a new stakeholder area and returns it.
func (s *SQLiteStore) CreateStakeholderArea(ctx context.Context, name string) (*model.StakeholderArea, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO stakeholder_areas (name) VALUES (?)`, name)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("stakeholder area %s: %w", name, common.ErrDuplicateEntry)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create stakeholder area %s: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read stakeholder area id: %w", err)
	}

	var a model.StakeholderArea
	err = s.db.QueryRowContext(ctx,
		`SELECT id, name, is_active, created_at FROM stakeholder_areas WHERE id = ?`,
		id).Scan(&a.ID, &a.Name, &a.IsActive, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load created stakeholder area: %w", err)
	}
	return &a, nil
}
