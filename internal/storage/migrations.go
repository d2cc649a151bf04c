package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS requirements (
					id TEXT PRIMARY KEY,
					reference TEXT UNIQUE NOT NULL,
					project_id TEXT NOT NULL,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					priority TEXT NOT NULL DEFAULT 'should_have',
					status TEXT NOT NULL DEFAULT 'draft',
					category_id INTEGER,
					stakeholder_area_id INTEGER,
					source_type TEXT NOT NULL DEFAULT '',
					source_reference TEXT NOT NULL DEFAULT '',
					acceptance_criteria TEXT NOT NULL DEFAULT '',
					weighting REAL NOT NULL DEFAULT 0,
					source_row INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_requirements_project ON requirements(project_id)`,
				`CREATE INDEX idx_requirements_status ON requirements(status)`,
				`CREATE INDEX idx_requirements_category ON requirements(category_id)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					is_active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS stakeholder_areas (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					is_active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute %q: %w", query[:40], err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Seed default categories and stakeholder areas",
		Up: func(tx *sql.Tx) error {
			categories := []struct{ name, description string }{
				{"Functional", "Behavior the system must exhibit"},
				{"Non-Functional", "Quality attributes and constraints"},
				{"Security", "Access control, audit and data protection"},
				{"Reporting", "Exports, dashboards and summaries"},
				{"Integration", "Interfaces to external systems"},
			}
			for _, c := range categories {
				if _, err := tx.Exec(
					`INSERT OR IGNORE INTO categories (name, description) VALUES (?, ?)`,
					c.name, c.description,
				); err != nil {
					return fmt.Errorf("failed to seed category %s: %w", c.name, err)
				}
			}
			areas := []string{"Operations", "Finance", "Engineering", "Compliance"}
			for _, a := range areas {
				if _, err := tx.Exec(
					`INSERT OR IGNORE INTO stakeholder_areas (name) VALUES (?)`, a,
				); err != nil {
					return fmt.Errorf("failed to seed stakeholder area %s: %w", a, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Deletion audit log",
		Up: func(tx *sql.Tx) error {
			query := `CREATE TABLE IF NOT EXISTS deletion_log (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				requirement_id TEXT NOT NULL,
				reference TEXT NOT NULL,
				actor_id TEXT NOT NULL,
				deleted_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`
			if _, err := tx.Exec(query); err != nil {
				return fmt.Errorf("failed to create deletion_log: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies any pending schema migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
