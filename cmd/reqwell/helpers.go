package main

import (
	"context"
	"fmt"

	"github.com/mwhitfield/reqwell/internal/config"
	"github.com/mwhitfield/reqwell/internal/normalize"
	"github.com/mwhitfield/reqwell/internal/service"
	"github.com/mwhitfield/reqwell/internal/storage"
)

// openStore opens the configured database and applies pending migrations.
func openStore(ctx context.Context, settings config.Settings) (service.Store, error) {
	store, err := storage.NewSQLiteStore(settings.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", settings.DatabasePath, err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// loadLookups fetches the category and stakeholder area collections used to
// resolve names during validation.
func loadLookups(ctx context.Context, store service.Store) (normalize.Lookups, error) {
	categories, err := store.GetCategories(ctx)
	if err != nil {
		return normalize.Lookups{}, fmt.Errorf("failed to load categories: %w", err)
	}
	areas, err := store.GetStakeholderAreas(ctx)
	if err != nil {
		return normalize.Lookups{}, fmt.Errorf("failed to load stakeholder areas: %w", err)
	}
	return normalize.Lookups{Categories: categories, StakeholderAreas: areas}, nil
}
