// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/mwhitfield/reqwell/internal/model"
)

// RequirementFilter defines filtering options for requirement queries.
type RequirementFilter struct {
	ProjectID string
	Status    model.Status
	Priority  model.Priority
	Limit     int
	Offset    int
}

// Store defines the contract for the persistence layer consumed by the import
// pipeline and the grid edit session.
type Store interface {
	// Bulk requirement operations
	BulkCreateRequirements(ctx context.Context, projectID string, records []model.Requirement) (*model.BulkCreateResult, error)
	BulkUpdateRequirements(ctx context.Context, ids []string, patch model.Patch) error
	BulkDeleteRequirements(ctx context.Context, ids []string, actorID string) error
	BulkSubmitForReview(ctx context.Context, projectID string, ids []string, actorID string) error

	// Single requirement operations
	CreateRequirement(ctx context.Context, record *model.Requirement) (*model.Requirement, error)
	UpdateRequirement(ctx context.Context, id string, patch model.Patch) error
	GetRequirement(ctx context.Context, id string) (*model.Requirement, error)
	GetRequirements(ctx context.Context, filter RequirementFilter) ([]model.Requirement, error)

	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, name, description string) (*model.Category, error)

	// Stakeholder area operations
	GetStakeholderAreas(ctx context.Context) ([]model.StakeholderArea, error)
	CreateStakeholderArea(ctx context.Context, name string) (*model.StakeholderArea, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
