package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/reqwell/internal/common"
)

func TestGetCategories_SeededAndSorted(t *testing.T) {
	store := setupStore(t)

	categories, err := store.GetCategories(context.Background())
	require.NoError(t, err)

	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"Functional", "Integration", "Non-Functional", "Reporting", "Security"}, names)
}

func TestCreateCategory(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	created, err := store.CreateCategory(ctx, "Usability", "Accessibility and ease of use")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.True(t, created.IsActive)

	got, err := store.GetCategoryByName(ctx, "Usability")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Accessibility and ease of use", got.Description)

	// Names are unique.
	_, err = store.CreateCategory(ctx, "Usability", "")
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestGetCategoryByName_NotFound(t *testing.T) {
	store := setupStore(t)
	_, err := store.GetCategoryByName(context.Background(), "Nonexistent")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStakeholderAreas(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	areas, err := store.GetStakeholderAreas(ctx)
	require.NoError(t, err)

	names := make([]string, len(areas))
	for i, a := range areas {
		names[i] = a.Name
	}
	assert.Equal(t, []string{"Compliance", "Engineering", "Finance", "Operations"}, names)

	created, err := store.CreateStakeholderArea(ctx, "Legal")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	_, err = store.CreateStakeholderArea(ctx, "Legal")
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	after, err := store.GetStakeholderAreas(ctx)
	require.NoError(t, err)
	assert.Len(t, after, 5)
}

func TestValidationHelpers(t *testing.T) {
	assert.ErrorIs(t, validateString("  ", "name"), ErrEmptyString)
	assert.NoError(t, validateString("ok", "name"))

	assert.ErrorIs(t, validateIDs(nil), ErrNilParameter)
	assert.ErrorIs(t, validateIDs([]string{}), ErrEmptySlice)
	assert.ErrorIs(t, validateIDs([]string{"a", ""}), ErrEmptyString)
	assert.NoError(t, validateIDs([]string{"a", "b"}))

	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
