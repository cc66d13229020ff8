package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queueflow/queue-service/internal/domain"
	apperrors "github.com/queueflow/queue-service/pkg/util"
)

func TestCreateCategory_TrimsAndDefaultsActive(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryRepo())

	category, err := svc.CreateCategory(context.Background(), "  Billing  ", 15)
	require.NoError(t, err)
	assert.Equal(t, "Billing", category.Name)
	assert.True(t, category.IsActive)
	assert.Equal(t, 15, category.EstimatedWaitMinutes)
}

func TestCreateCategory_EmptyNameRejected(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryRepo())

	_, err := svc.CreateCategory(context.Background(), "   ", 0)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
}

func TestCreateCategory_DuplicateNameRejected(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryRepo(
		&domain.Category{ID: "cat-1", Name: "Billing", IsActive: true},
	))

	_, err := svc.CreateCategory(context.Background(), "Billing", 0)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
}

func TestUpdateCategory_RenameToTakenNameRejected(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryRepo(
		&domain.Category{ID: "cat-1", Name: "Billing", IsActive: true},
		&domain.Category{ID: "cat-2", Name: "Support", IsActive: true},
	))

	_, err := svc.UpdateCategory(context.Background(), "cat-2", "Billing", true, 0)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
}

func TestUpdateCategory_Deactivate(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryRepo(
		&domain.Category{ID: "cat-1", Name: "Billing", IsActive: true},
	))

	category, err := svc.UpdateCategory(context.Background(), "cat-1", "", false, 20)
	require.NoError(t, err)
	assert.Equal(t, "Billing", category.Name)
	assert.False(t, category.IsActive)
	assert.Equal(t, 20, category.EstimatedWaitMinutes)
}

func TestListCategories_FiltersInactive(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryRepo(
		&domain.Category{ID: "cat-1", Name: "Billing", IsActive: true},
		&domain.Category{ID: "cat-2", Name: "Closed", IsActive: false},
	))

	active, err := svc.ListCategories(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Billing", active[0].Name)

	all, err := svc.ListCategories(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
