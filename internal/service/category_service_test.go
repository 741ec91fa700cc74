package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func newCategoryServiceForTest() (*CategoryService, *fakeCategoryRepo) {
	repo := newFakeCategoryRepo()
	return NewCategoryService(repo, nil, zap.NewNop()), repo
}

func TestCategoryCreateAndGet(t *testing.T) {
	svc, _ := newCategoryServiceForTest()
	ctx := context.Background()

	created, err := svc.Create(ctx, "network", CategoryInput{
		Label:       "Network",
		Description: "Connectivity problems",
		SubIssues: map[string]domain.SubIssue{
			"vpn": {ID: "vpn", Label: "VPN"},
		},
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	got, err := svc.Get(ctx, "network")
	require.NoError(t, err)
	assert.Equal(t, "Network", got.Label)
	assert.Contains(t, got.SubIssues, "vpn")

	_, err = svc.Get(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, 404, statusOf(t, err))
}

func TestCategoryCreateDuplicateIsValidationFailure(t *testing.T) {
	svc, _ := newCategoryServiceForTest()
	ctx := context.Background()

	_, err := svc.Create(ctx, "network", CategoryInput{Label: "Network"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "network", CategoryInput{Label: "Network again"})
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
	assert.Contains(t, err.Error(), "already exists")
}

func TestCategoryCreateRequiresIDAndLabel(t *testing.T) {
	svc, _ := newCategoryServiceForTest()

	_, err := svc.Create(context.Background(), "", CategoryInput{Label: "x"})
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))

	_, err = svc.Create(context.Background(), "x", CategoryInput{})
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestCategoryUpdatePatchesFields(t *testing.T) {
	svc, _ := newCategoryServiceForTest()
	ctx := context.Background()

	_, err := svc.Create(ctx, "hardware", CategoryInput{Label: "Hardware", Description: "old"})
	require.NoError(t, err)

	newLabel := "Hardware & Peripherals"
	updated, err := svc.Update(ctx, "hardware", CategoryPatch{Label: &newLabel})
	require.NoError(t, err)
	assert.Equal(t, "Hardware & Peripherals", updated.Label)
	assert.Equal(t, "old", updated.Description)
}

func TestCategoryDeleteIsSoft(t *testing.T) {
	svc, repo := newCategoryServiceForTest()
	ctx := context.Background()

	_, err := svc.Create(ctx, "network", CategoryInput{Label: "Network"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "network"))

	// still fetchable, just inactive
	got, err := svc.Get(ctx, "network")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	err = svc.Delete(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, 404, statusOf(t, err))
}

func TestListActiveExcludesInactive(t *testing.T) {
	svc, _ := newCategoryServiceForTest()
	ctx := context.Background()

	_, err := svc.Create(ctx, "network", CategoryInput{Label: "Network"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "legacy", CategoryInput{Label: "Legacy"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "legacy"))

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "network", active[0].CategoryID)
}

func TestBulkUpsertCreatesAndUpdates(t *testing.T) {
	svc, _ := newCategoryServiceForTest()
	ctx := context.Background()

	_, err := svc.Create(ctx, "network", CategoryInput{Label: "Network", Description: "old"})
	require.NoError(t, err)

	results, err := svc.BulkUpsert(ctx, map[string]CategoryInput{
		"network":  {Label: "Network", Description: "refreshed"},
		"hardware": {Label: "Hardware"},
		"access":   {Label: "Access & Accounts"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// ids are processed sorted
	assert.Equal(t, UpsertResult{CategoryID: "access", Action: "created"}, results[0])
	assert.Equal(t, UpsertResult{CategoryID: "hardware", Action: "created"}, results[1])
	assert.Equal(t, UpsertResult{CategoryID: "network", Action: "updated"}, results[2])

	refreshed, err := svc.Get(ctx, "network")
	require.NoError(t, err)
	assert.Equal(t, "refreshed", refreshed.Description)
}

func TestBulkUpsertRejectsEmptyPayload(t *testing.T) {
	svc, _ := newCategoryServiceForTest()

	_, err := svc.BulkUpsert(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
}
