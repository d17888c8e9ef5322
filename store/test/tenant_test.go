package teststore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqltalk/sqltalk/store"
)

func TestTenantCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, t)

	tenant := NewTenant(ctx, t, s)
	require.NotEmpty(t, tenant.UID)
	require.NotZero(t, tenant.ID)

	found, err := s.GetTenant(ctx, &store.FindTenant{UID: &tenant.UID})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "warehouse", found.Name)
	assert.Equal(t, "Asia/Jakarta", found.Timezone)
	assert.Equal(t, "monday", found.WeekStart)

	newName := "analytics"
	newTZ := "UTC"
	updated, err := s.UpdateTenant(ctx, &store.UpdateTenant{
		ID:       tenant.ID,
		Name:     &newName,
		Timezone: &newTZ,
	})
	require.NoError(t, err)
	assert.Equal(t, "analytics", updated.Name)
	assert.Equal(t, "UTC", updated.Timezone)
	assert.Equal(t, "monday", updated.WeekStart)

	require.NoError(t, s.DeleteTenant(ctx, &store.DeleteTenant{ID: tenant.ID}))

	found, err = s.GetTenant(ctx, &store.FindTenant{UID: &tenant.UID})
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestTenantDeleteCascadesTrainingItems(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, t)
	tenant := NewTenant(ctx, t, s)

	_, err := s.CreateTrainingItem(ctx, &store.TrainingItem{
		TenantID: tenant.ID,
		Kind:     store.TrainingKindDDL,
		Content:  "CREATE TABLE orders (id INTEGER)",
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTenant(ctx, &store.DeleteTenant{ID: tenant.ID}))

	items, err := s.ListTrainingItems(ctx, &store.FindTrainingItem{TenantID: &tenant.ID})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestTenantNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, t)

	err := s.DeleteTenant(ctx, &store.DeleteTenant{ID: 12345})
	assert.Error(t, err)
}
