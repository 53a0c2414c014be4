package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/repository"
	"github.com/shelfwise/shelfwise-backend/pkg/errors"
	"github.com/shelfwise/shelfwise-backend/pkg/logger"
	"github.com/shelfwise/shelfwise-backend/pkg/testutil"
)

func TestMemoryProductStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryProductStore(nil)

	p := testutil.NewProduct("Milk", "4002", "L", "6")
	require.NoError(t, store.Upsert(ctx, p))

	got, err := store.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Milk", got.Name)

	// stored copy must not alias the caller's value
	p.Name = "changed"
	got, err = store.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Milk", got.Name)

	require.NoError(t, store.Delete(ctx, p.ID))
	_, err = store.GetByID(ctx, p.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestMemoryProductStoreListSortedByName(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryProductStore(nil)
	require.NoError(t, store.Upsert(ctx, testutil.NewProduct("milk", "1", "L", "1")))
	require.NoError(t, store.Upsert(ctx, testutil.NewProduct("Butter", "2", "KG", "1")))
	require.NoError(t, store.Upsert(ctx, testutil.NewProduct("apples", "3", "KG", "1")))

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "apples", got[0].Name)
	assert.Equal(t, "Butter", got[1].Name)
	assert.Equal(t, "milk", got[2].Name)
}

func TestMemoryLogStoreRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	p := testutil.NewProduct("Flour", "4001", "KG", "10")

	store := repository.NewMemoryLogStore(nil)
	require.NoError(t, store.Append(ctx, testutil.NewStockTakeLog(p, "1", 3, now)))
	require.NoError(t, store.Append(ctx, testutil.NewStockTakeLog(p, "2", 1, now)))
	require.NoError(t, store.Append(ctx, testutil.NewStockTakeLog(p, "3", 2, now)))

	got, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Date.After(got[1].Date))

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLocalStoresDropWrites(t *testing.T) {
	ctx := context.Background()
	log := logger.New("test", "test")
	seed := testutil.NewProduct("Flour", "4001", "KG", "10")

	store := repository.NewLocalProductStore(nil, log)
	require.NoError(t, store.Upsert(ctx, seed))
	_, err := store.GetByID(ctx, seed.ID)
	assert.True(t, errors.IsNotFound(err), "dropped write must not become visible")

	logs := repository.NewLocalLogStore(nil, log)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, logs.Append(ctx, testutil.NewStockTakeLog(seed, "1", 0, now)))
	all, err := logs.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
