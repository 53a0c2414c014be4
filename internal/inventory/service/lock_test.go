package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/lock"
	"github.com/shelfwise/shelfwise-backend/pkg/errors"
)

func TestAcquireLockPersistsHolder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	p, _, err := env.svc.RecordDelivery(ctx, delivery("Flour", "4001", "KG", "10"))
	require.NoError(t, err)

	locked, err := env.svc.AcquireLock(ctx, p.ID, "user_001")
	require.NoError(t, err)
	assert.Equal(t, "user_001", locked.LockedBy)

	stored, err := env.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "user_001", stored.LockedBy)
	require.NotNil(t, stored.LockTimestamp)

	st, err := env.svc.LockStatus(ctx, p.ID, "user_002")
	require.NoError(t, err)
	assert.Equal(t, lock.HeldByOther, st.State)
	assert.Equal(t, "user_001", st.Holder)
}

func TestAcquireLockConflictAndExpiry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	p, _, err := env.svc.RecordDelivery(ctx, delivery("Flour", "4001", "KG", "10"))
	require.NoError(t, err)

	_, err = env.svc.AcquireLock(ctx, p.ID, "user_001")
	require.NoError(t, err)

	env.svc.now = func() time.Time { return testClock.Add(2 * time.Minute) }
	_, err = env.svc.AcquireLock(ctx, p.ID, "user_002")
	require.Error(t, err)
	assert.True(t, errors.IsLocked(err))

	env.svc.now = func() time.Time { return testClock.Add(6 * time.Minute) }
	locked, err := env.svc.AcquireLock(ctx, p.ID, "user_002")
	require.NoError(t, err)
	assert.Equal(t, "user_002", locked.LockedBy)
}

func TestForceUnlockTakesOver(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	p, _, err := env.svc.RecordDelivery(ctx, delivery("Flour", "4001", "KG", "10"))
	require.NoError(t, err)

	_, err = env.svc.AcquireLock(ctx, p.ID, "user_001")
	require.NoError(t, err)

	taken, err := env.svc.ForceUnlock(ctx, p.ID, "user_002")
	require.NoError(t, err)
	assert.Equal(t, "user_002", taken.LockedBy)
}

func TestReleaseLock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	p, _, err := env.svc.RecordDelivery(ctx, delivery("Flour", "4001", "KG", "10"))
	require.NoError(t, err)

	_, err = env.svc.AcquireLock(ctx, p.ID, "user_001")
	require.NoError(t, err)
	require.NoError(t, env.svc.ReleaseLock(ctx, p.ID, "user_001"))

	stored, err := env.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.LockedBy)

	// releasing an unlocked product is a no-op
	require.NoError(t, env.svc.ReleaseLock(ctx, p.ID, "user_001"))

	// another session's live lock is not releasable
	_, err = env.svc.AcquireLock(ctx, p.ID, "user_002")
	require.NoError(t, err)
	require.NoError(t, env.svc.ReleaseLock(ctx, p.ID, "user_001"))

	stored, err = env.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "user_002", stored.LockedBy)
}
