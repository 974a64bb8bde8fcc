package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/payflow-checkout/pkg/db/models"
	pkgredis "github.com/angelmondragon/payflow-checkout/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRedisSnapshots(t *testing.T, ttl time.Duration) (*RedisSnapshotStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	store, err := NewRedisSnapshotStore(pkgredis.NewFromRaw(raw), ttl)
	require.NoError(t, err)
	return store, mr
}

func TestRedisSnapshotStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	snapshots, mr := setupRedisSnapshots(t, time.Hour)

	_, err := snapshots.Load(ctx, "payflow_cart:s1")
	assert.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, snapshots.Save(ctx, "payflow_cart:s1", []byte(`[{"id":"A"}]`)))
	stored, err := mr.Get("pf:payflow_cart:s1")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"A"}]`, stored)
	assert.Equal(t, time.Hour, mr.TTL("pf:payflow_cart:s1"))

	payload, err := snapshots.Load(ctx, "payflow_cart:s1")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"A"}]`, string(payload))

	require.NoError(t, snapshots.Delete(ctx, "payflow_cart:s1"))
	assert.False(t, mr.Exists("pf:payflow_cart:s1"))
}

func TestStoreOverRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	snapshots, mr := setupRedisSnapshots(t, 0)

	store := Open(ctx, Options{Key: "payflow_cart:s2", Snapshots: snapshots})
	_, err := store.AddItem(ctx, product("A", "10.00"), 2)
	require.NoError(t, err)

	restored := Open(ctx, Options{Key: "payflow_cart:s2", Snapshots: snapshots})
	assert.Equal(t, 2, restored.ItemCount())

	restored.Clear(ctx)
	assert.False(t, mr.Exists("pf:payflow_cart:s2"))
}

func TestStoreOverRedisOutage(t *testing.T) {
	ctx := context.Background()
	snapshots, mr := setupRedisSnapshots(t, 0)
	mr.Close()

	store := Open(ctx, Options{Snapshots: snapshots})
	_, err := store.AddItem(ctx, product("A", "1"), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, store.ItemCount())
}

func setupSQLSnapshots(t *testing.T) *SQLSnapshotStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CartSnapshot{}))

	store, err := NewSQLSnapshotStore(db)
	require.NoError(t, err)
	return store
}

func TestSQLSnapshotStoreUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	snapshots := setupSQLSnapshots(t)

	_, err := snapshots.Load(ctx, "payflow_cart:s1")
	assert.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, snapshots.Save(ctx, "payflow_cart:s1", []byte(`[{"id":"A","quantity":1}]`)))
	require.NoError(t, snapshots.Save(ctx, "payflow_cart:s1", []byte(`[{"id":"A","quantity":4}]`)))

	payload, err := snapshots.Load(ctx, "payflow_cart:s1")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"A","quantity":4}]`, string(payload))

	var count int64
	require.NoError(t, snapshots.db.Model(&models.CartSnapshot{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, snapshots.Delete(ctx, "payflow_cart:s1"))
	_, err = snapshots.Load(ctx, "payflow_cart:s1")
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestStoreOverSQLRoundTrip(t *testing.T) {
	ctx := context.Background()
	snapshots := setupSQLSnapshots(t)

	store := Open(ctx, Options{Snapshots: snapshots})
	_, err := store.AddItem(ctx, product("A", "10.00"), 2)
	require.NoError(t, err)
	_, err = store.AddItem(ctx, product("B", "5.50"), 1)
	require.NoError(t, err)

	restored := Open(ctx, Options{Snapshots: snapshots})
	assert.True(t, restored.Total(nil).Equal(store.Total(nil)))
	assert.Equal(t, []string{"A", "B"}, []string{restored.Items()[0].ID, restored.Items()[1].ID})
}

func TestSnapshotStoreConstructorsRequireClients(t *testing.T) {
	_, err := NewRedisSnapshotStore(nil, 0)
	assert.Error(t, err)
	_, err = NewSQLSnapshotStore(nil)
	assert.Error(t, err)
}
