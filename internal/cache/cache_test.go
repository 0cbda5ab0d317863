package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestLRUGetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewLRU[item](4, time.Minute)

	_, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "a", item{ID: 1, Name: "Coffee"}))
	got, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, item{ID: 1, Name: "Coffee"}, got)

	require.NoError(t, c.Set(ctx, "a", item{ID: 1, Name: "Tea"}))
	got, _, _ = c.Get(ctx, "a")
	assert.Equal(t, "Tea", got.Name)
	assert.Equal(t, 1, c.Size())

	require.NoError(t, c.Delete(ctx, "a"))
	_, ok, _ = c.Get(ctx, "a")
	assert.False(t, ok)
	assert.NoError(t, c.Delete(ctx, "missing"))
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewLRU[int](2, time.Minute)

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Get(ctx, "a") // a is now most recent
	c.Set(ctx, "c", 3)

	_, okA, _ := c.Get(ctx, "a")
	_, okB, _ := c.Get(ctx, "b")
	_, okC, _ := c.Get(ctx, "c")
	assert.True(t, okA)
	assert.False(t, okB, "b should have been evicted")
	assert.True(t, okC)
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU[int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)

	now = now.Add(30 * time.Second)
	c.Set(ctx, "c", 3)

	now = now.Add(45 * time.Second)
	_, ok, _ := c.Get(ctx, "a")
	assert.False(t, ok, "a expired")

	assert.Equal(t, 1, c.CleanExpired(), "b is the only other expired entry")
	assert.Equal(t, 1, c.Size())

	_, ok, _ = c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	ctx := context.Background()
	c := NewLRU[int](10, time.Nanosecond)
	c.Set(ctx, "a", 1)
	time.Sleep(time.Millisecond)

	cleaned := make(chan int, 1)
	m := NewManager()
	m.Register(c)
	m.StartCleanup(5*time.Millisecond, func(n int) {
		select {
		case cleaned <- n:
		default:
		}
	})
	defer m.Stop()

	select {
	case n := <-cleaned:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup did not run")
	}
	assert.Zero(t, c.Size())
}

func TestNopNeverStores(t *testing.T) {
	ctx := context.Background()
	var c Cache[int] = Nop[int]{}

	require.NoError(t, c.Set(ctx, "a", 1))
	_, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Delete(ctx, "a"))
}

func TestRedisUnreachable(t *testing.T) {
	ctx := context.Background()

	_, err := NewRedisClient(ctx, "127.0.0.1:1", "", 0)
	assert.Error(t, err)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer client.Close()
	c := NewRedis[item](client, "test:", time.Minute)

	_, ok, err := c.Get(ctx, "a")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Set(ctx, "a", item{ID: 1}))
	assert.Error(t, c.Delete(ctx, "a"))
}

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()

	client, err := NewRedisClient(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer client.Close()

	c := NewRedis[item](client, "budgetwise:test:", time.Minute)
	require.NoError(t, c.Set(ctx, "1", item{ID: 1, Name: "Coffee"}))

	got, ok, err := c.Get(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, item{ID: 1, Name: "Coffee"}, got)

	require.NoError(t, c.Delete(ctx, "1"))
	_, ok, err = c.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)
}
