package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: time.Minute})
	defer c.Close()

	c.Set(ctx, "a", 1)
	value, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, 1, value)

	_, ok = c.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: time.Minute})
	defer c.Close()

	c.SetWithTTL(ctx, "short", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, "short")
	assert.False(t, ok)
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := New(Config{})
	defer c.Close()

	c.SetWithTTL(ctx, "pinned", "v", 0)
	time.Sleep(2 * time.Millisecond)

	_, ok := c.Get(ctx, "pinned")
	assert.True(t, ok)
}

func TestCacheLRUEviction(t *testing.T) {
	ctx := context.Background()

	var evicted []string
	c := New(Config{
		DefaultTTL: time.Minute,
		MaxItems:   2,
		OnEviction: func(key string, _ any) { evicted = append(evicted, key) },
	})
	defer c.Close()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)

	// Touch "a" so "b" becomes least recently used.
	_, ok := c.Get(ctx, "a")
	require.True(t, ok)

	c.Set(ctx, "c", 3)

	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 2, c.Len())
}

func TestCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: time.Minute})
	defer c.Close()

	c.Set(ctx, "a", 1)
	c.Delete(ctx, "a")

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
}

func TestCacheOverwriteKeepsSize(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: time.Minute, MaxItems: 10})
	defer c.Close()

	for i := 0; i < 5; i++ {
		c.Set(ctx, "same", fmt.Sprintf("v%d", i))
	}

	value, ok := c.Get(ctx, "same")
	require.True(t, ok)
	assert.Equal(t, "v4", value)
	assert.Equal(t, 1, c.Len())
}
