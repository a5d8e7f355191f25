package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/recipebook/internal/repository"
)

func newTestCache(t *testing.T, max int) (*Cache, *time.Time) {
	t.Helper()
	c := NewCache(max)
	t.Cleanup(c.Stop)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, 0)

	_, err := c.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrCacheMiss)

	value := []byte("alice")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'X'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "alice", string(got))

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, repository.ErrCacheMiss)
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, now := newTestCache(t, 0)

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Minute))
	require.NoError(t, c.Set(ctx, "forever", []byte("v"), 0))

	*now = now.Add(2 * time.Minute)

	_, err := c.Get(ctx, "short")
	require.ErrorIs(t, err, repository.ErrCacheMiss)
	_, err = c.Get(ctx, "forever")
	require.NoError(t, err)
}

func TestCache_Multi(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t, 0)

	require.NoError(t, c.SetMulti(ctx, map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
	}, time.Hour))

	got, err := c.GetMulti(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, got)
}

func TestCache_Bounded(t *testing.T) {
	ctx := context.Background()
	c, now := newTestCache(t, 2)

	require.NoError(t, c.Set(ctx, "old", []byte("1"), time.Second))
	require.NoError(t, c.Set(ctx, "keep", []byte("2"), 0))
	*now = now.Add(time.Minute)

	require.NoError(t, c.Set(ctx, "new", []byte("3"), 0))
	require.Equal(t, 2, c.Len())

	_, err := c.Get(ctx, "keep")
	require.NoError(t, err)
	_, err = c.Get(ctx, "new")
	require.NoError(t, err)

	// Overwriting an existing key never evicts.
	require.NoError(t, c.Set(ctx, "new", []byte("4"), 0))
	require.Equal(t, 2, c.Len())
}
