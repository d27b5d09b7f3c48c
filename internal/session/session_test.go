package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runStoreTests(t *testing.T, s Store, expire func(d time.Duration)) {
	t.Helper()
	ctx := context.Background()

	t.Run("TakeOnce", func(t *testing.T) {
		st := State{OAuthState: "state-1", CreatedAt: time.Now().UTC().Truncate(time.Second)}
		require.NoError(t, s.Put(ctx, "sess-1", st, time.Minute))

		got, err := s.Take(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, "state-1", got.OAuthState)
		assert.True(t, st.CreatedAt.Equal(got.CreatedAt))

		_, err = s.Take(ctx, "sess-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := s.Take(ctx, "never-stored")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Expires", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "sess-2", State{OAuthState: "s"}, 2*time.Second))
		expire(3 * time.Second)

		_, err := s.Take(ctx, "sess-2")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	runStoreTests(t, s, func(d time.Duration) { now = now.Add(d) })
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := OpenRedisStore(context.Background(), RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer s.Close()

	runStoreTests(t, s, mr.FastForward)

	require.NoError(t, s.Ping(context.Background()))
	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}

func TestOpenRedisStore_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := OpenRedisStore(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestBadgerStore(t *testing.T) {
	s, err := OpenBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	// Badger TTLs have one second resolution and cannot be fast-forwarded.
	runStoreTests(t, s, func(d time.Duration) { time.Sleep(d) })
}
