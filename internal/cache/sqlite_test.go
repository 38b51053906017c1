package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPageStore(t *testing.T) *PageStore {
	t.Helper()
	s, err := OpenPageStore(filepath.Join(t.TempDir(), "pages.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestPageStore_SetGet(t *testing.T) {
	s := testPageStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "https://example.com/track/a/1", []byte("<html>a</html>"), time.Hour))

	body, err := s.Get(ctx, "https://example.com/track/a/1")
	require.NoError(t, err)
	assert.Equal(t, []byte("<html>a</html>"), body)

	body, err = s.Get(ctx, "https://example.com/track/b/2")
	require.NoError(t, err)
	assert.Nil(t, body, "missing url yields nil, not an error")
}

func TestPageStore_ExpiredNotReturned(t *testing.T) {
	s := testPageStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "https://example.com/track/a/1", []byte("stale"), -time.Hour))

	body, err := s.Get(ctx, "https://example.com/track/a/1")
	require.NoError(t, err)
	assert.Nil(t, body)
}

func TestPageStore_DeleteExpired(t *testing.T) {
	s := testPageStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "https://example.com/track/a/1", []byte("stale"), -time.Hour))
	require.NoError(t, s.Set(ctx, "https://example.com/track/b/2", []byte("fresh"), time.Hour))

	n, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	body, err := s.Get(ctx, "https://example.com/track/b/2")
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), body)
}
