package local_fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) *LocalFS {
	t.Helper()
	fs, err := NewClient(&Config{BasePath: t.TempDir()})
	require.NoError(t, err)
	return fs
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()
	src := writeFile(t, t.TempDir(), "orders.dump", "dump-bytes")

	uri, err := fs.Upload(ctx, src, "backups/orders/orders_20260831020000.dump")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "local://"))

	// Download by URI and by relative path, both must work.
	for _, remote := range []string{uri, "backups/orders/orders_20260831020000.dump"} {
		dst := filepath.Join(t.TempDir(), "restored.dump")
		require.NoError(t, fs.Download(ctx, remote, dst))
		content, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "dump-bytes", string(content))
	}
}

func TestListWithInfoReturnsRelativeSlashPaths(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()
	src := writeFile(t, t.TempDir(), "a.sql", "x")

	_, err := fs.Upload(ctx, src, "backups/db1/a.sql")
	require.NoError(t, err)
	_, err = fs.Upload(ctx, src, "backups/db2/b.sql")
	require.NoError(t, err)

	entries, err := fs.ListWithInfo(ctx, "backups/db1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "backups/db1/a.sql", entries[0].Path)
	assert.Equal(t, int64(1), entries[0].Size)
	assert.False(t, entries[0].ModTime.IsZero())

	all, err := fs.List(ctx, "backups")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListMissingPrefixIsEmpty(t *testing.T) {
	fs := newTestFS(t)
	entries, err := fs.ListWithInfo(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDelete(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()
	src := writeFile(t, t.TempDir(), "a.sql", "x")

	uri, err := fs.Upload(ctx, src, "backups/db1/a.sql")
	require.NoError(t, err)

	require.NoError(t, fs.Delete(ctx, uri))
	require.Error(t, fs.Delete(ctx, uri), "deleting a missing object fails")

	entries, err := fs.List(ctx, "backups")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTestConnectionAndSpace(t *testing.T) {
	fs := newTestFS(t)
	ctx := context.Background()

	ok, detail := fs.TestConnection(ctx)
	assert.True(t, ok)
	assert.Empty(t, detail)

	space, err := fs.SpaceInfo(ctx)
	require.NoError(t, err)
	require.NotNil(t, space.TotalGB)
	assert.Greater(t, *space.TotalGB, 0.0)
}

func TestConfigFromMapDefaults(t *testing.T) {
	cfg := ConfigFromMap(map[string]any{})
	assert.Equal(t, "/var/backups", cfg.BasePath)

	cfg = ConfigFromMap(map[string]any{"base_path": "/data"})
	assert.Equal(t, "/data", cfg.BasePath)
}
