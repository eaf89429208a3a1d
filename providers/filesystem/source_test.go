package filesystem

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ddionrails/providers"
)

func TestSource(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "datasets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "periods.csv"), []byte("name\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "datasets", "b.json"), []byte("[]"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "datasets", "a.json"), []byte("[]"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "datasets", "notes.txt"), []byte(""), 0o644))

	ctx := context.Background()
	src := NewSource(root)

	ok, err := src.Exists(ctx, "periods.csv")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = src.Exists(ctx, "concepts.csv")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = src.Exists(ctx, "datasets")
	require.NoError(t, err)
	assert.False(t, ok, "directories are not files")

	f, err := src.Open(ctx, "periods.csv")
	require.NoError(t, err)
	data, _ := io.ReadAll(f)
	f.Close()
	assert.Equal(t, "name\n", string(data))

	_, err = src.Open(ctx, "missing.csv")
	assert.ErrorIs(t, err, providers.ErrNotExist)

	names, err := src.List(ctx, "datasets", ".json")
	require.NoError(t, err)
	assert.Equal(t, []string{"datasets/a.json", "datasets/b.json"}, names)

	names, err = src.List(ctx, "instruments", ".json")
	require.NoError(t, err)
	assert.Empty(t, names)
}
