package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}
	return root
}

func TestFindFilesByExtension(t *testing.T) {
	root := writeTree(t, "b.hcl", "a.hcl", "sub/c.hcl", "notes.txt", ".git/d.hcl")

	got, err := FindFilesByExtension(root, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.hcl"),
		filepath.Join(root, "b.hcl"),
		filepath.Join(root, "sub", "c.hcl"),
	}, got)
}

func TestFindFilesByExtension_PanicsOnEmptyExtension(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFilesByExtension(t.TempDir(), "") })
}

func TestJobFiles(t *testing.T) {
	root := writeTree(t, "job.hcl", "other.hcl")

	got, err := JobFiles(filepath.Join(root, "job.hcl"), ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "job.hcl")}, got)

	got, err = JobFiles(root, ".hcl")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = JobFiles(filepath.Join(root, "missing.hcl"), ".hcl")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
