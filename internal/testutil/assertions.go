package testutil

import (
	"io/fs"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertFileMode checks the permission bits of a file inside the harness
// directory.
func AssertFileMode(t *testing.T, h *Harness, rel string, want fs.FileMode) {
	t.Helper()
	info, err := os.Stat(h.Path(rel))
	require.NoError(t, err)
	assert.Equal(t, want, info.Mode().Perm(), "mode of %s", rel)
}

// AssertNoFile checks that a file inside the harness directory does not exist.
func AssertNoFile(t *testing.T, h *Harness, rel string) {
	t.Helper()
	_, err := os.Stat(h.Path(rel))
	assert.ErrorIs(t, err, fs.ErrNotExist, "%s should not exist", rel)
}
