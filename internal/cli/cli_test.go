package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/palacegen/internal/profile"
	"github.com/vk/palacegen/internal/render"
	"github.com/vk/palacegen/internal/testutil"
)

// writeJob lays out files in a temp dir and returns it.
func writeJob(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), &out, &errOut, args)
	return out.String(), errOut.String(), err
}

func TestExecute_Render(t *testing.T) {
	dir := writeJob(t, testutil.DemoFiles())

	out, _, err := execute(t, "render", "--log-level", "error", filepath.Join(dir, "demo.hcl"))

	require.NoError(t, err)
	assert.Contains(t, out, "wrote")
	assert.FileExists(t, filepath.Join(dir, render.ScriptName))
	assert.FileExists(t, filepath.Join(dir, render.SidecarName))
}

func TestExecute_RenderStdout(t *testing.T) {
	dir := writeJob(t, testutil.DemoFiles())

	out, _, err := execute(t, "render", "--stdout", "--log-level", "error", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "#!/usr/bin/env bash")
	assert.NoFileExists(t, filepath.Join(dir, render.ScriptName))
}

func TestExecute_Validate(t *testing.T) {
	dir := writeJob(t, testutil.DemoFiles())

	out, _, err := execute(t, "validate", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "✓")
	assert.NoFileExists(t, filepath.Join(dir, render.ScriptName), "validate must not render")
}

func TestExecute_ExitCodes(t *testing.T) {
	invalid := testutil.DemoFiles()
	invalid["demo.hcl"] = testutil.Replace(invalid["demo.hcl"], `remote_root = "/scratch/demo"`, `remote_root = "scratch/demo"`)
	broken := map[string]string{"demo.hcl": "project \"demo\" {\n"}

	testCases := []struct {
		name string
		args func() []string
		code int
	}{
		{"unknown flag", func() []string { return []string{"render", "--nope", "x"} }, ExitUsage},
		{"missing job argument", func() []string { return []string{"render"} }, ExitUsage},
		{"too many arguments", func() []string { return []string{"validate", "a", "b"} }, ExitUsage},
		{"bad log level", func() []string { return []string{"validate", "--log-level", "loud", "x"} }, ExitUsage},
		{"stdout with out dir", func() []string { return []string{"render", "--stdout", "--out", "o", "x"} }, ExitUsage},
		{"invalid job", func() []string { return []string{"render", writeJob(t, invalid)} }, ExitInvalid},
		{"unparsable job", func() []string { return []string{"render", writeJob(t, broken)} }, ExitFailure},
		{"missing path", func() []string { return []string{"validate", filepath.Join(t.TempDir(), "none")} }, ExitFailure},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args()...)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, tc.code, exitErr.Code, exitErr.Message)
		})
	}
}

func TestExecute_ProfileShow(t *testing.T) {
	t.Run("builtin", func(t *testing.T) {
		t.Setenv(profile.EnvVar, "")
		out, _, err := execute(t, "profile", "show")
		require.NoError(t, err)
		assert.Contains(t, out, "# source: builtin\n")
		assert.Contains(t, out, string(profile.Raw()))
	})

	t.Run("from flag", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "site.yaml")
		require.NoError(t, os.WriteFile(path, profile.Raw(), 0o600))

		out, _, err := execute(t, "profile", "show", "--profile", path)
		require.NoError(t, err)
		assert.Contains(t, out, "# source: "+path+"\n")
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := execute(t, "profile", "show", "--profile", filepath.Join(t.TempDir(), "none.yaml"))
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, ExitFailure, exitErr.Code)
	})
}

func TestExecute_Version(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "palacegen dev\n", out)
}
