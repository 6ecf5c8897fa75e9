package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/palacegen/internal/app"
	"github.com/vk/palacegen/internal/hcl"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Harness is an App over a temporary directory of job files.
type Harness struct {
	Dir  string
	Out  *SafeBuffer
	Logs *SafeBuffer
	App  *app.App
}

// Path returns the absolute path of a file inside the harness directory.
func (h *Harness) Path(rel string) string {
	return filepath.Join(h.Dir, filepath.FromSlash(rel))
}

// ReadFile reads a file inside the harness directory.
func (h *Harness) ReadFile(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(h.Path(rel))
	require.NoError(t, err)
	return string(data)
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	*Harness
	Output    string
	LogOutput string
	Err       error
}

// Setup writes files (relative path to content) into a fresh directory and
// builds an App whose job path is that directory. configure may adjust the
// config before the App is built.
func Setup(t *testing.T, files map[string]string, configure ...func(*app.Config)) *Harness {
	t.Helper()

	dir := t.TempDir()
	WriteFiles(t, dir, files)

	h := &Harness{Dir: dir, Out: &SafeBuffer{}, Logs: &SafeBuffer{}}
	cfg := app.Config{
		JobPath:   dir,
		LogLevel:  "debug",
		LogFormat: "text",
		LogW:      h.Logs,
	}
	for _, c := range configure {
		c(&cfg)
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	h.App, err = app.NewApp(h.Out, appConfig, hcl.NewLoader())
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("PALACEGEN_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), h.Logs.String())
		}
	})
	return h
}

// RunIntegrationTest renders every job in files with a background context.
func RunIntegrationTest(t *testing.T, files map[string]string, configure ...func(*app.Config)) *HarnessResult {
	t.Helper()
	h := Setup(t, files, configure...)
	err := h.App.Run(context.Background())
	return &HarnessResult{
		Harness:   h,
		Output:    h.Out.String(),
		LogOutput: h.Logs.String(),
		Err:       err,
	}
}

// WriteFiles writes files (relative path to content) below dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}
