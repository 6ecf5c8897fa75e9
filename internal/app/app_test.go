package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/palacegen/internal/app"
	"github.com/vk/palacegen/internal/jobstore"
	"github.com/vk/palacegen/internal/palaceconfig"
	"github.com/vk/palacegen/internal/testutil"
	"github.com/vk/palacegen/internal/validate"
)

func TestRun_WritesArtifacts(t *testing.T) {
	res := testutil.RunIntegrationTest(t, testutil.DemoFiles())
	require.NoError(t, res.Err)

	script := res.ReadFile(t, "run_palace.sh")
	assert.True(t, strings.HasPrefix(script, "#!/usr/bin/env bash\n"))
	assert.Contains(t, script, "#SBATCH --nodes=1\n#SBATCH --ntasks-per-node=4\n#SBATCH --time=01:00:00\n#SBATCH --mem=4G\n")
	assert.Contains(t, script, "REMOTE_ROOT=/scratch/demo\n")
	assert.Contains(t, script, "# Generated by palacegen "+app.Version+"\n")
	testutil.AssertFileMode(t, res.Harness, "run_palace.sh", 0o755)

	sidecar := res.ReadFile(t, "config.json")
	require.NoError(t, palaceconfig.CheckSchema([]byte(sidecar)))
	testutil.AssertFileMode(t, res.Harness, "config.json", 0o644)

	assert.Contains(t, res.Output, "wrote "+res.Path("run_palace.sh"))
	assert.Contains(t, res.LogOutput, "Rendered job.")

	entries, err := os.ReadDir(res.Dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "temporary file %s left behind", e.Name())
	}
}

func TestRun_IsDeterministic(t *testing.T) {
	first := testutil.RunIntegrationTest(t, testutil.DemoFiles())
	require.NoError(t, first.Err)
	second := testutil.RunIntegrationTest(t, testutil.DemoFiles())
	require.NoError(t, second.Err)

	assert.Equal(t, first.ReadFile(t, "run_palace.sh"), second.ReadFile(t, "run_palace.sh"))
	assert.Equal(t, first.ReadFile(t, "config.json"), second.ReadFile(t, "config.json"))
}

func TestRun_SkipsUnchangedArtifacts(t *testing.T) {
	h := testutil.Setup(t, testutil.DemoFiles())
	job := h.Path("demo.hcl")
	assert.Equal(t, jobstore.StatusPending, h.App.JobStatus(job))

	require.NoError(t, h.App.Run(context.Background()))
	assert.Equal(t, jobstore.StatusRendered, h.App.JobStatus(job))

	require.NoError(t, h.App.Run(context.Background()))
	assert.Contains(t, h.Logs.String(), "Artifacts unchanged, skipping write.")

	require.NoError(t, os.Remove(h.Path("run_palace.sh")))
	require.NoError(t, h.App.Run(context.Background()))
	assert.FileExists(t, h.Path("run_palace.sh"), "a deleted script is written again")

	testutil.WriteFiles(t, h.Dir, map[string]string{
		"demo.hcl": testutil.Replace(testutil.DemoJob, `boundary "cavity"`, `boundary "port"`),
	})
	require.Error(t, h.App.Run(context.Background()))
	assert.Equal(t, jobstore.StatusInvalid, h.App.JobStatus(job))
}

func TestRun_InvalidJobWritesNothing(t *testing.T) {
	files := testutil.DemoFiles()
	files["demo.hcl"] = testutil.Replace(testutil.DemoJob, `boundary "cavity"`, `boundary "port"`)

	res := testutil.RunIntegrationTest(t, files)
	require.Error(t, res.Err)

	var verr *app.ValidationError
	require.ErrorAs(t, res.Err, &verr)
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, validate.ReasonDanglingReference, verr.Errors[0].Reason)
	assert.Equal(t, res.Path("demo.hcl"), verr.Job)

	assert.Contains(t, res.Output, "boundary_conditions[0].tag")
	assert.Contains(t, res.Output, "dangling_reference")
	testutil.AssertNoFile(t, res.Harness, "run_palace.sh")
	testutil.AssertNoFile(t, res.Harness, "config.json")
}

func TestRun_ContinuesPastFailingJobs(t *testing.T) {
	files := testutil.DemoFiles()
	files["broken.hcl"] = `project "broken" {`
	files["other/second.hcl"] = testutil.Replace(
		testutil.Replace(testutil.DemoJob, `project "demo"`, `project "second"`),
		`"mesh/cavity.msh"`, `"../mesh/cavity.msh"`)

	res := testutil.RunIntegrationTest(t, files)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "failed to parse HCL file")

	var verr *app.ValidationError
	assert.False(t, errors.As(res.Err, &verr), "a syntax error is not a validation error")

	assert.FileExists(t, res.Path("run_palace.sh"))
	assert.FileExists(t, res.Path("other/run_palace.sh"))
}

func TestRun_OutDirWithSeveralJobs(t *testing.T) {
	files := testutil.DemoFiles()
	files["jobs/b.hcl"] = testutil.Replace(
		testutil.Replace(testutil.DemoJob, `project "demo"`, `project "beta"`),
		`"mesh/cavity.msh"`, `"../mesh/cavity.msh"`)
	out := filepath.Join(t.TempDir(), "out")

	res := testutil.RunIntegrationTest(t, files, func(c *app.Config) { c.OutDir = out })
	require.NoError(t, res.Err)

	assert.FileExists(t, filepath.Join(out, "demo", "run_palace.sh"))
	assert.FileExists(t, filepath.Join(out, "beta", "run_palace.sh"))
	assert.FileExists(t, filepath.Join(out, "beta", "config.json"))
}

func TestRun_Stdout(t *testing.T) {
	res := testutil.RunIntegrationTest(t, testutil.DemoFiles(), func(c *app.Config) {
		c.JobPath = filepath.Join(c.JobPath, "demo.hcl")
		c.Stdout = true
	})
	require.NoError(t, res.Err)

	assert.True(t, strings.HasPrefix(res.Output, "#!/usr/bin/env bash\n"))
	assert.True(t, strings.HasSuffix(res.Output, "exit 0\n"))
	testutil.AssertNoFile(t, res.Harness, "run_palace.sh")
}

func TestRun_SkipSidecar(t *testing.T) {
	files := testutil.DemoFiles()
	files["demo.hcl"] = testutil.Replace(testutil.DemoJob, `remote_root = "/scratch/demo"`,
		"remote_root = \"/scratch/demo\"\n  skip_sidecar = true")

	res := testutil.RunIntegrationTest(t, files)
	require.NoError(t, res.Err)
	assert.FileExists(t, res.Path("run_palace.sh"))
	testutil.AssertNoFile(t, res.Harness, "config.json")
}

func TestRun_NoJobFiles(t *testing.T) {
	res := testutil.RunIntegrationTest(t, map[string]string{"notes.txt": "hello"})
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "no .hcl job files found")
}

func TestCheck(t *testing.T) {
	files := testutil.DemoFiles()
	dup := testutil.Replace(testutil.DemoJob, `boundary "cavity" {`,
		"material \"cavity\" {\n    attributes = [3]\n  }\n\n  boundary \"cavity\" {")
	files["bad/dup.hcl"] = testutil.Replace(dup, `"mesh/cavity.msh"`, `"../mesh/cavity.msh"`)

	h := testutil.Setup(t, files)
	sum, err := h.App.Check(context.Background())
	require.Error(t, err)

	assert.Equal(t, app.Summary{Jobs: 2, Valid: 1, Invalid: 1}, sum)
	var verr *app.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validate.ReasonDuplicateName, verr.Errors[0].Reason)
	assert.Equal(t, "cavity", verr.Errors[0].Subject)

	out := h.Out.String()
	assert.Contains(t, out, "✓ "+h.Path("demo.hcl"))
	assert.Contains(t, out, "duplicate_name")
	testutil.AssertNoFile(t, h, "run_palace.sh")
}

func TestNewApp_ProfileOverride(t *testing.T) {
	profilePath := filepath.Join(t.TempDir(), "cluster.yaml")
	require.NoError(t, os.WriteFile(profilePath, []byte(`
version: v1.0.0
default_scheduler: local
mesh_extensions: [.msh]
boundary_types:
  pec: {key: PEC, shape: object}
schedulers:
  local:
    directive_prefix: "# res:"
    directives:
      nodes: "n={{.}}"
      cores: "c={{.}}"
      wall_time: "t={{.}}"
      memory: "m={{.}}"
    launch: "mpirun -np {{.Tasks}} palace {{.Config}}"
`), 0o644))

	res := testutil.RunIntegrationTest(t, testutil.DemoFiles(), func(c *app.Config) { c.ProfilePath = profilePath })
	require.NoError(t, res.Err)
	script := res.ReadFile(t, "run_palace.sh")
	assert.Contains(t, script, "# res: n=1\n# res: c=4\n")
	assert.Contains(t, script, "\nmpirun -np 4 palace \"$CONFIG\"\n")
}

func TestNewApp_BadProfile(t *testing.T) {
	cfg, err := app.NewConfig(app.Config{JobPath: ".", ProfilePath: filepath.Join(t.TempDir(), "missing.yaml")})
	require.NoError(t, err)
	_, err = app.NewApp(&testutil.SafeBuffer{}, cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load profile")
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     app.Config
		wantErr string
	}{
		{"defaults", app.Config{JobPath: "job.hcl"}, ""},
		{"missing job path", app.Config{}, "JobPath is a required"},
		{"bad level", app.Config{JobPath: "x", LogLevel: "loud"}, "invalid log level"},
		{"bad format", app.Config{JobPath: "x", LogFormat: "xml"}, "invalid log format"},
		{"stdout and out dir", app.Config{JobPath: "x", Stdout: true, OutDir: "y"}, "cannot be combined"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := app.NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "info", cfg.LogLevel)
			assert.Equal(t, "text", cfg.LogFormat)
		})
	}
}
