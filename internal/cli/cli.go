package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vk/palacegen/internal/app"
	"github.com/vk/palacegen/internal/hcl"
	"github.com/vk/palacegen/internal/profile"
)

// Exit codes.
const (
	ExitFailure = 1
	ExitUsage   = 2
	ExitInvalid = 3
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	profile   string
	logLevel  string
	logFormat string
}

// Execute runs the command tree with args and maps failures onto exit
// codes: 2 for usage errors, 3 for invalid jobs, 1 for everything else.
func Execute(ctx context.Context, outW, errW io.Writer, args []string) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	var verr *app.ValidationError
	if errors.As(err, &verr) {
		return &ExitError{Code: ExitInvalid, Message: err.Error()}
	}
	return &ExitError{Code: ExitFailure, Message: err.Error()}
}

// NewRootCommand builds the palacegen command tree. Command output goes to
// outW, logs and errors to errW.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "palacegen",
		Short: "Generate Palace run scripts for HPC clusters",
		Long: `palacegen turns an HCL job description of a Palace electromagnetic
simulation into a ready-to-run shell script (run_palace.sh) and a Palace
config.json for a remote Linux or HPC host.

The environment profile (solver options, mesh formats, scheduler syntax,
cluster limits) comes from --profile, then $` + profile.EnvVar + `, then the
built-in profile.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError(err) })

	pf := root.PersistentFlags()
	pf.StringVar(&flags.profile, "profile", "", "Path to an environment profile (overrides $"+profile.EnvVar+").")
	pf.StringVar(&flags.logLevel, "log-level", "info", "Logging level: 'debug', 'info', 'warn', or 'error'.")
	pf.StringVar(&flags.logFormat, "log-format", "text", "Log output format: 'text' or 'json'.")

	root.AddCommand(
		newRenderCommand(flags, outW, errW),
		newValidateCommand(flags, outW, errW),
		newWatchCommand(flags, outW, errW),
		newProfileCommand(flags, outW),
		newVersionCommand(outW),
	)
	return root
}

// exactlyOneJob is the argument validator of the job commands.
func exactlyOneJob(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return usageError(fmt.Errorf("%s takes exactly one job file or directory, got %d arguments", cmd.Name(), len(args)))
	}
	return nil
}

// newApp builds the App for a job command.
func newApp(flags *globalFlags, outW, errW io.Writer, cfg app.Config) (*app.App, error) {
	cfg.ProfilePath = flags.profile
	cfg.LogLevel = flags.logLevel
	cfg.LogFormat = flags.logFormat
	cfg.LogW = errW

	appConfig, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError(err)
	}
	return app.NewApp(outW, appConfig, hcl.NewLoader())
}

func newRenderCommand(flags *globalFlags, outW, errW io.Writer) *cobra.Command {
	var (
		outDir string
		stdout bool
	)
	cmd := &cobra.Command{
		Use:   "render <job.hcl|dir>",
		Short: "Validate jobs and write run_palace.sh and config.json",
		Args:  exactlyOneJob,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, outW, errW, app.Config{JobPath: args[0], OutDir: outDir, Stdout: stdout})
			if err != nil {
				return err
			}
			defer func() { _ = a.Logger().Sync() }()
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: next to each job file).")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print the script to stdout instead of writing files.")
	return cmd
}

func newValidateCommand(flags *globalFlags, outW, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <job.hcl|dir>",
		Short: "Check jobs and report every problem without rendering",
		Args:  exactlyOneJob,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, outW, errW, app.Config{JobPath: args[0]})
			if err != nil {
				return err
			}
			defer func() { _ = a.Logger().Sync() }()
			sum, err := a.Check(cmd.Context())
			if sum.Jobs > 1 {
				fmt.Fprintf(outW, "%d jobs: %d valid, %d invalid\n", sum.Jobs, sum.Valid, sum.Invalid)
			}
			return err
		},
	}
}

func newWatchCommand(flags *globalFlags, outW, errW io.Writer) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "watch <job.hcl|dir>",
		Short: "Re-render jobs whenever their files change",
		Args:  exactlyOneJob,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, outW, errW, app.Config{JobPath: args[0], OutDir: outDir})
			if err != nil {
				return err
			}
			defer func() { _ = a.Logger().Sync() }()
			return a.Watch(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: next to each job file).")
	return cmd
}

func newProfileCommand(flags *globalFlags, outW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect the environment profile",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective profile document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := profile.Resolve(flags.profile)
			if err != nil {
				return err
			}
			raw := profile.Raw()
			if p.Source != "builtin" {
				if raw, err = os.ReadFile(p.Source); err != nil {
					return err
				}
			}
			fmt.Fprintf(outW, "# source: %s\n", p.Source)
			_, err = outW.Write(raw)
			return err
		},
	})
	return cmd
}

func newVersionCommand(outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(outW, "palacegen", app.Version)
		},
	}
}
