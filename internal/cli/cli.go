// Package cli implements the speakfile command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nadzzz/speakfile/internal/config"
	"github.com/nadzzz/speakfile/internal/runner"
)

// Usage is printed to stderr when the argument count is wrong.
const Usage = "Usage: speakfile <text_to_synthesize> <output_file_path>"

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// UsageError reports a malformed invocation. Nothing has been synthesized.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// EngineFunc builds a speech engine for the loaded configuration.
type EngineFunc func(cfg *config.Config) (runner.Engine, error)

// Options wires the command to its environment.
type Options struct {
	Stdout    io.Writer
	Stderr    io.Writer
	Version   string
	NewEngine EngineFunc // defaults to DefaultEngine
}

// invocation is a parsed command line.
type invocation struct {
	configFile  string
	showVersion bool
	text        string
	outputPath  string
}

// parseArgs reads the command line by hand so that text beginning with '-'
// is never taken for a flag. Exactly two arguments are always text and
// output path. Otherwise leading --config/--version options are consumed,
// an optional "--" ends them, and two positionals must remain.
func parseArgs(args []string) (*invocation, error) {
	if len(args) == 2 {
		return &invocation{text: args[0], outputPath: args[1]}, nil
	}

	inv := &invocation{}
options:
	for len(args) > 0 {
		switch a := args[0]; {
		case a == "--version":
			inv.showVersion = true
			args = args[1:]
		case a == "--config":
			if len(args) < 2 {
				return nil, &UsageError{Err: errors.New("--config requires a value")}
			}
			inv.configFile = args[1]
			args = args[2:]
		case strings.HasPrefix(a, "--config="):
			inv.configFile = strings.TrimPrefix(a, "--config=")
			args = args[1:]
		case a == "--":
			args = args[1:]
			break options
		default:
			break options
		}
	}

	if inv.showVersion && len(args) == 0 {
		return inv, nil
	}
	if len(args) != 2 {
		return nil, &UsageError{Err: fmt.Errorf("expected 2 arguments, got %d", len(args))}
	}
	inv.text, inv.outputPath = args[0], args[1]
	return inv, nil
}

// NewCommand builds the root command. Cobra's flag parsing is disabled;
// see parseArgs.
func NewCommand(opts Options) *cobra.Command {
	if opts.NewEngine == nil {
		opts.NewEngine = DefaultEngine
	}

	var inv *invocation

	cmd := &cobra.Command{
		Use:   "speakfile [--config file] <text_to_synthesize> <output_file_path>",
		Short: "Render text to a speech audio file",

		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,

		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 && args[0] == "--" {
				args = args[1:] // added by Execute
			}
			var err error
			inv, err = parseArgs(args)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if inv.showVersion {
				fmt.Fprintf(opts.Stdout, "speakfile %s\n", opts.Version)
				return nil
			}

			cfg, err := config.Load(inv.configFile)
			if err != nil {
				return err
			}
			config.SetupLogging(cfg.Logging, opts.Stderr)

			r := runner.New(func() (runner.Engine, error) {
				return opts.NewEngine(cfg)
			})
			path, err := r.Run(cmd.Context(), inv.text, inv.outputPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(opts.Stdout, "Audio successfully saved to %s\n", path)
			return nil
		},
	}

	cmd.SetOut(opts.Stdout)
	cmd.SetErr(opts.Stderr)

	return cmd
}

// Execute runs the command with args and returns the process exit code.
func Execute(ctx context.Context, args []string, opts Options) int {
	cmd := NewCommand(opts)
	// The leading "--" stops cobra from resolving the text as a subcommand
	// name (e.g. its hidden __complete); the Args hook drops it again.
	cmd.SetArgs(append([]string{"--"}, args...))

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var uerr *UsageError
	if errors.As(err, &uerr) {
		fmt.Fprintln(opts.Stderr, Usage)
		return ExitFailure
	}

	fmt.Fprintf(opts.Stderr, "Error generating audio: %v\n", err)
	return ExitFailure
}
