// Package runner renders a single text string to an audio file.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Kind classifies a failed run.
type Kind int

const (
	// KindFilesystem means the output directory could not be created.
	KindFilesystem Kind = iota + 1
	// KindEngine means the speech engine failed to start or to synthesize.
	KindEngine
)

func (k Kind) String() string {
	switch k {
	case KindFilesystem:
		return "filesystem"
	case KindEngine:
		return "engine"
	default:
		return "unknown"
	}
}

// Error is the failure result of Run.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Engine is the speech engine a run drives: queue, then drain.
type Engine interface {
	SaveToFile(text, path string)
	RunAndWait(ctx context.Context) error
	Close() error
}

// EngineFactory acquires a freshly initialized engine.
type EngineFactory func() (Engine, error)

// Runner renders text to audio files.
type Runner struct {
	newEngine EngineFactory
}

// New creates a Runner that acquires an engine from newEngine on every run.
func New(newEngine EngineFactory) *Runner {
	return &Runner{newEngine: newEngine}
}

// Run writes text as speech to outputPath. On success it returns outputPath;
// on failure the error is a *Error. The parent directory is created before
// the engine is touched, so it survives a failed synthesis.
func (r *Runner) Run(ctx context.Context, text, outputPath string) (string, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &Error{Kind: KindFilesystem, Err: fmt.Errorf("creating output directory: %w", err)}
	}

	engine, err := r.newEngine()
	if err != nil {
		return "", &Error{Kind: KindEngine, Err: err}
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			slog.Warn("closing speech engine", "error", cerr)
		}
	}()

	slog.Debug("synthesizing", "path", outputPath, "text_length", len(text))

	engine.SaveToFile(text, outputPath)
	if err := engine.RunAndWait(ctx); err != nil {
		return "", &Error{Kind: KindEngine, Err: err}
	}

	slog.Info("audio written", "path", outputPath)
	return outputPath, nil
}

// KindOf reports the Kind of err, or 0 if err did not come from Run.
func KindOf(err error) Kind {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return 0
}
