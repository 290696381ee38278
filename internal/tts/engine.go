package tts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nadzzz/speakfile/internal/audio"
)

type job struct {
	text string
	path string
}

// Engine queues synthesis jobs and writes them out as WAV files.
// It is not safe for concurrent use.
type Engine struct {
	synth Synthesizer
	queue []job
}

// NewEngine wraps a backend synthesizer.
func NewEngine(synth Synthesizer) *Engine {
	return &Engine{synth: synth}
}

// SaveToFile queues text to be rendered into path on the next RunAndWait.
func (e *Engine) SaveToFile(text, path string) {
	e.queue = append(e.queue, job{text: text, path: path})
}

// Pending reports the number of queued jobs.
func (e *Engine) Pending() int { return len(e.queue) }

// RunAndWait processes the queue in order and returns once it is empty.
// The first failing job aborts the drain; jobs after it are discarded.
func (e *Engine) RunAndWait(ctx context.Context) error {
	jobs := e.queue
	e.queue = nil

	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.render(ctx, j); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the backend.
func (e *Engine) Close() error {
	e.queue = nil
	return e.synth.Close()
}

func (e *Engine) render(ctx context.Context, j job) error {
	if j.path == "" {
		return ErrEmptyPath
	}

	res, err := e.synth.Synthesize(ctx, j.text)
	if err != nil {
		return err
	}
	if res == nil || res.Audio == nil {
		return fmt.Errorf("%s returned no audio", res.backendName())
	}

	slog.Debug("writing audio",
		"path", j.path,
		"backend", res.Backend,
		"samples", len(res.Audio.Samples),
		"rate", res.Audio.SampleRate)

	return writeFileAtomic(j.path, res.Audio)
}

func (r *SynthesizeResult) backendName() string {
	if r == nil || r.Backend == "" {
		return "synthesizer"
	}
	return r.Backend
}

// writeFileAtomic encodes p next to path and renames it into place,
// replacing any existing file.
func writeFileAtomic(path string, p *audio.PCM) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".speakfile-*.wav")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := audio.EncodeWAV(tmp, p); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	// CreateTemp uses 0600; audio files are meant to be shared.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	committed = true
	return nil
}
