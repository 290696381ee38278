// Package espeak implements the TTS Synthesizer with a local espeak-ng or
// espeak binary, using the binary's default voice, rate and volume.
package espeak

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/nadzzz/speakfile/internal/audio"
	"github.com/nadzzz/speakfile/internal/config"
	"github.com/nadzzz/speakfile/internal/tts"
)

// candidates are tried in order when no binary is configured.
var candidates = []string{"espeak-ng", "espeak"}

// Synthesizer implements tts.Synthesizer by running espeak.
type Synthesizer struct {
	bin string
}

// New resolves the espeak binary. It fails with tts.ErrEngineUnavailable
// when none can be found.
func New(cfg config.EspeakConfig) (*Synthesizer, error) {
	names := candidates
	if cfg.Binary != "" {
		names = []string{cfg.Binary}
	}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			slog.Debug("espeak binary resolved", "path", path)
			return &Synthesizer{bin: path}, nil
		}
	}
	return nil, fmt.Errorf("%w: install espeak-ng or espeak (looked for %s)",
		tts.ErrEngineUnavailable, strings.Join(names, ", "))
}

// Synthesize renders text to a scratch WAV file and decodes it.
// Text is fed on stdin so it is never parsed as a flag.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (*tts.SynthesizeResult, error) {
	dir, err := os.MkdirTemp("", "speakfile-espeak-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "speech.wav")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.bin, "-w", out, "--stdin")
	cmd.Stdin = strings.NewReader(text)
	cmd.Stderr = &stderr

	slog.Debug("espeak run", "bin", s.bin, "text_length", len(text))
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s failed: %s: %w", filepath.Base(s.bin), msg, err)
		}
		return nil, fmt.Errorf("%s failed: %w", filepath.Base(s.bin), err)
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("%s produced no audio: %w", filepath.Base(s.bin), err)
	}
	defer f.Close()

	pcm, err := audio.DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s output: %w", filepath.Base(s.bin), err)
	}
	return &tts.SynthesizeResult{Audio: pcm, Backend: "espeak"}, nil
}

// Close is a no-op; each synthesis runs its own process.
func (s *Synthesizer) Close() error { return nil }
