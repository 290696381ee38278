// Package tts defines the text-to-speech engine used by speakfile.
//
// A backend Synthesizer turns text into PCM audio. The Engine wraps a
// backend with a job queue: callers queue text with SaveToFile and then
// block in RunAndWait until every queued file has been written.
package tts

import (
	"context"
	"errors"

	"github.com/nadzzz/speakfile/internal/audio"
)

var (
	// ErrEmptyPath is returned when a job has no destination path.
	ErrEmptyPath = errors.New("empty output path")

	// ErrEngineUnavailable is returned when the backend cannot be reached or found.
	ErrEngineUnavailable = errors.New("speech engine not available")
)

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Synthesize renders text with the backend's default voice, rate and volume.
	Synthesize(ctx context.Context, text string) (*SynthesizeResult, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// SynthesizeResult holds the output of TTS synthesis.
type SynthesizeResult struct {
	// Audio is the synthesized speech as interleaved PCM samples.
	Audio *audio.PCM

	// Backend names the synthesizer that produced the audio (e.g. "espeak").
	Backend string
}
