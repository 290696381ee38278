package cli

import (
	"github.com/nadzzz/speakfile/internal/config"
	"github.com/nadzzz/speakfile/internal/runner"
	"github.com/nadzzz/speakfile/internal/tts"
	"github.com/nadzzz/speakfile/internal/tts/espeak"
	"github.com/nadzzz/speakfile/internal/tts/piper"
)

// DefaultEngine builds the engine selected by cfg.Engine.Backend.
func DefaultEngine(cfg *config.Config) (runner.Engine, error) {
	switch cfg.Engine.Backend {
	case "piper":
		return tts.NewEngine(piper.New(cfg.Engine.Piper)), nil
	default:
		synth, err := espeak.New(cfg.Engine.Espeak)
		if err != nil {
			return nil, err
		}
		return tts.NewEngine(synth), nil
	}
}
