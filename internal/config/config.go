// Package config handles loading the speakfile configuration.
//
// Nothing is required: defaults select the local espeak backend. A config
// file is only read when one is passed explicitly, and SPEAKFILE_* environment
// variables override individual keys.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration for speakfile.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// EngineConfig selects and configures the text-to-speech backend.
type EngineConfig struct {
	Backend string       `mapstructure:"backend"` // "espeak" or "piper"
	Espeak  EspeakConfig `mapstructure:"espeak"`
	Piper   PiperConfig  `mapstructure:"piper"`
}

// EspeakConfig holds settings for the local espeak-ng/espeak binary.
type EspeakConfig struct {
	// Binary is an explicit path or name. Empty means search PATH for
	// espeak-ng, then espeak.
	Binary string `mapstructure:"binary"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
type PiperConfig struct {
	Endpoint string `mapstructure:"endpoint"` // Wyoming TCP endpoint (host:port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from defaults, the optional configFile and
// environment variables.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("engine.backend", "espeak")
	v.SetDefault("engine.espeak.binary", "")
	v.SetDefault("engine.piper.endpoint", "localhost:10200")
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")

	// SPEAKFILE_ENGINE_BACKEND, SPEAKFILE_LOGGING_LEVEL, etc.
	v.SetEnvPrefix("SPEAKFILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.Engine.Backend = strings.ToLower(strings.TrimSpace(cfg.Engine.Backend))
	switch cfg.Engine.Backend {
	case "espeak", "piper":
	default:
		return nil, fmt.Errorf("unknown engine backend %q", cfg.Engine.Backend)
	}

	return &cfg, nil
}

// SetupLogging configures the global slog logger to write to w.
func SetupLogging(cfg LoggingConfig, w io.Writer) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}
