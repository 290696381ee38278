package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "espeak", cfg.Engine.Backend)
	assert.Empty(t, cfg.Engine.Espeak.Binary)
	assert.Equal(t, "localhost:10200", cfg.Engine.Piper.Endpoint)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speakfile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  backend: Piper
  piper:
    endpoint: tts.lan:10200
logging:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "piper", cfg.Engine.Backend)
	assert.Equal(t, "tts.lan:10200", cfg.Engine.Piper.Endpoint)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SPEAKFILE_ENGINE_ESPEAK_BINARY", "/opt/espeak-ng/bin/espeak-ng")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/opt/espeak-ng/bin/espeak-ng", cfg.Engine.Espeak.Binary)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("SPEAKFILE_ENGINE_BACKEND", "festival")
	_, err = Load("")
	assert.ErrorContains(t, err, `unknown engine backend "festival"`)
}

func TestSetupLogging(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupLogging(LoggingConfig{Level: "warn", Format: "json"}, &buf)

	slog.Info("hidden")
	slog.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}
