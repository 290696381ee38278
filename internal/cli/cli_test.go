package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/speakfile/internal/audio"
	"github.com/nadzzz/speakfile/internal/config"
	"github.com/nadzzz/speakfile/internal/runner"
	"github.com/nadzzz/speakfile/internal/tts"
)

type toneSynth struct {
	err error
}

func (s *toneSynth) Synthesize(_ context.Context, text string) (*tts.SynthesizeResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &tts.SynthesizeResult{
		Audio:   &audio.PCM{Samples: make([]int, len(text)), SampleRate: 8000, Channels: 1, BitDepth: 16},
		Backend: "tone",
	}, nil
}

func (s *toneSynth) Close() error { return nil }

type result struct {
	code   int
	stdout string
	stderr string
	inits  int
}

func run(t *testing.T, synth *toneSynth, args ...string) result {
	t.Helper()

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var stdout, stderr bytes.Buffer
	inits := 0
	code := Execute(context.Background(), args, Options{
		Stdout:  &stdout,
		Stderr:  &stderr,
		Version: "test",
		NewEngine: func(*config.Config) (runner.Engine, error) {
			inits++
			return tts.NewEngine(synth), nil
		},
	})
	return result{code: code, stdout: stdout.String(), stderr: stderr.String(), inits: inits}
}

func TestHelloWorldScenario(t *testing.T) {
	chdir(t, t.TempDir())

	res := run(t, &toneSynth{}, "Hello world", "out/audio/hello.wav")

	assert.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stdout, "Audio successfully saved to out/audio/hello.wav")
	assert.Empty(t, res.stderr)

	info, err := os.Stat("out/audio")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	data, err := os.ReadFile("out/audio/hello.wav")
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data[:4]))
}

func TestEmptyArgumentsScenario(t *testing.T) {
	chdir(t, t.TempDir())

	res := run(t, &toneSynth{}, "", "")

	assert.Equal(t, ExitFailure, res.code)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "Error generating audio: empty output path")
}

func TestWrongArgumentCount(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"only text"},
		{"text", "out.wav", "extra"},
	} {
		dir := t.TempDir()
		chdir(t, dir)

		res := run(t, &toneSynth{}, args...)

		assert.Equal(t, ExitFailure, res.code, "args %q", args)
		assert.Contains(t, res.stderr, Usage)
		assert.Empty(t, res.stdout)
		assert.Zero(t, res.inits, "engine must not be touched on usage errors")

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	}
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	res := run(t, &toneSynth{}, "--rate", "150", "hi", "out.wav")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, Usage)
}

func TestEngineFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "new", "speech.wav")

	res := run(t, &toneSynth{err: errors.New("unsupported text")}, "hi", out)

	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Error generating audio: unsupported text")
	assert.NotContains(t, res.stdout, "successfully")

	_, err := os.Stat(filepath.Dir(out))
	assert.NoError(t, err, "output directory is created before synthesis")
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestRunTwiceOverwrites(t *testing.T) {
	out := filepath.Join(t.TempDir(), "speech.wav")

	first := run(t, &toneSynth{}, "a much longer first sentence", out)
	require.Equal(t, ExitOK, first.code)
	firstInfo, err := os.Stat(out)
	require.NoError(t, err)

	second := run(t, &toneSynth{}, "short", out)
	require.Equal(t, ExitOK, second.code)
	secondInfo, err := os.Stat(out)
	require.NoError(t, err)

	assert.Less(t, secondInfo.Size(), firstInfo.Size())

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestConfigErrorIsReported(t *testing.T) {
	res := run(t, &toneSynth{}, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "hi", "out.wav")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Error generating audio: reading config")
	assert.Zero(t, res.inits)
}

func TestVersion(t *testing.T) {
	res := run(t, &toneSynth{}, "--version")
	assert.Equal(t, ExitOK, res.code)
	assert.Equal(t, "speakfile test\n", res.stdout)
}

func TestDefaultEngineMissingEspeak(t *testing.T) {
	cfg := &config.Config{Engine: config.EngineConfig{
		Backend: "espeak",
		Espeak:  config.EspeakConfig{Binary: filepath.Join(t.TempDir(), "absent")},
	}}
	_, err := DefaultEngine(cfg)
	assert.ErrorIs(t, err, tts.ErrEngineUnavailable)
}

func TestDefaultEnginePiper(t *testing.T) {
	cfg := &config.Config{Engine: config.EngineConfig{
		Backend: "piper",
		Piper:   config.PiperConfig{Endpoint: "localhost:10200"},
	}}
	eng, err := DefaultEngine(cfg)
	require.NoError(t, err)
	assert.IsType(t, &tts.Engine{}, eng)
	assert.NoError(t, eng.Close())
}

func TestDashedTextIsSynthesized(t *testing.T) {
	for _, text := range []string{"-h", "--help", "--version", "-5 degrees outside", "--config", "__complete", "--"} {
		out := filepath.Join(t.TempDir(), "speech.wav")

		res := run(t, &toneSynth{}, text, out)

		assert.Equal(t, ExitOK, res.code, "text %q: stderr=%s", text, res.stderr)
		assert.Equal(t, "Audio successfully saved to "+out+"\n", res.stdout, "text %q", text)
		assert.Equal(t, 1, res.inits, "text %q", text)

		data, err := os.ReadFile(out)
		require.NoError(t, err, "text %q", text)
		assert.Equal(t, "RIFF", string(data[:4]))
	}
}

func TestOptionsBeforePositionals(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "speakfile.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  level: error\n"), 0o644))

	out := filepath.Join(t.TempDir(), "speech.wav")
	res := run(t, &toneSynth{}, "--config="+cfgPath, "--", "-5 degrees outside", out)

	assert.Equal(t, ExitOK, res.code, res.stderr)
	assert.FileExists(t, out)
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    *invocation
		wantErr bool
	}{
		{name: "two args are always positional", args: []string{"--version", "out.wav"},
			want: &invocation{text: "--version", outputPath: "out.wav"}},
		{name: "config then positionals", args: []string{"--config", "c.yaml", "hi", "out.wav"},
			want: &invocation{configFile: "c.yaml", text: "hi", outputPath: "out.wav"}},
		{name: "config equals form", args: []string{"--config=c.yaml", "-x", "out.wav"},
			want: &invocation{configFile: "c.yaml", text: "-x", outputPath: "out.wav"}},
		{name: "double dash ends options", args: []string{"--", "--config", "out.wav"},
			want: &invocation{text: "--config", outputPath: "out.wav"}},
		{name: "version alone", args: []string{"--version"},
			want: &invocation{showVersion: true}},
		{name: "config missing value", args: []string{"--config"}, wantErr: true},
		{name: "unknown option", args: []string{"--rate", "150", "hi", "out.wav"}, wantErr: true},
		{name: "no args", args: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArgs(tt.args)
			if tt.wantErr {
				var uerr *UsageError
				assert.ErrorAs(t, err, &uerr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
