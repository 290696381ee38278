// Speakfile renders a text string to a speech audio file.
//
// Usage:
//
//	speakfile <text_to_synthesize> <output_file_path>
//	speakfile --config speakfile.yaml "Hello world" out/audio/hello.wav
//
// It exits 0 after the file is written and 1 on any failure.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nadzzz/speakfile/internal/cli"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], cli.Options{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Version: version,
	})
	cancel()
	os.Exit(code)
}
