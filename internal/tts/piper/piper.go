// Package piper implements the TTS Synthesizer using a Piper Wyoming protocol server.
//
// Piper is a fast, local neural text-to-speech system. The linuxserver/piper
// container exposes the Wyoming protocol on TCP port 10200. Requests carry no
// voice, so the server renders with whatever voice it was started with.
//
// Wyoming protocol format (per event):
//
//	<json_length> <payload_length>\n
//	<json_bytes>\n
//	<payload_bytes>   (if payload_length > 0)
package piper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/nadzzz/speakfile/internal/audio"
	"github.com/nadzzz/speakfile/internal/config"
	"github.com/nadzzz/speakfile/internal/tts"
)

// dialTimeout bounds only the connect. Once connected, synthesis runs until
// audio-stop, the context's deadline (if any) or cancellation.
const dialTimeout = 10 * time.Second

// Synthesizer implements tts.Synthesizer using the Wyoming protocol.
type Synthesizer struct {
	endpoint string // host:port of the Piper Wyoming server
}

// New creates a new Piper synthesizer from config.
func New(cfg config.PiperConfig) *Synthesizer {
	ep := strings.TrimPrefix(cfg.Endpoint, "tcp://")
	ep = strings.TrimPrefix(ep, "http://")
	return &Synthesizer{endpoint: ep}
}

// Synthesize sends text to the Piper server and collects the returned PCM.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (*tts.SynthesizeResult, error) {
	if s.endpoint == "" {
		return nil, fmt.Errorf("no piper endpoint configured: %w", tts.ErrEngineUnavailable)
	}

	slog.Debug("piper synthesize", "text_length", len(text), "endpoint", s.endpoint)

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to piper: %w: %w", tts.ErrEngineUnavailable, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	synthEvent := wyomingEvent{
		Type: "synthesize",
		Data: map[string]any{"text": text},
	}
	if err := writeEvent(conn, synthEvent, nil); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("sending synthesize event: %w", err)
	}

	// audio-start → audio-chunk* → audio-stop
	var (
		pcmBuf     bytes.Buffer
		sampleRate = 22050
		channels   = 1
		width      = 2
	)

	r := bufio.NewReader(conn)
	for {
		evt, payload, err := readEvent(r)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("piper closed the connection before audio-stop")
			}
			return nil, fmt.Errorf("reading piper event: %w", err)
		}

		switch evt.Type {
		case "audio-start":
			if rate, ok := evt.Data["rate"].(float64); ok {
				sampleRate = int(rate)
			}
			if ch, ok := evt.Data["channels"].(float64); ok {
				channels = int(ch)
			}
			if w, ok := evt.Data["width"].(float64); ok {
				width = int(w)
			}
			slog.Debug("piper audio-start", "rate", sampleRate, "channels", channels, "width", width)
			if width != 2 {
				return nil, fmt.Errorf("unsupported piper sample width %d", width)
			}

		case "audio-chunk":
			pcmBuf.Write(payload)

		case "audio-stop":
			slog.Debug("piper audio-stop", "pcm_bytes", pcmBuf.Len())
			pcm, err := audio.FromLE16(pcmBuf.Bytes(), sampleRate, channels)
			if err != nil {
				return nil, fmt.Errorf("decoding piper audio: %w", err)
			}
			return &tts.SynthesizeResult{Audio: pcm, Backend: "piper"}, nil

		case "error":
			msg := "unknown error"
			if text, ok := evt.Data["text"].(string); ok {
				msg = text
			}
			return nil, fmt.Errorf("piper error: %s", msg)

		default:
			slog.Debug("piper unknown event", "type", evt.Type)
		}
	}
}

// Close is a no-op; connections are per-request.
func (s *Synthesizer) Close() error { return nil }

// --- Wyoming framing ---
//
// The client sends one payload-less event and reads events until audio-stop
// or error. Only audio-chunk events carry a payload, and the header's
// payload_length is authoritative: a payload_length field inside the JSON
// is never written or trusted.

type wyomingEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// writeEvent frames evt and payload and writes them in a single call.
func writeEvent(w io.Writer, evt wyomingEvent, payload []byte) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d\n", len(body), len(payload))
	buf.Write(body)
	buf.WriteByte('\n')
	buf.Write(payload)

	_, err = w.Write(buf.Bytes())
	return err
}

// readEvent reads one framed event. The payload is nil for events without one.
func readEvent(r *bufio.Reader) (*wyomingEvent, []byte, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	jsonLen, payloadLen, err := parseHeader(strings.TrimSuffix(line, "\n"))
	if err != nil {
		return nil, nil, err
	}

	body := make([]byte, jsonLen+1) // JSON is followed by '\n'
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, fmt.Errorf("reading json: %w", err)
	}

	var evt wyomingEvent
	if err := json.Unmarshal(body[:jsonLen], &evt); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling event: %w", err)
	}

	if payloadLen == 0 {
		return &evt, nil, nil
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, nil, fmt.Errorf("reading payload: %w", err)
	}
	return &evt, payload, nil
}

// parseHeader splits "<json_length> <payload_length>".
func parseHeader(line string) (jsonLen, payloadLen int, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("invalid wyoming header: %q", line)
	}
	if jsonLen, err = strconv.Atoi(fields[0]); err != nil || jsonLen < 0 {
		return 0, 0, fmt.Errorf("invalid json_length in header %q", line)
	}
	if payloadLen, err = strconv.Atoi(fields[1]); err != nil || payloadLen < 0 {
		return 0, 0, fmt.Errorf("invalid payload_length in header %q", line)
	}
	return jsonLen, payloadLen, nil
}
