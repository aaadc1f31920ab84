// Package tts implements a websocket-based Lokutor TTS client as a
// voice.Synthesizer, accumulating the binary PCM frames a synthesis request
// streams back into one float32 buffer at the service's native rate; the
// TTS egress pipeline resamples to 16 kHz itself.
package tts

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/aurelio-voice/aurelio-server/internal/protocol"
)

// nativeSampleRate is Lokutor's synthesis output rate.
const nativeSampleRate = 24000

// LokutorSynthesizer streams text-to-speech over a persistent websocket
// connection, reconnecting lazily the next time Synthesize is called after a
// read or write failure.
type LokutorSynthesizer struct {
	apiKey string
	host   string
	scheme string
	voice  string
	lang   string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewLokutorSynthesizer returns a LokutorSynthesizer for the given default
// voice/language.
func NewLokutorSynthesizer(apiKey, voice, lang string) *LokutorSynthesizer {
	return &LokutorSynthesizer{
		apiKey: apiKey,
		host:   "api.lokutor.com",
		scheme: "wss",
		voice:  voice,
		lang:   lang,
	}
}

func (t *LokutorSynthesizer) getConn(ctx context.Context) (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return t.conn, nil
	}

	u := url.URL{Scheme: t.scheme, Host: t.host, Path: "/ws", RawQuery: "api_key=" + t.apiKey}
	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to lokutor: %w", err)
	}
	t.conn = conn
	return conn, nil
}

// Synthesize renders text to float32 PCM at nativeSampleRate by draining a
// StreamSynthesize call into one buffer.
func (t *LokutorSynthesizer) Synthesize(ctx context.Context, text string) ([]float32, int, error) {
	var raw []byte
	err := t.streamSynthesize(ctx, text, func(chunk []byte) error {
		raw = append(raw, chunk...)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return protocol.PCMFromInt16LE(raw), nativeSampleRate, nil
}

func (t *LokutorSynthesizer) streamSynthesize(ctx context.Context, text string, onChunk func([]byte) error) error {
	conn, err := t.getConn(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	req := map[string]interface{}{
		"text":    text,
		"voice":   t.voice,
		"lang":    t.lang,
		"speed":   1.05,
		"steps":   5,
		"version": "versa-1.0",
	}

	if err := wsjson.Write(ctx, conn, req); err != nil {
		t.conn = nil
		conn.Close(websocket.StatusAbnormalClosure, "failed to write json")
		return fmt.Errorf("failed to send synthesis request: %w", err)
	}

	for {
		messageType, payload, err := conn.Read(ctx)
		if err != nil {
			t.conn = nil
			conn.Close(websocket.StatusAbnormalClosure, "failed to read")
			return fmt.Errorf("failed to read from lokutor: %w", err)
		}

		switch messageType {
		case websocket.MessageBinary:
			if err := onChunk(payload); err != nil {
				return err
			}
		case websocket.MessageText:
			msg := string(payload)
			if msg == "EOS" {
				return nil
			}
			if len(msg) >= 4 && msg[:4] == "ERR:" {
				return fmt.Errorf("lokutor error: %s", msg)
			}
		}
	}
}

func (t *LokutorSynthesizer) Name() string { return "lokutor" }

// Close releases the underlying websocket connection, if any.
func (t *LokutorSynthesizer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		err := t.conn.Close(websocket.StatusNormalClosure, "")
		t.conn = nil
		return err
	}
	return nil
}
