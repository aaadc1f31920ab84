package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

func TestLokutorSynthesizerStreamsBinaryChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		var req map[string]interface{}
		if err := wsjson.Read(r.Context(), conn, &req); err != nil {
			t.Errorf("read request: %v", err)
			return
		}
		if req["text"] != "hello there" {
			t.Errorf("request text = %v", req["text"])
		}

		conn.Write(r.Context(), websocket.MessageBinary, []byte{1, 2, 3, 4, 5, 6})
		conn.Write(r.Context(), websocket.MessageText, []byte("EOS"))
	}))
	defer server.Close()

	s := &LokutorSynthesizer{
		apiKey: "test-key",
		host:   strings.TrimPrefix(server.URL, "http://"),
		scheme: "ws",
		voice:  "ava",
		lang:   "en",
	}

	pcm, rate, err := s.Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if rate != nativeSampleRate {
		t.Errorf("sample rate = %d, want %d", rate, nativeSampleRate)
	}
	if len(pcm) != 3 {
		t.Errorf("pcm len = %d, want 3", len(pcm))
	}
	if s.Name() != "lokutor" {
		t.Errorf("Name() = %q", s.Name())
	}
}

func TestLokutorSynthesizerPropagatesRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		var req map[string]interface{}
		wsjson.Read(r.Context(), conn, &req)
		conn.Write(r.Context(), websocket.MessageText, []byte("ERR:synthesis failed"))
	}))
	defer server.Close()

	s := &LokutorSynthesizer{
		apiKey: "test-key",
		host:   strings.TrimPrefix(server.URL, "http://"),
		scheme: "ws",
		voice:  "ava",
		lang:   "en",
	}

	_, _, err := s.Synthesize(context.Background(), "bad request")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
