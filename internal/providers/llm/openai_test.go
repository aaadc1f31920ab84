package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIModelStreamComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{"Hello", ", ", "world!"}
		for _, c := range chunks {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	l := &OpenAIModel{apiKey: "test-key", url: server.URL, model: "gpt-4o", client: server.Client()}

	var got strings.Builder
	err := l.StreamComplete(context.Background(), "hi", func(chunk string) error {
		got.WriteString(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamComplete: %v", err)
	}
	if got.String() != "Hello, world!" {
		t.Errorf("got = %q, want %q", got.String(), "Hello, world!")
	}
	if l.Name() != "openai-llm" {
		t.Errorf("Name() = %q", l.Name())
	}
}

func TestOpenAIModelStopsOnCallbackError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"first\"}}]}\n\n")
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"second\"}}]}\n\n")
	}))
	defer server.Close()

	l := &OpenAIModel{apiKey: "k", url: server.URL, model: "gpt-4o", client: server.Client()}

	var seen []string
	stopErr := fmt.Errorf("stop")
	err := l.StreamComplete(context.Background(), "hi", func(chunk string) error {
		seen = append(seen, chunk)
		return stopErr
	})
	if err != stopErr {
		t.Fatalf("expected callback error to propagate, got %v", err)
	}
	if len(seen) != 1 {
		t.Errorf("expected stream to stop after first chunk, saw %v", seen)
	}
}
