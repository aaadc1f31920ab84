package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAssemblyAITranscriberPollsUntilCompleted(t *testing.T) {
	polls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(struct {
			UploadURL string `json:"upload_url"`
		}{UploadURL: "https://cdn.assemblyai.com/upload/abc"})
	})
	mux.HandleFunc("/v2/transcript", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(struct {
			ID string `json:"id"`
		}{ID: "t1"})
	})
	mux.HandleFunc("/v2/transcript/t1", func(w http.ResponseWriter, r *http.Request) {
		polls++
		status := "processing"
		if polls >= 2 {
			status = "completed"
		}
		json.NewEncoder(w).Encode(struct {
			Status string `json:"status"`
			Text   string `json:"text"`
		}{Status: status, Text: "hello there"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := &AssemblyAITranscriber{apiKey: "test-key", baseURL: server.URL, client: server.Client()}
	segments, err := s.Transcribe(context.Background(), []float32{0, 0.1})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segments) != 1 || segments[0].Text != "hello there" {
		t.Errorf("segments = %+v", segments)
	}
	if polls < 2 {
		t.Errorf("expected at least 2 polls, got %d", polls)
	}
	if s.Name() != "assemblyai-stt" {
		t.Errorf("Name() = %q", s.Name())
	}
}

func TestAssemblyAITranscriberErrorStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(struct {
			UploadURL string `json:"upload_url"`
		}{UploadURL: "https://cdn.assemblyai.com/upload/abc"})
	})
	mux.HandleFunc("/v2/transcript", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(struct {
			ID string `json:"id"`
		}{ID: "t1"})
	})
	mux.HandleFunc("/v2/transcript/t1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(struct {
			Status string `json:"status"`
		}{Status: "error"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := &AssemblyAITranscriber{apiKey: "k", baseURL: server.URL, client: server.Client()}
	_, err := s.Transcribe(context.Background(), []float32{0})
	if err == nil {
		t.Fatal("expected error for error status")
	}
}
