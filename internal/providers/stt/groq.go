// Package stt implements HTTP transcription clients against
// voice.Transcriber. The Groq and OpenAI clients upload the buffered
// utterance as a WAV file; the Deepgram and AssemblyAI clients send raw
// 16-bit PCM. Each wraps the provider's flat text result in a single
// Segment (the providers here are non-streaming/batch), and an empty
// transcription yields no segments.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/aurelio-voice/aurelio-server/internal/audio"
	"github.com/aurelio-voice/aurelio-server/internal/protocol"
	"github.com/aurelio-voice/aurelio-server/internal/voice"
)

// GroqTranscriber calls Groq's Whisper-compatible /audio/transcriptions
// endpoint.
type GroqTranscriber struct {
	apiKey     string
	url        string
	model      string
	sampleRate int
	client     *http.Client
}

// NewGroqTranscriber returns a GroqTranscriber; model defaults to
// whisper-large-v3-turbo.
func NewGroqTranscriber(apiKey, model string) *GroqTranscriber {
	if model == "" {
		model = "whisper-large-v3-turbo"
	}
	return &GroqTranscriber{
		apiKey:     apiKey,
		url:        "https://api.groq.com/openai/v1/audio/transcriptions",
		model:      model,
		sampleRate: 16000,
		client:     http.DefaultClient,
	}
}

func (s *GroqTranscriber) Transcribe(ctx context.Context, pcm []float32) ([]voice.Segment, error) {
	wavData := audio.NewWavBuffer(protocol.PCMToInt16LE(pcm), s.sampleRate)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model", s.model); err != nil {
		return nil, err
	}
	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, bytes.NewReader(wavData)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("groq stt error (status %d): %v", resp.StatusCode, errResp)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if result.Text == "" {
		return nil, nil
	}
	return []voice.Segment{{Text: result.Text}}, nil
}

func (s *GroqTranscriber) Name() string { return "groq-stt" }
