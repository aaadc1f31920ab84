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

// OpenAITranscriber calls OpenAI's /v1/audio/transcriptions endpoint.
type OpenAITranscriber struct {
	apiKey     string
	url        string
	model      string
	sampleRate int
	client     *http.Client
}

// NewOpenAITranscriber returns an OpenAITranscriber; model defaults to
// whisper-1.
func NewOpenAITranscriber(apiKey, model string) *OpenAITranscriber {
	if model == "" {
		model = "whisper-1"
	}
	return &OpenAITranscriber{
		apiKey:     apiKey,
		url:        "https://api.openai.com/v1/audio/transcriptions",
		model:      model,
		sampleRate: 16000,
		client:     http.DefaultClient,
	}
}

func (s *OpenAITranscriber) Transcribe(ctx context.Context, pcm []float32) ([]voice.Segment, error) {
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
	if _, err := part.Write(wavData); err != nil {
		return nil, err
	}
	writer.Close()

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
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai stt error: %s (status %d)", string(respBody), resp.StatusCode)
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

func (s *OpenAITranscriber) Name() string { return "openai-stt" }
