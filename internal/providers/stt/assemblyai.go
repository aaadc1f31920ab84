package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aurelio-voice/aurelio-server/internal/protocol"
	"github.com/aurelio-voice/aurelio-server/internal/voice"
)

// AssemblyAITranscriber uploads raw PCM, submits an async transcription
// job, and polls for completion.
type AssemblyAITranscriber struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewAssemblyAITranscriber returns an AssemblyAITranscriber.
func NewAssemblyAITranscriber(apiKey string) *AssemblyAITranscriber {
	return &AssemblyAITranscriber{
		apiKey:  apiKey,
		baseURL: "https://api.assemblyai.com",
		client:  http.DefaultClient,
	}
}

func (s *AssemblyAITranscriber) Transcribe(ctx context.Context, pcm []float32) ([]voice.Segment, error) {
	uploadURL, err := s.upload(ctx, protocol.PCMToInt16LE(pcm))
	if err != nil {
		return nil, err
	}
	transcriptID, err := s.submit(ctx, uploadURL)
	if err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
			text, status, err := s.getTranscript(ctx, transcriptID)
			if err != nil {
				return nil, err
			}
			if status == "completed" {
				if text == "" {
					return nil, nil
				}
				return []voice.Segment{{Text: text}}, nil
			}
			if status == "error" {
				return nil, fmt.Errorf("assemblyai transcription failed")
			}
		}
	}
}

func (s *AssemblyAITranscriber) upload(ctx context.Context, pcm []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v2/upload", bytes.NewReader(pcm))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		UploadURL string `json:"upload_url"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	return result.UploadURL, nil
}

func (s *AssemblyAITranscriber) submit(ctx context.Context, uploadURL string) (string, error) {
	body, _ := json.Marshal(map[string]interface{}{"audio_url": uploadURL})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v2/transcript", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		ID string `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	return result.ID, nil
}

func (s *AssemblyAITranscriber) getTranscript(ctx context.Context, id string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v2/transcript/"+id, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	var result struct {
		Status string `json:"status"`
		Text   string `json:"text"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	return result.Text, result.Status, nil
}

func (s *AssemblyAITranscriber) Name() string { return "assemblyai-stt" }
