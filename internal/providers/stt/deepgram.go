package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/aurelio-voice/aurelio-server/internal/protocol"
	"github.com/aurelio-voice/aurelio-server/internal/voice"
)

// DeepgramTranscriber posts raw 16-bit PCM to Deepgram's /v1/listen
// endpoint.
type DeepgramTranscriber struct {
	apiKey string
	url    string
	client *http.Client
}

// NewDeepgramTranscriber returns a DeepgramTranscriber.
func NewDeepgramTranscriber(apiKey string) *DeepgramTranscriber {
	return &DeepgramTranscriber{
		apiKey: apiKey,
		url:    "https://api.deepgram.com/v1/listen",
		client: http.DefaultClient,
	}
}

func (s *DeepgramTranscriber) Transcribe(ctx context.Context, pcm []float32) ([]voice.Segment, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return nil, err
	}
	params := u.Query()
	params.Set("model", "nova-2")
	params.Set("smart_format", "true")
	u.RawQuery = params.Encode()

	body := protocol.PCMToInt16LE(pcm)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+s.apiKey)
	req.Header.Set("Content-Type", "audio/l16; rate=16000; channels=1")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("deepgram error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Transcript string `json:"transcript"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if len(result.Results.Channels) == 0 || len(result.Results.Channels[0].Alternatives) == 0 {
		return nil, nil
	}
	text := result.Results.Channels[0].Alternatives[0].Transcript
	if text == "" {
		return nil, nil
	}
	return []voice.Segment{{Text: text}}, nil
}

func (s *DeepgramTranscriber) Name() string { return "deepgram-stt" }
