package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GoogleModel streams completions from Gemini's
// streamGenerateContent?alt=sse endpoint.
type GoogleModel struct {
	apiKey string
	url    string
	model  string
	client *http.Client
}

// NewGoogleModel returns a GoogleModel; model defaults to gemini-1.5-flash.
func NewGoogleModel(apiKey, model string) *GoogleModel {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GoogleModel{
		apiKey: apiKey,
		url:    "https://generativelanguage.googleapis.com/v1beta/models/" + model + ":streamGenerateContent",
		model:  model,
		client: http.DefaultClient,
	}
}

func (l *GoogleModel) StreamComplete(ctx context.Context, prompt string, onToken func(string) error) error {
	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"role": "user", "parts": []map[string]string{{"text": prompt}}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url+"?alt=sse&key="+l.apiKey, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("google llm error (status %d): %v", resp.StatusCode, errResp)
	}

	scanner := bufio.NewScanner(resp.Body)
	return scanSSELines(scanner, func(data string) error {
		var chunk struct {
			Candidates []struct {
				Content struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"content"`
			} `json:"candidates"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil
		}
		if len(chunk.Candidates) == 0 {
			return nil
		}
		for _, part := range chunk.Candidates[0].Content.Parts {
			if part.Text == "" {
				continue
			}
			if err := onToken(part.Text); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *GoogleModel) Name() string { return "google-llm" }
