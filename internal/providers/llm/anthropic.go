package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// AnthropicModel streams completions from Anthropic's /v1/messages
// endpoint, parsing the server-sent content_block_delta events into a
// running token callback.
type AnthropicModel struct {
	apiKey string
	url    string
	model  string
	client *http.Client
}

// NewAnthropicModel returns an AnthropicModel; model defaults to
// claude-3-5-sonnet-20240620.
func NewAnthropicModel(apiKey, model string) *AnthropicModel {
	if model == "" {
		model = "claude-3-5-sonnet-20240620"
	}
	return &AnthropicModel{
		apiKey: apiKey,
		url:    "https://api.anthropic.com/v1/messages",
		model:  model,
		client: http.DefaultClient,
	}
}

func (l *AnthropicModel) StreamComplete(ctx context.Context, prompt string, onToken func(string) error) error {
	payload := map[string]interface{}{
		"model":      l.model,
		"messages":   []map[string]string{{"role": "user", "content": prompt}},
		"max_tokens": 1024,
		"stream":     true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", l.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("anthropic llm error (status %d): %v", resp.StatusCode, errResp)
	}

	scanner := bufio.NewScanner(resp.Body)
	return scanSSELines(scanner, func(data string) error {
		var event struct {
			Type  string `json:"type"`
			Delta struct {
				Text string `json:"text"`
			} `json:"delta"`
		}
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return nil
		}
		if event.Type != "content_block_delta" || event.Delta.Text == "" {
			return nil
		}
		return onToken(event.Delta.Text)
	})
}

func (l *AnthropicModel) Name() string { return "anthropic-llm" }
