package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// OpenAIModel streams chat completions from OpenAI's
// /v1/chat/completions endpoint.
type OpenAIModel struct {
	apiKey string
	url    string
	model  string
	client *http.Client
}

// NewOpenAIModel returns an OpenAIModel; model defaults to gpt-4o.
func NewOpenAIModel(apiKey, model string) *OpenAIModel {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIModel{
		apiKey: apiKey,
		url:    "https://api.openai.com/v1/chat/completions",
		model:  model,
		client: http.DefaultClient,
	}
}

// StreamComplete renders the rendered prompt as a single user message
// (the prompt already embeds the chat-template sentinels per
// internal/promptx.Assembler) and streams token deltas to onToken.
func (l *OpenAIModel) StreamComplete(ctx context.Context, prompt string, onToken func(string) error) error {
	payload := map[string]interface{}{
		"model":    l.model,
		"messages": []map[string]string{{"role": "user", "content": prompt}},
		"stream":   true,
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
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("openai llm error (status %d): %v", resp.StatusCode, errResp)
	}

	scanner := bufio.NewScanner(resp.Body)
	return scanSSELines(scanner, func(data string) error {
		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil // tolerate keep-alive/malformed lines
		}
		if len(chunk.Choices) == 0 {
			return nil
		}
		if text := chunk.Choices[0].Delta.Content; text != "" {
			return onToken(text)
		}
		return nil
	})
}

func (l *OpenAIModel) Name() string { return "openai-llm" }
