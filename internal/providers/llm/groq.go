package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GroqModel streams chat completions from Groq's OpenAI-compatible
// /openai/v1/chat/completions endpoint. Groq is the default LLM provider
// for cmd/server.
type GroqModel struct {
	apiKey string
	url    string
	model  string
	client *http.Client
}

// NewGroqModel returns a GroqModel; model defaults to
// llama-3.3-70b-versatile.
func NewGroqModel(apiKey, model string) *GroqModel {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	return &GroqModel{
		apiKey: apiKey,
		url:    "https://api.groq.com/openai/v1/chat/completions",
		model:  model,
		client: http.DefaultClient,
	}
}

// StreamComplete mirrors OpenAIModel.StreamComplete's request/response
// shape, since Groq's chat-completions API is OpenAI-compatible.
func (l *GroqModel) StreamComplete(ctx context.Context, prompt string, onToken func(string) error) error {
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
		return fmt.Errorf("groq llm error (status %d): %v", resp.StatusCode, errResp)
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
			return nil
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

func (l *GroqModel) Name() string { return "groq-llm" }
