// Package llm implements HTTP-based LLM clients (Anthropic/OpenAI/Google/Groq)
// against voice.ModelClient's StreamComplete/onToken contract, sending each
// provider's request payload with stream:true and parsing its
// server-sent-event response.
package llm

import (
	"bufio"
	"strings"
)

// scanSSELines calls onData for each "data: ..." payload in an SSE stream,
// stopping at the first onData error or at a literal "[DONE]" payload.
func scanSSELines(scanner *bufio.Scanner, onData func(data string) error) error {
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil
		}
		if err := onData(data); err != nil {
			return err
		}
	}
	return scanner.Err()
}
