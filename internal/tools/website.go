package tools

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/aurelio-voice/aurelio-server/internal/session"
)

const (
	openWebsiteMaxRetries = 3
	openWebsiteBackoff    = 2 * time.Second
	openWebsiteMaxChars   = 8000
	openWebsiteUserAgent  = "Mozilla/5.0 (compatible; aurelio-agent/1.0)"
)

// HTTPDoer is the subset of *http.Client used by open_website, so tests can
// substitute a fake transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewOpenWebsiteSpec returns the open_website tool: HTTP GET with a browser
// user agent, up to openWebsiteMaxRetries retries with a fixed backoff, HTML
// text extraction, truncated to openWebsiteMaxChars.
func NewOpenWebsiteSpec(client HTTPDoer) Spec {
	return Spec{
		Name:         "open_website",
		ParamSummary: "url",
		Handler: func(p Params, sess *session.Session) (Result, error) {
			url := p.str("url", "")

			var lastErr error
			for attempt := 0; attempt < openWebsiteMaxRetries; attempt++ {
				text, err := fetchAndExtractText(client, url)
				if err == nil {
					enqueue(sess, fmt.Sprintf("Opened Website: %s", url))
					return Result{"response": truncate(text, openWebsiteMaxChars)}, nil
				}
				lastErr = err
				if attempt < openWebsiteMaxRetries-1 {
					time.Sleep(openWebsiteBackoff)
				}
			}
			enqueue(sess, fmt.Sprintf("Opened Website: %s", url))
			return Result{"response": fmt.Sprintf("Failed to open web link after %d attempts: %v", openWebsiteMaxRetries, lastErr)}, nil
		},
	}
}

func fetchAndExtractText(client HTTPDoer, url string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", openWebsiteUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	return extractText(resp.Body)
}

// extractText walks an HTML token stream and concatenates text-node
// content, skipping script/style bodies.
func extractText(r io.Reader) (string, error) {
	tokenizer := html.NewTokenizer(r)
	var b strings.Builder
	skip := 0
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			if tokenizer.Err() == io.EOF {
				return b.String(), nil
			}
			return "", tokenizer.Err()
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skip++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					b.WriteString(text)
					b.WriteString(" ")
				}
			}
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
