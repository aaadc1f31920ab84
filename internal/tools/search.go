package tools

import (
	"fmt"

	"github.com/aurelio-voice/aurelio-server/internal/session"
)

// WebResult is one web-search hit.
type WebResult struct {
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Link    string `json:"link"`
}

// WikiResult is one Wikipedia search hit.
type WikiResult struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

// SearchClient performs web and Wikipedia searches. The default
// implementation (internal/providers/search) scrapes DuckDuckGo's HTML
// results page and calls Wikipedia's public JSON API; it is swappable so
// tests can supply a fake.
type SearchClient interface {
	Web(query string, n int) ([]WebResult, error)
	Wikipedia(query string) ([]WikiResult, error)
}

// NewPerformSearchSpec returns the perform_search tool, dispatching to either
// the web or wikipedia source depending on the "source" parameter.
func NewPerformSearchSpec(client SearchClient) Spec {
	return Spec{
		Name:         "perform_search",
		ParamSummary: "query, source (web|wikipedia), number?=10",
		Handler: func(p Params, sess *session.Session) (Result, error) {
			query := p.str("query", "")
			source := p.str("source", "")
			n := p.intDefault("number", 10)

			switch source {
			case "web":
				enqueue(sess, fmt.Sprintf("Performing web search: '%s'", query))
				results, err := client.Web(query, n)
				if err != nil {
					return Result{"response": fmt.Sprintf("Error in web search: %v", err)}, nil
				}
				if len(results) == 0 {
					return Result{"response": []WebResult{{Link: "", Snippet: "no results found, probably web search tool failure"}}}, nil
				}
				return Result{"response": results}, nil

			case "wikipedia":
				enqueue(sess, fmt.Sprintf("Performing research on Wikipedia on subject: %s", query))
				results, err := client.Wikipedia(query)
				if err != nil {
					return Result{"response": fmt.Sprintf("Error in Wikipedia search: %v", err)}, nil
				}
				return Result{"response": results}, nil

			default:
				return Result{"error": `Invalid source specified. Choose "web" or "wikipedia".`}, nil
			}
		},
	}
}
