// Package search implements the tools.SearchClient default: a DuckDuckGo
// HTML scrape for general web results and Wikipedia's public JSON API for
// encyclopedia summaries.
package search

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/aurelio-voice/aurelio-server/internal/tools"
)

// Client is the default tools.SearchClient implementation.
type Client struct {
	httpClient  *http.Client
	duckduckgo  string
	wikiSearch  string
	wikiSummary string
}

// New returns a Client with a 10 second request timeout, pointed at the
// real DuckDuckGo and Wikipedia hosts.
func New() *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		duckduckgo:  "https://html.duckduckgo.com/html/",
		wikiSearch:  "https://en.wikipedia.org/w/api.php",
		wikiSummary: "https://en.wikipedia.org/api/rest_v1/page/summary/",
	}
}

// resultLink matches one DuckDuckGo HTML result anchor: <a rel="nofollow"
// class="result__a" href="...">Title</a>.
var resultLink = regexp.MustCompile(`(?s)<a rel="nofollow" class="result__a" href="([^"]+)">(.*?)</a>`)
var resultSnippet = regexp.MustCompile(`(?s)<a class="result__snippet"[^>]*>(.*?)</a>`)
var tagStrip = regexp.MustCompile(`<[^>]+>`)

// Web scrapes DuckDuckGo's no-JS HTML results page for up to n hits.
func (c *Client) Web(query string, n int) ([]tools.WebResult, error) {
	if n <= 0 {
		n = 10
	}
	endpoint := c.duckduckgo + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; aurelio-voice/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo search error (status %d)", resp.StatusCode)
	}

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	html := string(buf)

	links := resultLink.FindAllStringSubmatch(html, -1)
	snippets := resultSnippet.FindAllStringSubmatch(html, -1)

	var out []tools.WebResult
	for i, l := range links {
		if len(out) >= n {
			break
		}
		title := cleanText(l[2])
		link := cleanLink(l[1])
		snippet := ""
		if i < len(snippets) {
			snippet = cleanText(snippets[i][1])
		}
		out = append(out, tools.WebResult{Title: title, Snippet: snippet, Link: link})
	}
	return out, nil
}

func cleanText(s string) string {
	return strings.TrimSpace(tagStrip.ReplaceAllString(s, ""))
}

// cleanLink unwraps DuckDuckGo's "/l/?uddg=<encoded>" redirect wrapper when
// present, returning the real destination URL.
func cleanLink(href string) string {
	if !strings.HasPrefix(href, "//duckduckgo.com/l/") && !strings.HasPrefix(href, "/l/") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if real := u.Query().Get("uddg"); real != "" {
		if decoded, err := url.QueryUnescape(real); err == nil {
			return decoded
		}
	}
	return href
}

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

// Wikipedia queries the public MediaWiki search API for the top match and
// returns its summary via the REST summary endpoint.
func (c *Client) Wikipedia(query string) ([]tools.WikiResult, error) {
	searchURL := c.wikiSearch + "?action=query&list=search&format=json&srsearch=" + url.QueryEscape(query)
	resp, err := c.httpClient.Get(searchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia search error (status %d)", resp.StatusCode)
	}

	var sr wikiSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, err
	}
	if len(sr.Query.Search) == 0 {
		return nil, nil
	}

	var out []tools.WikiResult
	for _, hit := range sr.Query.Search {
		summary, pageURL, err := c.summary(hit.Title)
		if err != nil {
			out = append(out, tools.WikiResult{Title: hit.Title, Summary: cleanText(hit.Snippet)})
			continue
		}
		out = append(out, tools.WikiResult{Title: hit.Title, Summary: summary, URL: pageURL})
	}
	return out, nil
}

type wikiSummaryResponse struct {
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

func (c *Client) summary(title string) (string, string, error) {
	endpoint := c.wikiSummary + url.PathEscape(title)
	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("wikipedia summary error (status %d)", resp.StatusCode)
	}
	var sr wikiSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", "", err
	}
	return sr.Extract, sr.ContentURLs.Desktop.Page, nil
}
