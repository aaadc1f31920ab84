// Package homeassistant implements tools.HomeAutomationClient and
// promptx.HomeAutomationDigester against a Home Assistant REST API.
package homeassistant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client calls Home Assistant's /api/services and /api/states endpoints.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New returns a Client. baseURL is Home Assistant's base address, e.g.
// "http://homeassistant.local:8123".
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(method, path string, body interface{}) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

// SetSwitch calls switch.turn_on or switch.turn_off for entityID.
func (c *Client) SetSwitch(entityID string, on bool) error {
	service := "turn_off"
	if on {
		service = "turn_on"
	}
	resp, err := c.do(http.MethodPost, "/api/services/switch/"+service, map[string]string{"entity_id": "switch." + entityID})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("home assistant error (status %d)", resp.StatusCode)
	}
	return nil
}

// ActivateScene calls scene.turn_on for entityID.
func (c *Client) ActivateScene(entityID string) error {
	resp, err := c.do(http.MethodPost, "/api/services/scene/turn_on", map[string]string{"entity_id": "scene." + entityID})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("home assistant error (status %d)", resp.StatusCode)
	}
	return nil
}

type stateEntry struct {
	EntityID string `json:"entity_id"`
	State    string `json:"state"`
}

// Digest implements promptx.HomeAutomationDigester: a flat, one-line-per-
// entity summary of switches and lights appended to the prompt preamble so
// the model can reference current device state without a tool round trip.
func (c *Client) Digest() (string, error) {
	resp, err := c.do(http.MethodGet, "/api/states", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("home assistant states error (status %d)", resp.StatusCode)
	}
	var states []stateEntry
	if err := json.NewDecoder(resp.Body).Decode(&states); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, s := range states {
		if !strings.HasPrefix(s.EntityID, "switch.") && !strings.HasPrefix(s.EntityID, "light.") {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", s.EntityID, s.State)
	}
	return b.String(), nil
}
