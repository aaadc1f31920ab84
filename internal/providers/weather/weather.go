// Package weather implements the tools.WeatherClient default against
// OpenWeatherMap. It accepts the place name the voice assistant actually
// hears and resolves it first via OpenWeatherMap's geocoding endpoint.
package weather

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client is the default tools.WeatherClient implementation.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New returns a Client. apiKey is the OpenWeatherMap API key.
func New(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    "https://api.openweathermap.org",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type geoResult struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

func (c *Client) geocode(location string) (geoResult, error) {
	endpoint := fmt.Sprintf("%s/geo/1.0/direct?q=%s&limit=1&appid=%s", c.baseURL, url.QueryEscape(location), c.apiKey)
	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return geoResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return geoResult{}, fmt.Errorf("openweathermap geocoding error (status %d)", resp.StatusCode)
	}
	var results []geoResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return geoResult{}, err
	}
	if len(results) == 0 {
		return geoResult{}, fmt.Errorf("no location found for %q", location)
	}
	return results[0], nil
}

type currentWeatherResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
}

// Current fetches today's conditions for location, geocoding it first.
func (c *Client) Current(location string) (string, error) {
	geo, err := c.geocode(location)
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/data/2.5/weather?lat=%f&lon=%f&appid=%s&units=metric", c.baseURL, geo.Lat, geo.Lon, c.apiKey)
	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openweathermap current weather error (status %d)", resp.StatusCode)
	}
	var cw currentWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&cw); err != nil {
		return "", err
	}
	description := "unknown conditions"
	if len(cw.Weather) > 0 {
		description = cw.Weather[0].Description
	}
	return fmt.Sprintf("%s: %s, %.1f°C (feels like %.1f°C), humidity %d%%", geo.Name, description, cw.Main.Temp, cw.Main.FeelsLike, cw.Main.Humidity), nil
}

type forecastResponse struct {
	List []struct {
		Dt      int64 `json:"dt"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	} `json:"list"`
}

// Forecast returns one summary line per 3-hour forecast entry OpenWeatherMap
// returns, capped by the caller (check_weather trims to 5).
func (c *Client) Forecast(location string) ([]string, error) {
	geo, err := c.geocode(location)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/data/2.5/forecast?lat=%f&lon=%f&appid=%s&units=metric", c.baseURL, geo.Lat, geo.Lon, c.apiKey)
	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openweathermap forecast error (status %d)", resp.StatusCode)
	}
	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range fr.List {
		description := "unknown conditions"
		if len(entry.Weather) > 0 {
			description = entry.Weather[0].Description
		}
		ts := time.Unix(entry.Dt, 0).Format("Mon 15:04")
		out = append(out, fmt.Sprintf("%s: %s, %.1f°C", ts, description, entry.Main.Temp))
	}
	return out, nil
}
