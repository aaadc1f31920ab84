package tools

import (
	"fmt"

	"github.com/aurelio-voice/aurelio-server/internal/session"
)

// WeatherClient fetches current conditions and short-range forecasts. The
// default implementation (internal/providers/weather) calls OpenWeatherMap's
// /weather and /forecast endpoints.
type WeatherClient interface {
	Current(location string) (string, error)
	Forecast(location string) ([]string, error)
}

// NewCheckWeatherSpec returns the check_weather tool. defaultLocation is
// used when the model omits "location".
func NewCheckWeatherSpec(client WeatherClient, defaultLocation string) Spec {
	return Spec{
		Name:         "check_weather",
		ParamSummary: "location?=default, forecast?=false",
		Handler: func(p Params, sess *session.Session) (Result, error) {
			location := p.str("location", defaultLocation)
			forecast := p.boolean("forecast", false)

			enqueue(sess, fmt.Sprintf("Fetching weather for %s", location))

			if forecast {
				enqueue(sess, "Fetching 5 day forecast")
				entries, err := client.Forecast(location)
				if err != nil {
					return Result{"response": fmt.Sprintf("Error fetching forecast: %v", err)}, nil
				}
				if len(entries) > 5 {
					entries = entries[:5]
				}
				return Result{"response": entries}, nil
			}

			current, err := client.Current(location)
			if err != nil {
				return Result{"response": fmt.Sprintf("Error fetching current weather: %v", err)}, nil
			}
			return Result{"response": current}, nil
		},
	}
}
