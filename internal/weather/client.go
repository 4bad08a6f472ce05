package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

var (
	errServerError = errors.New("server error")
	errRateLimited = errors.New("rate limited")
	errCircuitOpen = errors.New("circuit breaker open")
)

// Client fetches forecasts from the OpenWeatherMap forecast endpoint.
type Client struct {
	apiKey  string
	lang    string
	baseURL string
	httpCfg httpClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewClient builds a Client over a shared http.Client. lang selects the
// language of condition descriptions ("en", "es", ...).
func NewClient(httpClient *http.Client, apiKey, lang string) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweathermap",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:  apiKey,
		lang:    lang,
		baseURL: "https://api.openweathermap.org/data/2.5/forecast",
		httpCfg: httpClientConfig{
			client: httpClient,
			backoff: backoffConfig{
				maxRetries:      2,
				initialInterval: 500 * time.Millisecond,
				maxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

// Fetch requests the forecast for the given coordinates. A non-nil Forecast
// may still carry an API-level error; callers must check OK().
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (*Forecast, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweathermap api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", c.apiKey)
		values.Set("units", "metric")
		values.Set("lang", c.lang)
		values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload Forecast
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	return &payload, nil
}
