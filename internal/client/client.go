package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mfreitag/weather-archiver/internal/observability"
)

// WeatherFetcher fetches the current observation for one city and returns
// the raw upstream body. The body is guaranteed to be valid JSON.
type WeatherFetcher interface {
	FetchCurrent(ctx context.Context, city string) (json.RawMessage, error)
}

// HTTPError reports a non-2xx response from the weather API. The status and
// body are kept so the caller can log what upstream actually said.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("weather api returned HTTP %d: %s", e.StatusCode, e.Body)
}

// TransportError reports a request that never produced a response: DNS
// failure, refused connection, timeout.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("weather api unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// maxErrorBodyBytes bounds how much of an error response is retained for
// logging.
const maxErrorBodyBytes = 2048

// OpenWeatherClient issues one GET per city against the OpenWeatherMap
// current-weather endpoint. No retries and no caching: a failed city is the
// caller's problem to skip.
type OpenWeatherClient struct {
	apiKey        string
	apiURL        string
	correlationID string
	client        *http.Client
}

// NewOpenWeatherClient builds a client with a bounded per-request timeout.
// correlationID, when non-empty, is sent as X-Correlation-ID on every
// request so one batch run can be traced through upstream logs.
func NewOpenWeatherClient(apiKey, apiURL string, timeout time.Duration, correlationID string) *OpenWeatherClient {
	return &OpenWeatherClient{
		apiKey:        apiKey,
		apiURL:        apiURL,
		correlationID: correlationID,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchCurrent performs the GET for one city. Units are fixed at imperial;
// the measurement unit is deployment configuration, not a caller choice.
func (c *OpenWeatherClient) FetchCurrent(ctx context.Context, city string) (json.RawMessage, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, city)
	if err != nil {
		observability.WeatherFetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.WeatherFetchesTotal.WithLabelValues("transport_error").Inc()
		observability.WeatherFetchDuration.WithLabelValues("transport_error").Observe(time.Since(start).Seconds())
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.WeatherFetchesTotal.WithLabelValues(status).Inc()
	observability.WeatherFetchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("weather api returned invalid JSON (%d bytes)", len(body))
	}

	return json.RawMessage(body), nil
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, city string) (*http.Request, error) {
	base, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	params.Set("units", "imperial")
	base.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.correlationID != "" {
		req.Header.Set("X-Correlation-ID", c.correlationID)
	}
	return req, nil
}
