package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/tmc-data-etl/internal/domain"
	"github.com/couchcryptid/tmc-data-etl/internal/observability"
)

// Client implements domain.Geocoder using the Google Geocoding API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Google geocoding client.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://maps.googleapis.com/maps/api/geocode/json",
		metrics: metrics,
		logger:  logger,
	}
}

// Geocode resolves a free-text location query, e.g. "Main St and Oak Ave,
// Bristol PA", to coordinates. A query with no matches is an error: an
// intersection that cannot be located should be flagged, not plotted at 0,0.
func (c *Client) Geocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	params := url.Values{
		"address": {query},
		"key":     {c.apiKey},
	}

	start := time.Now()
	result, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
	case result.FormattedAddress == "":
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		err = fmt.Errorf("no geocoding results for %q", query)
	default:
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	}
	return result, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.GeocodingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.GeocodingResult{}, fmt.Errorf("geocoding API error: status %d: %s", resp.StatusCode, body)
	}

	var apiResp response
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}

	switch apiResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return domain.GeocodingResult{}, nil
	default:
		return domain.GeocodingResult{}, fmt.Errorf("geocoding API status %s: %s", apiResp.Status, apiResp.ErrorMessage)
	}

	if len(apiResp.Results) == 0 {
		return domain.GeocodingResult{}, nil
	}

	r := apiResp.Results[0]
	return domain.GeocodingResult{
		Geo: domain.Geo{
			Lat: r.Geometry.Location.Lat,
			Lon: r.Geometry.Location.Lng,
		},
		FormattedAddress: r.FormattedAddress,
	}, nil
}

// Google Geocoding API response types.

type response struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Results      []result `json:"results"`
}

type result struct {
	FormattedAddress string   `json:"formatted_address"`
	Geometry         geometry `json:"geometry"`
}

type geometry struct {
	Location location `json:"location"`
}

type location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
