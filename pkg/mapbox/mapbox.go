package mapbox

import (
	"PotholeGolang/internal/entity"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Static map rendering constants; the report mail and response links assume
// this frame.
const (
	mapZoom   = 14
	mapWidth  = 600
	mapHeight = 400
)

type ItfMapbox interface {
	Enabled() bool
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
	StaticMap(ctx context.Context, lat, lng float64, severity entity.Severity) ([]byte, error)
}

type client struct {
	token      string
	apiBase    string
	httpClient *http.Client
}

func New() ItfMapbox {
	return &client{
		token:      os.Getenv("MAPBOX_ACCESS_TOKEN"),
		apiBase:    "https://api.mapbox.com",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *client) Enabled() bool {
	return c.token != ""
}

// ReverseGeocode resolves coordinates to the most relevant place name.
func (c *client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	if !c.Enabled() {
		return "", errors.New("mapbox access token not configured")
	}

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%f,%f.json?access_token=%s",
		c.apiBase, lng, lat, url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocoding API error: status %d", resp.StatusCode)
	}

	var payload struct {
		Features []struct {
			PlaceName string `json:"place_name"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode geocoding response: %w", err)
	}

	if len(payload.Features) == 0 {
		return "", errors.New("no address features found")
	}

	return payload.Features[0].PlaceName, nil
}

// StaticMap renders a map image with a severity-styled marker:
// High gets a large red pin, Medium a medium orange one, Low a small green one.
func (c *client) StaticMap(ctx context.Context, lat, lng float64, severity entity.Severity) ([]byte, error) {
	if !c.Enabled() {
		return nil, errors.New("mapbox access token not configured")
	}

	var pinSize, pinColor string
	switch severity {
	case entity.SeverityHigh:
		pinSize, pinColor = "l", "ff0000"
	case entity.SeverityMedium:
		pinSize, pinColor = "m", "ffaa00"
	default:
		pinSize, pinColor = "s", "00ff00"
	}

	marker := fmt.Sprintf("pin-%s+%s(%f,%f)", pinSize, pinColor, lng, lat)
	endpoint := fmt.Sprintf("%s/styles/v1/mapbox/streets-v12/static/%s/%f,%f,%d/%dx%d?access_token=%s",
		c.apiBase, marker, lng, lat, mapZoom, mapWidth, mapHeight, url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
