// Package google talks to the Google Maps Platform web services used for
// route geometry and terrain elevation.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tripsense/tripsense/internal/core/domain"
	"github.com/tripsense/tripsense/internal/core/ports"
	"github.com/tripsense/tripsense/internal/pkg/polyline"
)

// DirectionsClient fetches driving routes from the Google Directions API.
type DirectionsClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewDirectionsClient creates a DirectionsClient.
func NewDirectionsClient(client *http.Client, baseURL, apiKey string) *DirectionsClient {
	return &DirectionsClient{client: client, baseURL: baseURL, apiKey: apiKey}
}

type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// FetchRoute requests one driving route between origin and destination,
// optionally via waypoints, and decodes its overview polyline.
func (c *DirectionsClient) FetchRoute(ctx context.Context, origin, destination domain.GeoPoint, waypoints []domain.GeoPoint) (*domain.DirectionsRoute, error) {
	q := url.Values{}
	q.Set("origin", formatPoint(origin))
	q.Set("destination", formatPoint(destination))
	q.Set("mode", "driving")
	q.Set("key", c.apiKey)
	if len(waypoints) > 0 {
		parts := make([]string, len(waypoints))
		for i, wp := range waypoints {
			parts[i] = formatPoint(wp)
		}
		q.Set("waypoints", strings.Join(parts, "|"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build directions request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call directions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ports.UpstreamError{Provider: "google-directions", Status: resp.StatusCode}
	}

	var body directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode directions response: %w", err)
	}

	if body.Status == "ZERO_RESULTS" || len(body.Routes) == 0 {
		return nil, ports.ErrNoRoute
	}
	if body.Status != "OK" {
		return nil, fmt.Errorf("directions status %s", body.Status)
	}

	route := body.Routes[0]
	points, err := polyline.Decode(route.OverviewPolyline.Points)
	if err != nil {
		return nil, fmt.Errorf("decode route polyline: %w", err)
	}
	if len(points) == 0 {
		return nil, ports.ErrNoRoute
	}

	var distance, duration float64
	for _, leg := range route.Legs {
		distance += leg.Distance.Value
		duration += leg.Duration.Value
	}

	return &domain.DirectionsRoute{
		Polyline:             route.OverviewPolyline.Points,
		Points:               points,
		TotalDistanceMeters:  distance,
		TotalDurationSeconds: duration,
	}, nil
}

func formatPoint(pt domain.GeoPoint) string {
	return fmt.Sprintf("%f,%f", pt.Lat, pt.Lon)
}
