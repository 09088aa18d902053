// Package overpass resolves road metadata from the Overpass OSM API.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tripsense/tripsense/internal/core/domain"
	"github.com/tripsense/tripsense/internal/core/ports"
)

// searchRadiusMeters is how far around a route point to look for a mapped way.
const searchRadiusMeters = 10

// Client looks up the nearest OSM way around a point.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient creates an Overpass client.
func NewClient(client *http.Client, baseURL string) *Client {
	return &Client{client: client, baseURL: baseURL}
}

type overpassResponse struct {
	Elements []struct {
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// Lookup queries Overpass for a highway-tagged way near the point and returns
// its class and speed-limit tags. ErrNoRoadData means no mapped road nearby.
func (c *Client) Lookup(ctx context.Context, point domain.GeoPoint) (*ports.RoadInfo, error) {
	query := fmt.Sprintf(
		"[out:json][timeout:10];way(around:%d,%f,%f)[highway];out tags 1;",
		searchRadiusMeters, point.Lat, point.Lon,
	)

	form := url.Values{}
	form.Set("data", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call overpass: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ports.UpstreamError{Provider: "overpass", Status: resp.StatusCode}
	}

	var body overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}

	if len(body.Elements) == 0 {
		return nil, ports.ErrNoRoadData
	}

	tags := body.Elements[0].Tags
	return &ports.RoadInfo{
		ClassTag:      tags["highway"],
		SpeedLimitRaw: tags["maxspeed"],
	}, nil
}
