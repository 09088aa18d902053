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
	"github.com/tripsense/tripsense/internal/pkg/geospatial"
)

// maxElevationLocations is the per-request location cap of the Elevation API.
const maxElevationLocations = 250

// ElevationClient fetches terrain elevation from the Google Elevation API.
type ElevationClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewElevationClient creates an ElevationClient.
func NewElevationClient(client *http.Client, baseURL, apiKey string) *ElevationClient {
	return &ElevationClient{client: client, baseURL: baseURL, apiKey: apiKey}
}

type elevationResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Elevation float64 `json:"elevation"`
		Location  struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"results"`
}

// FetchSamples resolves the elevation of the given route points, down-sampled
// to the API's per-request cap. Each returned sample carries the cumulative
// route distance of its point so slope math can run on real distances.
func (c *ElevationClient) FetchSamples(ctx context.Context, points []domain.GeoPoint) ([]domain.ElevationSample, error) {
	if len(points) == 0 {
		return nil, nil
	}

	sampled := geospatial.Downsample(points, maxElevationLocations)

	locations := make([]string, len(sampled))
	for i, pt := range sampled {
		locations[i] = formatPoint(pt)
	}

	q := url.Values{}
	q.Set("locations", strings.Join(locations, "|"))
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build elevation request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call elevation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ports.UpstreamError{Provider: "google-elevation", Status: resp.StatusCode}
	}

	var body elevationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode elevation response: %w", err)
	}
	if body.Status != "OK" {
		return nil, fmt.Errorf("elevation status %s", body.Status)
	}
	if len(body.Results) != len(sampled) {
		return nil, fmt.Errorf("elevation returned %d results for %d locations", len(body.Results), len(sampled))
	}

	samples := make([]domain.ElevationSample, len(body.Results))
	var cumulative float64
	for i, res := range body.Results {
		if i > 0 {
			prev := sampled[i-1]
			cumulative += geospatial.Haversine(prev.Lat, prev.Lon, sampled[i].Lat, sampled[i].Lon)
		}
		samples[i] = domain.ElevationSample{
			Point:                    sampled[i],
			ElevationMeters:          res.Elevation,
			CumulativeDistanceMeters: cumulative,
		}
	}

	return samples, nil
}
