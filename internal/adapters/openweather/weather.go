// Package openweather fetches forecasts from the OpenWeather 5-day API.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tripsense/tripsense/internal/core/domain"
	"github.com/tripsense/tripsense/internal/core/ports"
)

// maxForecastPoints caps how many route points get their own forecast call.
const maxForecastPoints = 3

// Client fetches weather forecasts for route points.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	log     *slog.Logger
}

// NewClient creates an OpenWeather client.
func NewClient(client *http.Client, baseURL, apiKey string, log *slog.Logger) *Client {
	return &Client{client: client, baseURL: baseURL, apiKey: apiKey, log: log}
}

type forecastResponse struct {
	List []forecastRecord `json:"list"`
}

type forecastRecord struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain struct {
		ThreeH float64 `json:"3h"`
	} `json:"rain"`
	Snow struct {
		ThreeH float64 `json:"3h"`
	} `json:"snow"`
	Visibility int `json:"visibility"`
}

// FetchSnapshots fetches the forecast closest to travelAt for up to three
// representative route points (start, middle, end). Points that fail resolve
// to nothing rather than failing the whole call; an empty result is valid.
func (c *Client) FetchSnapshots(ctx context.Context, points []domain.GeoPoint, travelAt time.Time) ([]domain.WeatherSnapshot, error) {
	if len(points) == 0 {
		return nil, nil
	}

	var snapshots []domain.WeatherSnapshot
	for _, pt := range forecastPoints(points) {
		snap, err := c.fetchSnapshot(ctx, pt, travelAt)
		if err != nil {
			c.log.Warn("forecast fetch failed for point", "lat", pt.Lat, "lon", pt.Lon, "error", err)
			continue
		}
		if snap != nil {
			snapshots = append(snapshots, *snap)
		}
	}

	return snapshots, nil
}

func (c *Client) fetchSnapshot(ctx context.Context, pt domain.GeoPoint, travelAt time.Time) (*domain.WeatherSnapshot, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", pt.Lat))
	q.Set("lon", fmt.Sprintf("%f", pt.Lon))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ports.UpstreamError{Provider: "openweather", Status: resp.StatusCode}
	}

	var body forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode forecast response: %w", err)
	}
	if len(body.List) == 0 {
		return nil, nil
	}

	record := closestRecord(body.List, travelAt)

	var (
		wType       = domain.WeatherUnknown
		description = "N/A"
		conditionID int
	)
	if len(record.Weather) > 0 {
		wType = parseWeatherType(record.Weather[0].Main)
		description = capitalize(record.Weather[0].Description)
		conditionID = record.Weather[0].ID
	}

	return &domain.WeatherSnapshot{
		Point: pt,
		Time:  time.Unix(record.Dt, 0).UTC(),
		Condition: domain.WeatherCondition{
			Type:        wType,
			Severity:    deriveSeverity(wType, record),
			Description: description,
		},
		Metrics: domain.WeatherMetrics{
			ConditionID:      conditionID,
			TemperatureC:     record.Main.Temp,
			WindSpeedMps:     record.Wind.Speed,
			RainVolumeLastH:  record.Rain.ThreeH,
			SnowVolumeLastH:  record.Snow.ThreeH,
			VisibilityMeters: record.Visibility,
		},
	}, nil
}

// closestRecord picks the forecast record nearest in time to travelAt.
func closestRecord(records []forecastRecord, travelAt time.Time) forecastRecord {
	best := records[0]
	bestDelta := absDuration(travelAt.Sub(time.Unix(best.Dt, 0)))
	for _, rec := range records[1:] {
		delta := absDuration(travelAt.Sub(time.Unix(rec.Dt, 0)))
		if delta < bestDelta {
			best, bestDelta = rec, delta
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// deriveSeverity grades a forecast: a base level from the weather category,
// escalated by heavy wind or precipitation. The worse of the two wins.
func deriveSeverity(t domain.WeatherType, rec forecastRecord) domain.WeatherSeverity {
	var base domain.WeatherSeverity
	switch t {
	case domain.WeatherClear, domain.WeatherClouds:
		base = domain.SeverityLow
	case domain.WeatherSnow, domain.WeatherStorm, domain.WeatherExtreme:
		base = domain.SeverityHigh
	default:
		base = domain.SeverityMedium
	}

	wind, rain, snow := rec.Wind.Speed, rec.Rain.ThreeH, rec.Snow.ThreeH
	risk := domain.SeverityLow
	switch {
	case wind > 12 || rain > 10 || snow > 5:
		risk = domain.SeverityHigh
	case wind > 8 || rain > 5 || snow > 2:
		risk = domain.SeverityMedium
	}

	if risk.Weight() > base.Weight() {
		return risk
	}
	return base
}

func parseWeatherType(main string) domain.WeatherType {
	switch strings.ToLower(main) {
	case "clear":
		return domain.WeatherClear
	case "clouds":
		return domain.WeatherClouds
	case "rain", "drizzle":
		return domain.WeatherRain
	case "snow":
		return domain.WeatherSnow
	case "storm", "thunderstorm":
		return domain.WeatherStorm
	case "mist", "fog":
		return domain.WeatherFog
	case "squall", "tornado":
		return domain.WeatherExtreme
	default:
		return domain.WeatherUnknown
	}
}

// forecastPoints reduces the route to at most three distinct points: start,
// middle, end.
func forecastPoints(points []domain.GeoPoint) []domain.GeoPoint {
	seen := make(map[domain.GeoPoint]struct{}, len(points))
	unique := make([]domain.GeoPoint, 0, len(points))
	for _, pt := range points {
		if _, ok := seen[pt]; ok {
			continue
		}
		seen[pt] = struct{}{}
		unique = append(unique, pt)
	}

	if len(unique) <= maxForecastPoints {
		return unique
	}
	return []domain.GeoPoint{unique[0], unique[len(unique)/2], unique[len(unique)-1]}
}

func capitalize(s string) string {
	if s == "" {
		return "N/A"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
