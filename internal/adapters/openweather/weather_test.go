package openweather_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tripsense/tripsense/internal/adapters/openweather"
	"github.com/tripsense/tripsense/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchSnapshots_PicksClosestForecast(t *testing.T) {
	travelAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	near := travelAt.Add(-1 * time.Hour).Unix()
	far := travelAt.Add(26 * time.Hour).Unix()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("units") != "metric" {
			t.Errorf("expected metric units, got %q", r.URL.Query().Get("units"))
		}
		fmt.Fprintf(w, `{"list":[
			{"dt": %d, "main":{"temp": 4.0}, "weather":[{"id":601,"main":"Snow","description":"heavy snow"}], "wind":{"speed":6.0}, "snow":{"3h":4.0}, "visibility": 800},
			{"dt": %d, "main":{"temp": 18.0}, "weather":[{"id":800,"main":"Clear","description":"clear sky"}], "wind":{"speed":2.0}, "visibility": 10000}
		]}`, far, near)
	}))
	defer srv.Close()

	c := openweather.NewClient(srv.Client(), srv.URL, "k", testLogger())

	snaps, err := c.FetchSnapshots(context.Background(), []domain.GeoPoint{{Lat: 43.263, Lon: -2.935}}, travelAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snaps))
	}

	snap := snaps[0]
	if snap.Condition.Type != domain.WeatherClear {
		t.Errorf("expected the time-closest CLEAR record, got %s", snap.Condition.Type)
	}
	if snap.Condition.Severity != domain.SeverityLow {
		t.Errorf("expected LOW severity for clear sky, got %s", snap.Condition.Severity)
	}
	if snap.Condition.Description != "Clear sky" {
		t.Errorf("expected capitalised description, got %q", snap.Condition.Description)
	}
	if snap.Metrics.TemperatureC != 18.0 {
		t.Errorf("expected metrics from the chosen record, got %+v", snap.Metrics)
	}
	if !snap.Time.Equal(time.Unix(near, 0).UTC()) {
		t.Errorf("expected snapshot time from forecast dt, got %v", snap.Time)
	}
}

func TestFetchSnapshots_SeverityEscalation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want domain.WeatherSeverity
	}{
		{
			"rain base medium",
			`{"dt": 1, "weather":[{"main":"Rain","description":"light rain"}], "wind":{"speed":3.0}, "rain":{"3h":1.0}}`,
			domain.SeverityMedium,
		},
		{
			"clear escalated by strong wind",
			`{"dt": 1, "weather":[{"main":"Clear","description":"clear"}], "wind":{"speed":13.0}}`,
			domain.SeverityHigh,
		},
		{
			"clouds escalated by moderate rain",
			`{"dt": 1, "weather":[{"main":"Clouds","description":"clouds"}], "rain":{"3h":6.0}}`,
			domain.SeverityMedium,
		},
		{
			"thunderstorm always high",
			`{"dt": 1, "weather":[{"main":"Thunderstorm","description":"storm"}], "wind":{"speed":1.0}}`,
			domain.SeverityHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"list":[%s]}`, tt.body)
			}))
			defer srv.Close()

			c := openweather.NewClient(srv.Client(), srv.URL, "k", testLogger())
			snaps, err := c.FetchSnapshots(context.Background(), []domain.GeoPoint{{Lat: 1, Lon: 1}}, time.Now())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(snaps) != 1 {
				t.Fatalf("expected 1 snapshot, got %d", len(snaps))
			}
			if snaps[0].Condition.Severity != tt.want {
				t.Errorf("expected severity %s, got %s", tt.want, snaps[0].Condition.Severity)
			}
		})
	}
}

func TestFetchSnapshots_ReducesToThreePoints(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"list":[{"dt": 1, "weather":[{"main":"Clear","description":"clear"}]}]}`)
	}))
	defer srv.Close()

	c := openweather.NewClient(srv.Client(), srv.URL, "k", testLogger())

	points := make([]domain.GeoPoint, 50)
	for i := range points {
		points[i] = domain.GeoPoint{Lat: float64(i), Lon: float64(i)}
	}
	snaps, err := c.FetchSnapshots(context.Background(), points, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls.Load() != 3 {
		t.Errorf("expected 3 forecast calls (start, middle, end), got %d", calls.Load())
	}
	if len(snaps) != 3 {
		t.Errorf("expected 3 snapshots, got %d", len(snaps))
	}
	if snaps[0].Point != points[0] || snaps[2].Point != points[len(points)-1] {
		t.Errorf("expected endpoints sampled, got %+v", snaps)
	}
}

func TestFetchSnapshots_FailedPointSkipped(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"list":[{"dt": 1, "weather":[{"main":"Clear","description":"clear"}]}]}`)
	}))
	defer srv.Close()

	c := openweather.NewClient(srv.Client(), srv.URL, "k", testLogger())

	points := []domain.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}}
	snaps, err := c.FetchSnapshots(context.Background(), points, time.Now())
	if err != nil {
		t.Fatalf("per-point failure must not abort the fetch: %v", err)
	}
	if len(snaps) != 1 {
		t.Errorf("expected the surviving point's snapshot, got %d", len(snaps))
	}
}

func TestFetchSnapshots_EmptyPoints(t *testing.T) {
	c := openweather.NewClient(http.DefaultClient, "http://unused", "k", testLogger())
	snaps, err := c.FetchSnapshots(context.Background(), nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snaps != nil {
		t.Errorf("expected nil for empty points, got %v", snaps)
	}
}
