package usecases_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/tripsense/tripsense/internal/core/domain"
	"github.com/tripsense/tripsense/internal/core/ports"
	"github.com/tripsense/tripsense/internal/core/usecases"
)

type mockRoadLookup struct {
	mu       sync.Mutex
	calls    int
	lookupFn func(ctx context.Context, pt domain.GeoPoint) (*ports.RoadInfo, error)
}

func (m *mockRoadLookup) Lookup(ctx context.Context, pt domain.GeoPoint) (*ports.RoadInfo, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.lookupFn != nil {
		return m.lookupFn(ctx, pt)
	}
	return &ports.RoadInfo{ClassTag: "primary"}, nil
}

func (m *mockRoadLookup) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noSleepOpts() usecases.ClassifierOptions {
	return usecases.ClassifierOptions{Sleep: func(time.Duration) {}}
}

func TestClassify_EmptyPoints(t *testing.T) {
	c := usecases.NewRoadClassifier(&mockRoadLookup{}, noSleepOpts(), testLogger())

	res := c.Classify(context.Background(), nil)
	if res.Breakdown[domain.RoadUnknown] != 1.0 {
		t.Errorf("expected all-unknown breakdown, got %v", res.Breakdown)
	}
}

func TestClassify_BreakdownFractionsSumToOne(t *testing.T) {
	lookup := &mockRoadLookup{
		lookupFn: func(_ context.Context, pt domain.GeoPoint) (*ports.RoadInfo, error) {
			if pt.Lat > 43.5 {
				return &ports.RoadInfo{ClassTag: "motorway"}, nil
			}
			return &ports.RoadInfo{ClassTag: "residential"}, nil
		},
	}
	c := usecases.NewRoadClassifier(lookup, noSleepOpts(), testLogger())

	points := []domain.GeoPoint{
		{Lat: 43.2, Lon: -2.9},
		{Lat: 43.4, Lon: -2.8},
		{Lat: 43.6, Lon: -2.7},
		{Lat: 43.8, Lon: -2.6},
	}
	res := c.Classify(context.Background(), points)

	var sum float64
	for _, f := range res.Breakdown {
		sum += f
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("expected fractions to sum to 1, got %f (%v)", sum, res.Breakdown)
	}
	if res.Breakdown[domain.RoadMotorway] != 0.5 || res.Breakdown[domain.RoadResidential] != 0.5 {
		t.Errorf("expected 50/50 split, got %v", res.Breakdown)
	}
	if len(res.Segments) != len(points) {
		t.Errorf("expected %d segments, got %d", len(points), len(res.Segments))
	}
}

func TestClassify_BucketCacheDedupesNearbyPoints(t *testing.T) {
	lookup := &mockRoadLookup{}
	opts := noSleepOpts()
	opts.Workers = 1 // serialize so the second point sees the first's cache entry
	c := usecases.NewRoadClassifier(lookup, opts, testLogger())

	// ~40m apart, same grid cell at scale 1000.
	points := []domain.GeoPoint{
		{Lat: 43.2630001, Lon: -2.9350001},
		{Lat: 43.2630004, Lon: -2.9349998},
	}
	c.Classify(context.Background(), points)
	if lookup.callCount() != 1 {
		t.Errorf("expected 1 upstream call for shared bucket, got %d", lookup.callCount())
	}

	// Repeated classification of the same area stays served from cache.
	c.Classify(context.Background(), points)
	if lookup.callCount() != 1 {
		t.Errorf("expected cache to absorb repeat lookups, got %d calls", lookup.callCount())
	}
}

func TestClassify_RetriesExhaustedDegradeToUnknown(t *testing.T) {
	var sleeps []time.Duration
	lookup := &mockRoadLookup{
		lookupFn: func(context.Context, domain.GeoPoint) (*ports.RoadInfo, error) {
			return nil, &ports.UpstreamError{Provider: "overpass", Status: 503}
		},
	}
	opts := usecases.ClassifierOptions{Sleep: func(d time.Duration) { sleeps = append(sleeps, d) }, Workers: 1}
	c := usecases.NewRoadClassifier(lookup, opts, testLogger())

	res := c.Classify(context.Background(), []domain.GeoPoint{{Lat: 43.0, Lon: -2.0}})
	if res.Segments[0].RoadType != domain.RoadUnknown {
		t.Errorf("expected UNKNOWN road type, got %s", res.Segments[0].RoadType)
	}
	if res.Segments[0].SpeedKph != domain.DefaultSpeedKph {
		t.Errorf("expected default speed %f, got %f", domain.DefaultSpeedKph, res.Segments[0].SpeedKph)
	}
	if lookup.callCount() != 3 {
		t.Errorf("expected 3 attempts, got %d", lookup.callCount())
	}
	want := []time.Duration{500 * time.Millisecond, time.Second}
	if len(sleeps) != len(want) || sleeps[0] != want[0] || sleeps[1] != want[1] {
		t.Errorf("expected backoff sleeps %v, got %v", want, sleeps)
	}
}

func TestClassify_NonRetryableStatusFailsFast(t *testing.T) {
	slept := false
	lookup := &mockRoadLookup{
		lookupFn: func(context.Context, domain.GeoPoint) (*ports.RoadInfo, error) {
			return nil, &ports.UpstreamError{Provider: "overpass", Status: 400}
		},
	}
	opts := usecases.ClassifierOptions{Sleep: func(time.Duration) { slept = true }}
	c := usecases.NewRoadClassifier(lookup, opts, testLogger())

	res := c.Classify(context.Background(), []domain.GeoPoint{{Lat: 43.0, Lon: -2.0}})
	if res.Segments[0].RoadType != domain.RoadUnknown {
		t.Errorf("expected UNKNOWN fallback, got %s", res.Segments[0].RoadType)
	}
	if lookup.callCount() != 1 {
		t.Errorf("expected a single attempt for non-retryable status, got %d", lookup.callCount())
	}
	if slept {
		t.Error("expected no retry delay for non-retryable status")
	}
}

func TestClassify_NoRoadDataNotCached(t *testing.T) {
	lookup := &mockRoadLookup{
		lookupFn: func(context.Context, domain.GeoPoint) (*ports.RoadInfo, error) {
			return nil, ports.ErrNoRoadData
		},
	}
	c := usecases.NewRoadClassifier(lookup, noSleepOpts(), testLogger())

	pt := []domain.GeoPoint{{Lat: 43.0, Lon: -2.0}}
	res := c.Classify(context.Background(), pt)
	if res.Segments[0].RoadType != domain.RoadUnknown {
		t.Errorf("expected UNKNOWN for unmapped point, got %s", res.Segments[0].RoadType)
	}
	if lookup.callCount() != 1 {
		t.Errorf("no-road-data must not be retried, got %d calls", lookup.callCount())
	}

	// Unresolved points are not negatively cached: a later request asks again.
	c.Classify(context.Background(), pt)
	if lookup.callCount() != 2 {
		t.Errorf("expected a fresh lookup on the next request, got %d calls", lookup.callCount())
	}
}

func TestClassify_SpeedLimitParsing(t *testing.T) {
	tests := []struct {
		name      string
		info      ports.RoadInfo
		wantType  domain.RoadType
		wantSpeed float64
	}{
		{"tag with explicit speed", ports.RoadInfo{ClassTag: "motorway", SpeedLimitRaw: "110"}, domain.RoadMotorway, 110},
		{"tag without speed uses reference", ports.RoadInfo{ClassTag: "motorway"}, domain.RoadMotorway, 120},
		{"mph converted", ports.RoadInfo{SpeedLimitRaw: "30 mph"}, domain.RoadService, 30 * 1.60934},
		{"speed only infers type", ports.RoadInfo{SpeedLimitRaw: "120"}, domain.RoadMotorway, 120},
		{"link tag maps to ramp", ports.RoadInfo{ClassTag: "motorway_link"}, domain.RoadRamp, 60},
		{"garbage speed falls back", ports.RoadInfo{SpeedLimitRaw: "none"}, domain.RoadUnknown, domain.DefaultSpeedKph},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &mockRoadLookup{
				lookupFn: func(context.Context, domain.GeoPoint) (*ports.RoadInfo, error) {
					info := tt.info
					return &info, nil
				},
			}
			c := usecases.NewRoadClassifier(lookup, noSleepOpts(), testLogger())

			res := c.Classify(context.Background(), []domain.GeoPoint{{Lat: 43.0, Lon: -2.0}})
			seg := res.Segments[0]
			if seg.RoadType != tt.wantType {
				t.Errorf("expected type %s, got %s", tt.wantType, seg.RoadType)
			}
			if math.Abs(seg.SpeedKph-tt.wantSpeed) > 0.01 {
				t.Errorf("expected speed %f, got %f", tt.wantSpeed, seg.SpeedKph)
			}
		})
	}
}

func TestClassify_DownsamplesToBudget(t *testing.T) {
	lookup := &mockRoadLookup{}
	c := usecases.NewRoadClassifier(lookup, noSleepOpts(), testLogger())

	points := make([]domain.GeoPoint, 200)
	for i := range points {
		// Spread far apart so every sample lands in its own bucket.
		points[i] = domain.GeoPoint{Lat: float64(i) * 0.1, Lon: float64(i) * 0.1}
	}

	res := c.Classify(context.Background(), points)
	if len(res.Segments) != 25 {
		t.Errorf("expected 25 sampled segments, got %d", len(res.Segments))
	}
	if lookup.callCount() > 25 {
		t.Errorf("expected at most 25 upstream calls, got %d", lookup.callCount())
	}
}
