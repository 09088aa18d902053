package usecases

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tripsense/tripsense/internal/core/domain"
	"github.com/tripsense/tripsense/internal/core/ports"
	"github.com/tripsense/tripsense/internal/pkg/geospatial"
	"github.com/tripsense/tripsense/internal/pkg/metrics"
	"github.com/tripsense/tripsense/internal/pkg/retry"
)

const mphToKph = 1.60934

// ClassifierOptions tunes sampling, caching, and retry behaviour of the
// RoadClassifier. Zero values fall back to sensible defaults.
type ClassifierOptions struct {
	MaxSamplePoints int
	// CoarseStride pre-thins dense polylines before the budget sampling.
	// 1 keeps every point.
	CoarseStride   int
	Workers        int
	CacheGridScale int
	RetryAttempts  int
	RetryInitial   time.Duration
	RetryMaxDelay  time.Duration
	// Sleep overrides the backoff sleep between retries. Nil means time.Sleep.
	Sleep func(time.Duration)
}

func (o ClassifierOptions) withDefaults() ClassifierOptions {
	if o.MaxSamplePoints <= 0 {
		o.MaxSamplePoints = 25
	}
	if o.CoarseStride <= 0 {
		o.CoarseStride = 1
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.CacheGridScale <= 0 {
		o.CacheGridScale = 1000
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 3
	}
	if o.RetryInitial <= 0 {
		o.RetryInitial = 500 * time.Millisecond
	}
	if o.RetryMaxDelay <= 0 {
		o.RetryMaxDelay = 4 * time.Second
	}
	return o
}

type bucketKey struct {
	lat float64
	lon float64
}

// RoadClassifier resolves road types along a route by sampling points and
// querying a road lookup provider. Nearby points collapse into grid buckets
// so repeated lookups along the same stretch of road hit the in-memory cache
// instead of the upstream.
type RoadClassifier struct {
	roads ports.RoadLookupProvider
	opts  ClassifierOptions
	log   *slog.Logger

	mu    sync.Mutex
	cache map[bucketKey]domain.RoadSegment
}

// NewRoadClassifier creates a RoadClassifier backed by the given provider.
func NewRoadClassifier(roads ports.RoadLookupProvider, opts ClassifierOptions, log *slog.Logger) *RoadClassifier {
	return &RoadClassifier{
		roads: roads,
		opts:  opts.withDefaults(),
		log:   log,
		cache: make(map[bucketKey]domain.RoadSegment),
	}
}

// Classify samples the route points down to the configured budget, resolves
// a road segment for each sample, and aggregates the result into a breakdown
// of road-type fractions. It never fails the route: points that cannot be
// resolved degrade to UNKNOWN with the default speed.
func (c *RoadClassifier) Classify(ctx context.Context, points []domain.GeoPoint) *domain.RoadClassification {
	if len(points) == 0 {
		return &domain.RoadClassification{
			Breakdown: map[domain.RoadType]float64{domain.RoadUnknown: 1.0},
		}
	}

	samples := geospatial.Downsample(geospatial.Stride(points, c.opts.CoarseStride), c.opts.MaxSamplePoints)
	segments := make([]domain.RoadSegment, len(samples))

	var wg sync.WaitGroup
	sem := make(chan struct{}, c.opts.Workers)

	for i, pt := range samples {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, pt domain.GeoPoint) {
			defer wg.Done()
			defer func() { <-sem }()
			segments[i] = c.classifyPoint(ctx, pt)
		}(i, pt)
	}
	wg.Wait()

	counts := make(map[domain.RoadType]int, len(domain.RoadTypeWeights))
	for _, seg := range segments {
		counts[seg.RoadType]++
	}

	breakdown := make(map[domain.RoadType]float64, len(counts))
	for rt, n := range counts {
		breakdown[rt] = float64(n) / float64(len(segments))
	}

	return &domain.RoadClassification{
		Breakdown: breakdown,
		Segments:  segments,
	}
}

// classifyPoint resolves a single point, consulting the bucket cache first.
func (c *RoadClassifier) classifyPoint(ctx context.Context, pt domain.GeoPoint) domain.RoadSegment {
	key := c.bucketFor(pt)

	c.mu.Lock()
	if seg, ok := c.cache[key]; ok {
		c.mu.Unlock()
		metrics.RoadCacheHits.Inc()
		seg.Point = pt
		return seg
	}
	c.mu.Unlock()
	metrics.RoadCacheMisses.Inc()

	seg, cacheable := c.lookup(ctx, pt)
	if cacheable {
		c.mu.Lock()
		c.cache[key] = seg
		c.mu.Unlock()
	}
	seg.Point = pt
	return seg
}

// lookup queries the provider with retries. The second return value reports
// whether the result came from actual road data and is safe to cache.
func (c *RoadClassifier) lookup(ctx context.Context, pt domain.GeoPoint) (domain.RoadSegment, bool) {
	policy := retry.Policy{
		MaxAttempts:  c.opts.RetryAttempts,
		InitialDelay: c.opts.RetryInitial,
		MaxDelay:     c.opts.RetryMaxDelay,
		Retryable:    isRetryableLookup,
		Sleep: func(d time.Duration) {
			metrics.UpstreamRetries.WithLabelValues("overpass").Inc()
			if c.opts.Sleep != nil {
				c.opts.Sleep(d)
				return
			}
			time.Sleep(d)
		},
	}

	var info *ports.RoadInfo
	err := retry.Do(ctx, policy, func() error {
		var lookupErr error
		info, lookupErr = c.roads.Lookup(ctx, pt)
		return lookupErr
	})
	if err != nil {
		if errors.Is(err, ports.ErrNoRoadData) {
			// No mapped road near this point. Legitimate answer, but not
			// cached: a later pass with better data may resolve it.
			return unknownSegment(), false
		}
		metrics.UpstreamFailures.WithLabelValues("overpass").Inc()
		metrics.RoadPointsUnresolved.Inc()
		c.log.Warn("road lookup failed, degrading to unknown",
			"lat", pt.Lat, "lon", pt.Lon, "error", err)
		return unknownSegment(), false
	}

	rt := inferRoadType(info)
	speed := parseSpeedKph(info.SpeedLimitRaw)
	if speed <= 0 {
		speed = rt.ReferenceSpeedKph()
	}

	return domain.RoadSegment{RoadType: rt, SpeedKph: speed}, true
}

func (c *RoadClassifier) bucketFor(pt domain.GeoPoint) bucketKey {
	scale := float64(c.opts.CacheGridScale)
	return bucketKey{
		lat: math.Round(pt.Lat*scale) / scale,
		lon: math.Round(pt.Lon*scale) / scale,
	}
}

func unknownSegment() domain.RoadSegment {
	return domain.RoadSegment{RoadType: domain.RoadUnknown, SpeedKph: domain.DefaultSpeedKph}
}

func isRetryableLookup(err error) bool {
	if errors.Is(err, ports.ErrNoRoadData) {
		return false
	}
	var ue *ports.UpstreamError
	if errors.As(err, &ue) {
		switch ue.Status {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}
	// Transport-level errors (timeouts, connection resets) are retryable.
	return true
}

var highwayTags = map[string]domain.RoadType{
	"motorway":       domain.RoadMotorway,
	"trunk":          domain.RoadTrunk,
	"primary":        domain.RoadPrimary,
	"secondary":      domain.RoadSecondary,
	"tertiary":       domain.RoadTertiary,
	"residential":    domain.RoadResidential,
	"living_street":  domain.RoadResidential,
	"service":        domain.RoadService,
	"motorway_link":  domain.RoadRamp,
	"trunk_link":     domain.RoadRamp,
	"primary_link":   domain.RoadRamp,
	"secondary_link": domain.RoadRamp,
	"tertiary_link":  domain.RoadRamp,
}

// inferRoadType maps a highway tag to a road type, falling back to speed
// hints when the tag is missing or unrecognized.
func inferRoadType(info *ports.RoadInfo) domain.RoadType {
	if rt, ok := highwayTags[strings.ToLower(strings.TrimSpace(info.ClassTag))]; ok {
		return rt
	}
	return typeFromSpeed(parseSpeedKph(info.SpeedLimitRaw))
}

// typeFromSpeed guesses the road class from its speed limit alone.
func typeFromSpeed(kph float64) domain.RoadType {
	switch {
	case kph >= 120:
		return domain.RoadMotorway
	case kph >= 100:
		return domain.RoadTrunk
	case kph >= 90:
		return domain.RoadPrimary
	case kph >= 80:
		return domain.RoadSecondary
	case kph >= 70:
		return domain.RoadTertiary
	case kph >= 50:
		return domain.RoadResidential
	case kph >= 30:
		return domain.RoadService
	default:
		return domain.RoadUnknown
	}
}

// parseSpeedKph parses an OSM maxspeed value ("100", "50 mph", "30mph").
// Returns 0 when the value carries no usable number.
func parseSpeedKph(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' || r == '.' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}

	v, err := strconv.ParseFloat(digits.String(), 64)
	if err != nil {
		return 0
	}

	if strings.Contains(strings.ToLower(raw), "mph") {
		v *= mphToKph
	}
	return v
}
