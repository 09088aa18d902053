// Package polyline decodes Google encoded polylines.
package polyline

import (
	"fmt"

	"github.com/tripsense/tripsense/internal/core/domain"
)

// Decode converts an encoded polyline string into its point sequence.
func Decode(encoded string) ([]domain.GeoPoint, error) {
	var points []domain.GeoPoint
	var lat, lon int64

	index := 0
	for index < len(encoded) {
		dLat, next, err := decodeChunk(encoded, index)
		if err != nil {
			return nil, err
		}
		lat += dLat
		index = next

		dLon, next, err := decodeChunk(encoded, index)
		if err != nil {
			return nil, err
		}
		lon += dLon
		index = next

		points = append(points, domain.GeoPoint{
			Lat: float64(lat) / 1e5,
			Lon: float64(lon) / 1e5,
		})
	}

	return points, nil
}

func decodeChunk(encoded string, start int) (value int64, next int, err error) {
	var result int64
	shift := 0
	index := start

	for {
		if index >= len(encoded) {
			return 0, 0, fmt.Errorf("truncated polyline at offset %d", index)
		}
		b := int64(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}
