package domain

import "time"

// WeatherType is the broad weather category reported by the forecast upstream.
type WeatherType string

const (
	WeatherClear   WeatherType = "CLEAR"
	WeatherClouds  WeatherType = "CLOUDS"
	WeatherRain    WeatherType = "RAIN"
	WeatherSnow    WeatherType = "SNOW"
	WeatherStorm   WeatherType = "STORM"
	WeatherFog     WeatherType = "FOG"
	WeatherExtreme WeatherType = "EXTREME"
	WeatherWind    WeatherType = "WIND"
	WeatherUnknown WeatherType = "UNKNOWN"
)

// WeatherSeverity grades how much a forecast should worry a driver.
type WeatherSeverity string

const (
	SeverityLow    WeatherSeverity = "LOW"
	SeverityMedium WeatherSeverity = "MEDIUM"
	SeverityHigh   WeatherSeverity = "HIGH"
)

// SeverityWeights maps each severity to its numeric weight used in scoring.
var SeverityWeights = map[WeatherSeverity]float64{
	SeverityLow:    0.2,
	SeverityMedium: 0.6,
	SeverityHigh:   1.0,
}

// Weight returns the numeric weight of the severity. Unknown values weigh
// like MEDIUM so a bad upstream value never zeroes the score.
func (s WeatherSeverity) Weight() float64 {
	if w, ok := SeverityWeights[s]; ok {
		return w
	}
	return SeverityWeights[SeverityMedium]
}

// WeatherCondition is a categorised forecast with its derived severity.
type WeatherCondition struct {
	Type        WeatherType     `json:"type"`
	Severity    WeatherSeverity `json:"severity"`
	Description string          `json:"description"`
}

// WeatherMetrics carries the raw forecast numbers behind a condition.
type WeatherMetrics struct {
	ConditionID      int     `json:"condition_id"`
	TemperatureC     float64 `json:"temperature_c"`
	WindSpeedMps     float64 `json:"wind_speed_mps"`
	RainVolumeLastH  float64 `json:"rain_volume_last_hour"`
	SnowVolumeLastH  float64 `json:"snow_volume_last_hour"`
	VisibilityMeters int     `json:"visibility_meters"`
}

// WeatherSnapshot is the forecast at one route point closest to the travel time.
type WeatherSnapshot struct {
	Point     GeoPoint         `json:"point"`
	Time      time.Time        `json:"time"`
	Condition WeatherCondition `json:"condition"`
	Metrics   WeatherMetrics   `json:"metrics"`
}

// SeverityRank orders snapshots from mild to severe for picking the single
// representative forecast of a route. Condition severity dominates, raw
// precipitation, wind, and reduced visibility break ties.
func (w WeatherSnapshot) SeverityRank() float64 {
	rank := w.Condition.Severity.Weight() * 100
	rank += (w.Metrics.RainVolumeLastH + w.Metrics.SnowVolumeLastH) * 10
	rank += w.Metrics.WindSpeedMps
	if w.Metrics.VisibilityMeters < 10000 {
		rank += float64(10000-w.Metrics.VisibilityMeters) / 100
	}
	return rank
}
