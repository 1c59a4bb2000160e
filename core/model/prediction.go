package model

import "time"

// Prediction is the formatted result of one pipeline call.
type Prediction struct {
	RequestID    string    `json:"request_id"`
	Volume       int       `json:"predicted_traffic_volume"`
	Raw          float64   `json:"raw"`
	ModelVersion string    `json:"model_version"`
	Timestamp    time.Time `json:"timestamp"`
	CacheHit     bool      `json:"cache_hit"`
}

// Band buckets a volume for display.
type Band int

const (
	BandModerate Band = iota
	BandLow
	BandHigh
)

const (
	highVolumeThreshold = 4000
	lowVolumeThreshold  = 1500
)

// BandFor classifies a predicted volume.
func BandFor(volume int) Band {
	switch {
	case volume > highVolumeThreshold:
		return BandHigh
	case volume < lowVolumeThreshold:
		return BandLow
	default:
		return BandModerate
	}
}

func (b Band) String() string {
	switch b {
	case BandHigh:
		return "high"
	case BandLow:
		return "low"
	default:
		return "moderate"
	}
}

// Message is the user-facing sentence for the band.
func (b Band) Message() string {
	switch b {
	case BandHigh:
		return "High traffic volume expected!"
	case BandLow:
		return "Low traffic volume expected."
	default:
		return "Moderate traffic volume expected."
	}
}

// ParseBand converts a band name. Unknown names report false.
func ParseBand(s string) (Band, bool) {
	switch s {
	case "high":
		return BandHigh, true
	case "low":
		return BandLow, true
	case "moderate":
		return BandModerate, true
	}
	return BandModerate, false
}

// HolidayOptions lists the holiday labels known to the trained pipeline.
var HolidayOptions = []string{
	"None", "Martin Luther King Jr Day", "Columbus Day",
	"State Fair", "Veterans Day", "Thanksgiving Day",
	"Christmas Day", "New Years Day", "Washingtons Birthday",
	"Memorial Day", "Independence Day", "Labor Day",
}

// WeatherOptions lists the main weather conditions known to the pipeline.
var WeatherOptions = []string{
	"Clouds", "Clear", "Rain", "Drizzle", "Mist", "Haze",
	"Fog", "Thunderstorm", "Snow", "Squall", "Smoke",
}

// DayNames maps day_of_week to a label.
var DayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayName returns the label for d or an empty string when out of range.
func DayName(d int) string {
	if d < 0 || d >= len(DayNames) {
		return ""
	}
	return DayNames[d]
}
