package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Features is the fixed-schema input consumed by the prediction pipeline.
type Features struct {
	Holiday     string  `json:"holiday"`
	Temp        float64 `json:"temp"`    // Kelvin
	Rain1h      float64 `json:"rain_1h"` // mm in the last hour
	Snow1h      float64 `json:"snow_1h"` // mm in the last hour
	CloudsAll   int     `json:"clouds_all"`
	WeatherMain string  `json:"weather_main"`
	Hour        int     `json:"hour"`
	DayOfWeek   int     `json:"day_of_week"` // 0=Monday
	Month       int     `json:"month"`
	IsRushHour  int     `json:"is_rush_hour"`
}

// FieldNames lists the JSON names of the feature fields in schema order.
var FieldNames = []string{
	"holiday", "temp", "rain_1h", "snow_1h", "clouds_all",
	"weather_main", "hour", "day_of_week", "month", "is_rush_hour",
}

// DefaultFeatures returns the values applied to fields absent from a request.
func DefaultFeatures() Features {
	return Features{
		Holiday:     "None",
		Temp:        288.28,
		Rain1h:      0,
		Snow1h:      0,
		CloudsAll:   40,
		WeatherMain: "Clouds",
		Hour:        9,
		DayOfWeek:   1,
		Month:       10,
		IsRushHour:  1,
	}
}

// FieldError describes one violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError groups every constraint violated by a feature vector.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid features: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the value ranges accepted by the pipeline. All violations
// are reported in field order.
func (f Features) Validate() error {
	ve := &ValidationError{}
	if strings.TrimSpace(f.Holiday) == "" {
		ve.add("holiday", "must not be empty")
	}
	if f.Temp < 200 || f.Temp > 350 {
		ve.add("temp", "must be between 200 and 350 Kelvin, got %g", f.Temp)
	}
	if f.Rain1h < 0 {
		ve.add("rain_1h", "must be greater than or equal to 0, got %g", f.Rain1h)
	}
	if f.Snow1h < 0 {
		ve.add("snow_1h", "must be greater than or equal to 0, got %g", f.Snow1h)
	}
	if f.CloudsAll < 0 || f.CloudsAll > 100 {
		ve.add("clouds_all", "must be between 0 and 100, got %d", f.CloudsAll)
	}
	if strings.TrimSpace(f.WeatherMain) == "" {
		ve.add("weather_main", "must not be empty")
	}
	if f.Hour < 0 || f.Hour > 23 {
		ve.add("hour", "must be between 0 and 23, got %d", f.Hour)
	}
	if f.DayOfWeek < 0 || f.DayOfWeek > 6 {
		ve.add("day_of_week", "must be between 0 and 6, got %d", f.DayOfWeek)
	}
	if f.Month < 1 || f.Month > 12 {
		ve.add("month", "must be between 1 and 12, got %d", f.Month)
	}
	if f.IsRushHour != 0 && f.IsRushHour != 1 {
		ve.add("is_rush_hour", "must be 0 or 1, got %d", f.IsRushHour)
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

// Numeric returns the named field as a float. String fields are not numeric.
func (f Features) Numeric(name string) (float64, bool) {
	switch name {
	case "temp":
		return f.Temp, true
	case "rain_1h":
		return f.Rain1h, true
	case "snow_1h":
		return f.Snow1h, true
	case "clouds_all":
		return float64(f.CloudsAll), true
	case "hour":
		return float64(f.Hour), true
	case "day_of_week":
		return float64(f.DayOfWeek), true
	case "month":
		return float64(f.Month), true
	case "is_rush_hour":
		return float64(f.IsRushHour), true
	}
	return 0, false
}

// Category returns the named field as a categorical level. Integer fields are
// rendered in decimal so encoders may one-hot them.
func (f Features) Category(name string) (string, bool) {
	switch name {
	case "holiday":
		return f.Holiday, true
	case "weather_main":
		return f.WeatherMain, true
	case "clouds_all":
		return strconv.Itoa(f.CloudsAll), true
	case "hour":
		return strconv.Itoa(f.Hour), true
	case "day_of_week":
		return strconv.Itoa(f.DayOfWeek), true
	case "month":
		return strconv.Itoa(f.Month), true
	case "is_rush_hour":
		return strconv.Itoa(f.IsRushHour), true
	}
	return "", false
}

// Key returns a canonical string identifying the feature vector.
func (f Features) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s|%d|%s|%d|%d|%d|%d",
		f.Holiday,
		strconv.FormatFloat(f.Temp, 'g', -1, 64),
		strconv.FormatFloat(f.Rain1h, 'g', -1, 64),
		strconv.FormatFloat(f.Snow1h, 'g', -1, 64),
		f.CloudsAll, f.WeatherMain, f.Hour, f.DayOfWeek, f.Month, f.IsRushHour)
}

// IsRushHour reports 1 for the morning (7-9) and evening (16-18) peaks.
func IsRushHour(hour int) int {
	if (hour >= 7 && hour <= 9) || (hour >= 16 && hour <= 18) {
		return 1
	}
	return 0
}

// FahrenheitToKelvin converts and rounds to two decimals.
func FahrenheitToKelvin(f float64) float64 {
	k := (f-32)*5/9 + 273.15
	return math.Round(k*100) / 100
}

// VolumeFromRaw truncates the pipeline output toward zero. Outputs that are
// not finite or do not fit in an int64 are rejected.
func VolumeFromRaw(raw float64) (int, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || math.Abs(raw) >= 1<<63 {
		return 0, fmt.Errorf("pipeline output %v out of range", raw)
	}
	return int(raw), nil
}
