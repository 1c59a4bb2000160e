package scenarios

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/metrotraffic/core/model"
)

// FeatureDef overrides DefaultFeatures. Unset fields keep their default;
// is_rush_hour is derived from the hour unless given.
type FeatureDef struct {
	Holiday     *string  `yaml:"holiday,omitempty"`
	Temp        *float64 `yaml:"temp,omitempty"`
	TempF       *float64 `yaml:"temp_f,omitempty"`
	Rain1h      *float64 `yaml:"rain_1h,omitempty"`
	Snow1h      *float64 `yaml:"snow_1h,omitempty"`
	CloudsAll   *int     `yaml:"clouds_all,omitempty"`
	WeatherMain *string  `yaml:"weather_main,omitempty"`
	Hour        *int     `yaml:"hour,omitempty"`
	DayOfWeek   *int     `yaml:"day_of_week,omitempty"`
	Month       *int     `yaml:"month,omitempty"`
	IsRushHour  *int     `yaml:"is_rush_hour,omitempty"`
}

// ToModel merges the overrides onto the default feature vector.
func (d FeatureDef) ToModel() model.Features {
	f := model.DefaultFeatures()
	if d.Holiday != nil {
		f.Holiday = *d.Holiday
	}
	if d.TempF != nil {
		f.Temp = model.FahrenheitToKelvin(*d.TempF)
	}
	if d.Temp != nil {
		f.Temp = *d.Temp
	}
	if d.Rain1h != nil {
		f.Rain1h = *d.Rain1h
	}
	if d.Snow1h != nil {
		f.Snow1h = *d.Snow1h
	}
	if d.CloudsAll != nil {
		f.CloudsAll = *d.CloudsAll
	}
	if d.WeatherMain != nil {
		f.WeatherMain = *d.WeatherMain
	}
	if d.Hour != nil {
		f.Hour = *d.Hour
		f.IsRushHour = model.IsRushHour(f.Hour)
	}
	if d.DayOfWeek != nil {
		f.DayOfWeek = *d.DayOfWeek
	}
	if d.Month != nil {
		f.Month = *d.Month
	}
	if d.IsRushHour != nil {
		f.IsRushHour = *d.IsRushHour
	}
	return f
}

// Expected describes the outcome a scenario asserts. Zero values are not
// checked.
type Expected struct {
	Band      string `yaml:"band,omitempty"`
	MinVolume *int   `yaml:"min_volume,omitempty"`
	MaxVolume *int   `yaml:"max_volume,omitempty"`
	// Outcome is ok, invalid or error. Empty means ok.
	Outcome string `yaml:"outcome,omitempty"`
}

type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Features    FeatureDef `yaml:"features"`
	Expected    Expected   `yaml:"expected"`
}

type file struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Load reads a scenario file. The file holds a top-level "scenarios" list.
func Load(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("%s: no scenarios", path)
	}
	for i, sc := range f.Scenarios {
		if err := sc.validate(); err != nil {
			return nil, fmt.Errorf("%s: scenario %d: %w", path, i, err)
		}
	}
	return f.Scenarios, nil
}

func (s Scenario) validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Expected.Band != "" {
		if _, ok := model.ParseBand(s.Expected.Band); !ok {
			return fmt.Errorf("unknown band %q", s.Expected.Band)
		}
	}
	switch s.Expected.Outcome {
	case "", "ok", "invalid", "error":
	default:
		return fmt.Errorf("unknown outcome %q", s.Expected.Outcome)
	}
	return nil
}
