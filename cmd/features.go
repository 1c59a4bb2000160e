package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/metrotraffic/app"
	"github.com/kilianp07/metrotraffic/client"
	"github.com/kilianp07/metrotraffic/core/model"
	"github.com/kilianp07/metrotraffic/core/predictor"
)

// featureFlags binds a feature vector to command flags.
type featureFlags struct {
	f     model.Features
	tempF float64
	rush  int
}

func (ff *featureFlags) register(cmd *cobra.Command, withHour bool) {
	ff.f = model.DefaultFeatures()
	fs := cmd.Flags()
	fs.StringVar(&ff.f.Holiday, "holiday", ff.f.Holiday, "holiday name or None")
	fs.Float64Var(&ff.f.Temp, "temp", ff.f.Temp, "temperature in Kelvin")
	fs.Float64Var(&ff.tempF, "temp-f", 0, "temperature in Fahrenheit, overrides --temp")
	fs.Float64Var(&ff.f.Rain1h, "rain", ff.f.Rain1h, "rain in the last hour (mm)")
	fs.Float64Var(&ff.f.Snow1h, "snow", ff.f.Snow1h, "snow in the last hour (mm)")
	fs.IntVar(&ff.f.CloudsAll, "clouds", ff.f.CloudsAll, "cloud cover percentage")
	fs.StringVar(&ff.f.WeatherMain, "weather", ff.f.WeatherMain, "main weather condition")
	fs.IntVar(&ff.f.DayOfWeek, "day", ff.f.DayOfWeek, "day of week (0=Monday)")
	fs.IntVar(&ff.f.Month, "month", ff.f.Month, "month (1-12)")
	if withHour {
		fs.IntVar(&ff.f.Hour, "hour", ff.f.Hour, "hour of day (0-23)")
		fs.IntVar(&ff.rush, "rush-hour", -1, "rush hour flag, derived from --hour when negative")
	}
}

func (ff *featureFlags) features(cmd *cobra.Command) model.Features {
	f := ff.f
	if cmd.Flags().Changed("temp-f") {
		f.Temp = model.FahrenheitToKelvin(ff.tempF)
	}
	if ff.rush >= 0 && cmd.Flags().Changed("rush-hour") {
		f.IsRushHour = ff.rush
	} else {
		f.IsRushHour = model.IsRushHour(f.Hour)
	}
	return f
}

// newPredictor returns the API client when apiURL is set and the locally
// loaded pipeline otherwise.
func newPredictor(apiURL string) (predictor.Predictor, func() error, error) {
	if apiURL != "" {
		c := client.New(apiURL)
		return c, func() error { return nil }, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	svc, err := app.NewLocalPredictor(cfg)
	if err != nil {
		return nil, nil, err
	}
	return svc, svc.Close, nil
}

var _ predictor.Predictor = (*client.Client)(nil)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
