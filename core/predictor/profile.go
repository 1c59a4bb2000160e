package predictor

import (
	"context"
	"fmt"

	"github.com/kilianp07/metrotraffic/core/model"
)

// HourPoint is one entry of a daily profile.
type HourPoint struct {
	Hour       int        `json:"hour"`
	IsRushHour int        `json:"is_rush_hour"`
	Volume     int        `json:"predicted_traffic_volume"`
	Band       model.Band `json:"-"`
	BandName   string     `json:"band"`
}

// Profile predicts every hour of the day described by base. The rush-hour
// flag is derived from each hour; every other field is kept.
func Profile(ctx context.Context, p Predictor, base model.Features) ([]HourPoint, error) {
	points := make([]HourPoint, 0, 24)
	for h := 0; h < 24; h++ {
		f := base
		f.Hour = h
		f.IsRushHour = model.IsRushHour(h)
		pred, err := p.Predict(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("hour %d: %w", h, err)
		}
		band := model.BandFor(pred.Volume)
		points = append(points, HourPoint{
			Hour:       h,
			IsRushHour: f.IsRushHour,
			Volume:     pred.Volume,
			Band:       band,
			BandName:   band.String(),
		})
	}
	return points, nil
}

// Peak returns the busiest hour of a profile.
func Peak(points []HourPoint) (HourPoint, bool) {
	if len(points) == 0 {
		return HourPoint{}, false
	}
	best := points[0]
	for _, p := range points[1:] {
		if p.Volume > best.Volume {
			best = p
		}
	}
	return best, true
}
