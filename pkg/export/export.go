package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/metrotraffic/core/predictor"
)

// WriteJSON writes the daily profile to w in JSON format.
func WriteJSON(w io.Writer, points []predictor.HourPoint) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(points)
}

// WriteCSV writes the daily profile to w in CSV format.
func WriteCSV(w io.Writer, points []predictor.HourPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"hour", "is_rush_hour", "predicted_traffic_volume", "band"}); err != nil {
		return err
	}
	for _, p := range points {
		rec := []string{
			strconv.Itoa(p.Hour),
			strconv.Itoa(p.IsRushHour),
			strconv.Itoa(p.Volume),
			p.Band.String(),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHTMLChart renders the profile as a standalone HTML line chart.
func WriteHTMLChart(w io.Writer, title string, points []predictor.HourPoint) error {
	if title == "" {
		title = "Predicted Traffic Volume"
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Hour"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Vehicles/hour"}),
	)

	xAxis := make([]string, len(points))
	volumes := make([]opts.LineData, len(points))
	for i, p := range points {
		xAxis[i] = fmt.Sprintf("%02d:00", p.Hour)
		volumes[i] = opts.LineData{Value: p.Volume}
	}
	line.SetXAxis(xAxis).AddSeries("Volume", volumes)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
