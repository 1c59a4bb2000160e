package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/metrotraffic/core/model"
	"github.com/kilianp07/metrotraffic/core/predictor"
)

func samplePoints() []predictor.HourPoint {
	return []predictor.HourPoint{
		{Hour: 3, IsRushHour: 0, Volume: 420, Band: model.BandLow, BandName: "low"},
		{Hour: 8, IsRushHour: 1, Volume: 5900, Band: model.BandHigh, BandName: "high"},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, samplePoints()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, float64(5900), got[1]["predicted_traffic_volume"])
	assert.Equal(t, "high", got[1]["band"])
	assert.Equal(t, float64(1), got[1]["is_rush_hour"])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, samplePoints()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"hour,is_rush_hour,predicted_traffic_volume,band",
		"3,0,420,low",
		"8,1,5900,high",
	}, lines)
}

func TestWriteHTMLChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTMLChart(&buf, "", samplePoints()))
	out := buf.String()
	assert.Contains(t, out, "echarts")
	assert.Contains(t, out, "Predicted Traffic Volume")
	assert.Contains(t, out, "08:00")
}
