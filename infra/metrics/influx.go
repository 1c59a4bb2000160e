package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/metrotraffic/core/metrics"
	"github.com/kilianp07/metrotraffic/infra/logger"
)

// InfluxSink writes prediction events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPrediction writes the event as a traffic_prediction point.
func (s *InfluxSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, predictionPoint(ev))
}

func predictionPoint(ev coremetrics.PredictionEvent) *write.Point {
	f := ev.Features
	p := write.NewPointWithMeasurement("traffic_prediction").
		AddTag("outcome", string(ev.Outcome)).
		AddTag("model_version", ev.ModelVersion).
		AddTag("weather_main", f.WeatherMain).
		AddTag("holiday", f.Holiday).
		AddTag("cache_hit", strconv.FormatBool(ev.CacheHit)).
		AddField("volume", ev.Volume).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000)).
		AddField("temp", round3(f.Temp)).
		AddField("hour", f.Hour).
		AddField("day_of_week", f.DayOfWeek).
		AddField("month", f.Month).
		SetTime(ev.Time)
	if ev.Error != "" {
		p = p.AddField("error", ev.Error)
	}
	return p
}

// Close releases the underlying client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
