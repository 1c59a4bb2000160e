package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/metrotraffic/core/metrics"
)

// volumeBuckets covers the observed range of hourly interstate volumes.
var volumeBuckets = prometheus.LinearBuckets(0, 500, 16)

// PromSink records prediction events in Prometheus metrics.
type PromSink struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	volume   prometheus.Histogram
	loaded   *prometheus.GaugeVec
}

// NewPromSink registers prediction metrics on the default Prometheus
// registerer. The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "traffic_predictions_total",
		Help: "Total number of prediction requests by outcome",
	}, []string{"outcome", "cache_hit"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "traffic_prediction_latency_seconds",
		Help:    "Time spent validating and evaluating the pipeline",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	volume := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "traffic_predicted_volume",
		Help:    "Distribution of predicted hourly traffic volume",
		Buckets: volumeBuckets,
	})
	loaded := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "traffic_model_loaded",
		Help: "1 when the prediction pipeline is loaded",
	}, []string{"model_version"})

	var err error
	if requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if latency, err = register(reg, latency); err != nil {
		return nil, err
	}
	if volume, err = register(reg, volume); err != nil {
		return nil, err
	}
	if loaded, err = register(reg, loaded); err != nil {
		return nil, err
	}
	return &PromSink{requests: requests, latency: latency, volume: volume, loaded: loaded}, nil
}

// register returns the already registered collector when one exists.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPrediction updates the request counter, latency and volume histograms.
func (s *PromSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	s.requests.WithLabelValues(string(ev.Outcome), strconv.FormatBool(ev.CacheHit)).Inc()
	s.latency.WithLabelValues(string(ev.Outcome)).Observe(ev.Latency.Seconds())
	if ev.Outcome == coremetrics.OutcomeOK {
		s.volume.Observe(float64(ev.Volume))
	}
	return nil
}

// RecordModelState sets the loaded gauge for the model version.
func (s *PromSink) RecordModelState(loaded bool, version string) error {
	v := 0.0
	if loaded {
		v = 1
	}
	s.loaded.Reset()
	s.loaded.WithLabelValues(version).Set(v)
	return nil
}
