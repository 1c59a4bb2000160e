// Package predictor validates feature vectors, calls the prediction pipeline
// and formats the reply.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/metrotraffic/core/cache"
	"github.com/kilianp07/metrotraffic/core/logger"
	"github.com/kilianp07/metrotraffic/core/metrics"
	"github.com/kilianp07/metrotraffic/core/model"
	"github.com/kilianp07/metrotraffic/core/prediction"
	"github.com/kilianp07/metrotraffic/internal/eventbus"
)

// DefaultVersion is reported when neither the configuration nor the pipeline
// names the model.
const DefaultVersion = "1.0.0"

// Predictor produces a Prediction for a feature vector.
type Predictor interface {
	Predict(ctx context.Context, f model.Features) (model.Prediction, error)
}

// Service is the prediction use case shared by the HTTP API and the local
// front end. A Service without pipeline answers every request with
// prediction.ErrModelNotLoaded.
type Service struct {
	pipeline prediction.Pipeline
	version  string
	cache    cache.Cache
	bus      *eventbus.TypedBus[metrics.PredictionEvent]
	log      logger.Logger
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithCache stores raw pipeline outputs in c.
func WithCache(c cache.Cache) Option { return func(s *Service) { s.cache = c } }

// WithBus publishes a PredictionEvent for every request.
func WithBus(b *eventbus.TypedBus[metrics.PredictionEvent]) Option {
	return func(s *Service) { s.bus = b }
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

// WithVersion overrides the model version reported in replies.
func WithVersion(v string) Option { return func(s *Service) { s.version = v } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New creates a Service. p may be nil when the pipeline failed to load.
func New(p prediction.Pipeline, opts ...Option) *Service {
	s := &Service{pipeline: p, cache: cache.None{}, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if s.version == "" {
		if p != nil && p.Version() != "" {
			s.version = p.Version()
		} else {
			s.version = DefaultVersion
		}
	}
	if s.cache == nil {
		s.cache = cache.None{}
	}
	return s
}

// ModelLoaded reports whether a pipeline is available.
func (s *Service) ModelLoaded() bool { return s.pipeline != nil }

// Version returns the model version reported in replies.
func (s *Service) Version() string { return s.version }

// Predict validates f, evaluates the pipeline and formats the result.
func (s *Service) Predict(ctx context.Context, f model.Features) (model.Prediction, error) {
	start := s.now()
	ev := metrics.PredictionEvent{
		RequestID:    uuid.NewString(),
		Features:     f,
		ModelVersion: s.version,
		Time:         start,
	}
	pred, err := s.predict(ctx, f, &ev)
	ev.Latency = s.now().Sub(start)
	switch {
	case err == nil:
		ev.Outcome = metrics.OutcomeOK
	case isInvalid(err):
		ev.Outcome = metrics.OutcomeInvalid
		ev.Error = err.Error()
	default:
		ev.Outcome = metrics.OutcomeError
		ev.Error = err.Error()
	}
	if s.log != nil {
		s.log.Debugw("prediction", map[string]any{
			"request_id": ev.RequestID,
			"outcome":    string(ev.Outcome),
			"volume":     ev.Volume,
			"cache_hit":  ev.CacheHit,
			"latency_ms": ev.Latency.Milliseconds(),
		})
	}
	if s.bus != nil {
		s.bus.Publish(ev)
	}
	if err != nil {
		return model.Prediction{}, err
	}
	pred.RequestID = ev.RequestID
	pred.Timestamp = start
	return pred, nil
}

func (s *Service) predict(ctx context.Context, f model.Features, ev *metrics.PredictionEvent) (model.Prediction, error) {
	if err := f.Validate(); err != nil {
		return model.Prediction{}, err
	}
	if s.pipeline == nil {
		return model.Prediction{}, prediction.ErrModelNotLoaded
	}
	key := s.version + "|" + f.Key()
	raw, err := s.cache.Get(ctx, key)
	if err == nil {
		ev.CacheHit = true
	} else {
		if !errors.Is(err, cache.ErrMiss) && s.log != nil {
			s.log.Warnf("cache lookup: %v", err)
		}
		raw, err = s.pipeline.Predict(ctx, f)
		if err != nil {
			return model.Prediction{}, fmt.Errorf("pipeline predict: %w", err)
		}
		if err := s.cache.Set(ctx, key, raw); err != nil && s.log != nil {
			s.log.Warnf("cache store: %v", err)
		}
	}
	ev.Raw = raw
	vol, err := model.VolumeFromRaw(raw)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("pipeline predict: %w", err)
	}
	ev.Volume = vol
	return model.Prediction{
		Volume:       ev.Volume,
		Raw:          raw,
		ModelVersion: s.version,
		CacheHit:     ev.CacheHit,
	}, nil
}

func isInvalid(err error) bool {
	var ve *model.ValidationError
	return errors.As(err, &ve) || errors.Is(err, prediction.ErrInvalidInput)
}

// Close releases the pipeline and the cache.
func (s *Service) Close() error {
	var errs []error
	if s.pipeline != nil {
		errs = append(errs, s.pipeline.Close())
	}
	errs = append(errs, s.cache.Close())
	return errors.Join(errs...)
}
