package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/kilianp07/metrotraffic/api/predict"
	"github.com/kilianp07/metrotraffic/api/predictions"
	"github.com/kilianp07/metrotraffic/config"
	"github.com/kilianp07/metrotraffic/core/audit"
	"github.com/kilianp07/metrotraffic/core/cache"
	coremetrics "github.com/kilianp07/metrotraffic/core/metrics"
	coremon "github.com/kilianp07/metrotraffic/core/monitoring"
	"github.com/kilianp07/metrotraffic/core/prediction"
	"github.com/kilianp07/metrotraffic/core/predictor"
	"github.com/kilianp07/metrotraffic/infra/logger"
	"github.com/kilianp07/metrotraffic/infra/metrics"
	"github.com/kilianp07/metrotraffic/infra/monitoring"
	"github.com/kilianp07/metrotraffic/internal/eventbus"

	// backend registrations
	_ "github.com/kilianp07/metrotraffic/infra/cache"
	_ "github.com/kilianp07/metrotraffic/infra/pipeline"
)

// Service orchestrates the prediction API, its collectors and the metrics
// endpoint.
type Service struct {
	Predictor *predictor.Service
	cfg       *config.Config
	handler   http.Handler
	bus       *eventbus.TypedBus[coremetrics.PredictionEvent]
	sink      coremetrics.MetricsSink
	store     audit.Store
	log       logger.Logger
}

// New creates a Service from the configuration. A pipeline that fails to load
// is logged and the API starts without model.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		logg.Warnf("sentry init failed, monitoring disabled: %v", err)
		mon = coremon.NopMonitor{}
	}
	coremon.Init(mon)

	pipeline, err := prediction.NewPipeline(cfg.Model.Pipeline)
	if err != nil {
		logg.Errorf("error loading model: %v", err)
		pipeline = nil
	} else {
		logg.Infof("model loaded (%s)", cfg.Model.Pipeline.Type)
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		closePipeline(pipeline)
		return nil, fmt.Errorf("cache: %w", err)
	}
	store, err := audit.New(cfg.Audit.ModuleConfig())
	if err != nil {
		closePipeline(pipeline)
		_ = c.Close()
		return nil, fmt.Errorf("audit store: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		closePipeline(pipeline)
		_ = c.Close()
		_ = store.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	bus := eventbus.NewTyped[coremetrics.PredictionEvent]()
	svc := predictor.New(pipeline,
		predictor.WithCache(c),
		predictor.WithBus(bus),
		predictor.WithLogger(logger.New("predictor")),
		predictor.WithVersion(cfg.Model.Version),
	)
	if r, ok := sink.(coremetrics.ModelStateRecorder); ok {
		if err := r.RecordModelState(svc.ModelLoaded(), svc.Version()); err != nil {
			logg.Warnf("record model state: %v", err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/api/predictions", predictions.NewLogHandler(store, cfg.Server.AuditToken))
	handler := predict.NewRouter(mux, svc, cfg.Server.CORSOrigins, logger.New("http"))

	return &Service{
		Predictor: svc,
		cfg:       cfg,
		handler:   handler,
		bus:       bus,
		sink:      sink,
		store:     store,
		log:       logg,
	}, nil
}

// Handler returns the HTTP handler of the prediction API.
func (s *Service) Handler() http.Handler { return s.handler }

// Run listens on the configured address and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve answers API requests on ln until ctx is cancelled, then shuts the
// server down and drains the event collectors.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	collectorCtx, stopCollectors := context.WithCancel(context.Background())
	defer stopCollectors()
	metricsDone := metrics.StartEventCollector(collectorCtx, s.bus, s.sink)
	auditDone := audit.StartRecorder(collectorCtx, s.bus, s.store, logger.New("audit"))

	if s.cfg.Metrics.PrometheusEnabled() && s.cfg.Metrics.PrometheusAddress != "" {
		go func() {
			defer coremon.Recover()
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddress); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.Server.ReadTimeout(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.Server.WriteTimeout(),
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("traffic API listening on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout())
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("server shutdown: %v", err)
		}
		cancel()
	}

	// Closing the bus lets the collectors drain buffered events before exiting.
	s.bus.Close()
	<-metricsDone
	<-auditDone
	return serveErr
}

// Close releases the pipeline, cache, audit store and metrics sinks.
func (s *Service) Close() error {
	errs := []error{s.Predictor.Close(), s.store.Close()}
	if c, ok := s.sink.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}

func closePipeline(p prediction.Pipeline) {
	if p != nil {
		_ = p.Close()
	}
}
