package app

import (
	"fmt"

	"github.com/kilianp07/metrotraffic/config"
	"github.com/kilianp07/metrotraffic/core/cache"
	"github.com/kilianp07/metrotraffic/core/prediction"
	"github.com/kilianp07/metrotraffic/core/predictor"
	"github.com/kilianp07/metrotraffic/infra/logger"
)

// NewLocalPredictor loads the configured pipeline for in-process use by the
// CLI and the local front end. Unlike New, a pipeline that fails to load is
// an error.
func NewLocalPredictor(cfg *config.Config) (*predictor.Service, error) {
	pipeline, err := prediction.NewPipeline(cfg.Model.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	c, err := cache.New(cfg.Cache)
	if err != nil {
		_ = pipeline.Close()
		return nil, fmt.Errorf("cache: %w", err)
	}
	return predictor.New(pipeline,
		predictor.WithCache(c),
		predictor.WithLogger(logger.New("predictor")),
		predictor.WithVersion(cfg.Model.Version),
	), nil
}
