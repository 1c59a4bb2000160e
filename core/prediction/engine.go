package prediction

import (
	"context"
	"errors"

	"github.com/kilianp07/metrotraffic/core/factory"
	"github.com/kilianp07/metrotraffic/core/model"
)

var (
	// ErrInvalidInput is returned when the pipeline rejects the feature values.
	ErrInvalidInput = errors.New("invalid input data")
	// ErrModelNotLoaded is returned when no pipeline is available.
	ErrModelNotLoaded = errors.New("model not loaded")
)

// Pipeline maps a feature vector to a traffic-volume estimate.
type Pipeline interface {
	Predict(ctx context.Context, f model.Features) (float64, error)
	// Version identifies the trained artifact.
	Version() string
	Close() error
}

var pipelineRegistry = factory.NewRegistry[Pipeline]()

// RegisterPipeline adds a pipeline backend identified by name.
func RegisterPipeline(name string, f factory.Factory[Pipeline]) error {
	return pipelineRegistry.Register(name, f)
}

// NewPipeline creates a Pipeline from the provided configuration.
func NewPipeline(cfg factory.ModuleConfig) (Pipeline, error) {
	return pipelineRegistry.Create(cfg)
}

// Backends lists the registered pipeline types.
func Backends() []string { return pipelineRegistry.Names() }
