package ui

import (
	"context"

	"github.com/kilianp07/metrotraffic/client"
	"github.com/kilianp07/metrotraffic/core/model"
	"github.com/kilianp07/metrotraffic/core/predictor"
)

// Status describes whether the backend can serve predictions.
type Status struct {
	Online      bool
	ModelLoaded bool
	Version     string
	Detail      string
}

// Backend is where the front end sends its feature vectors.
type Backend interface {
	Name() string
	Predict(ctx context.Context, f model.Features) (model.Prediction, error)
	// Status may return a cached result.
	Status(ctx context.Context) Status
	Refresh(ctx context.Context) Status
}

// APIBackend calls a running prediction API.
type APIBackend struct {
	c *client.Client
}

func NewAPIBackend(c *client.Client) *APIBackend { return &APIBackend{c: c} }

func (b *APIBackend) Name() string { return "api " + b.c.BaseURL() }

func (b *APIBackend) Predict(ctx context.Context, f model.Features) (model.Prediction, error) {
	return b.c.Predict(ctx, f)
}

func (b *APIBackend) Status(ctx context.Context) Status {
	return toStatus(b.c.Status(ctx))
}

func (b *APIBackend) Refresh(ctx context.Context) Status {
	return toStatus(b.c.Refresh(ctx))
}

func toStatus(info client.Info, err error) Status {
	if err != nil {
		return Status{Detail: err.Error()}
	}
	return Status{Online: true, ModelLoaded: info.ModelLoaded, Version: info.Version, Detail: "API server is running"}
}

// LocalBackend evaluates the pipeline in process.
type LocalBackend struct {
	svc *predictor.Service
}

func NewLocalBackend(svc *predictor.Service) *LocalBackend { return &LocalBackend{svc: svc} }

func (b *LocalBackend) Name() string { return "local pipeline" }

func (b *LocalBackend) Predict(ctx context.Context, f model.Features) (model.Prediction, error) {
	return b.svc.Predict(ctx, f)
}

func (b *LocalBackend) Status(context.Context) Status {
	s := Status{Online: true, ModelLoaded: b.svc.ModelLoaded(), Version: b.svc.Version(), Detail: "model loaded"}
	if !s.ModelLoaded {
		s.Detail = "model not loaded"
	}
	return s
}

func (b *LocalBackend) Refresh(ctx context.Context) Status { return b.Status(ctx) }
