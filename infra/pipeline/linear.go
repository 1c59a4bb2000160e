package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/metrotraffic/core/model"
	"github.com/kilianp07/metrotraffic/core/prediction"
)

// Artifact is the serialized form of a trained linear pipeline.
type Artifact struct {
	Version   string    `json:"version"`
	Encoder   Encoder   `json:"encoder"`
	Regressor Regressor `json:"regressor"`
	Clip      *Clip     `json:"clip,omitempty"`
}

// Regressor holds the fitted linear coefficients in encoder column order.
type Regressor struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// Clip bounds the regressor output.
type Clip struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// LoadArtifact reads and validates an artifact file.
func LoadArtifact(path string) (Artifact, error) {
	var a Artifact
	data, err := os.ReadFile(path)
	if err != nil {
		return a, fmt.Errorf("load model artifact %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("decode model artifact %s: %w", path, err)
	}
	if err := a.Validate(); err != nil {
		return a, fmt.Errorf("model artifact %s: %w", path, err)
	}
	return a, nil
}

// Validate checks the artifact is internally consistent.
func (a Artifact) Validate() error {
	if err := a.Encoder.Validate(); err != nil {
		return err
	}
	if w, n := a.Encoder.Width(), len(a.Regressor.Coefficients); w != n {
		return fmt.Errorf("regressor has %d coefficients, encoder produces %d columns", n, w)
	}
	if a.Clip != nil && a.Clip.Min > a.Clip.Max {
		return errors.New("clip min greater than max")
	}
	return nil
}

// Linear evaluates an Artifact in process.
type Linear struct {
	enc       Encoder
	coef      *mat.VecDense
	intercept float64
	clip      *Clip
	version   string
}

// NewLinear builds a Linear pipeline from a validated artifact. A non-empty
// version overrides the artifact's own.
func NewLinear(a Artifact, version string) (*Linear, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if version == "" {
		version = a.Version
	}
	coef := make([]float64, len(a.Regressor.Coefficients))
	copy(coef, a.Regressor.Coefficients)
	return &Linear{
		enc:       a.Encoder,
		coef:      mat.NewVecDense(len(coef), coef),
		intercept: a.Regressor.Intercept,
		clip:      a.Clip,
		version:   version,
	}, nil
}

// Predict returns intercept + coef·encode(f), clipped when configured.
func (l *Linear) Predict(ctx context.Context, f model.Features) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	row := l.enc.Encode(f)
	y := l.intercept + mat.Dot(l.coef, mat.NewVecDense(len(row), row))
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("%w: non-finite prediction", prediction.ErrInvalidInput)
	}
	if l.clip != nil {
		y = math.Max(l.clip.Min, math.Min(l.clip.Max, y))
	}
	return y, nil
}

func (l *Linear) Version() string { return l.version }

func (l *Linear) Close() error { return nil }
