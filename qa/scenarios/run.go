package scenarios

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/metrotraffic/core/model"
	"github.com/kilianp07/metrotraffic/core/prediction"
	"github.com/kilianp07/metrotraffic/core/predictor"
)

// Result is the outcome of one scenario.
type Result struct {
	Scenario   Scenario
	Features   model.Features
	Prediction model.Prediction
	Err        error
	Failures   []string
}

// Passed reports whether every expectation held.
func (r Result) Passed() bool { return len(r.Failures) == 0 }

// Run predicts the scenario features with p and checks the expectations.
func Run(ctx context.Context, p predictor.Predictor, sc Scenario) Result {
	res := Result{Scenario: sc, Features: sc.Features.ToModel()}
	res.Prediction, res.Err = p.Predict(ctx, res.Features)

	want := sc.Expected.Outcome
	if want == "" {
		want = "ok"
	}
	if got := outcomeOf(res.Err); got != want {
		res.failf("expected outcome %s, got %s (%v)", want, got, res.Err)
		return res
	}
	if res.Err != nil {
		return res
	}

	vol := res.Prediction.Volume
	if sc.Expected.Band != "" {
		if got := model.BandFor(vol).String(); got != sc.Expected.Band {
			res.failf("expected band %s, got %s (%d)", sc.Expected.Band, got, vol)
		}
	}
	if m := sc.Expected.MinVolume; m != nil && vol < *m {
		res.failf("expected volume >= %d, got %d", *m, vol)
	}
	if m := sc.Expected.MaxVolume; m != nil && vol > *m {
		res.failf("expected volume <= %d, got %d", *m, vol)
	}
	return res
}

// RunAll runs every scenario in order.
func RunAll(ctx context.Context, p predictor.Predictor, scs []Scenario) []Result {
	out := make([]Result, 0, len(scs))
	for _, sc := range scs {
		out = append(out, Run(ctx, p, sc))
	}
	return out
}

func (r *Result) failf(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

func outcomeOf(err error) string {
	var ve *model.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve), errors.Is(err, prediction.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}
