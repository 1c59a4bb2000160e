//go:build !cgo

package pipeline

import (
	"context"
	"errors"

	"github.com/kilianp07/metrotraffic/core/model"
)

var errONNXUnavailable = errors.New("onnx backend requires a cgo build")

// ONNX is unavailable without cgo.
type ONNX struct{}

func NewONNX(ONNXConfig) (*ONNX, error) { return nil, errONNXUnavailable }

func (*ONNX) Predict(context.Context, model.Features) (float64, error) {
	return 0, errONNXUnavailable
}

func (*ONNX) Version() string { return "" }
func (*ONNX) Close() error    { return nil }
