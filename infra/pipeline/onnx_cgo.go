//go:build cgo

package pipeline

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/kilianp07/metrotraffic/core/model"
)

var ortInit sync.Mutex

func initRuntime(libPath string) error {
	ortInit.Lock()
	defer ortInit.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

// ONNX runs an exported regressor with onnxruntime. Sessions are not safe for
// concurrent Run calls so predictions are serialized.
type ONNX struct {
	mu      sync.Mutex
	enc     Encoder
	session *ort.DynamicAdvancedSession
	version string
}

// NewONNX loads the encoder and the ONNX model described by cfg.
func NewONNX(cfg ONNXConfig) (*ONNX, error) {
	cfg.setDefaults()
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("onnx model %s: %w", cfg.ModelPath, err)
	}
	a, err := loadEncoder(cfg.EncoderPath)
	if err != nil {
		return nil, err
	}
	if err := initRuntime(cfg.LibraryPath); err != nil {
		return nil, err
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	return &ONNX{enc: a, session: session, version: cfg.Version}, nil
}

func (o *ONNX) Predict(ctx context.Context, f model.Features) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	row := o.enc.Encode(f)
	data := make([]float32, len(row))
	for i, v := range row {
		data[i] = float32(v)
	}
	input, err := ort.NewTensor(ort.NewShape(1, int64(len(data))), data)
	if err != nil {
		return 0, fmt.Errorf("input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, fmt.Errorf("output tensor: %w", err)
	}
	defer func() { _ = output.Destroy() }()

	o.mu.Lock()
	err = o.session.Run([]ort.Value{input}, []ort.Value{output})
	o.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("onnx run: %w", err)
	}
	out := output.GetData()
	if len(out) == 0 {
		return 0, fmt.Errorf("onnx run: empty output")
	}
	return float64(out[0]), nil
}

func (o *ONNX) Version() string { return o.version }

func (o *ONNX) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	err := o.session.Destroy()
	o.session = nil
	return err
}
