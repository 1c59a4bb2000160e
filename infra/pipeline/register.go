package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kilianp07/metrotraffic/core/factory"
	"github.com/kilianp07/metrotraffic/core/prediction"
)

// LinearConfig points at a linear artifact on disk.
type LinearConfig struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

// init registers the built-in pipeline backends.
func init() {
	_ = prediction.RegisterPipeline("linear", func(conf map[string]any) (prediction.Pipeline, error) {
		var c LinearConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("linear pipeline: path is required")
		}
		a, err := LoadArtifact(c.Path)
		if err != nil {
			return nil, err
		}
		p, err := NewLinear(a, c.Version)
		if err != nil {
			return nil, err
		}
		return p, nil
	})

	_ = prediction.RegisterPipeline("remote", func(conf map[string]any) (prediction.Pipeline, error) {
		var c RemoteConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		p, err := NewRemote(c)
		if err != nil {
			return nil, err
		}
		return p, nil
	})

	_ = prediction.RegisterPipeline("onnx", func(conf map[string]any) (prediction.Pipeline, error) {
		var c ONNXConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		p, err := NewONNX(c)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}

// loadEncoder reads only the encoder block of an artifact file.
func loadEncoder(path string) (Encoder, error) {
	var a struct {
		Encoder Encoder `json:"encoder"`
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Encoder{}, fmt.Errorf("load encoder %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return Encoder{}, fmt.Errorf("decode encoder %s: %w", path, err)
	}
	if err := a.Encoder.Validate(); err != nil {
		return Encoder{}, err
	}
	return a.Encoder, nil
}
