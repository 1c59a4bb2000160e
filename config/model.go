package config

import (
	"fmt"

	"github.com/kilianp07/metrotraffic/core/factory"
)

// DefaultModelPath is the linear artifact loaded when nothing is configured.
const DefaultModelPath = "models/traffic_pipeline.json"

// ModelConfig selects the prediction pipeline backend.
type ModelConfig struct {
	Pipeline factory.ModuleConfig `json:"pipeline"`
	// Version overrides the version reported by the pipeline.
	Version string `json:"version"`
}

func (c *ModelConfig) SetDefaults() {
	if c.Pipeline.Type == "" {
		c.Pipeline.Type = "linear"
	}
	if c.Pipeline.Conf == nil {
		c.Pipeline.Conf = map[string]any{}
	}
	if c.Pipeline.Type == "linear" {
		if p, _ := c.Pipeline.Conf["path"].(string); p == "" {
			c.Pipeline.Conf["path"] = DefaultModelPath
		}
	}
}

func (c ModelConfig) Validate() error {
	if c.Pipeline.Type == "" {
		return fmt.Errorf("pipeline type is required")
	}
	return nil
}
