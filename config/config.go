package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/metrotraffic/core/factory"
	"github.com/kilianp07/metrotraffic/core/metrics"
)

type Config struct {
	Server  ServerConfig         `json:"server"`
	Model   ModelConfig          `json:"model"`
	Cache   factory.ModuleConfig `json:"cache"`
	Audit   AuditConfig          `json:"audit"`
	Metrics metrics.Config       `json:"metrics"`
	Sentry  SentryConfig         `json:"sentry"`
	Client  ClientConfig         `json:"client"`
}

// Load reads the file at path, applies K_ prefixed environment overrides
// (K_SERVER__ADDRESS sets server.address) and validates the result. An empty
// path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Model.SetDefaults()
	c.Audit.SetDefaults()
	c.Client.SetDefaults()
	if c.Cache.Type == "" {
		c.Cache.Type = "none"
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if err := c.Audit.Validate(); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	if c.Metrics.PrometheusEnabled() && c.Metrics.PrometheusAddress == "" {
		return fmt.Errorf("metrics: prometheus_address is required with a prometheus sink")
	}
	return nil
}
