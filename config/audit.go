package config

import (
	"fmt"

	"github.com/kilianp07/metrotraffic/core/factory"
)

// AuditConfig defines settings for prediction log storage and rotation.
type AuditConfig struct {
	// Backend selects the store: "none", "jsonl", "sqlite" or "postgres".
	Backend string `json:"backend"`
	// Path is the file location of the jsonl or sqlite store.
	Path string `json:"path"`
	// DSN is the postgres connection string.
	DSN string `json:"dsn"`
	// MaxSizeMB enables rotation of the jsonl file above this size.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *AuditConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "none"
	}
	if c.Path == "" {
		switch c.Backend {
		case "jsonl":
			c.Path = "predictions.jsonl"
		case "sqlite":
			c.Path = "predictions.db"
		}
	}
}

// Validate checks mandatory fields.
func (c AuditConfig) Validate() error {
	switch c.Backend {
	case "none":
		return nil
	case "jsonl", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("path is required")
		}
	case "postgres":
		if c.DSN == "" {
			return fmt.Errorf("dsn is required")
		}
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	return nil
}

// ModuleConfig converts the section for audit.New.
func (c AuditConfig) ModuleConfig() factory.ModuleConfig {
	return factory.ModuleConfig{
		Type: c.Backend,
		Conf: map[string]any{
			"path":         c.Path,
			"dsn":          c.DSN,
			"max_size_mb":  c.MaxSizeMB,
			"max_backups":  c.MaxBackups,
			"max_age_days": c.MaxAgeDays,
		},
	}
}
