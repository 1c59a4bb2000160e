package audit

import (
	"fmt"

	"github.com/kilianp07/metrotraffic/core/factory"
)

// FileConfig configures the JSONL stores. Rotation is enabled when MaxSizeMB
// is positive.
type FileConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// DBConfig configures the SQL stores.
type DBConfig struct {
	Path string `json:"path"`
	DSN  string `json:"dsn"`
}

func init() {
	_ = Register("jsonl", func(conf map[string]any) (Store, error) {
		var c FileConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("jsonl audit store: path is required")
		}
		if c.MaxSizeMB > 0 {
			s, err := NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
		s, err := NewJSONLStore(c.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	})

	_ = Register("sqlite", func(conf map[string]any) (Store, error) {
		var c DBConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			c.Path = "predictions.db"
		}
		s, err := NewSQLiteStore(c.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	})

	_ = Register("postgres", func(conf map[string]any) (Store, error) {
		var c DBConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.DSN == "" {
			return nil, fmt.Errorf("postgres audit store: dsn is required")
		}
		s, err := NewPostgresStore(c.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
