package config

import (
	"fmt"
	"time"
)

// ServerConfig defines the HTTP listener of the prediction API.
type ServerConfig struct {
	Address string `json:"address"`
	// CORSOrigins lists the allowed origins. "*" allows any origin.
	CORSOrigins            []string `json:"cors_origins"`
	AuditToken             string   `json:"audit_token"`
	ReadTimeoutSeconds     int      `json:"read_timeout_seconds"`
	WriteTimeoutSeconds    int      `json:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int      `json:"shutdown_timeout_seconds"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8000"
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	if c.ReadTimeoutSeconds <= 0 {
		c.ReadTimeoutSeconds = 10
	}
	if c.WriteTimeoutSeconds <= 0 {
		c.WriteTimeoutSeconds = 15
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		c.ShutdownTimeoutSeconds = 5
	}
}

func (c ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	return nil
}

func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
