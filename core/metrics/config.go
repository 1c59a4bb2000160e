package metrics

import "github.com/kilianp07/metrotraffic/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddress is the listen address of the /metrics endpoint. Empty
	// disables the endpoint.
	PrometheusAddress string `json:"prometheus_address"`
}

// PrometheusEnabled reports whether a prometheus sink is configured.
func (c Config) PrometheusEnabled() bool {
	for _, s := range c.Sinks {
		if s.Type == "prometheus" {
			return true
		}
	}
	return false
}
