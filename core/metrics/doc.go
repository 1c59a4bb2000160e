// Package metrics defines the sinks that observe served predictions. Sinks
// like PromSink, InfluxSink and MQTTSink live in infra/metrics, register
// themselves by type name, and can be combined with NewMultiSink. The factory
// helpers return a MultiSink automatically when several sinks are configured.
package metrics
