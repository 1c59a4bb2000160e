// Package infra contains technical adapters: prediction pipelines, caches,
// metrics sinks, logging and error monitoring. These packages should depend
// only on the interfaces defined in the core packages.
package infra
