// Package prediction defines the contract with the externally trained
// traffic-volume pipeline. The pipeline is opaque: it receives a fixed-schema
// feature vector and returns a scalar estimate of vehicles per hour. Concrete
// backends live in infra/pipeline and register themselves by type name.
package prediction
