package domain

import "fmt"

// Engine is the server-side indexing implementation of a descriptor set.
type Engine string

const (
	EngineFaissFlat     Engine = "FaissFlat"
	EngineFaissHNSWFlat Engine = "FaissHNSWFlat"
	EngineFaissIVFFlat  Engine = "FaissIVFFlat"
	EngineFlinng        Engine = "Flinng"
	EngineTileDBDense   Engine = "TileDBDense"
	EngineTileDBSparse  Engine = "TileDBSparse"
)

// Engines lists every engine the server supports.
var Engines = []Engine{
	EngineFaissFlat, EngineFaissHNSWFlat, EngineFaissIVFFlat,
	EngineFlinng, EngineTileDBDense, EngineTileDBSparse,
}

// Metric is the distance metric of a descriptor set.
type Metric string

const (
	// MetricL2 is euclidean distance; lower is more similar.
	MetricL2 Metric = "L2"
	// MetricIP is inner product; higher is more similar.
	MetricIP Metric = "IP"
)

// Metrics lists every distance metric the server supports.
var Metrics = []Metric{MetricL2, MetricIP}

// Validate checks the engine against the server's supported set.
func (e Engine) Validate() error {
	for _, known := range Engines {
		if e == known {
			return nil
		}
	}
	return fmt.Errorf("unknown engine %q: %w", string(e), ErrValidation)
}

// Validate checks the metric against the server's supported set.
func (m Metric) Validate() error {
	for _, known := range Metrics {
		if m == known {
			return nil
		}
	}
	return fmt.Errorf("unknown distance metric %q: %w", string(m), ErrValidation)
}

// Ascending reports whether smaller scores mean closer matches.
func (m Metric) Ascending() bool {
	return m != MetricIP
}

// Collection is a descriptor set bound to one engine and one metric.
// Neither can change after creation without recreating the set.
type Collection struct {
	Name       string
	Engine     Engine
	Metric     Metric
	Dimensions int
}
