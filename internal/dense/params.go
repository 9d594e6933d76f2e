// Package dense implements paragraph-vector (PV-DM) retrieval: a document
// embedding model trained over the corpus, with queries embedded by inference
// against the frozen model.
package dense

import "runtime"

// Params holds the model hyperparameters.
type Params struct {
	VectorSize int
	Window     int
	MinCount   int
	Epochs     int
	Negative   int
	Workers    int
	// BatchSize is the number of documents trained against one snapshot of
	// the shared weights.
	BatchSize int
	Alpha     float64
	MinAlpha  float64
	// Sample is the frequent-word downsampling threshold; zero disables it.
	Sample float64
	Seed   uint64
}

// DefaultParams returns the hyperparameters used for the document index.
func DefaultParams() Params {
	return Params{
		VectorSize: 300,
		Window:     10,
		MinCount:   2,
		Epochs:     120,
		Negative:   10,
		Workers:    4,
		BatchSize:  32,
		Alpha:      0.025,
		MinAlpha:   0.0001,
		Sample:     1e-3,
		Seed:       1,
	}
}

// withDefaults fills zero fields from DefaultParams.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.VectorSize <= 0 {
		p.VectorSize = d.VectorSize
	}
	if p.Window <= 0 {
		p.Window = d.Window
	}
	if p.MinCount <= 0 {
		p.MinCount = d.MinCount
	}
	if p.Epochs <= 0 {
		p.Epochs = d.Epochs
	}
	if p.Negative <= 0 {
		p.Negative = d.Negative
	}
	if p.Workers <= 0 {
		p.Workers = min(d.Workers, runtime.NumCPU())
	}
	if p.BatchSize <= 0 {
		p.BatchSize = d.BatchSize
	}
	if p.Alpha <= 0 {
		p.Alpha = d.Alpha
	}
	if p.MinAlpha <= 0 || p.MinAlpha > p.Alpha {
		p.MinAlpha = min(d.MinAlpha, p.Alpha)
	}
	if p.Sample < 0 {
		p.Sample = 0
	}
	return p
}

// alphaAt returns the learning rate for an epoch, decaying linearly from
// Alpha to MinAlpha over the run.
func (p Params) alphaAt(epoch int) float64 {
	if p.Epochs <= 1 {
		return p.Alpha
	}
	progress := float64(epoch) / float64(p.Epochs-1)
	return p.Alpha - (p.Alpha-p.MinAlpha)*progress
}
