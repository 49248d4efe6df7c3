// Package a2c implements advantage actor-critic training with optional
// sharpness-aware minimization and curvature-alignment regularization.
//
// The entry point is the A2C trainer: construct it over a policy and a
// strategy, then feed it rollout batches. Strategies select how each
// update is computed:
//
//   - BaseStrategy: plain A2C update with RMSProp.
//   - SAMStrategy: two-phase sharpness-aware update around SGD.
//   - HeroStrategy: SAM plus a gradient-alignment term that requires
//     differentiating through the second-pass gradients.
package a2c

import (
	"fmt"
	"math"

	"github.com/hero-ml/hero/internal/gae"
)

// Batch is one rollout's worth of training data, flat row-major slices.
type Batch struct {
	Observations []float32 // [N * ObsDim]
	Actions      []float32 // [N * ActDim], action indices for discrete spaces
	Advantages   []float32 // [N]
	Returns      []float32 // [N]

	N      int
	ObsDim int
	ActDim int
}

// BatchFromRollout lifts a drained GAE buffer into a training batch.
func BatchFromRollout(d *gae.Data, obsDim, actDim int) *Batch {
	return &Batch{
		Observations: d.Observations,
		Actions:      d.Actions,
		Advantages:   d.Advantages,
		Returns:      d.Returns,
		N:            d.N,
		ObsDim:       obsDim,
		ActDim:       actDim,
	}
}

// Validate checks slice lengths and rejects non-finite values before any
// of the batch reaches the network.
func (b *Batch) Validate() error {
	if b.N < 1 {
		return fmt.Errorf("a2c: batch is empty")
	}
	if b.ObsDim < 1 || b.ActDim < 1 {
		return fmt.Errorf("a2c: batch dimensions must be positive, got obs %d act %d", b.ObsDim, b.ActDim)
	}
	if len(b.Observations) != b.N*b.ObsDim {
		return fmt.Errorf("a2c: observations length %d, want %d", len(b.Observations), b.N*b.ObsDim)
	}
	if len(b.Actions) != b.N*b.ActDim {
		return fmt.Errorf("a2c: actions length %d, want %d", len(b.Actions), b.N*b.ActDim)
	}
	if len(b.Advantages) != b.N {
		return fmt.Errorf("a2c: advantages length %d, want %d", len(b.Advantages), b.N)
	}
	if len(b.Returns) != b.N {
		return fmt.Errorf("a2c: returns length %d, want %d", len(b.Returns), b.N)
	}

	for name, s := range map[string][]float32{
		"observations": b.Observations,
		"actions":      b.Actions,
		"advantages":   b.Advantages,
		"returns":      b.Returns,
	} {
		for i, v := range s {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return fmt.Errorf("a2c: non-finite value in %s at index %d", name, i)
			}
		}
	}
	return nil
}
