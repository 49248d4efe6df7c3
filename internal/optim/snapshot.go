package optim

import (
	"github.com/hero-ml/hero/internal/nn"
	"github.com/hero-ml/hero/internal/tensor"
)

// GradientSnapshot holds detached copies of parameter gradients, keyed by
// parameter identity.
//
// SAM's first step returns a snapshot of the pre-perturbation gradients:
// the parameter tensors are about to be perturbed, and the gradients at
// the original point must survive the second forward-backward pass
// unchanged.
type GradientSnapshot struct {
	grads map[*tensor.RawTensor]*tensor.RawTensor
}

// SnapshotGradients deep-copies the gradients of the given parameters.
// Parameters without a gradient entry are left out of the snapshot.
func SnapshotGradients[B tensor.Backend](params []*nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *GradientSnapshot {
	snap := &GradientSnapshot{
		grads: make(map[*tensor.RawTensor]*tensor.RawTensor, len(params)),
	}
	for _, param := range params {
		g := getGradient(param, grads)
		if g == nil {
			continue
		}
		snap.grads[param.Tensor().Raw()] = g.Clone()
	}
	return snap
}

// Get returns the snapshotted gradient for a parameter, or nil if the
// parameter had no gradient at snapshot time.
func (s *GradientSnapshot) Get(param *tensor.RawTensor) *tensor.RawTensor {
	return s.grads[param]
}

// Len returns the number of snapshotted gradients.
func (s *GradientSnapshot) Len() int {
	return len(s.grads)
}

// Map returns the underlying gradient map. The tensors are owned by the
// snapshot; callers must not mutate them.
func (s *GradientSnapshot) Map() map[*tensor.RawTensor]*tensor.RawTensor {
	return s.grads
}
