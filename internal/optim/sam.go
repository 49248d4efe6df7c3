package optim

import (
	"errors"
	"fmt"
	"math"

	"github.com/hero-ml/hero/internal/nn"
	"github.com/hero-ml/hero/internal/tensor"
)

// ErrDegenerateGradNorm is returned by SAM.FirstStep when the gradient
// norm is zero or not finite. No parameter is touched in that case, so
// the caller can abort the update and leave the model intact.
var ErrDegenerateGradNorm = errors.New("sam: gradient norm is zero or not finite")

// SAM implements sharpness-aware minimization around a base optimizer.
//
// A SAM update is a two-phase protocol:
//
//  1. FirstStep: climb to the local worst case, w ← w + rho·g/||g||,
//     after snapshotting the original gradients.
//  2. The caller recomputes the loss and gradients at the perturbed point.
//  3. SecondStep: restore the original parameters and let the base
//     optimizer step with the new gradients.
//
// With Adaptive set, the perturbation is scaled element-wise by the
// parameter magnitude (ASAM), which makes rho scale-invariant.
//
// The wrapper is long-lived: construct it once next to the base optimizer
// and reuse it across updates. Rho and Adaptive are fixed at construction.
type SAM[B tensor.Backend] struct {
	params   []*nn.Parameter[B]
	base     Optimizer
	rho      float32
	adaptive bool
	saved    map[*tensor.RawTensor][]float32
}

// SAMConfig holds configuration for the SAM wrapper.
type SAMConfig struct {
	Rho      float32 // Perturbation radius, non-negative
	Adaptive bool    // Scale perturbations by parameter magnitude (ASAM)
}

// NewSAM creates a SAM wrapper around a base optimizer.
//
// Rho zero is allowed and makes FirstStep a no-op perturbation, which is
// useful for ablations; negative rho is an error.
func NewSAM[B tensor.Backend](params []*nn.Parameter[B], base Optimizer, config SAMConfig) (*SAM[B], error) {
	if base == nil {
		return nil, fmt.Errorf("sam: base optimizer is required")
	}
	if config.Rho < 0 {
		return nil, fmt.Errorf("sam: rho must be non-negative, got %g", config.Rho)
	}
	return &SAM[B]{
		params:   params,
		base:     base,
		rho:      config.Rho,
		adaptive: config.Adaptive,
	}, nil
}

// Rho returns the perturbation radius.
func (s *SAM[B]) Rho() float32 {
	return s.rho
}

// Adaptive reports whether perturbations are scaled by parameter magnitude.
func (s *SAM[B]) Adaptive() bool {
	return s.adaptive
}

// Base returns the wrapped base optimizer.
func (s *SAM[B]) Base() Optimizer {
	return s.base
}

// GradNorm computes the norm SAM perturbs by: the L2 norm over all
// parameter gradients, element-wise scaled by |param| in adaptive mode.
func (s *SAM[B]) GradNorm(grads map[*tensor.RawTensor]*tensor.RawTensor) float64 {
	var sumSq float64
	for _, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		g := grad.AsFloat32()
		if s.adaptive {
			p := param.Tensor().Raw().AsFloat32()
			for i := range g {
				scaled := float64(p[i]) * float64(g[i])
				if scaled < 0 {
					scaled = -scaled
				}
				sumSq += scaled * scaled
			}
		} else {
			for _, gi := range g {
				sumSq += float64(gi) * float64(gi)
			}
		}
	}
	return math.Sqrt(sumSq)
}

// FirstStep snapshots the current gradients, then perturbs every
// parameter towards the local loss maximum:
//
//	w ← w + rho · (|w| ·)? g / (||g|| + 1e-12)
//
// Returns the snapshot of pre-perturbation gradients. If the gradient
// norm is zero or not finite, returns ErrDegenerateGradNorm before any
// parameter is modified.
func (s *SAM[B]) FirstStep(grads map[*tensor.RawTensor]*tensor.RawTensor) (*GradientSnapshot, error) {
	norm := s.GradNorm(grads)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, fmt.Errorf("%w: norm %g", ErrDegenerateGradNorm, norm)
	}

	snap := SnapshotGradients(s.params, grads)
	scale := float64(s.rho) / (norm + 1e-12)

	s.saved = make(map[*tensor.RawTensor][]float32, len(s.params))
	for _, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		p := param.Tensor().Raw().AsFloat32()
		g := grad.AsFloat32()

		saved := make([]float32, len(p))
		copy(saved, p)
		s.saved[param.Tensor().Raw()] = saved

		if s.adaptive {
			for i := range p {
				p[i] += float32(scale * math.Abs(float64(p[i])) * float64(g[i]))
			}
		} else {
			for i := range p {
				p[i] += float32(scale * float64(g[i]))
			}
		}
	}

	return snap, nil
}

// SecondStep restores the parameters saved by FirstStep and applies the
// base optimizer with the given gradients, typically computed at the
// perturbed point.
func (s *SAM[B]) SecondStep(grads map[*tensor.RawTensor]*tensor.RawTensor) error {
	if s.saved == nil {
		return fmt.Errorf("sam: SecondStep called without a preceding FirstStep")
	}
	for _, param := range s.params {
		saved, ok := s.saved[param.Tensor().Raw()]
		if !ok {
			continue
		}
		copy(param.Tensor().Raw().AsFloat32(), saved)
	}
	s.saved = nil

	s.base.Step(grads)
	return nil
}

// Restore puts back the parameters saved by FirstStep without stepping
// the base optimizer. Used to abort an update after a failed second pass.
func (s *SAM[B]) Restore() {
	if s.saved == nil {
		return
	}
	for _, param := range s.params {
		if saved, ok := s.saved[param.Tensor().Raw()]; ok {
			copy(param.Tensor().Raw().AsFloat32(), saved)
		}
	}
	s.saved = nil
}

// ZeroGrad clears all parameter gradients.
func (s *SAM[B]) ZeroGrad() {
	zeroGrads(s.params)
}

// GetLR returns the base optimizer's learning rate.
func (s *SAM[B]) GetLR() float32 {
	return s.base.GetLR()
}

// SetLR sets the base optimizer's learning rate.
func (s *SAM[B]) SetLR(lr float32) {
	s.base.SetLR(lr)
}
