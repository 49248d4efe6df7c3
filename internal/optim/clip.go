package optim

import (
	"math"

	"github.com/hero-ml/hero/internal/nn"
	"github.com/hero-ml/hero/internal/tensor"
)

// ClipGradNorm rescales the gradients of the given parameters in place so
// their joint L2 norm does not exceed maxNorm. Returns the norm before
// clipping.
//
// Clipping mutates the gradient tensors, so it must run after all
// differentiation is done, right before the optimizer step.
func ClipGradNorm[B tensor.Backend](params []*nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor, maxNorm float32) float32 {
	var sumSq float64
	for _, param := range params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		for _, g := range grad.AsFloat32() {
			sumSq += float64(g) * float64(g)
		}
	}
	norm := math.Sqrt(sumSq)

	if maxNorm <= 0 || norm <= float64(maxNorm) {
		return float32(norm)
	}

	scale := float32(float64(maxNorm) / (norm + 1e-6))
	for _, param := range params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		g := grad.AsFloat32()
		for i := range g {
			g[i] *= scale
		}
	}
	return float32(norm)
}
