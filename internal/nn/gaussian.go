package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/hero-ml/hero/internal/tensor"
)

const halfLog2Pi = 0.5 * 1.8378770664093453 // 0.5 * ln(2π)

// GaussianHead turns policy means into a diagonal Gaussian action
// distribution with a state-independent log standard deviation.
//
// The log_std parameter is trained alongside the network weights, the
// standard setup for continuous-control actor-critic policies.
type GaussianHead[B tensor.Backend] struct {
	dim     int
	logStd  *Parameter[B] // [dim]
	backend B
}

// NewGaussianHead creates a head over dim continuous action components.
// log_std starts at zero, i.e. unit standard deviation.
func NewGaussianHead[B tensor.Backend](dim int, backend B) *GaussianHead[B] {
	if dim < 1 {
		panic(fmt.Sprintf("GaussianHead: need at least 1 dimension, got %d", dim))
	}
	return &GaussianHead[B]{
		dim:     dim,
		logStd:  NewParameter("log_std", Zeros(tensor.Shape{dim}, backend)),
		backend: backend,
	}
}

// LogStd returns the log standard deviation parameter.
func (h *GaussianHead[B]) LogStd() *Parameter[B] {
	return h.logStd
}

// Parameters returns [log_std].
func (h *GaussianHead[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{h.logStd}
}

// LogProb returns the log-density of each action under N(mean, diag(σ²)).
//
// mean: [batch, dim], actions: [batch, dim]. Returns [batch].
func (h *GaussianHead[B]) LogProb(mean, actions *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	if !mean.Shape().Equal(actions.Shape()) {
		return nil, fmt.Errorf("gaussian: mean shape %v does not match actions shape %v", mean.Shape(), actions.Shape())
	}
	if len(mean.Shape()) != 2 || mean.Shape()[1] != h.dim {
		return nil, fmt.Errorf("gaussian: expected mean shape [batch, %d], got %v", h.dim, mean.Shape())
	}

	logStd := h.logStd.Tensor().Reshape(1, h.dim) // broadcast over batch
	std := logStd.Exp()

	z := actions.Sub(mean).Div(std)
	quad := z.Mul(z).SumDim(1, false).MulScalar(-0.5) // [batch]

	// -Σ logσ - d/2·ln(2π), shared across the batch
	logDet := h.logStd.Tensor().Sum().Neg().AddScalar(float32(-halfLog2Pi * float64(h.dim))) // [1]

	return quad.Add(logDet), nil
}

// Entropy returns the distribution entropy, expanded to [batch].
//
// H = Σ logσ + d/2·(1 + ln(2π)). It depends only on log_std, not on the
// mean, but stays differentiable so entropy bonuses train the spread.
func (h *GaussianHead[B]) Entropy(batch int) *tensor.Tensor[float32, B] {
	c := float32(float64(h.dim) * (0.5 + halfLog2Pi))
	return h.logStd.Tensor().Sum().AddScalar(c).Expand(batch)
}

// Sample draws actions a = μ + σ·ε with ε ~ N(0, 1). Operates on raw
// data and records nothing.
func (h *GaussianHead[B]) Sample(mean *tensor.Tensor[float32, B], rng *rand.Rand) []float32 {
	data := mean.Data()
	logStd := h.logStd.Tensor().Data()

	out := make([]float32, len(data))
	for i, m := range data {
		sigma := math.Exp(float64(logStd[i%h.dim]))
		out[i] = m + float32(rng.NormFloat64()*sigma)
	}
	return out
}
