package optim

import (
	"math"

	"github.com/hero-ml/hero/internal/nn"
	"github.com/hero-ml/hero/internal/tensor"
)

// RMSProp implements the RMSProp optimizer.
//
// Update rule:
//
//	sq = alpha * sq + (1 - alpha) * grad²
//	param = param - lr * grad / (sqrt(sq) + eps)
//
// The defaults (alpha 0.99, eps 1e-5) match the values commonly used for
// advantage actor-critic training.
type RMSProp[B tensor.Backend] struct {
	params      []*nn.Parameter[B]
	lr          float32
	alpha       float32
	eps         float32
	weightDecay float32
	squareAvg   map[*tensor.RawTensor][]float32
}

// RMSPropConfig holds configuration for the RMSProp optimizer.
type RMSPropConfig struct {
	LR          float32 // Learning rate (default: 7e-4)
	Alpha       float32 // Smoothing constant (default: 0.99)
	Eps         float32 // Denominator stability term (default: 1e-5)
	WeightDecay float32 // L2 penalty coefficient (default: 0)
}

// NewRMSProp creates a new RMSProp optimizer.
func NewRMSProp[B tensor.Backend](params []*nn.Parameter[B], config RMSPropConfig) *RMSProp[B] {
	if config.LR == 0 {
		config.LR = 7e-4
	}
	if config.Alpha == 0 {
		config.Alpha = 0.99
	}
	if config.Eps == 0 {
		config.Eps = 1e-5
	}
	return &RMSProp[B]{
		params:      params,
		lr:          config.LR,
		alpha:       config.Alpha,
		eps:         config.Eps,
		weightDecay: config.WeightDecay,
		squareAvg:   make(map[*tensor.RawTensor][]float32),
	}
}

// Step applies the RMSProp update to all parameters with gradients.
func (r *RMSProp[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range r.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		p := param.Tensor().Raw().AsFloat32()
		g := grad.AsFloat32()

		key := param.Tensor().Raw()
		sq, ok := r.squareAvg[key]
		if !ok {
			sq = make([]float32, len(p))
			r.squareAvg[key] = sq
		}

		for i := range p {
			gi := g[i] + r.weightDecay*p[i]
			sq[i] = r.alpha*sq[i] + (1-r.alpha)*gi*gi
			p[i] -= r.lr * gi / (float32(math.Sqrt(float64(sq[i]))) + r.eps)
		}
	}
}

// ZeroGrad clears all parameter gradients.
func (r *RMSProp[B]) ZeroGrad() {
	zeroGrads(r.params)
}

// GetLR returns the current learning rate.
func (r *RMSProp[B]) GetLR() float32 {
	return r.lr
}

// SetLR sets the learning rate.
func (r *RMSProp[B]) SetLR(lr float32) {
	r.lr = lr
}
