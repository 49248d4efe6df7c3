package optim

import (
	"github.com/hero-ml/hero/internal/nn"
	"github.com/hero-ml/hero/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum and
// weight decay.
//
// Update rule:
//
//	g = grad + weightDecay * param
//	velocity = momentum * velocity + g
//	param = param - lr * velocity
//
// With zero momentum the velocity buffer is skipped entirely.
type SGD[B tensor.Backend] struct {
	params      []*nn.Parameter[B]
	lr          float32
	momentum    float32
	weightDecay float32
	velocities  map[*tensor.RawTensor][]float32
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR          float32 // Learning rate (default: 0.01)
	Momentum    float32 // Momentum factor (default: 0, range [0, 1))
	WeightDecay float32 // L2 penalty coefficient (default: 0)
}

// NewSGD creates a new SGD optimizer.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD[B]{
		params:      params,
		lr:          config.LR,
		momentum:    config.Momentum,
		weightDecay: config.WeightDecay,
		velocities:  make(map[*tensor.RawTensor][]float32),
	}
}

// Step applies the SGD update to all parameters with gradients.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		p := param.Tensor().Raw().AsFloat32()
		g := grad.AsFloat32()

		if s.momentum == 0 {
			for i := range p {
				gi := g[i] + s.weightDecay*p[i]
				p[i] -= s.lr * gi
			}
			continue
		}

		key := param.Tensor().Raw()
		v, ok := s.velocities[key]
		if !ok {
			v = make([]float32, len(p))
			s.velocities[key] = v
		}
		for i := range p {
			gi := g[i] + s.weightDecay*p[i]
			v[i] = s.momentum*v[i] + gi
			p[i] -= s.lr * v[i]
		}
	}
}

// ZeroGrad clears all parameter gradients.
func (s *SGD[B]) ZeroGrad() {
	zeroGrads(s.params)
}

// GetLR returns the current learning rate.
func (s *SGD[B]) GetLR() float32 {
	return s.lr
}

// SetLR sets the learning rate.
func (s *SGD[B]) SetLR(lr float32) {
	s.lr = lr
}
