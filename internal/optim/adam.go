package optim

import (
	"math"

	"github.com/hero-ml/hero/internal/nn"
	"github.com/hero-ml/hero/internal/tensor"
)

// Adam implements the Adam optimizer with bias correction.
//
// Update rule:
//
//	m = beta1 * m + (1 - beta1) * grad
//	v = beta2 * v + (1 - beta2) * grad²
//	mHat = m / (1 - beta1^t)
//	vHat = v / (1 - beta2^t)
//	param = param - lr * mHat / (sqrt(vHat) + eps)
type Adam[B tensor.Backend] struct {
	params      []*nn.Parameter[B]
	lr          float32
	beta1       float32
	beta2       float32
	eps         float32
	weightDecay float32
	step        int
	m           map[*tensor.RawTensor][]float32
	v           map[*tensor.RawTensor][]float32
}

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	LR          float32 // Learning rate (default: 0.001)
	Beta1       float32 // First moment decay (default: 0.9)
	Beta2       float32 // Second moment decay (default: 0.999)
	Eps         float32 // Denominator stability term (default: 1e-8)
	WeightDecay float32 // L2 penalty coefficient (default: 0)
}

// NewAdam creates a new Adam optimizer.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig) *Adam[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Beta1 == 0 {
		config.Beta1 = 0.9
	}
	if config.Beta2 == 0 {
		config.Beta2 = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam[B]{
		params:      params,
		lr:          config.LR,
		beta1:       config.Beta1,
		beta2:       config.Beta2,
		eps:         config.Eps,
		weightDecay: config.WeightDecay,
		m:           make(map[*tensor.RawTensor][]float32),
		v:           make(map[*tensor.RawTensor][]float32),
	}
}

// Step applies the Adam update to all parameters with gradients.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.step++
	bc1 := 1 - float32(math.Pow(float64(a.beta1), float64(a.step)))
	bc2 := 1 - float32(math.Pow(float64(a.beta2), float64(a.step)))

	for _, param := range a.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		p := param.Tensor().Raw().AsFloat32()
		g := grad.AsFloat32()

		key := param.Tensor().Raw()
		m, ok := a.m[key]
		if !ok {
			m = make([]float32, len(p))
			a.m[key] = m
		}
		v, ok := a.v[key]
		if !ok {
			v = make([]float32, len(p))
			a.v[key] = v
		}

		for i := range p {
			gi := g[i] + a.weightDecay*p[i]
			m[i] = a.beta1*m[i] + (1-a.beta1)*gi
			v[i] = a.beta2*v[i] + (1-a.beta2)*gi*gi
			mHat := m[i] / bc1
			vHat := v[i] / bc2
			p[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// ZeroGrad clears all parameter gradients.
func (a *Adam[B]) ZeroGrad() {
	zeroGrads(a.params)
}

// GetLR returns the current learning rate.
func (a *Adam[B]) GetLR() float32 {
	return a.lr
}

// SetLR sets the learning rate.
func (a *Adam[B]) SetLR(lr float32) {
	a.lr = lr
}
