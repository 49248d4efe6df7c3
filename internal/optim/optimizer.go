// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: base interface for all optimizers
//   - SGD: stochastic gradient descent with momentum and weight decay
//   - RMSProp: the default optimizer for actor-critic training
//   - Adam: adaptive moment estimation
//   - SAM: sharpness-aware minimization wrapped around a base optimizer
//
// Optimizer updates operate directly on parameter storage, off the
// gradient tape: parameters keep their identity across steps, so gradient
// maps from later backward passes still resolve.
//
// Example usage:
//
//	optimizer := optim.NewRMSProp(model.Parameters(), optim.RMSPropConfig{
//	    LR: 7e-4,
//	})
//
//	for step := range steps {
//	    grads := autodiff.Backward(loss, backend)
//	    optimizer.Step(grads)
//	    optimizer.ZeroGrad()
//	}
package optim

import (
	"github.com/hero-ml/hero/internal/nn"
	"github.com/hero-ml/hero/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to all parameters.
	//
	// Takes a gradient map from Backward() keyed by parameter raw
	// tensor. Parameters with no gradient entry are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32

	// SetLR sets the learning rate. Schedules call this before each step.
	SetLR(lr float32)
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float32 // Learning rate
}

// getGradient safely retrieves the gradient for a parameter.
//
// Returns nil if no gradient is found (parameter wasn't part of the
// computation graph).
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}

// zeroGrads clears gradients on a parameter list.
func zeroGrads[B tensor.Backend](params []*nn.Parameter[B]) {
	for _, p := range params {
		p.ZeroGrad()
	}
}
