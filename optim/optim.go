// Copyright 2026 HERO ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/hero-ml/hero/internal/nn"
	"github.com/hero-ml/hero/internal/optim"
	"github.com/hero-ml/hero/internal/tensor"
)

// Optimizer is the interface implemented by all optimizers.
type Optimizer = optim.Optimizer

// SGD is stochastic gradient descent with momentum and weight decay.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig configures SGD.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer over params.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig) *SGD[B] {
	return optim.NewSGD(params, config)
}

// RMSProp is the RMSProp optimizer.
type RMSProp[B tensor.Backend] = optim.RMSProp[B]

// RMSPropConfig configures RMSProp.
type RMSPropConfig = optim.RMSPropConfig

// NewRMSProp creates an RMSProp optimizer over params.
func NewRMSProp[B tensor.Backend](params []*nn.Parameter[B], config RMSPropConfig) *RMSProp[B] {
	return optim.NewRMSProp(params, config)
}

// Adam is the Adam optimizer.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig configures Adam.
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam optimizer over params.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig) *Adam[B] {
	return optim.NewAdam(params, config)
}

// SAM wraps a base optimizer with sharpness-aware minimization.
type SAM[B tensor.Backend] = optim.SAM[B]

// SAMConfig configures the SAM wrapper.
type SAMConfig = optim.SAMConfig

// ErrDegenerateGradNorm is returned by FirstStep when the gradient
// norm is zero or not finite, making the ascent direction undefined.
var ErrDegenerateGradNorm = optim.ErrDegenerateGradNorm

// NewSAM wraps base with the SAM two-step protocol.
func NewSAM[B tensor.Backend](params []*nn.Parameter[B], base Optimizer, config SAMConfig) (*SAM[B], error) {
	return optim.NewSAM(params, base, config)
}

// GradientSnapshot holds deep copies of gradients keyed by parameter
// storage.
type GradientSnapshot = optim.GradientSnapshot

// SnapshotGradients deep-copies the gradients of params out of grads.
func SnapshotGradients[B tensor.Backend](params []*nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *GradientSnapshot {
	return optim.SnapshotGradients(params, grads)
}

// ClipGradNorm rescales grads in place so their global norm does not
// exceed maxNorm, and returns the pre-clip norm. maxNorm <= 0 disables
// clipping.
func ClipGradNorm[B tensor.Backend](params []*nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor, maxNorm float32) float32 {
	return optim.ClipGradNorm(params, grads, maxNorm)
}
