// Copyright 2026 HERO ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/hero-ml/hero/internal/nn"
	"github.com/hero-ml/hero/internal/tensor"
)

// Module is the interface implemented by all network components.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a named trainable tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a named parameter wrapping t.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Linear is a fully connected layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a linear layer with Xavier-initialized weights.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// Tanh is the hyperbolic tangent activation module.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a Tanh activation.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Sequential chains modules, forwarding each output to the next.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a sequential container over the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Space describes an action space.
type Space = nn.Space

// Discrete is a finite action space with N choices.
type Discrete = nn.Discrete

// Box is a continuous action space of the given dimensionality.
type Box = nn.Box

// CategoricalHead turns logits into a categorical action distribution.
type CategoricalHead[B tensor.Backend] = nn.CategoricalHead[B]

// NewCategoricalHead creates a categorical head over numActions.
func NewCategoricalHead[B tensor.Backend](numActions int, backend B) *CategoricalHead[B] {
	return nn.NewCategoricalHead(numActions, backend)
}

// GaussianHead turns mean outputs into a diagonal Gaussian
// distribution with a learned state-independent log standard
// deviation.
type GaussianHead[B tensor.Backend] = nn.GaussianHead[B]

// NewGaussianHead creates a Gaussian head of the given action
// dimension.
func NewGaussianHead[B tensor.Backend](dim int, backend B) *GaussianHead[B] {
	return nn.NewGaussianHead(dim, backend)
}

// ActorCritic is a policy and value network with separate trunks.
type ActorCritic[B tensor.Backend] = nn.ActorCritic[B]

// NewActorCritic builds an actor-critic for the given observation
// dimension and action space. hiddenSizes nil selects the default
// [64, 64] architecture.
func NewActorCritic[B tensor.Backend](obsDim int, space Space, hiddenSizes []int, backend B) (*ActorCritic[B], error) {
	return nn.NewActorCritic(obsDim, space, hiddenSizes, backend)
}

// Xavier returns Xavier-uniform initialized weights.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}

// Zeros returns a zero-initialized float32 tensor.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones returns a one-initialized float32 tensor.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}

// Constant returns a tensor filled with value.
func Constant[B tensor.Backend](shape tensor.Shape, value float32, backend B) *tensor.Tensor[float32, B] {
	return nn.Constant(shape, value, backend)
}

// Randn returns standard normal initialized weights.
func Randn[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Randn(shape, backend)
}
