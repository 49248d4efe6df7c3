// Copyright 2026 HERO ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// An autodiff Backend wraps any inner tensor backend and records
// executed operations on a gradient tape while recording is on.
// Backward replays the tape in reverse to produce gradients for every
// tensor that contributed to the output.
//
// Gradients of gradients are available through WithCreateGraph: the
// backward pass itself is then recorded on the tape, so a second
// Backward differentiates through the first. This is what powers
// gradient-penalty style objectives.
package autodiff

import (
	"github.com/hero-ml/hero/internal/autodiff"
	"github.com/hero-ml/hero/internal/tensor"
)

// Backend wraps an inner backend and records operations for backward
// passes.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// GradientTape records executed operations.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates an empty tape. Recording starts off.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// New wraps inner with a fresh gradient tape.
func New[B tensor.Backend](inner B) *Backend[B] {
	return autodiff.New(inner)
}

// BackwardCapable is a backend that owns a gradient tape.
type BackwardCapable = autodiff.BackwardCapable

// Option configures a backward pass.
type Option = autodiff.Option

// WithRetainGraph keeps the tape after Backward so it can be replayed
// again.
func WithRetainGraph() Option {
	return autodiff.WithRetainGraph()
}

// WithCreateGraph records the backward pass itself, enabling
// differentiation through the produced gradients. Implies
// WithRetainGraph.
func WithCreateGraph() Option {
	return autodiff.WithCreateGraph()
}

// Backward computes gradients of t with respect to every tensor on the
// tape. The result maps raw tensors to their gradients.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B, opts ...Option) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend, opts...)
}

// Grad computes gradients of output with respect to the listed
// tensors, aligned with wrt. Entries that did not contribute to the
// output are nil.
func Grad[T tensor.DType, B BackwardCapable](output *tensor.Tensor[T, B], wrt []*tensor.RawTensor, backend B, opts ...Option) ([]*tensor.RawTensor, error) {
	return autodiff.Grad(output, wrt, backend, opts...)
}
