// Package ops defines operation interfaces and implementations for automatic differentiation.
//
// Each operation records its inputs and output during the forward pass and
// computes input gradients during the backward pass.
//
// Every backward formula is expressed purely through tensor.Backend calls.
// When the tape walks operations with an AutodiffBackend that is still
// recording, the gradient computations are themselves recorded, which is
// what makes second-order differentiation (gradients of gradients) work.
package ops

import "github.com/hero-ml/hero/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor.
	// A nil entry means no gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}
