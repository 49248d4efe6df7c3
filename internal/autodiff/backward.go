package autodiff

import (
	"fmt"

	"github.com/hero-ml/hero/internal/tensor"
)

// BackwardCapable is an interface for backends that support backward pass.
// AutodiffBackend implements this interface.
type BackwardCapable interface {
	tensor.Backend
	// GetTape returns the gradient tape for backward computation.
	GetTape() *GradientTape
}

// GetTape returns the gradient tape (implements BackwardCapable).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// options configures a backward pass.
type options struct {
	retainGraph bool
	createGraph bool
}

// Option configures Backward and Grad.
type Option func(*options)

// WithRetainGraph keeps the recorded operations on the tape after the
// backward pass, so the same graph can be differentiated again.
// By default the tape is cleared.
func WithRetainGraph() Option {
	return func(o *options) { o.retainGraph = true }
}

// WithCreateGraph records the gradient computations themselves onto the
// tape, making the returned gradients differentiable by a later backward
// pass. Implies WithRetainGraph. The tape must still be recording.
func WithCreateGraph() Option {
	return func(o *options) { o.createGraph = true; o.retainGraph = true }
}

// Backward computes gradients of t with respect to every tensor on the tape.
//
// The seed gradient is ones with t's shape. By default the tape is cleared
// afterwards; pass WithRetainGraph to keep it for another backward pass.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x, _ := tensor.FromSlice([]float32{3}, tensor.Shape{1}, backend)
//	y := x.Mul(x) // y = x²
//	grads := autodiff.Backward(y, backend)
//	grads[x.Raw()] // dy/dx = 6
func Backward[T tensor.DType, B BackwardCapable](
	t *tensor.Tensor[T, B],
	backend B,
	opts ...Option,
) map[*tensor.RawTensor]*tensor.RawTensor {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}
	if o.createGraph && !tape.IsRecording() {
		panic("backward: WithCreateGraph requires a recording tape")
	}

	grads := tape.Backward(t.Raw(), nil, backend, o.createGraph)
	if !o.retainGraph {
		tape.Clear()
	}
	return grads
}

// Grad computes gradients of output with respect to exactly the given
// tensors, in order. Entries are nil for tensors the output does not
// depend on.
//
// With WithCreateGraph, the returned gradients are live: they are outputs
// of operations recorded on the tape and can be differentiated again by a
// later backward pass.
//
// output must be a single-element tensor.
func Grad[T tensor.DType, B BackwardCapable](
	output *tensor.Tensor[T, B],
	wrt []*tensor.RawTensor,
	backend B,
	opts ...Option,
) ([]*tensor.RawTensor, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if output.NumElements() != 1 {
		return nil, fmt.Errorf("grad: output must be a single-element tensor, got shape %v", output.Shape())
	}

	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		return nil, fmt.Errorf("grad: no operations recorded")
	}
	if o.createGraph && !tape.IsRecording() {
		return nil, fmt.Errorf("grad: WithCreateGraph requires a recording tape")
	}

	grads := tape.Backward(output.Raw(), nil, backend, o.createGraph)
	if !o.retainGraph {
		tape.Clear()
	}

	result := make([]*tensor.RawTensor, len(wrt))
	for i, w := range wrt {
		result[i] = grads[w]
	}
	return result, nil
}
