package ops

import "github.com/hero-ml/hero/internal/tensor"

// ExpandOp represents a broadcast materialization: output = expand(x, shape).
//
// Backward pass sums the output gradient over the broadcast dimensions.
type ExpandOp struct {
	inputs []*tensor.RawTensor // [x]
	output *tensor.RawTensor   // broadcast x
}

// NewExpandOp creates a new ExpandOp.
func NewExpandOp(x, output *tensor.RawTensor) *ExpandOp {
	return &ExpandOp{
		inputs: []*tensor.RawTensor{x},
		output: output,
	}
}

// Backward reduces the output gradient back to the input shape.
func (op *ExpandOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{reduceBroadcast(outputGrad, op.inputs[0].Shape(), backend)}
}

// Inputs returns the input tensors [x].
func (op *ExpandOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the expanded tensor.
func (op *ExpandOp) Output() *tensor.RawTensor {
	return op.output
}
