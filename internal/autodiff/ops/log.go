package ops

import "github.com/hero-ml/hero/internal/tensor"

// LogOp represents element-wise natural logarithm: output = log(x).
//
// Backward pass: d(log(x))/dx = 1/x, so grad_x = outputGrad / x.
type LogOp struct {
	inputs []*tensor.RawTensor // [x]
	output *tensor.RawTensor   // log(x)
}

// NewLogOp creates a new LogOp.
func NewLogOp(x, output *tensor.RawTensor) *LogOp {
	return &LogOp{
		inputs: []*tensor.RawTensor{x},
		output: output,
	}
}

// Backward computes the input gradient: grad_x = outputGrad / x.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.inputs[0])}
}

// Inputs returns the input tensors [x].
func (op *LogOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor log(x).
func (op *LogOp) Output() *tensor.RawTensor {
	return op.output
}
