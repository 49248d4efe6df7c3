package ops

import "github.com/hero-ml/hero/internal/tensor"

// TanhOp represents element-wise hyperbolic tangent: output = tanh(x).
//
// Backward pass: d(tanh(x))/dx = 1 - tanh²(x), so
// grad_x = outputGrad * (1 - output²).
//
// Tanh is smooth, so this backward formula is itself differentiable.
// That matters for curvature objectives that backpropagate through
// gradients; piecewise-linear activations would contribute zero there.
type TanhOp struct {
	inputs []*tensor.RawTensor // [x]
	output *tensor.RawTensor   // tanh(x)
}

// NewTanhOp creates a new TanhOp.
func NewTanhOp(x, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{
		inputs: []*tensor.RawTensor{x},
		output: output,
	}
}

// Backward computes the input gradient: grad_x = outputGrad * (1 - tanh²(x)).
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	y := op.output
	ySquared := backend.Mul(y, y)
	oneMinus := backend.AddScalar(backend.Neg(ySquared), scalarOf(y.DType(), 1))
	return []*tensor.RawTensor{backend.Mul(outputGrad, oneMinus)}
}

// Inputs returns the input tensors [x].
func (op *TanhOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor tanh(x).
func (op *TanhOp) Output() *tensor.RawTensor {
	return op.output
}
