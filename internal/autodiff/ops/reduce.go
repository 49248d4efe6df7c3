package ops

import "github.com/hero-ml/hero/internal/tensor"

// SumOp represents a total sum reduction: output = sum(x), shape [1].
//
// Backward pass broadcasts the output gradient to the input shape.
type SumOp struct {
	inputs []*tensor.RawTensor // [x]
	output *tensor.RawTensor   // sum(x)
}

// NewSumOp creates a new SumOp.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{
		inputs: []*tensor.RawTensor{x},
		output: output,
	}
}

// Backward broadcasts the output gradient to the input shape.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Expand(outputGrad, op.inputs[0].Shape())}
}

// Inputs returns the input tensors [x].
func (op *SumOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor sum(x).
func (op *SumOp) Output() *tensor.RawTensor {
	return op.output
}

// MeanOp represents a total mean reduction: output = mean(x), shape [1].
//
// Backward pass broadcasts the output gradient and scales it by 1/n.
type MeanOp struct {
	inputs []*tensor.RawTensor // [x]
	output *tensor.RawTensor   // mean(x)
}

// NewMeanOp creates a new MeanOp.
func NewMeanOp(x, output *tensor.RawTensor) *MeanOp {
	return &MeanOp{
		inputs: []*tensor.RawTensor{x},
		output: output,
	}
}

// Backward computes grad_x = expand(outputGrad) / n.
func (op *MeanOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	expanded := backend.Expand(outputGrad, x.Shape())
	scale := scalarOf(x.DType(), 1.0/float64(x.NumElements()))
	return []*tensor.RawTensor{backend.MulScalar(expanded, scale)}
}

// Inputs returns the input tensors [x].
func (op *MeanOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor mean(x).
func (op *MeanOp) Output() *tensor.RawTensor {
	return op.output
}

// SumDimOp represents a sum along one dimension.
//
// Backward pass re-inserts the reduced dimension (if it was dropped) and
// broadcasts the output gradient back to the input shape.
type SumDimOp struct {
	inputs  []*tensor.RawTensor // [x]
	output  *tensor.RawTensor   // x summed along dim
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp. dim must already be normalized
// to a non-negative index.
func NewSumDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{
		inputs:  []*tensor.RawTensor{x},
		output:  output,
		dim:     dim,
		keepDim: keepDim,
	}
}

// Backward broadcasts the output gradient along the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]

	grad := outputGrad
	if !op.keepDim {
		keepShape := x.Shape().Clone()
		keepShape[op.dim] = 1
		grad = backend.Reshape(grad, keepShape)
	}

	return []*tensor.RawTensor{backend.Expand(grad, x.Shape())}
}

// Inputs returns the input tensors [x].
func (op *SumDimOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the reduced tensor.
func (op *SumDimOp) Output() *tensor.RawTensor {
	return op.output
}
