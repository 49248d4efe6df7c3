package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// The op set is the closure needed to express actor-critic losses AND
// their gradients: every backward formula used by the autodiff package is
// written in terms of these calls, so gradients themselves can be
// re-recorded for higher-order differentiation.
type Backend interface {
	// Element-wise binary operations (NumPy-style broadcasting)
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Element-wise unary operations
	Neg(x *RawTensor) *RawTensor
	Abs(x *RawTensor) *RawTensor
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor

	// Scalar operations (element-wise with scalar)
	MulScalar(x *RawTensor, scalar any) *RawTensor
	AddScalar(x *RawTensor, scalar any) *RawTensor

	// Matrix operations (2D)
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor

	// Reduction operations
	Sum(x *RawTensor) *RawTensor                           // total sum, shape [1]
	Mean(x *RawTensor) *RawTensor                          // total mean, shape [1]
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor // sum along dimension
	MaxDim(x *RawTensor, dim int, keepDim bool) *RawTensor // max along dimension

	// Metadata
	Name() string
	Device() Device
}
