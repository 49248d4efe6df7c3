package ops

import "github.com/hero-ml/hero/internal/tensor"

// reduceBroadcast reduces a gradient tensor to match the target shape.
// This is necessary when broadcasting was used in the forward pass.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
//
// Implemented with backend calls only, so the reduction itself is
// differentiable when the backend is recording.
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(targetShape) {
		return grad
	}

	// Broadcasting aligns shapes from the right: sum away leading dims first.
	for len(grad.Shape()) > len(targetShape) {
		grad = backend.SumDim(grad, 0, false)
	}

	// Then sum along dimensions where the target is 1.
	for i := 0; i < len(targetShape); i++ {
		if targetShape[i] == 1 && grad.Shape()[i] > 1 {
			grad = backend.SumDim(grad, i, true)
		}
	}

	if !grad.Shape().Equal(targetShape) {
		grad = backend.Reshape(grad, targetShape)
	}

	return grad
}

// scalarOf converts a float64 constant to the scalar representation the
// backend expects for the given dtype.
func scalarOf(dtype tensor.DataType, v float64) any {
	if dtype == tensor.Float32 {
		return float32(v)
	}
	return v
}
