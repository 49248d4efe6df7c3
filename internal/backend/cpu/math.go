package cpu

import (
	"fmt"
	"math"

	"github.com/hero-ml/hero/internal/tensor"
)

// unaryOp applies an element-wise unary function.
func (cpu *CPUBackend) unaryOp(
	name string,
	x *tensor.RawTensor,
	f func(v float64) float64,
) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i, v := range src {
			dst[i] = float32(f(float64(v)))
		}
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		for i, v := range src {
			dst[i] = f(v)
		}
	}

	return result
}

// Neg computes element-wise negation: -x.
func (cpu *CPUBackend) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("neg", x, func(v float64) float64 { return -v })
}

// Abs computes element-wise absolute value: |x|.
func (cpu *CPUBackend) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("abs", x, math.Abs)
}

// Exp computes element-wise exponential: exp(x).
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("exp", x, math.Exp)
}

// Log computes element-wise natural logarithm: ln(x).
// Non-positive inputs produce -Inf or NaN, as in IEEE 754.
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("log", x, math.Log)
}

// Tanh computes element-wise hyperbolic tangent: tanh(x).
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("tanh", x, math.Tanh)
}

// MulScalar multiplies each element of the tensor by a scalar value.
// The scalar must be a float32 for Float32 tensors, float64 for Float64.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := scalarToFloat64("mulScalar", x.DType(), scalar)
	return cpu.unaryOp("mulScalar", x, func(v float64) float64 { return v * s })
}

// AddScalar adds a scalar value to each element of the tensor.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := scalarToFloat64("addScalar", x.DType(), scalar)
	return cpu.unaryOp("addScalar", x, func(v float64) float64 { return v + s })
}

func scalarToFloat64(name string, dtype tensor.DataType, scalar any) float64 {
	switch s := scalar.(type) {
	case float32:
		if dtype != tensor.Float32 {
			panic(fmt.Sprintf("%s: float32 scalar for %s tensor", name, dtype))
		}
		return float64(s)
	case float64:
		if dtype != tensor.Float64 {
			panic(fmt.Sprintf("%s: float64 scalar for %s tensor", name, dtype))
		}
		return s
	default:
		panic(fmt.Sprintf("%s: unsupported scalar type %T", name, scalar))
	}
}
