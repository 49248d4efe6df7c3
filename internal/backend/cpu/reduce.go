package cpu

import (
	"fmt"
	"math"

	"github.com/hero-ml/hero/internal/tensor"
)

// Sum reduces the tensor to its total sum with shape [1].
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(tensor.Shape{1}, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("sum: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		var sum float64
		for _, v := range x.AsFloat32() {
			sum += float64(v)
		}
		result.AsFloat32()[0] = float32(sum)
	case tensor.Float64:
		var sum float64
		for _, v := range x.AsFloat64() {
			sum += v
		}
		result.AsFloat64()[0] = sum
	}

	return result
}

// Mean reduces the tensor to its mean with shape [1].
func (cpu *CPUBackend) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.Sum(x)
	n := float64(x.NumElements())

	switch x.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = float32(float64(result.AsFloat32()[0]) / n)
	case tensor.Float64:
		result.AsFloat64()[0] /= n
	}

	return result
}

// SumDim sums tensor elements along the specified dimension.
//
// Parameters:
//   - dim: dimension to reduce (supports negative indexing: -1 = last dim)
//   - keepDim: if true, keep the reduced dimension with size 1; if false, remove it
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim("sumdim", dim, len(shape))

	result, err := tensor.NewRaw(reducedShape(shape, dim, keepDim), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("sumdim: %v", err))
	}

	outer, dimSize, inner := splitAt(shape, dim)

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		for o := 0; o < outer; o++ {
			for in := 0; in < inner; in++ {
				var sum float32
				for d := 0; d < dimSize; d++ {
					sum += src[(o*dimSize+d)*inner+in]
				}
				dst[o*inner+in] = sum
			}
		}
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		for o := 0; o < outer; o++ {
			for in := 0; in < inner; in++ {
				var sum float64
				for d := 0; d < dimSize; d++ {
					sum += src[(o*dimSize+d)*inner+in]
				}
				dst[o*inner+in] = sum
			}
		}
	}

	return result
}

// MaxDim takes the maximum along the specified dimension.
func (cpu *CPUBackend) MaxDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim("maxdim", dim, len(shape))

	result, err := tensor.NewRaw(reducedShape(shape, dim, keepDim), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("maxdim: %v", err))
	}

	outer, dimSize, inner := splitAt(shape, dim)

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		for o := 0; o < outer; o++ {
			for in := 0; in < inner; in++ {
				best := float32(math.Inf(-1))
				for d := 0; d < dimSize; d++ {
					if v := src[(o*dimSize+d)*inner+in]; v > best {
						best = v
					}
				}
				dst[o*inner+in] = best
			}
		}
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		for o := 0; o < outer; o++ {
			for in := 0; in < inner; in++ {
				best := math.Inf(-1)
				for d := 0; d < dimSize; d++ {
					if v := src[(o*dimSize+d)*inner+in]; v > best {
						best = v
					}
				}
				dst[o*inner+in] = best
			}
		}
	}

	return result
}

func normalizeDim(name string, dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("%s: dimension %d out of range for %dD tensor", name, dim, ndim))
	}
	return dim
}

func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		out = tensor.Shape{1}
	}
	return out
}

// splitAt factors a shape into (outer, dim, inner) extents around dim.
// Row-major layout means element (o, d, in) lives at (o*dimSize+d)*inner+in.
func splitAt(shape tensor.Shape, dim int) (outer, dimSize, inner int) {
	outer, dimSize, inner = 1, shape[dim], 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, dimSize, inner
}
