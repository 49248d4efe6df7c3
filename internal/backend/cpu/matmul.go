package cpu

import (
	"fmt"

	"github.com/hero-ml/hero/internal/parallel"
	"github.com/hero-ml/hero/internal/tensor"
)

// matmulCfg splits work across rows. Rows of the result are
// independent, so each goroutine writes a disjoint slice of dst.
var matmulCfg = func() parallel.Config {
	cfg := parallel.DefaultConfig()
	cfg.MinChunkSize = 16
	return cfg
}()

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: shape mismatch %v @ %v", aShape, bShape))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch: %s vs %s", a.DType(), b.DType()))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]

	result, err := tensor.NewRaw(tensor.Shape{m, n}, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: failed to create result tensor: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		matmulFloat32(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n)
	case tensor.Float64:
		matmulFloat64(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n)
	}

	return result
}

// matmulFloat32 uses the ikj loop order for cache-friendly access to b.
func matmulFloat32(dst, a, b []float32, m, k, n int) {
	parallel.For(m, func(i int) {
		dstRow := dst[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			av := a[i*k+p]
			bRow := b[p*n : (p+1)*n]
			for j := range dstRow {
				dstRow[j] += av * bRow[j]
			}
		}
	}, matmulCfg)
}

func matmulFloat64(dst, a, b []float64, m, k, n int) {
	parallel.For(m, func(i int) {
		dstRow := dst[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			av := a[i*k+p]
			bRow := b[p*n : (p+1)*n]
			for j := range dstRow {
				dstRow[j] += av * bRow[j]
			}
		}
	}, matmulCfg)
}
