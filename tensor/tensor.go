// Copyright 2026 HERO ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/hero-ml/hero/internal/tensor"
)

// DType constrains the element types a Tensor can hold.
type DType = tensor.DType

// DataType is runtime type information for raw tensor storage.
type DataType = tensor.DataType

// Supported data types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
)

// Device identifies where tensor data lives.
type Device = tensor.Device

// Supported devices.
const (
	CPU = tensor.CPU
)

// Shape describes tensor dimensions.
type Shape = tensor.Shape

// RawTensor is untyped tensor storage. Backends operate on raw
// tensors; the typed Tensor wrapper is the user-facing view.
type RawTensor = tensor.RawTensor

// Backend executes tensor operations.
type Backend = tensor.Backend

// Tensor is a typed, backend-bound tensor.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// New wraps a raw tensor with a typed view on the given backend.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T](raw, b)
}

// NewRaw allocates zeroed raw storage.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// FromSlice builds a tensor from a flat slice in row-major order.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, b)
}

// Zeros returns a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T](shape, b)
}

// Ones returns a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T](shape, b)
}

// Full returns a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full(shape, value, b)
}

// Randn returns a tensor of standard normal samples.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Randn[T](shape, b)
}

// Rand returns a tensor of uniform samples in [0, 1).
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Rand[T](shape, b)
}

// BroadcastShapes computes the broadcast result shape for a and b.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
