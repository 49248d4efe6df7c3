// Copyright 2026 HERO ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor API for the HERO framework.
//
// A Tensor pairs typed data with a backend that executes operations on
// it. The element type and backend are compile-time type parameters, so
// a tensor built on the CPU backend cannot be mixed with one built on
// an autodiff backend by accident.
//
// Basic usage:
//
//	b := cpu.New()
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, b)
//	if err != nil {
//		log.Fatal(err)
//	}
//	y := x.MatMul(x).AddScalar(1.0)
//
// Operations never mutate their inputs. Every op allocates a fresh
// result tensor, which keeps recorded computation graphs valid even
// after further work on the same values.
package tensor
