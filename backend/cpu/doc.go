// Copyright 2026 HERO ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure-Go CPU backend for the HERO framework.
//
// The CPU backend implements every tensor operation on float32 and
// float64 data without external dependencies. It is the execution
// substrate for the autodiff backend and the reference implementation
// for any future accelerated backend.
package cpu
