// Copyright 2026 HERO ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"github.com/hero-ml/hero/internal/backend/cpu"
	"github.com/hero-ml/hero/internal/tensor"
)

// Backend is the CPU tensor backend.
type Backend = cpu.CPUBackend

// New creates a CPU backend.
func New() *Backend {
	return cpu.New()
}

var _ tensor.Backend = (*Backend)(nil)
