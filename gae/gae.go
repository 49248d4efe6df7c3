// Copyright 2026 HERO ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package gae provides a rollout buffer with generalized advantage
// estimation.
//
// Transitions are stored step by step; FinishPath closes an episode
// (or a truncated segment, bootstrapped with the last value estimate)
// and fills in advantages and returns for it. Data drains the buffer
// into flat slices ready for batch construction.
package gae

import (
	"github.com/hero-ml/hero/internal/gae"
)

// Buffer stores rollout transitions and computes advantages.
type Buffer = gae.Buffer

// Data is the drained contents of a buffer.
type Data = gae.Data

// NewBuffer creates a buffer for capacity transitions of the given
// observation and action dimensions. gamma and lambda must lie in
// [0, 1].
func NewBuffer(capacity, obsDim, actDim int, gamma, lambda float64) (*Buffer, error) {
	return gae.NewBuffer(capacity, obsDim, actDim, gamma, lambda)
}
