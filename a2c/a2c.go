// Copyright 2026 HERO ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package a2c provides advantage actor-critic training with optional
// sharpness-aware minimization and curvature-aligned regularization.
//
// A trainer is built from a policy, an autodiff backend, and a Config
// whose Strategy field selects the update rule:
//
//   - BaseStrategy: plain A2C with an RMSProp step.
//   - SAMStrategy: SAM two-step updates over SGD with momentum.
//   - HeroStrategy: SAM plus a gradient-alignment penalty computed by
//     differentiating through the perturbed-point gradients.
//
// Rollouts are collected in a gae.Buffer, turned into a Batch, and fed
// to Train once per update.
package a2c

import (
	"github.com/hero-ml/hero/internal/a2c"
	"github.com/hero-ml/hero/internal/autodiff"
	"github.com/hero-ml/hero/internal/gae"
	"github.com/hero-ml/hero/internal/tensor"
)

// A2C is an advantage actor-critic trainer.
type A2C[B tensor.Backend] = a2c.A2C[B]

// Policy is the network interface the trainer optimizes.
type Policy[B tensor.Backend] = a2c.Policy[B]

// Config configures the trainer.
type Config = a2c.Config

// Schedule maps remaining training progress in [0, 1] to a learning
// rate.
type Schedule = a2c.Schedule

// ConstantSchedule returns lr regardless of progress.
func ConstantSchedule(lr float32) Schedule {
	return a2c.ConstantSchedule(lr)
}

// LinearSchedule decays linearly from initial to zero.
func LinearSchedule(initial float32) Schedule {
	return a2c.LinearSchedule(initial)
}

// Strategy selects the update rule.
type Strategy = a2c.Strategy

// BaseStrategy is plain A2C.
type BaseStrategy = a2c.BaseStrategy

// SAMStrategy enables sharpness-aware updates.
type SAMStrategy = a2c.SAMStrategy

// NewSAMStrategy returns the default SAM configuration.
func NewSAMStrategy() SAMStrategy {
	return a2c.NewSAMStrategy()
}

// HeroStrategy enables SAM plus gradient-alignment regularization.
type HeroStrategy = a2c.HeroStrategy

// NewHeroStrategy returns the default HERO configuration.
func NewHeroStrategy() HeroStrategy {
	return a2c.NewHeroStrategy()
}

// Batch is one update's worth of training data.
type Batch = a2c.Batch

// BatchFromRollout converts drained rollout data into a batch.
func BatchFromRollout(d *gae.Data, obsDim, actDim int) *Batch {
	return a2c.BatchFromRollout(d, obsDim, actDim)
}

// Losses reports the loss terms and diagnostics of one update.
type Losses = a2c.Losses

// Recorder receives scalar training metrics.
type Recorder = a2c.Recorder

// NopRecorder discards metrics.
type NopRecorder = a2c.NopRecorder

// MemoryRecorder keeps metrics in memory for inspection.
type MemoryRecorder = a2c.MemoryRecorder

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return a2c.NewMemoryRecorder()
}

// New creates a trainer. recorder may be nil, which discards metrics.
func New[B tensor.Backend](
	policy Policy[*autodiff.AutodiffBackend[B]],
	backend *autodiff.AutodiffBackend[B],
	config Config,
	recorder Recorder,
) (*A2C[B], error) {
	return a2c.New(policy, backend, config, recorder)
}

// ExplainedVariance measures how well predicted values explain the
// empirical returns. 1 is a perfect fit, 0 matches predicting the
// mean, and the result is NaN when the returns have no variance.
func ExplainedVariance(values, returns []float32) float64 {
	return a2c.ExplainedVariance(values, returns)
}
