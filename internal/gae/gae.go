// Package gae implements a rollout buffer with generalized advantage
// estimation.
//
// The buffer accumulates transitions from environment rollouts, and on
// path completion computes GAE(λ) advantages and value targets. It works
// on plain float32 slices so rollout collection never touches the
// gradient tape; training code lifts the result into tensors.
package gae

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Buffer stores rollout transitions and computes advantages.
//
// Store transitions step by step, call FinishPath at episode boundaries
// (or rollout truncation), then Data to drain the buffer for a training
// update.
type Buffer struct {
	gamma  float64
	lambda float64
	obsDim int
	actDim int

	obs      []float32
	actions  []float32
	rewards  []float64
	values   []float64
	logProbs []float32

	advantages []float32
	returns    []float32

	pathStart int
	size      int
	capacity  int
}

// Data is a drained rollout, flat row-major slices ready to be lifted
// into tensors.
type Data struct {
	Observations []float32 // [N * obsDim]
	Actions      []float32 // [N * actDim]
	Advantages   []float32 // [N]
	Returns      []float32 // [N]
	Values       []float32 // [N]
	LogProbs     []float32 // [N]
	N            int
}

// NewBuffer creates a rollout buffer.
//
// actDim is 1 for discrete action spaces. gamma and lambda follow the
// usual ranges; lambda 1 recovers Monte Carlo advantages, lambda 0 the
// one-step TD residual.
func NewBuffer(capacity, obsDim, actDim int, gamma, lambda float64) (*Buffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("gae: capacity must be positive, got %d", capacity)
	}
	if obsDim < 1 || actDim < 1 {
		return nil, fmt.Errorf("gae: dimensions must be positive, got obs %d act %d", obsDim, actDim)
	}
	if gamma < 0 || gamma > 1 {
		return nil, fmt.Errorf("gae: gamma must be in [0, 1], got %g", gamma)
	}
	if lambda < 0 || lambda > 1 {
		return nil, fmt.Errorf("gae: lambda must be in [0, 1], got %g", lambda)
	}
	return &Buffer{
		gamma:      gamma,
		lambda:     lambda,
		obsDim:     obsDim,
		actDim:     actDim,
		obs:        make([]float32, 0, capacity*obsDim),
		actions:    make([]float32, 0, capacity*actDim),
		rewards:    make([]float64, 0, capacity),
		values:     make([]float64, 0, capacity),
		logProbs:   make([]float32, 0, capacity),
		advantages: make([]float32, capacity),
		returns:    make([]float32, capacity),
		capacity:   capacity,
	}, nil
}

// Size returns the number of stored transitions.
func (b *Buffer) Size() int {
	return b.size
}

// Capacity returns the maximum number of transitions.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Store appends one transition.
func (b *Buffer) Store(obs, action []float32, reward, value float64, logProb float32) error {
	if b.size >= b.capacity {
		return fmt.Errorf("gae: buffer full at capacity %d", b.capacity)
	}
	if len(obs) != b.obsDim {
		return fmt.Errorf("gae: observation length %d, want %d", len(obs), b.obsDim)
	}
	if len(action) != b.actDim {
		return fmt.Errorf("gae: action length %d, want %d", len(action), b.actDim)
	}

	b.obs = append(b.obs, obs...)
	b.actions = append(b.actions, action...)
	b.rewards = append(b.rewards, reward)
	b.values = append(b.values, value)
	b.logProbs = append(b.logProbs, logProb)
	b.size++
	return nil
}

// FinishPath closes the current path and computes its advantages.
//
// lastValue bootstraps the value beyond the final stored step: pass the
// critic's estimate when the rollout was truncated mid-episode, and 0
// when the episode terminated.
func (b *Buffer) FinishPath(lastValue float64) {
	start, end := b.pathStart, b.size
	if start == end {
		return
	}

	// delta_t = r_t + γ·V(s_{t+1}) - V(s_t)
	// A_t = delta_t + γλ·A_{t+1}
	var adv float64
	nextValue := lastValue
	for t := end - 1; t >= start; t-- {
		delta := b.rewards[t] + b.gamma*nextValue - b.values[t]
		adv = delta + b.gamma*b.lambda*adv
		nextValue = b.values[t]

		b.advantages[t] = float32(adv)
		b.returns[t] = float32(adv + b.values[t])
	}

	b.pathStart = b.size
}

// Data drains the buffer and returns the rollout. All paths must be
// finished first.
func (b *Buffer) Data() (*Data, error) {
	if b.size == 0 {
		return nil, fmt.Errorf("gae: buffer is empty")
	}
	if b.pathStart != b.size {
		return nil, fmt.Errorf("gae: %d transitions in an unfinished path, call FinishPath first", b.size-b.pathStart)
	}

	d := &Data{
		Observations: append([]float32(nil), b.obs...),
		Actions:      append([]float32(nil), b.actions...),
		Advantages:   append([]float32(nil), b.advantages[:b.size]...),
		Returns:      append([]float32(nil), b.returns[:b.size]...),
		LogProbs:     append([]float32(nil), b.logProbs...),
		N:            b.size,
	}
	d.Values = make([]float32, b.size)
	for i, v := range b.values {
		d.Values[i] = float32(v)
	}

	b.Reset()
	return d, nil
}

// Reset drops all stored transitions.
func (b *Buffer) Reset() {
	b.obs = b.obs[:0]
	b.actions = b.actions[:0]
	b.rewards = b.rewards[:0]
	b.values = b.values[:0]
	b.logProbs = b.logProbs[:0]
	b.pathStart = 0
	b.size = 0
}

// AdvantageStats returns the mean and standard deviation of the computed
// advantages, a rollout-quality diagnostic.
func (b *Buffer) AdvantageStats() (mean, std float64) {
	if b.pathStart == 0 {
		return 0, 0
	}
	if b.pathStart == 1 {
		return float64(b.advantages[0]), 0
	}
	adv := make([]float64, b.pathStart)
	for i := range adv {
		adv[i] = float64(b.advantages[i])
	}
	mean, std = stat.MeanStdDev(adv, nil)
	return mean, std
}
