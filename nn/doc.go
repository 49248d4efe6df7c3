// Copyright 2026 HERO ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network building blocks and the
// actor-critic policy used for reinforcement learning.
//
// Modules compose through the Module interface. Parameters carry
// qualified names such as "policy.0.weight" so that per-parameter
// treatment (skipping biases in regularizers, for example) can key on
// the name. Action spaces select the distribution head: Discrete pairs
// the policy with a categorical head, Box with a diagonal Gaussian.
package nn
