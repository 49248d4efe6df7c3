// Copyright 2026 HERO ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient-based optimizers and the
// sharpness-aware minimization (SAM) wrapper.
//
// Optimizers consume gradient maps produced by the autodiff package
// and update parameter storage in place, so tensors referenced by a
// recorded graph keep their identity across steps. SAM wraps any base
// optimizer with the two-step ascend/descend protocol: FirstStep
// perturbs parameters toward higher loss, SecondStep restores them and
// applies the base update with gradients taken at the perturbed point.
package optim
