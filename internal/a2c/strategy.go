package a2c

import "fmt"

// Strategy selects how each training update is computed. The three
// strategies form a hierarchy: SAM wraps the base update in a two-phase
// perturbation, and HERO adds a gradient-alignment regularizer on top of
// SAM.
type Strategy interface {
	Name() string
	validate() error
}

// BaseStrategy is the plain A2C update: one backward pass, RMSProp step.
type BaseStrategy struct{}

// Name returns "base".
func (BaseStrategy) Name() string { return "base" }

func (BaseStrategy) validate() error { return nil }

// SAMStrategy performs a sharpness-aware update: perturb to the local
// worst case, recompute gradients there, step the SGD base optimizer
// from the original point.
type SAMStrategy struct {
	// Rho is the perturbation radius (default 0.05).
	Rho float32
	// Adaptive scales perturbations by parameter magnitude (default
	// true via NewSAMStrategy).
	Adaptive bool
}

// NewSAMStrategy returns the standard configuration: rho 0.05, adaptive.
func NewSAMStrategy() SAMStrategy {
	return SAMStrategy{Rho: 0.05, Adaptive: true}
}

// Name returns "sam".
func (SAMStrategy) Name() string { return "sam" }

func (s SAMStrategy) validate() error {
	if s.Rho < 0 {
		return fmt.Errorf("a2c: sam rho must be non-negative, got %g", s.Rho)
	}
	return nil
}

// HeroStrategy extends SAMStrategy with a curvature-alignment loss: the
// squared distance between the pre-perturbation gradients and the
// gradients at the perturbed point, differentiated back into the
// parameters. Bias and normalization parameters are excluded from the
// alignment term.
type HeroStrategy struct {
	// Rho is the perturbation radius (default 0.05).
	Rho float32
	// Adaptive scales perturbations by parameter magnitude.
	Adaptive bool
	// Lambda scales the alignment loss (default 1).
	Lambda float32
}

// NewHeroStrategy returns the standard configuration: rho 0.05,
// adaptive, lambda 1.
func NewHeroStrategy() HeroStrategy {
	return HeroStrategy{Rho: 0.05, Adaptive: true, Lambda: 1}
}

// Name returns "hero".
func (HeroStrategy) Name() string { return "hero" }

func (s HeroStrategy) validate() error {
	if s.Rho < 0 {
		return fmt.Errorf("a2c: hero rho must be non-negative, got %g", s.Rho)
	}
	if s.Lambda < 0 {
		return fmt.Errorf("a2c: hero lambda must be non-negative, got %g", s.Lambda)
	}
	return nil
}
