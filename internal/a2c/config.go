package a2c

import "fmt"

// Schedule maps remaining training progress (1 at the start, 0 at the
// end) to a learning rate.
type Schedule func(progressRemaining float64) float32

// ConstantSchedule returns the same learning rate throughout training.
func ConstantSchedule(lr float32) Schedule {
	return func(float64) float32 { return lr }
}

// LinearSchedule decays the learning rate linearly to zero.
func LinearSchedule(initial float32) Schedule {
	return func(progressRemaining float64) float32 {
		return float32(progressRemaining) * initial
	}
}

// Config holds the hyperparameters of an A2C trainer.
type Config struct {
	// LR is the learning rate (default 7e-4). Ignored when Schedule is set.
	LR float32
	// Schedule overrides LR with a progress-dependent learning rate.
	// TotalUpdates must be set for progress to advance.
	Schedule Schedule
	// TotalUpdates is the planned number of Train calls, used to compute
	// remaining progress for Schedule. Zero disables progress tracking.
	TotalUpdates int

	// ValueCoef scales the value loss (default 0.5).
	ValueCoef float32
	// EntCoef scales the entropy bonus (default 0).
	EntCoef float32
	// MaxGradNorm clips the joint gradient norm before the optimizer
	// step in the base strategy (default 0.5). Negative disables
	// clipping. The SAM and HERO paths never clip.
	MaxGradNorm float32
	// NormalizeAdvantage standardizes advantages per batch.
	NormalizeAdvantage bool

	// Momentum and WeightDecay configure the SGD base optimizer used by
	// the SAM and HERO strategies (defaults 0.9 and 5e-4).
	Momentum    float32
	WeightDecay float32

	// Strategy selects the update rule. Defaults to BaseStrategy.
	Strategy Strategy
}

// withDefaults fills in unset fields.
func (c Config) withDefaults() Config {
	if c.LR == 0 {
		c.LR = 7e-4
	}
	if c.ValueCoef == 0 {
		c.ValueCoef = 0.5
	}
	if c.MaxGradNorm == 0 {
		c.MaxGradNorm = 0.5
	}
	if c.Momentum == 0 {
		c.Momentum = 0.9
	}
	if c.WeightDecay == 0 {
		c.WeightDecay = 5e-4
	}
	if c.Strategy == nil {
		c.Strategy = BaseStrategy{}
	}
	return c
}

// validate rejects configurations that would corrupt training.
func (c Config) validate() error {
	if c.LR < 0 {
		return fmt.Errorf("a2c: learning rate must be non-negative, got %g", c.LR)
	}
	if c.ValueCoef < 0 || c.EntCoef < 0 {
		return fmt.Errorf("a2c: loss coefficients must be non-negative")
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("a2c: momentum must be in [0, 1), got %g", c.Momentum)
	}
	if c.WeightDecay < 0 {
		return fmt.Errorf("a2c: weight decay must be non-negative, got %g", c.WeightDecay)
	}
	return c.Strategy.validate()
}
