// Command hero trains a cart-pole policy with advantage actor-critic
// and reports training metrics. The -strategy flag switches between
// the plain, sharpness-aware, and curvature-regularized update rules.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/hero-ml/hero/a2c"
	"github.com/hero-ml/hero/autodiff"
	"github.com/hero-ml/hero/backend/cpu"
	"github.com/hero-ml/hero/gae"
	"github.com/hero-ml/hero/nn"
	"github.com/hero-ml/hero/tensor"
)

func main() {
	var (
		strategyName = flag.String("strategy", "base", "update rule: base, sam, or hero")
		updates      = flag.Int("updates", 200, "number of training updates")
		rolloutLen   = flag.Int("rollout", 256, "environment steps per update")
		lr           = flag.Float64("lr", 7e-4, "initial learning rate")
		seed         = flag.Int64("seed", 1, "random seed")
		logEvery     = flag.Int("log-every", 10, "print metrics every N updates")
	)
	flag.Parse()

	strategy, err := parseStrategy(*strategyName)
	if err != nil {
		log.Fatal(err)
	}

	if err := run(strategy, *updates, *rolloutLen, float32(*lr), *seed, *logEvery); err != nil {
		log.Fatal(err)
	}
}

func parseStrategy(name string) (a2c.Strategy, error) {
	switch name {
	case "base":
		return a2c.BaseStrategy{}, nil
	case "sam":
		return a2c.NewSAMStrategy(), nil
	case "hero":
		return a2c.NewHeroStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want base, sam, or hero)", name)
	}
}

func run(strategy a2c.Strategy, updates, rolloutLen int, lr float32, seed int64, logEvery int) error {
	const (
		obsDim = 4
		gamma  = 0.99
		lam    = 0.95
	)

	rng := rand.New(rand.NewSource(seed))
	backend := autodiff.New(cpu.New())

	policy, err := nn.NewActorCritic(obsDim, nn.Discrete{N: 2}, nil, backend)
	if err != nil {
		return err
	}

	buffer, err := gae.NewBuffer(rolloutLen, obsDim, 1, gamma, lam)
	if err != nil {
		return err
	}

	recorder := a2c.NewMemoryRecorder()
	trainer, err := a2c.New(policy, backend, a2c.Config{
		Schedule:     a2c.LinearSchedule(lr),
		TotalUpdates: updates,
		EntCoef:      0.01,
		Strategy:     strategy,
	}, recorder)
	if err != nil {
		return err
	}

	env := newCartPole(rng)
	obs := env.Observation()
	episodeReturn := 0.0
	var recentReturns []float64

	fmt.Printf("training cart-pole: strategy=%s updates=%d rollout=%d lr=%g seed=%d\n\n",
		strategy.Name(), updates, rolloutLen, lr, seed)

	for update := 1; update <= updates; update++ {
		for step := 0; step < rolloutLen; step++ {
			action, value, logProb, err := act(policy, backend, obs, rng)
			if err != nil {
				return err
			}

			next, reward, terminated, truncated := env.Step(action)
			if err := buffer.Store(obs, []float32{float32(action)}, reward, value, logProb); err != nil {
				return err
			}
			episodeReturn += reward

			switch {
			case terminated:
				buffer.FinishPath(0)
				recentReturns = appendReturn(recentReturns, episodeReturn)
				episodeReturn = 0
				obs = env.Reset()
			case truncated:
				_, bootstrapValue, _, err := act(policy, backend, next, rng)
				if err != nil {
					return err
				}
				buffer.FinishPath(bootstrapValue)
				recentReturns = appendReturn(recentReturns, episodeReturn)
				episodeReturn = 0
				obs = env.Reset()
			default:
				obs = next
			}
		}

		if buffer.Size() > 0 {
			_, lastValue, _, err := act(policy, backend, obs, rng)
			if err != nil {
				return err
			}
			buffer.FinishPath(lastValue)
		}

		data, err := buffer.Data()
		if err != nil {
			return err
		}

		losses, err := trainer.Train(a2c.BatchFromRollout(data, obsDim, 1))
		if err != nil {
			return err
		}

		if update%logEvery == 0 || update == updates {
			printProgress(update, losses, recentReturns)
		}
	}

	fmt.Printf("\ndone after %d updates\n", trainer.NumUpdates())
	return nil
}

// act runs the policy on a single observation and returns the chosen
// action, the value estimate, and the action log probability.
func act(policy *nn.ActorCritic[*autodiff.Backend[*cpu.Backend]], backend *autodiff.Backend[*cpu.Backend], obs []float32, rng *rand.Rand) (int, float64, float32, error) {
	obsT, err := tensor.FromSlice(obs, tensor.Shape{1, len(obs)}, backend)
	if err != nil {
		return 0, 0, 0, err
	}
	actions, values, logProb, err := policy.Act(obsT, rng)
	if err != nil {
		return 0, 0, 0, err
	}
	return int(actions.At(0)), float64(values.At(0)), logProb.At(0), nil
}

func appendReturn(returns []float64, r float64) []float64 {
	const window = 20
	returns = append(returns, r)
	if len(returns) > window {
		returns = returns[len(returns)-window:]
	}
	return returns
}

func printProgress(update int, losses *a2c.Losses, recentReturns []float64) {
	meanReturn := 0.0
	for _, r := range recentReturns {
		meanReturn += r
	}
	if len(recentReturns) > 0 {
		meanReturn /= float64(len(recentReturns))
	}

	line := fmt.Sprintf("update %4d  return %7.1f  policy %+8.4f  value %8.4f  entropy %+8.4f  ev %+6.3f",
		update, meanReturn, losses.Policy, losses.Value, losses.Entropy, losses.ExplainedVariance)
	if losses.Hero != 0 {
		line += fmt.Sprintf("  hero %8.6f", losses.Hero)
	}
	fmt.Println(line)
}
