package a2c_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hero-ml/hero/internal/a2c"
	"github.com/hero-ml/hero/internal/autodiff"
	"github.com/hero-ml/hero/internal/backend/cpu"
	"github.com/hero-ml/hero/internal/nn"
	"github.com/hero-ml/hero/internal/optim"
	"github.com/hero-ml/hero/internal/tensor"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

// linearPolicy is a minimal differentiable policy: logProb = obs·w,
// values = obs·v, entropy either nil or a constant.
type linearPolicy struct {
	w, v       *nn.Parameter[adBackend]
	backend    adBackend
	nilEntropy bool
}

func newLinearPolicy(t *testing.T, backend adBackend, nilEntropy bool) *linearPolicy {
	t.Helper()
	wT, err := tensor.FromSlice([]float32{0.5}, tensor.Shape{1, 1}, backend)
	require.NoError(t, err)
	vT, err := tensor.FromSlice([]float32{-0.5}, tensor.Shape{1, 1}, backend)
	require.NoError(t, err)
	return &linearPolicy{
		w:          nn.NewParameter("policy.weight", wT),
		v:          nn.NewParameter("value.weight", vT),
		backend:    backend,
		nilEntropy: nilEntropy,
	}
}

func (p *linearPolicy) EvaluateActions(obs, actions *tensor.Tensor[float32, adBackend]) (values, logProb, entropy *tensor.Tensor[float32, adBackend], err error) {
	batch := obs.Shape()[0]
	values = obs.MatMul(p.v.Tensor()).Reshape(batch)
	logProb = obs.MatMul(p.w.Tensor()).Reshape(batch)
	if !p.nilEntropy {
		entropy = tensor.Ones[float32](tensor.Shape{batch}, p.backend)
	}
	return values, logProb, entropy, nil
}

func (p *linearPolicy) Parameters() []*nn.Parameter[adBackend] {
	return []*nn.Parameter[adBackend]{p.w, p.v}
}

func (p *linearPolicy) ZeroGrad() {
	p.w.ZeroGrad()
	p.v.ZeroGrad()
}

// constantPolicy produces outputs that do not depend on any parameter,
// so every gradient vanishes.
type constantPolicy struct {
	w       *nn.Parameter[adBackend]
	backend adBackend
}

func newConstantPolicy(t *testing.T, backend adBackend) *constantPolicy {
	t.Helper()
	wT, err := tensor.FromSlice([]float32{1}, tensor.Shape{1}, backend)
	require.NoError(t, err)
	return &constantPolicy{w: nn.NewParameter("w.weight", wT), backend: backend}
}

func (p *constantPolicy) EvaluateActions(obs, actions *tensor.Tensor[float32, adBackend]) (values, logProb, entropy *tensor.Tensor[float32, adBackend], err error) {
	batch := obs.Shape()[0]
	// MulScalar keeps the graph non-empty without touching parameters.
	values = tensor.Ones[float32](tensor.Shape{batch}, p.backend).MulScalar(1)
	logProb = tensor.Ones[float32](tensor.Shape{batch}, p.backend).MulScalar(-1)
	entropy = tensor.Ones[float32](tensor.Shape{batch}, p.backend)
	return values, logProb, entropy, nil
}

func (p *constantPolicy) Parameters() []*nn.Parameter[adBackend] {
	return []*nn.Parameter[adBackend]{p.w}
}

func (p *constantPolicy) ZeroGrad() { p.w.ZeroGrad() }

func simpleBatch() *a2c.Batch {
	return &a2c.Batch{
		Observations: []float32{1, 2, -1, 0.5},
		Actions:      []float32{0, 1, 0, 1},
		Advantages:   []float32{1, -0.5, 2, 0.25},
		Returns:      []float32{0.5, 1, -0.5, 0},
		N:            4,
		ObsDim:       1,
		ActDim:       1,
	}
}

func TestTrain_BaseMatchesManualUpdate(t *testing.T) {
	backend := autodiff.New(cpu.New())
	policy := newLinearPolicy(t, backend, false)

	cfg := a2c.Config{LR: 0.1, MaxGradNorm: -1}
	trainer, err := a2c.New(policy, backend, cfg, nil)
	require.NoError(t, err)

	batch := simpleBatch()

	// Manual gradients at w = 0.5, v = -0.5:
	// policyLoss = -mean(adv·obs·w): dL/dw = -mean(adv·obs)
	// valueLoss = mean((obs·v - ret)²): dL/dv = 0.5·mean(2·(obs·v - ret)·obs)
	var gw, gv float64
	for i := 0; i < batch.N; i++ {
		obs := float64(batch.Observations[i])
		gw += -float64(batch.Advantages[i]) * obs
		gv += 0.5 * 2 * (obs*(-0.5) - float64(batch.Returns[i])) * obs
	}
	gw /= float64(batch.N)
	gv /= float64(batch.N)

	// First RMSProp step with alpha 0.99, eps 1e-5.
	stepFor := func(g float64) float64 {
		sq := 0.01 * g * g
		return 0.1 * g / (math.Sqrt(sq) + 1e-5)
	}
	wantW := 0.5 - stepFor(gw)
	wantV := -0.5 - stepFor(gv)

	losses, err := trainer.Train(batch)
	require.NoError(t, err)

	assert.InDelta(t, wantW, float64(policy.w.Tensor().Data()[0]), 1e-4)
	assert.InDelta(t, wantV, float64(policy.v.Tensor().Data()[0]), 1e-4)

	// Loss values match the hand computation at the pre-update point.
	var wantPolicy, wantValue float64
	for i := 0; i < batch.N; i++ {
		obs := float64(batch.Observations[i])
		wantPolicy += -float64(batch.Advantages[i]) * obs * 0.5
		wantValue += (obs*(-0.5) - float64(batch.Returns[i])) * (obs*(-0.5) - float64(batch.Returns[i]))
	}
	wantPolicy /= float64(batch.N)
	wantValue /= float64(batch.N)
	assert.InDelta(t, wantPolicy, losses.Policy, 1e-4)
	assert.InDelta(t, wantValue, losses.Value, 1e-4)
	assert.InDelta(t, -1, losses.Entropy, 1e-6)
}

func TestTrain_NilEntropyFallsBackToLogProb(t *testing.T) {
	backend := autodiff.New(cpu.New())
	policy := newLinearPolicy(t, backend, true)

	trainer, err := a2c.New(policy, backend, a2c.Config{LR: 0.01}, nil)
	require.NoError(t, err)

	batch := simpleBatch()
	losses, err := trainer.Train(batch)
	require.NoError(t, err)

	// Proxy entropy loss is mean(log π) = mean(obs·w) at w = 0.5.
	var want float64
	for _, obs := range batch.Observations {
		want += float64(obs) * 0.5
	}
	want /= float64(batch.N)
	assert.InDelta(t, want, losses.Entropy, 1e-5)
}

func TestTrain_DegenerateGradNormAborts(t *testing.T) {
	backend := autodiff.New(cpu.New())
	policy := newConstantPolicy(t, backend)

	cfg := a2c.Config{LR: 0.1, Strategy: a2c.NewSAMStrategy()}
	trainer, err := a2c.New(policy, backend, cfg, nil)
	require.NoError(t, err)

	before := policy.w.Tensor().Data()[0]
	_, err = trainer.Train(simpleBatch())
	require.Error(t, err)
	assert.True(t, errors.Is(err, optim.ErrDegenerateGradNorm))

	assert.Equal(t, before, policy.w.Tensor().Data()[0])
	assert.Equal(t, 0, trainer.NumUpdates())
}

func TestTrain_SAMStrategyUpdates(t *testing.T) {
	backend := autodiff.New(cpu.New())
	policy := newLinearPolicy(t, backend, false)

	cfg := a2c.Config{LR: 0.01, Strategy: a2c.SAMStrategy{Rho: 0.05, Adaptive: true}}
	trainer, err := a2c.New(policy, backend, cfg, nil)
	require.NoError(t, err)

	beforeW := policy.w.Tensor().Data()[0]
	losses, err := trainer.Train(simpleBatch())
	require.NoError(t, err)

	assert.NotEqual(t, beforeW, policy.w.Tensor().Data()[0])
	assert.Zero(t, losses.Hero)
	assert.Equal(t, 1, trainer.NumUpdates())
}

func TestTrain_SAMIgnoresMaxGradNorm(t *testing.T) {
	// The gradient norm on simpleBatch is well above 0.5, so any
	// clipping in the SAM path would change the update.
	run := func(maxGradNorm float32) (float32, float32) {
		backend := autodiff.New(cpu.New())
		policy := newLinearPolicy(t, backend, false)
		cfg := a2c.Config{
			LR:          0.1,
			MaxGradNorm: maxGradNorm,
			Strategy:    a2c.SAMStrategy{Rho: 0.05},
		}
		trainer, err := a2c.New(policy, backend, cfg, nil)
		require.NoError(t, err)

		losses, err := trainer.Train(simpleBatch())
		require.NoError(t, err)
		require.Greater(t, losses.GradNorm, 0.5)
		return policy.w.Tensor().Data()[0], policy.v.Tensor().Data()[0]
	}

	clippedW, clippedV := run(0.5)
	freeW, freeV := run(-1)
	assert.Equal(t, freeW, clippedW)
	assert.Equal(t, freeV, clippedV)
}

func TestTrain_ScheduleAppliesUnderSAM(t *testing.T) {
	backend := autodiff.New(cpu.New())
	policy := newLinearPolicy(t, backend, false)

	recorder := a2c.NewMemoryRecorder()
	cfg := a2c.Config{
		Schedule:     a2c.LinearSchedule(0.1),
		TotalUpdates: 4,
		Strategy:     a2c.SAMStrategy{Rho: 0.05},
	}
	trainer, err := a2c.New(policy, backend, cfg, recorder)
	require.NoError(t, err)

	batch := simpleBatch()
	for i := 0; i < 2; i++ {
		_, err := trainer.Train(batch)
		require.NoError(t, err)
	}

	lrs := recorder.History("train/learning_rate")
	require.Len(t, lrs, 2)
	assert.InDelta(t, 0.1, lrs[0], 1e-6)
	assert.InDelta(t, 0.075, lrs[1], 1e-6)
}

func TestTrain_PolicyLossSignTracksAdvantageCorrelation(t *testing.T) {
	// Ten transitions, advantages +1 for the first five and -1 for the
	// last five. With logProb = obs·w (w = 0.5), observations aligned
	// with the advantages make the policy loss negative, and flipping
	// the observations flips its sign.
	policyLoss := func(obsSign float32) float64 {
		backend := autodiff.New(cpu.New())
		policy := newLinearPolicy(t, backend, false)

		obs := make([]float32, 10)
		adv := make([]float32, 10)
		ret := make([]float32, 10)
		actions := make([]float32, 10)
		for i := 0; i < 10; i++ {
			sign := float32(1)
			if i >= 5 {
				sign = -1
			}
			adv[i] = sign
			obs[i] = obsSign * sign
		}

		cfg := a2c.Config{LR: 0.01, NormalizeAdvantage: true}
		trainer, err := a2c.New(policy, backend, cfg, nil)
		require.NoError(t, err)

		losses, err := trainer.Train(&a2c.Batch{
			Observations: obs,
			Actions:      actions,
			Advantages:   adv,
			Returns:      ret,
			N:            10,
			ObsDim:       1,
			ActDim:       1,
		})
		require.NoError(t, err)
		return losses.Policy
	}

	assert.Negative(t, policyLoss(1))
	assert.Positive(t, policyLoss(-1))
}

func TestTrain_HeroStrategy(t *testing.T) {
	backend := autodiff.New(cpu.New())

	ac, err := nn.NewActorCritic(2, nn.Discrete{N: 2}, []int{8}, backend)
	require.NoError(t, err)

	recorder := a2c.NewMemoryRecorder()
	cfg := a2c.Config{LR: 0.01, Strategy: a2c.NewHeroStrategy()}
	trainer, err := a2c.New[*cpu.CPUBackend](ac, backend, cfg, recorder)
	require.NoError(t, err)

	batch := &a2c.Batch{
		Observations: []float32{0.5, -0.5, 1, 0.2, -1, 0.8, 0.1, -0.3},
		Actions:      []float32{0, 1, 0, 1},
		Advantages:   []float32{1, -1, 0.5, 2},
		Returns:      []float32{1, 0, 0.5, 1.5},
		N:            4,
		ObsDim:       2,
		ActDim:       1,
	}

	losses, err := trainer.Train(batch)
	require.NoError(t, err)

	// The alignment loss is a sum of squared distances.
	assert.GreaterOrEqual(t, losses.Hero, 0.0)

	heroHist := recorder.History("train/hero_loss")
	require.Len(t, heroHist, 1)
	assert.Equal(t, losses.Hero, heroHist[0])

	// Updates keep working across repeated calls on the long-lived SAM.
	_, err = trainer.Train(batch)
	require.NoError(t, err)
	assert.Equal(t, 2, trainer.NumUpdates())
}

func TestTrain_RecorderMetrics(t *testing.T) {
	backend := autodiff.New(cpu.New())
	policy := newLinearPolicy(t, backend, false)

	recorder := a2c.NewMemoryRecorder()
	trainer, err := a2c.New(policy, backend, a2c.Config{LR: 0.01}, recorder)
	require.NoError(t, err)

	_, err = trainer.Train(simpleBatch())
	require.NoError(t, err)

	for _, key := range []string{
		"train/policy_loss",
		"train/value_loss",
		"train/entropy_loss",
		"train/explained_variance",
		"train/n_updates",
		"train/learning_rate",
	} {
		assert.Len(t, recorder.History(key), 1, "missing %s", key)
	}

	n, ok := recorder.Last("train/n_updates")
	require.True(t, ok)
	assert.Equal(t, float64(1), n)
}

func TestTrain_LinearSchedule(t *testing.T) {
	backend := autodiff.New(cpu.New())
	policy := newLinearPolicy(t, backend, false)

	recorder := a2c.NewMemoryRecorder()
	cfg := a2c.Config{
		LR:           0.1,
		Schedule:     a2c.LinearSchedule(0.1),
		TotalUpdates: 4,
	}
	trainer, err := a2c.New(policy, backend, cfg, recorder)
	require.NoError(t, err)

	batch := simpleBatch()
	for i := 0; i < 3; i++ {
		_, err := trainer.Train(batch)
		require.NoError(t, err)
	}

	lrs := recorder.History("train/learning_rate")
	require.Len(t, lrs, 3)
	assert.InDelta(t, 0.1, lrs[0], 1e-6)
	assert.InDelta(t, 0.075, lrs[1], 1e-6)
	assert.InDelta(t, 0.05, lrs[2], 1e-6)
}

func TestTrain_BatchValidation(t *testing.T) {
	backend := autodiff.New(cpu.New())
	policy := newLinearPolicy(t, backend, false)
	trainer, err := a2c.New(policy, backend, a2c.Config{}, nil)
	require.NoError(t, err)

	_, err = trainer.Train(&a2c.Batch{N: 0, ObsDim: 1, ActDim: 1})
	assert.Error(t, err)

	bad := simpleBatch()
	bad.Advantages[0] = float32(math.NaN())
	_, err = trainer.Train(bad)
	assert.Error(t, err)

	short := simpleBatch()
	short.Returns = short.Returns[:2]
	_, err = trainer.Train(short)
	assert.Error(t, err)
}

func TestTrain_NormalizeAdvantage(t *testing.T) {
	backend := autodiff.New(cpu.New())
	policy := newLinearPolicy(t, backend, false)

	cfg := a2c.Config{LR: 0.01, NormalizeAdvantage: true}
	trainer, err := a2c.New(policy, backend, cfg, nil)
	require.NoError(t, err)

	// With standardized advantages the policy loss at w = 0.5 is
	// -mean(norm(adv)·obs)·0.5.
	batch := simpleBatch()
	losses, err := trainer.Train(batch)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(losses.Policy))
}

func TestTrain_LearnsSyntheticTask(t *testing.T) {
	backend := autodiff.New(cpu.New())

	ac, err := nn.NewActorCritic(2, nn.Discrete{N: 2}, []int{16}, backend)
	require.NoError(t, err)

	trainer, err := a2c.New[*cpu.CPUBackend](ac, backend, a2c.Config{LR: 7e-3}, nil)
	require.NoError(t, err)

	// Action 0 always has positive advantage: training should raise its
	// probability.
	batch := &a2c.Batch{
		Observations: []float32{0.5, -0.5, 1, 0.2, -1, 0.8, 0.1, -0.3},
		Actions:      []float32{0, 0, 0, 0},
		Advantages:   []float32{1, 1, 1, 1},
		Returns:      []float32{1, 1, 1, 1},
		N:            4,
		ObsDim:       2,
		ActDim:       1,
	}

	obs, _ := tensor.FromSlice(batch.Observations, tensor.Shape{4, 2}, backend)
	actions, _ := tensor.FromSlice(batch.Actions, tensor.Shape{4, 1}, backend)

	meanLogProb := func() float64 {
		_, logProb, _, err := ac.EvaluateActions(obs, actions)
		require.NoError(t, err)
		var sum float64
		for _, v := range logProb.Data() {
			sum += float64(v)
		}
		return sum / 4
	}

	before := meanLogProb()
	for i := 0; i < 25; i++ {
		_, err := trainer.Train(batch)
		require.NoError(t, err)
	}
	after := meanLogProb()

	assert.Greater(t, after, before)
}

func TestNew_Validation(t *testing.T) {
	backend := autodiff.New(cpu.New())
	policy := newLinearPolicy(t, backend, false)

	_, err := a2c.New[*cpu.CPUBackend](nil, backend, a2c.Config{}, nil)
	assert.Error(t, err)

	_, err = a2c.New(policy, backend, a2c.Config{Strategy: a2c.SAMStrategy{Rho: -1}}, nil)
	assert.Error(t, err)

	_, err = a2c.New(policy, backend, a2c.Config{Strategy: a2c.HeroStrategy{Lambda: -2}}, nil)
	assert.Error(t, err)

	_, err = a2c.New(policy, backend, a2c.Config{Momentum: 1.5}, nil)
	assert.Error(t, err)
}
