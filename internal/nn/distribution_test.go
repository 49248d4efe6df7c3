package nn_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hero-ml/hero/internal/autodiff"
	"github.com/hero-ml/hero/internal/backend/cpu"
	"github.com/hero-ml/hero/internal/nn"
	"github.com/hero-ml/hero/internal/tensor"
)

func TestCategoricalHead_LogProb(t *testing.T) {
	backend := autodiff.New(cpu.New())
	head := nn.NewCategoricalHead[testBackend](3, backend)

	// Uniform logits: every action has probability 1/3.
	logits, _ := tensor.FromSlice([]float32{0, 0, 0, 0, 0, 0}, tensor.Shape{2, 3}, backend)
	actions, _ := tensor.FromSlice([]float32{0, 2}, tensor.Shape{2}, backend)

	logProb, err := head.LogProb(logits, actions)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2}, logProb.Shape())

	want := float32(math.Log(1.0 / 3.0))
	assert.InDelta(t, want, logProb.Data()[0], 1e-5)
	assert.InDelta(t, want, logProb.Data()[1], 1e-5)
}

func TestCategoricalHead_LogProb_PeakedLogits(t *testing.T) {
	backend := autodiff.New(cpu.New())
	head := nn.NewCategoricalHead[testBackend](2, backend)

	logits, _ := tensor.FromSlice([]float32{3, 1}, tensor.Shape{1, 2}, backend)
	actions, _ := tensor.FromSlice([]float32{0}, tensor.Shape{1}, backend)

	logProb, err := head.LogProb(logits, actions)
	require.NoError(t, err)

	// log p(0) = 3 - log(e³ + e¹)
	want := 3 - math.Log(math.Exp(3)+math.Exp(1))
	assert.InDelta(t, want, float64(logProb.Data()[0]), 1e-5)
}

func TestCategoricalHead_LogProb_InvalidAction(t *testing.T) {
	backend := autodiff.New(cpu.New())
	head := nn.NewCategoricalHead[testBackend](2, backend)

	logits, _ := tensor.FromSlice([]float32{0, 0}, tensor.Shape{1, 2}, backend)

	outOfRange, _ := tensor.FromSlice([]float32{5}, tensor.Shape{1}, backend)
	_, err := head.LogProb(logits, outOfRange)
	assert.Error(t, err)

	fractional, _ := tensor.FromSlice([]float32{0.5}, tensor.Shape{1}, backend)
	_, err = head.LogProb(logits, fractional)
	assert.Error(t, err)
}

func TestCategoricalHead_Entropy(t *testing.T) {
	backend := autodiff.New(cpu.New())
	head := nn.NewCategoricalHead[testBackend](4, backend)

	// Uniform distribution maximizes entropy at log(n).
	uniform, _ := tensor.FromSlice([]float32{1, 1, 1, 1}, tensor.Shape{1, 4}, backend)
	entropy := head.Entropy(uniform)
	assert.InDelta(t, math.Log(4), float64(entropy.Data()[0]), 1e-5)

	// A peaked distribution has lower entropy.
	peaked, _ := tensor.FromSlice([]float32{10, 0, 0, 0}, tensor.Shape{1, 4}, backend)
	assert.Less(t, head.Entropy(peaked).Data()[0], entropy.Data()[0])
}

func TestCategoricalHead_Sample(t *testing.T) {
	backend := autodiff.New(cpu.New())
	head := nn.NewCategoricalHead[testBackend](3, backend)
	rng := rand.New(rand.NewSource(7))

	// Heavily peaked on action 1: nearly every draw should pick it.
	logits, _ := tensor.FromSlice([]float32{-20, 5, -20}, tensor.Shape{1, 3}, backend)
	for i := 0; i < 50; i++ {
		actions := head.Sample(logits, rng)
		require.Len(t, actions, 1)
		assert.Equal(t, 1, actions[0])
	}
}

func TestCategoricalHead_GradientFlowsToLogits(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	head := nn.NewCategoricalHead[testBackend](3, backend)
	logits, _ := tensor.FromSlice([]float32{0.5, -1, 2}, tensor.Shape{1, 3}, backend)
	actions, _ := tensor.FromSlice([]float32{2}, tensor.Shape{1}, backend)

	logProb, err := head.LogProb(logits, actions)
	require.NoError(t, err)

	grads := autodiff.Backward(logProb.Sum(), backend)
	grad := grads[logits.Raw()]
	require.NotNil(t, grad)

	// d log p(a) / d logits = onehot(a) - softmax(logits)
	var z float64
	for _, v := range []float32{0.5, -1, 2} {
		z += math.Exp(float64(v))
	}
	want := []float64{
		-math.Exp(0.5) / z,
		-math.Exp(-1) / z,
		1 - math.Exp(2)/z,
	}
	for i, w := range want {
		assert.InDelta(t, w, float64(grad.AsFloat32()[i]), 1e-5)
	}
}

func TestGaussianHead_LogProb(t *testing.T) {
	backend := autodiff.New(cpu.New())
	head := nn.NewGaussianHead[testBackend](2, backend)

	// Unit std, action equals mean: log p = -d/2·ln(2π)
	mean, _ := tensor.FromSlice([]float32{1, -1}, tensor.Shape{1, 2}, backend)
	actions, _ := tensor.FromSlice([]float32{1, -1}, tensor.Shape{1, 2}, backend)

	logProb, err := head.LogProb(mean, actions)
	require.NoError(t, err)

	want := -math.Log(2*math.Pi)
	assert.InDelta(t, want, float64(logProb.Data()[0]), 1e-5)
}

func TestGaussianHead_LogProb_OffMean(t *testing.T) {
	backend := autodiff.New(cpu.New())
	head := nn.NewGaussianHead[testBackend](1, backend)

	mean, _ := tensor.FromSlice([]float32{0}, tensor.Shape{1, 1}, backend)
	actions, _ := tensor.FromSlice([]float32{2}, tensor.Shape{1, 1}, backend)

	logProb, err := head.LogProb(mean, actions)
	require.NoError(t, err)

	// log N(2; 0, 1) = -0.5·4 - 0.5·ln(2π)
	want := -2 - 0.5*math.Log(2*math.Pi)
	assert.InDelta(t, want, float64(logProb.Data()[0]), 1e-5)
}

func TestGaussianHead_Entropy(t *testing.T) {
	backend := autodiff.New(cpu.New())
	head := nn.NewGaussianHead[testBackend](3, backend)

	entropy := head.Entropy(4)
	require.Equal(t, tensor.Shape{4}, entropy.Shape())

	// log_std = 0: H = d/2·(1 + ln(2π))
	want := 1.5 * (1 + math.Log(2*math.Pi))
	for _, v := range entropy.Data() {
		assert.InDelta(t, want, float64(v), 1e-5)
	}
}

func TestGaussianHead_GradientFlowsToLogStd(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	head := nn.NewGaussianHead[testBackend](2, backend)
	mean, _ := tensor.FromSlice([]float32{0, 0}, tensor.Shape{1, 2}, backend)
	actions, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)

	logProb, err := head.LogProb(mean, actions)
	require.NoError(t, err)

	grads := autodiff.Backward(logProb.Sum(), backend)
	grad := grads[head.LogStd().Tensor().Raw()]
	require.NotNil(t, grad)

	// d log p / d logσᵢ = zᵢ² - 1, with σ = 1 here
	assert.InDelta(t, 0, float64(grad.AsFloat32()[0]), 1e-5)
	assert.InDelta(t, 3, float64(grad.AsFloat32()[1]), 1e-5)
}

func TestGaussianHead_SampleMatchesStd(t *testing.T) {
	backend := autodiff.New(cpu.New())
	head := nn.NewGaussianHead[testBackend](1, backend)
	rng := rand.New(rand.NewSource(13))

	batch := 2000
	mean, _ := tensor.FromSlice(make([]float32, batch), tensor.Shape{batch, 1}, backend)
	samples := head.Sample(mean, rng)

	var sum, sumSq float64
	for _, s := range samples {
		sum += float64(s)
		sumSq += float64(s) * float64(s)
	}
	n := float64(len(samples))
	assert.InDelta(t, 0, sum/n, 0.1)
	assert.InDelta(t, 1, sumSq/n-(sum/n)*(sum/n), 0.1)
}
