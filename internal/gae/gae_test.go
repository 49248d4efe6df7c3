package gae_test

import (
	"math"
	"testing"

	"github.com/hero-ml/hero/internal/gae"
)

func storeSteps(t *testing.T, b *gae.Buffer, rewards, values []float64) {
	t.Helper()
	for i := range rewards {
		if err := b.Store([]float32{0}, []float32{0}, rewards[i], values[i], 0); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}
}

func TestNewBuffer_Validation(t *testing.T) {
	cases := []struct {
		name                  string
		capacity, obsD, actD  int
		gamma, lambda         float64
	}{
		{"zero capacity", 0, 1, 1, 0.99, 0.95},
		{"zero obs dim", 8, 0, 1, 0.99, 0.95},
		{"zero act dim", 8, 1, 0, 0.99, 0.95},
		{"gamma above one", 8, 1, 1, 1.5, 0.95},
		{"negative lambda", 8, 1, 1, 0.99, -0.1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := gae.NewBuffer(tc.capacity, tc.obsD, tc.actD, tc.gamma, tc.lambda); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestBuffer_GAEHandComputed(t *testing.T) {
	gamma, lambda := 0.9, 0.8
	b, err := gae.NewBuffer(8, 1, 1, gamma, lambda)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}

	rewards := []float64{1, 2, 3}
	values := []float64{0.5, 1.0, 1.5}
	lastValue := 2.0
	storeSteps(t, b, rewards, values)
	b.FinishPath(lastValue)

	// delta_2 = 3 + 0.9·2.0 - 1.5 = 3.3
	// delta_1 = 2 + 0.9·1.5 - 1.0 = 2.35
	// delta_0 = 1 + 0.9·1.0 - 0.5 = 1.4
	// A_2 = 3.3
	// A_1 = 2.35 + 0.72·3.3 = 4.726
	// A_0 = 1.4 + 0.72·4.726 = 4.80272
	data, err := b.Data()
	if err != nil {
		t.Fatalf("Data: %v", err)
	}

	wantAdv := []float64{4.80272, 4.726, 3.3}
	for i, want := range wantAdv {
		if got := float64(data.Advantages[i]); math.Abs(got-want) > 1e-5 {
			t.Errorf("advantage[%d] = %f, want %f", i, got, want)
		}
		wantRet := want + values[i]
		if got := float64(data.Returns[i]); math.Abs(got-wantRet) > 1e-5 {
			t.Errorf("return[%d] = %f, want %f", i, got, wantRet)
		}
	}
}

func TestBuffer_LambdaZeroIsTDResidual(t *testing.T) {
	gamma := 0.99
	b, _ := gae.NewBuffer(4, 1, 1, gamma, 0)

	storeSteps(t, b, []float64{1, 1}, []float64{2, 3})
	b.FinishPath(4)

	data, err := b.Data()
	if err != nil {
		t.Fatalf("Data: %v", err)
	}

	// With lambda 0 each advantage is its own TD residual.
	want := []float64{1 + gamma*3 - 2, 1 + gamma*4 - 3}
	for i, w := range want {
		if got := float64(data.Advantages[i]); math.Abs(got-w) > 1e-5 {
			t.Errorf("advantage[%d] = %f, want %f", i, got, w)
		}
	}
}

func TestBuffer_MultiplePaths(t *testing.T) {
	b, _ := gae.NewBuffer(8, 1, 1, 0.99, 0.95)

	storeSteps(t, b, []float64{1}, []float64{0})
	b.FinishPath(0)
	storeSteps(t, b, []float64{5}, []float64{0})
	b.FinishPath(0)

	data, err := b.Data()
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if data.N != 2 {
		t.Fatalf("N = %d, want 2", data.N)
	}

	// Single-step terminal paths: advantage = reward - value.
	if math.Abs(float64(data.Advantages[0])-1) > 1e-6 {
		t.Errorf("advantage[0] = %f, want 1", data.Advantages[0])
	}
	if math.Abs(float64(data.Advantages[1])-5) > 1e-6 {
		t.Errorf("advantage[1] = %f, want 5", data.Advantages[1])
	}
}

func TestBuffer_ErrorPaths(t *testing.T) {
	b, _ := gae.NewBuffer(2, 2, 1, 0.99, 0.95)

	if _, err := b.Data(); err == nil {
		t.Error("Data on an empty buffer should fail")
	}

	if err := b.Store([]float32{1}, []float32{0}, 0, 0, 0); err == nil {
		t.Error("Store with wrong observation length should fail")
	}
	if err := b.Store([]float32{1, 2}, []float32{0, 1}, 0, 0, 0); err == nil {
		t.Error("Store with wrong action length should fail")
	}

	if err := b.Store([]float32{1, 2}, []float32{0}, 1, 0, 0); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, err := b.Data(); err == nil {
		t.Error("Data with an unfinished path should fail")
	}

	if err := b.Store([]float32{3, 4}, []float32{1}, 1, 0, 0); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := b.Store([]float32{5, 6}, []float32{0}, 1, 0, 0); err == nil {
		t.Error("Store past capacity should fail")
	}
}

func TestBuffer_DataDrains(t *testing.T) {
	b, _ := gae.NewBuffer(4, 1, 1, 0.99, 0.95)
	storeSteps(t, b, []float64{1, 2}, []float64{0, 0})
	b.FinishPath(0)

	if _, err := b.Data(); err != nil {
		t.Fatalf("Data: %v", err)
	}
	if b.Size() != 0 {
		t.Errorf("Size() after drain = %d, want 0", b.Size())
	}
}

func TestBuffer_AdvantageStats(t *testing.T) {
	b, _ := gae.NewBuffer(4, 1, 1, 1, 1)

	// Terminal single-step paths make advantages equal the rewards.
	storeSteps(t, b, []float64{2}, []float64{0})
	b.FinishPath(0)
	storeSteps(t, b, []float64{4}, []float64{0})
	b.FinishPath(0)

	mean, std := b.AdvantageStats()
	if math.Abs(mean-3) > 1e-6 {
		t.Errorf("mean = %f, want 3", mean)
	}
	// Sample standard deviation of {2, 4}.
	if math.Abs(std-math.Sqrt2) > 1e-6 {
		t.Errorf("std = %f, want sqrt(2)", std)
	}
}
