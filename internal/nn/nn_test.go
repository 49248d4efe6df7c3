package nn_test

import (
	"math"
	"testing"

	"github.com/hero-ml/hero/internal/autodiff"
	"github.com/hero-ml/hero/internal/backend/cpu"
	"github.com/hero-ml/hero/internal/nn"
	"github.com/hero-ml/hero/internal/tensor"
)

type testBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

// Helper to check if values are approximately equal.
func floatEqual(a, b, epsilon float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

// TestParameter tests Parameter creation and methods.
func TestParameter(t *testing.T) {
	backend := autodiff.New(cpu.New())

	data, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	param := nn.NewParameter("test_param", data)

	if param.Name() != "test_param" {
		t.Errorf("Name() = %s, want test_param", param.Name())
	}
	if param.Tensor() != data {
		t.Error("Tensor() should return the original tensor")
	}
	if param.Grad() != nil {
		t.Error("Grad() should initially be nil")
	}

	grad, _ := tensor.FromSlice([]float32{0.1, 0.2, 0.3}, tensor.Shape{3}, backend)
	param.SetGrad(grad)
	if param.Grad() != grad {
		t.Error("SetGrad() should set the gradient")
	}

	param.ZeroGrad()
	if param.Grad() != nil {
		t.Error("ZeroGrad() should clear the gradient")
	}
}

// TestLinear_Forward tests the linear transformation with known weights.
func TestLinear_Forward(t *testing.T) {
	backend := autodiff.New(cpu.New())

	layer := nn.NewLinear(2, 3, backend)

	// Set weight to a known matrix and bias to known values.
	wData := layer.Weight().Tensor().Data()
	copy(wData, []float32{1, 2, 3, 4, 5, 6}) // [3, 2]
	bData := layer.Bias().Tensor().Data()
	copy(bData, []float32{0.5, -0.5, 1})

	input, _ := tensor.FromSlice([]float32{1, 1}, tensor.Shape{1, 2}, backend)
	output := layer.Forward(input)

	if !output.Shape().Equal(tensor.Shape{1, 3}) {
		t.Fatalf("output shape = %v, want [1, 3]", output.Shape())
	}

	// y = x @ W.T + b = [3, 7, 11] + [0.5, -0.5, 1]
	want := []float32{3.5, 6.5, 12}
	for i, v := range output.Data() {
		if !floatEqual(v, want[i], 1e-5) {
			t.Errorf("output[%d] = %f, want %f", i, v, want[i])
		}
	}
}

// TestLinear_Gradients tests backward through a linear layer.
func TestLinear_Gradients(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	layer := nn.NewLinear(2, 1, backend)
	copy(layer.Weight().Tensor().Data(), []float32{2, 3})
	copy(layer.Bias().Tensor().Data(), []float32{0})

	input, _ := tensor.FromSlice([]float32{4, 5}, tensor.Shape{1, 2}, backend)
	loss := layer.Forward(input).Sum()

	grads := autodiff.Backward(loss, backend)

	wGrad := grads[layer.Weight().Tensor().Raw()]
	if wGrad == nil {
		t.Fatal("weight should receive a gradient")
	}
	// dL/dW = input
	for i, want := range []float32{4, 5} {
		if !floatEqual(wGrad.AsFloat32()[i], want, 1e-5) {
			t.Errorf("wGrad[%d] = %f, want %f", i, wGrad.AsFloat32()[i], want)
		}
	}

	bGrad := grads[layer.Bias().Tensor().Raw()]
	if bGrad == nil {
		t.Fatal("bias should receive a gradient")
	}
	if !floatEqual(bGrad.AsFloat32()[0], 1, 1e-5) {
		t.Errorf("bGrad = %f, want 1", bGrad.AsFloat32()[0])
	}
}

// TestLinear_ShapeValidation tests input validation panics.
func TestLinear_ShapeValidation(t *testing.T) {
	backend := autodiff.New(cpu.New())
	layer := nn.NewLinear(4, 2, backend)

	defer func() {
		if r := recover(); r == nil {
			t.Error("Forward should panic on wrong feature count")
		}
	}()

	input, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3}, backend)
	layer.Forward(input)
}

// TestTanh_Forward tests the activation module.
func TestTanh_Forward(t *testing.T) {
	backend := autodiff.New(cpu.New())

	act := nn.NewTanh[testBackend]()
	input, _ := tensor.FromSlice([]float32{-1, 0, 1}, tensor.Shape{3}, backend)
	output := act.Forward(input)

	want := []float32{float32(math.Tanh(-1)), 0, float32(math.Tanh(1))}
	for i, v := range output.Data() {
		if !floatEqual(v, want[i], 1e-6) {
			t.Errorf("tanh[%d] = %f, want %f", i, v, want[i])
		}
	}

	if len(act.Parameters()) != 0 {
		t.Error("Tanh should have no parameters")
	}
}

// TestSequential tests chaining and parameter collection.
func TestSequential(t *testing.T) {
	backend := autodiff.New(cpu.New())

	model := nn.NewSequential[testBackend](
		nn.NewLinear(4, 8, backend),
		nn.NewTanh[testBackend](),
		nn.NewLinear(8, 2, backend),
	)

	if model.Len() != 3 {
		t.Errorf("Len() = %d, want 3", model.Len())
	}

	// Two linear layers contribute weight+bias each.
	if got := len(model.Parameters()); got != 4 {
		t.Errorf("len(Parameters()) = %d, want 4", got)
	}

	input, _ := tensor.FromSlice(make([]float32, 3*4), tensor.Shape{3, 4}, backend)
	output := model.Forward(input)
	if !output.Shape().Equal(tensor.Shape{3, 2}) {
		t.Errorf("output shape = %v, want [3, 2]", output.Shape())
	}
}

// TestSequential_StateDictRoundTrip tests save and load by prefixed names.
func TestSequential_StateDictRoundTrip(t *testing.T) {
	backend := autodiff.New(cpu.New())

	src := nn.NewSequential[testBackend](
		nn.NewLinear(3, 5, backend),
		nn.NewTanh[testBackend](),
		nn.NewLinear(5, 2, backend),
	)
	dst := nn.NewSequential[testBackend](
		nn.NewLinear(3, 5, backend),
		nn.NewTanh[testBackend](),
		nn.NewLinear(5, 2, backend),
	)

	if err := dst.LoadStateDict(src.StateDict()); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}

	input, _ := tensor.FromSlice([]float32{0.5, -1, 2}, tensor.Shape{1, 3}, backend)
	srcOut := src.Forward(input).Data()
	dstOut := dst.Forward(input).Data()
	for i := range srcOut {
		if !floatEqual(srcOut[i], dstOut[i], 1e-6) {
			t.Errorf("output[%d]: src %f, dst %f", i, srcOut[i], dstOut[i])
		}
	}
}

// TestXavier_Bounds tests that initialization stays within the Glorot bound.
func TestXavier_Bounds(t *testing.T) {
	backend := autodiff.New(cpu.New())

	fanIn, fanOut := 10, 20
	w := nn.Xavier(fanIn, fanOut, tensor.Shape{fanOut, fanIn}, backend)

	bound := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	for i, v := range w.Data() {
		if v < -bound || v > bound {
			t.Errorf("weight[%d] = %f outside [-%f, %f]", i, v, bound, bound)
		}
	}
}
