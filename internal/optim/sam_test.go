package optim_test

import (
	"errors"
	"math"
	"testing"

	"github.com/hero-ml/hero/internal/backend/cpu"
	"github.com/hero-ml/hero/internal/nn"
	"github.com/hero-ml/hero/internal/optim"
)

func newSAM(t *testing.T, params []*nn.Parameter[cpuBackend], config optim.SAMConfig) *optim.SAM[cpuBackend] {
	t.Helper()
	base := optim.NewSGD(params, optim.SGDConfig{LR: 0.1})
	sam, err := optim.NewSAM(params, base, config)
	if err != nil {
		t.Fatalf("NewSAM: %v", err)
	}
	return sam
}

func TestSAM_FirstStepPerturbation(t *testing.T) {
	backend := cpu.New()
	p := makeParam(t, "w", []float32{1, 2}, backend)
	params := []*nn.Parameter[cpuBackend]{p}
	sam := newSAM(t, params, optim.SAMConfig{Rho: 0.5})

	grads := makeGrads(t, params, [][]float32{{3, 4}})
	snap, err := sam.FirstStep(grads)
	if err != nil {
		t.Fatalf("FirstStep: %v", err)
	}

	// ||g|| = 5, w += 0.5 * g / 5
	want := []float32{1.3, 2.4}
	for i, v := range p.Tensor().Data() {
		if math.Abs(float64(v-want[i])) > 1e-5 {
			t.Errorf("param[%d] = %f, want %f", i, v, want[i])
		}
	}

	// The snapshot keeps the pre-perturbation gradients.
	sg := snap.Get(p.Tensor().Raw())
	if sg == nil {
		t.Fatal("snapshot missing gradient")
	}
	for i, want := range []float32{3, 4} {
		if sg.AsFloat32()[i] != want {
			t.Errorf("snapshot grad[%d] = %f, want %f", i, sg.AsFloat32()[i], want)
		}
	}
}

func TestSAM_SecondStepRestoresThenSteps(t *testing.T) {
	backend := cpu.New()
	p := makeParam(t, "w", []float32{1, 2}, backend)
	params := []*nn.Parameter[cpuBackend]{p}
	sam := newSAM(t, params, optim.SAMConfig{Rho: 0.5})

	grads := makeGrads(t, params, [][]float32{{3, 4}})
	if _, err := sam.FirstStep(grads); err != nil {
		t.Fatalf("FirstStep: %v", err)
	}

	// Second gradients at the perturbed point.
	grads2 := makeGrads(t, params, [][]float32{{1, 1}})
	if err := sam.SecondStep(grads2); err != nil {
		t.Fatalf("SecondStep: %v", err)
	}

	// Base SGD at lr 0.1 from the restored point: w = [1, 2] - 0.1
	want := []float32{0.9, 1.9}
	for i, v := range p.Tensor().Data() {
		if math.Abs(float64(v-want[i])) > 1e-5 {
			t.Errorf("param[%d] = %f, want %f", i, v, want[i])
		}
	}
}

func TestSAM_RoundTripReversibility(t *testing.T) {
	backend := cpu.New()
	p := makeParam(t, "w", []float32{0.123, -4.56, 7.89}, backend)
	params := []*nn.Parameter[cpuBackend]{p}

	// Base with lr 0 isolates the restore: after the full round trip the
	// parameters must equal their starting values exactly.
	base := optim.NewSGD(params, optim.SGDConfig{LR: 0})
	base.SetLR(0)
	sam, err := optim.NewSAM(params, base, optim.SAMConfig{Rho: 0.3, Adaptive: true})
	if err != nil {
		t.Fatalf("NewSAM: %v", err)
	}

	before := append([]float32(nil), p.Tensor().Data()...)

	grads := makeGrads(t, params, [][]float32{{0.5, -1.5, 2.5}})
	if _, err := sam.FirstStep(grads); err != nil {
		t.Fatalf("FirstStep: %v", err)
	}
	if err := sam.SecondStep(grads); err != nil {
		t.Fatalf("SecondStep: %v", err)
	}

	for i, v := range p.Tensor().Data() {
		if v != before[i] {
			t.Errorf("param[%d] = %f, want exactly %f", i, v, before[i])
		}
	}
}

func TestSAM_ZeroRhoIdempotence(t *testing.T) {
	backend := cpu.New()
	p := makeParam(t, "w", []float32{1, -2}, backend)
	params := []*nn.Parameter[cpuBackend]{p}
	sam := newSAM(t, params, optim.SAMConfig{Rho: 0})

	grads := makeGrads(t, params, [][]float32{{3, 4}})
	if _, err := sam.FirstStep(grads); err != nil {
		t.Fatalf("FirstStep: %v", err)
	}

	// rho = 0: the perturbation is a no-op.
	if got := p.Tensor().Data(); got[0] != 1 || got[1] != -2 {
		t.Errorf("params = %v, want unchanged [1, -2]", got)
	}
}

func TestSAM_DegenerateNorm(t *testing.T) {
	backend := cpu.New()
	p := makeParam(t, "w", []float32{1, 2}, backend)
	params := []*nn.Parameter[cpuBackend]{p}
	sam := newSAM(t, params, optim.SAMConfig{Rho: 0.5})

	zero := makeGrads(t, params, [][]float32{{0, 0}})
	if _, err := sam.FirstStep(zero); !errors.Is(err, optim.ErrDegenerateGradNorm) {
		t.Errorf("zero norm: err = %v, want ErrDegenerateGradNorm", err)
	}
	if got := p.Tensor().Data(); got[0] != 1 || got[1] != 2 {
		t.Errorf("params mutated on degenerate norm: %v", got)
	}

	nan := makeGrads(t, params, [][]float32{{float32(math.NaN()), 1}})
	if _, err := sam.FirstStep(nan); !errors.Is(err, optim.ErrDegenerateGradNorm) {
		t.Errorf("NaN norm: err = %v, want ErrDegenerateGradNorm", err)
	}
}

func TestSAM_AdaptiveScalesByMagnitude(t *testing.T) {
	backend := cpu.New()
	p := makeParam(t, "w", []float32{10, 0}, backend)
	params := []*nn.Parameter[cpuBackend]{p}
	sam := newSAM(t, params, optim.SAMConfig{Rho: 0.5, Adaptive: true})

	grads := makeGrads(t, params, [][]float32{{1, 1}})
	if _, err := sam.FirstStep(grads); err != nil {
		t.Fatalf("FirstStep: %v", err)
	}

	data := p.Tensor().Data()
	// Zero-magnitude parameters receive no adaptive perturbation.
	if data[1] != 0 {
		t.Errorf("zero-magnitude param perturbed to %f", data[1])
	}
	// norm = |10*1| = 10, perturbation = 0.5/10 * |10| * 1 = 0.5
	if math.Abs(float64(data[0]-10.5)) > 1e-4 {
		t.Errorf("param[0] = %f, want 10.5", data[0])
	}
}

func TestSAM_AdaptiveUsesAbsoluteMagnitude(t *testing.T) {
	backend := cpu.New()
	p := makeParam(t, "w", []float32{-2}, backend)
	params := []*nn.Parameter[cpuBackend]{p}
	sam := newSAM(t, params, optim.SAMConfig{Rho: 0.5, Adaptive: true})

	grads := makeGrads(t, params, [][]float32{{1}})
	if _, err := sam.FirstStep(grads); err != nil {
		t.Fatalf("FirstStep: %v", err)
	}

	// norm = |-2*1| = 2, scale = 0.25, perturbation = 0.25 * |-2| * 1 = 0.5.
	// A squared-magnitude perturbation would land at -1 instead.
	got := p.Tensor().Data()[0]
	if math.Abs(float64(got-(-1.5))) > 1e-5 {
		t.Errorf("param = %f, want -1.5", got)
	}
}

func TestSAM_SecondStepWithoutFirst(t *testing.T) {
	backend := cpu.New()
	p := makeParam(t, "w", []float32{1}, backend)
	params := []*nn.Parameter[cpuBackend]{p}
	sam := newSAM(t, params, optim.SAMConfig{Rho: 0.1})

	if err := sam.SecondStep(makeGrads(t, params, [][]float32{{1}})); err == nil {
		t.Error("SecondStep without FirstStep should fail")
	}
}

func TestSAM_Restore(t *testing.T) {
	backend := cpu.New()
	p := makeParam(t, "w", []float32{1, 2}, backend)
	params := []*nn.Parameter[cpuBackend]{p}
	sam := newSAM(t, params, optim.SAMConfig{Rho: 1})

	grads := makeGrads(t, params, [][]float32{{3, 4}})
	if _, err := sam.FirstStep(grads); err != nil {
		t.Fatalf("FirstStep: %v", err)
	}

	sam.Restore()
	if got := p.Tensor().Data(); got[0] != 1 || got[1] != 2 {
		t.Errorf("params = %v, want restored [1, 2]", got)
	}
}

func TestNewSAM_Validation(t *testing.T) {
	backend := cpu.New()
	p := makeParam(t, "w", []float32{1}, backend)
	params := []*nn.Parameter[cpuBackend]{p}
	base := optim.NewSGD(params, optim.SGDConfig{LR: 0.1})

	if _, err := optim.NewSAM(params, base, optim.SAMConfig{Rho: -0.1}); err == nil {
		t.Error("negative rho should be rejected")
	}
	if _, err := optim.NewSAM[cpuBackend](params, nil, optim.SAMConfig{Rho: 0.1}); err == nil {
		t.Error("nil base optimizer should be rejected")
	}
}

func TestSnapshotGradients_Independence(t *testing.T) {
	backend := cpu.New()
	p := makeParam(t, "w", []float32{1}, backend)
	params := []*nn.Parameter[cpuBackend]{p}

	grads := makeGrads(t, params, [][]float32{{7}})
	snap := optim.SnapshotGradients(params, grads)

	// Mutating the source gradient must not affect the snapshot.
	grads[p.Tensor().Raw()].AsFloat32()[0] = -1

	if got := snap.Get(p.Tensor().Raw()).AsFloat32()[0]; got != 7 {
		t.Errorf("snapshot grad = %f, want 7", got)
	}
	if snap.Len() != 1 {
		t.Errorf("snapshot Len() = %d, want 1", snap.Len())
	}
}
