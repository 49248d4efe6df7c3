package a2c

import (
	"fmt"
	"strings"

	"github.com/hero-ml/hero/internal/nn"
	"github.com/hero-ml/hero/internal/optim"
	"github.com/hero-ml/hero/internal/tensor"
)

// alignmentEligible reports whether a parameter participates in the
// gradient-alignment loss. Bias and normalization parameters are
// excluded; aligning their curvature adds noise without sharpening the
// loss landscape that matters.
func alignmentEligible(name string) bool {
	return !strings.Contains(name, "bias") && !strings.Contains(name, "bn")
}

// heroLoss builds the curvature-alignment objective:
//
//	L_hero = λ · Σ_p mean((g_pre(p) - g_live(p))²)
//
// over alignment-eligible parameters. g_pre are the detached
// pre-perturbation gradients from the SAM snapshot; g_live are
// create-graph gradients at the perturbed point, so L_hero is itself
// differentiable with respect to the parameters.
//
// Parameters missing either gradient are skipped. A shape or dtype
// mismatch between the two gradients means the snapshot and the live
// pass disagree about the model and is a hard error.
//
// Returns nil when no parameter qualifies; the caller then falls back to
// the plain SAM combination.
func heroLoss[B tensor.Backend](
	params []*nn.Parameter[B],
	snap *optim.GradientSnapshot,
	live []*tensor.RawTensor,
	lambda float32,
	backend B,
) (*tensor.Tensor[float32, B], error) {
	if len(live) != len(params) {
		return nil, fmt.Errorf("a2c: hero loss: %d live gradients for %d parameters", len(live), len(params))
	}

	var total *tensor.Tensor[float32, B]
	for i, param := range params {
		if !alignmentEligible(param.Name()) {
			continue
		}

		pre := snap.Get(param.Tensor().Raw())
		liveGrad := live[i]
		if pre == nil || liveGrad == nil {
			continue
		}

		if !pre.Shape().Equal(liveGrad.Shape()) {
			return nil, fmt.Errorf("a2c: hero loss: gradient shape mismatch for %s: snapshot %v, live %v",
				param.Name(), pre.Shape(), liveGrad.Shape())
		}
		if pre.DType() != liveGrad.DType() {
			return nil, fmt.Errorf("a2c: hero loss: gradient dtype mismatch for %s: snapshot %v, live %v",
				param.Name(), pre.DType(), liveGrad.DType())
		}

		// The snapshot gradient enters as a constant; only the live
		// gradient carries history.
		preT := tensor.New[float32](pre, backend)
		liveT := tensor.New[float32](liveGrad, backend)

		diff := liveT.Sub(preT)
		mse := diff.Mul(diff).Mean()

		if total == nil {
			total = mse
		} else {
			total = total.Add(mse)
		}
	}

	if total == nil {
		return nil, nil
	}
	return total.MulScalar(lambda), nil
}

// combineGradients merges the alignment gradients into the snapshot:
// for every parameter with a snapshot gradient the result is
// g_pre + g_hero, or g_pre alone when the alignment loss did not reach
// it. The returned tensors are fresh copies, safe to clip and feed to
// the optimizer.
func combineGradients[B tensor.Backend](
	params []*nn.Parameter[B],
	snap *optim.GradientSnapshot,
	heroGrads map[*tensor.RawTensor]*tensor.RawTensor,
) map[*tensor.RawTensor]*tensor.RawTensor {
	combined := make(map[*tensor.RawTensor]*tensor.RawTensor, len(params))
	for _, param := range params {
		raw := param.Tensor().Raw()
		pre := snap.Get(raw)
		if pre == nil {
			continue
		}

		out := pre.Clone()
		if hg, ok := heroGrads[raw]; ok && hg != nil {
			dst := out.AsFloat32()
			src := hg.AsFloat32()
			for i := range dst {
				dst[i] += src[i]
			}
		}
		combined[raw] = out
	}
	return combined
}
