package a2c

import (
	"fmt"

	"github.com/hero-ml/hero/internal/autodiff"
	"github.com/hero-ml/hero/internal/optim"
	"github.com/hero-ml/hero/internal/tensor"
)

// A2C trains a policy with advantage actor-critic updates.
//
// The trainer owns the optimizer state: the SAM wrapper for the SAM and
// HERO strategies is created once at construction and reused across
// updates (its base SGD keeps momentum buffers), while the base strategy
// steps a long-lived RMSProp.
type A2C[B tensor.Backend] struct {
	policy   Policy[*autodiff.AutodiffBackend[B]]
	backend  *autodiff.AutodiffBackend[B]
	config   Config
	recorder Recorder

	base optim.Optimizer
	sam  *optim.SAM[*autodiff.AutodiffBackend[B]]

	nUpdates int
}

// Losses reports the loss terms of one update.
type Losses struct {
	Policy  float64
	Value   float64
	Entropy float64
	Total   float64
	// Hero is the alignment loss value; zero outside the HERO strategy.
	Hero float64
	// ExplainedVariance of the critic on this batch; NaN when undefined.
	ExplainedVariance float64
	// GradNorm is the joint norm of the stepped gradients. MaxGradNorm
	// clipping applies only in the base path.
	GradNorm float64
}

// stdReporter is implemented by policies with a meaningful action
// standard deviation (Gaussian heads).
type stdReporter interface {
	StdMean() (float64, bool)
}

// New creates an A2C trainer.
//
// recorder may be nil, which discards metrics.
func New[B tensor.Backend](
	policy Policy[*autodiff.AutodiffBackend[B]],
	backend *autodiff.AutodiffBackend[B],
	config Config,
	recorder Recorder,
) (*A2C[B], error) {
	if policy == nil {
		return nil, fmt.Errorf("a2c: policy is required")
	}
	config = config.withDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}

	t := &A2C[B]{
		policy:   policy,
		backend:  backend,
		config:   config,
		recorder: recorder,
	}

	params := policy.Parameters()
	switch s := config.Strategy.(type) {
	case BaseStrategy:
		t.base = optim.NewRMSProp(params, optim.RMSPropConfig{LR: config.LR})
	case SAMStrategy:
		sgd := optim.NewSGD(params, optim.SGDConfig{
			LR:          config.LR,
			Momentum:    config.Momentum,
			WeightDecay: config.WeightDecay,
		})
		sam, err := optim.NewSAM(params, sgd, optim.SAMConfig{Rho: s.Rho, Adaptive: s.Adaptive})
		if err != nil {
			return nil, err
		}
		t.sam = sam
	case HeroStrategy:
		sgd := optim.NewSGD(params, optim.SGDConfig{
			LR:          config.LR,
			Momentum:    config.Momentum,
			WeightDecay: config.WeightDecay,
		})
		sam, err := optim.NewSAM(params, sgd, optim.SAMConfig{Rho: s.Rho, Adaptive: s.Adaptive})
		if err != nil {
			return nil, err
		}
		t.sam = sam
	default:
		return nil, fmt.Errorf("a2c: unknown strategy %T", config.Strategy)
	}

	return t, nil
}

// NumUpdates returns the number of completed updates.
func (t *A2C[B]) NumUpdates() int {
	return t.nUpdates
}

// Train performs one update on the batch.
//
// On error the model parameters are left at their pre-update values;
// in particular a degenerate gradient norm under SAM or HERO aborts the
// update before any perturbation.
func (t *A2C[B]) Train(batch *Batch) (*Losses, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	lr := t.currentLR()
	t.optimizer().SetLR(lr)

	bt, err := liftBatch(batch, t.config.NormalizeAdvantage, t.backend)
	if err != nil {
		return nil, err
	}

	tape := t.backend.Tape()
	tape.Clear()
	tape.StartRecording()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	t.policy.ZeroGrad()

	terms, err := computeLosses(t.policy, bt, t.config)
	if err != nil {
		return nil, err
	}

	losses := &Losses{
		Policy:            float64(terms.policy.Item()),
		Value:             float64(terms.value.Item()),
		Entropy:           float64(terms.entropy.Item()),
		Total:             float64(terms.total.Item()),
		ExplainedVariance: ExplainedVariance(terms.values.Data(), bt.rawReturns),
	}

	switch s := t.config.Strategy.(type) {
	case BaseStrategy:
		err = t.stepBase(terms, losses)
	case SAMStrategy:
		err = t.stepSAM(bt, terms, losses)
	case HeroStrategy:
		err = t.stepHero(bt, terms, losses, s.Lambda)
	}
	if err != nil {
		return nil, err
	}

	t.nUpdates++
	t.record(losses, lr)
	return losses, nil
}

// stepBase is the plain A2C update: one backward pass, one RMSProp step.
func (t *A2C[B]) stepBase(terms *lossTerms[*autodiff.AutodiffBackend[B]], losses *Losses) error {
	grads := autodiff.Backward(terms.total, t.backend)
	losses.GradNorm = float64(t.clip(grads))
	t.base.Step(grads)
	return nil
}

// stepSAM performs the two-phase sharpness-aware update.
func (t *A2C[B]) stepSAM(bt *batchTensors[*autodiff.AutodiffBackend[B]], terms *lossTerms[*autodiff.AutodiffBackend[B]], losses *Losses) error {
	grads := autodiff.Backward(terms.total, t.backend)

	if _, err := t.sam.FirstStep(grads); err != nil {
		return err
	}

	// Second pass at the perturbed point.
	terms2, err := computeLosses(t.policy, bt, t.config)
	if err != nil {
		t.sam.Restore()
		return err
	}
	grads2 := autodiff.Backward(terms2.total, t.backend)

	// Norm clipping applies only in the base path; the norm is still
	// reported.
	losses.GradNorm = float64(optim.ClipGradNorm(t.policy.Parameters(), grads2, -1))
	return t.sam.SecondStep(grads2)
}

// stepHero performs the SAM update with the gradient-alignment term.
//
// The second-pass gradients are taken with create-graph so the
// alignment loss can be differentiated through them; its gradients are
// then added onto the snapshotted first-pass gradients before the base
// optimizer steps from the restored parameters.
func (t *A2C[B]) stepHero(bt *batchTensors[*autodiff.AutodiffBackend[B]], terms *lossTerms[*autodiff.AutodiffBackend[B]], losses *Losses, lambda float32) error {
	params := t.policy.Parameters()
	grads := autodiff.Backward(terms.total, t.backend)

	snap, err := t.sam.FirstStep(grads)
	if err != nil {
		return err
	}

	terms2, err := computeLosses(t.policy, bt, t.config)
	if err != nil {
		t.sam.Restore()
		return err
	}

	paramRaws := make([]*tensor.RawTensor, len(params))
	for i, p := range params {
		paramRaws[i] = p.Tensor().Raw()
	}
	live, err := autodiff.Grad(terms2.total, paramRaws, t.backend, autodiff.WithCreateGraph())
	if err != nil {
		t.sam.Restore()
		return err
	}

	hloss, err := heroLoss(params, snap, live, lambda, t.backend)
	if err != nil {
		t.sam.Restore()
		return err
	}

	var heroGrads map[*tensor.RawTensor]*tensor.RawTensor
	if hloss != nil {
		losses.Hero = float64(hloss.Item())
		heroGrads = autodiff.Backward(hloss, t.backend)
	} else {
		t.backend.Tape().Clear()
	}

	combined := combineGradients(params, snap, heroGrads)
	losses.GradNorm = float64(optim.ClipGradNorm(params, combined, -1))
	return t.sam.SecondStep(combined)
}

// clip applies gradient norm clipping per the config and returns the
// pre-clip norm.
func (t *A2C[B]) clip(grads map[*tensor.RawTensor]*tensor.RawTensor) float32 {
	return optim.ClipGradNorm(t.policy.Parameters(), grads, t.config.MaxGradNorm)
}

// lrOptimizer is the learning-rate surface shared by the base
// optimizers and the SAM wrapper.
type lrOptimizer interface {
	GetLR() float32
	SetLR(lr float32)
}

// optimizer returns whichever optimizer the strategy steps.
func (t *A2C[B]) optimizer() lrOptimizer {
	if t.sam != nil {
		return t.sam
	}
	return t.base
}

// currentLR evaluates the schedule, or falls back to the fixed rate.
func (t *A2C[B]) currentLR() float32 {
	if t.config.Schedule == nil {
		return t.config.LR
	}
	progress := 1.0
	if t.config.TotalUpdates > 0 {
		progress = 1 - float64(t.nUpdates)/float64(t.config.TotalUpdates)
		if progress < 0 {
			progress = 0
		}
	}
	return t.config.Schedule(progress)
}

// record emits the standard training metrics.
func (t *A2C[B]) record(losses *Losses, lr float32) {
	t.recorder.Record("train/policy_loss", losses.Policy)
	t.recorder.Record("train/value_loss", losses.Value)
	t.recorder.Record("train/entropy_loss", losses.Entropy)
	t.recorder.Record("train/explained_variance", losses.ExplainedVariance)
	t.recorder.Record("train/n_updates", float64(t.nUpdates))
	t.recorder.Record("train/learning_rate", float64(lr))

	if _, ok := t.config.Strategy.(HeroStrategy); ok {
		t.recorder.Record("train/hero_loss", losses.Hero)
	}
	if sr, ok := t.policy.(stdReporter); ok {
		if std, has := sr.StdMean(); has {
			t.recorder.Record("train/std", std)
		}
	}
}
