package a2c

import (
	"fmt"

	"github.com/hero-ml/hero/internal/nn"
	"github.com/hero-ml/hero/internal/tensor"
)

// Policy is the model surface the trainer needs: evaluate a batch of
// actions and expose the trainable parameters. nn.ActorCritic satisfies
// it; tests substitute lighter fakes.
//
// EvaluateActions may return a nil entropy when the distribution has no
// analytic entropy; the trainer then falls back to the -log π estimate.
type Policy[B tensor.Backend] interface {
	EvaluateActions(obs, actions *tensor.Tensor[float32, B]) (values, logProb, entropy *tensor.Tensor[float32, B], err error)
	Parameters() []*nn.Parameter[B]
	ZeroGrad()
}

// batchTensors is a Batch lifted onto the training backend. Observations
// and actions are shared between the two forward passes of a SAM update.
type batchTensors[B tensor.Backend] struct {
	obs        *tensor.Tensor[float32, B]
	actions    *tensor.Tensor[float32, B]
	advantages *tensor.Tensor[float32, B]
	returns    *tensor.Tensor[float32, B]

	rawAdvantages []float32
	rawReturns    []float32
}

// liftBatch builds constant input tensors, normalizing advantages first
// when configured. Tensor construction records nothing on the tape.
func liftBatch[B tensor.Backend](b *Batch, normalize bool, backend B) (*batchTensors[B], error) {
	adv := b.Advantages
	if normalize {
		adv = normalizeAdvantages(adv)
	}

	obs, err := tensor.FromSlice(b.Observations, tensor.Shape{b.N, b.ObsDim}, backend)
	if err != nil {
		return nil, fmt.Errorf("a2c: lift observations: %w", err)
	}
	actions, err := tensor.FromSlice(b.Actions, tensor.Shape{b.N, b.ActDim}, backend)
	if err != nil {
		return nil, fmt.Errorf("a2c: lift actions: %w", err)
	}
	advT, err := tensor.FromSlice(adv, tensor.Shape{b.N}, backend)
	if err != nil {
		return nil, fmt.Errorf("a2c: lift advantages: %w", err)
	}
	retT, err := tensor.FromSlice(b.Returns, tensor.Shape{b.N}, backend)
	if err != nil {
		return nil, fmt.Errorf("a2c: lift returns: %w", err)
	}

	return &batchTensors[B]{
		obs:           obs,
		actions:       actions,
		advantages:    advT,
		returns:       retT,
		rawAdvantages: adv,
		rawReturns:    b.Returns,
	}, nil
}

// lossTerms holds the assembled objective of one forward pass.
type lossTerms[B tensor.Backend] struct {
	total   *tensor.Tensor[float32, B]
	policy  *tensor.Tensor[float32, B]
	value   *tensor.Tensor[float32, B]
	entropy *tensor.Tensor[float32, B]
	values  *tensor.Tensor[float32, B] // critic predictions, for diagnostics
}

// computeLosses runs one forward pass and assembles the A2C objective:
//
//	L = -E[A·log π(a|s)] + vf·E[(V(s) - R)²] + ent·L_entropy
//
// where L_entropy is -E[H] with the analytic entropy, or E[log π] when
// the policy provides none.
func computeLosses[B tensor.Backend](policy Policy[B], bt *batchTensors[B], cfg Config) (*lossTerms[B], error) {
	values, logProb, entropy, err := policy.EvaluateActions(bt.obs, bt.actions)
	if err != nil {
		return nil, fmt.Errorf("a2c: evaluate actions: %w", err)
	}

	policyLoss := bt.advantages.Mul(logProb).Mean().Neg()

	diff := values.Sub(bt.returns)
	valueLoss := diff.Mul(diff).Mean()

	var entropyLoss *tensor.Tensor[float32, B]
	if entropy != nil {
		entropyLoss = entropy.Mean().Neg()
	} else {
		entropyLoss = logProb.Mean()
	}

	total := policyLoss.
		Add(valueLoss.MulScalar(cfg.ValueCoef)).
		Add(entropyLoss.MulScalar(cfg.EntCoef))

	return &lossTerms[B]{
		total:   total,
		policy:  policyLoss,
		value:   valueLoss,
		entropy: entropyLoss,
		values:  values,
	}, nil
}
