package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/hero-ml/hero/internal/tensor"
)

// ActorCritic holds separate policy and value networks over a shared
// observation space.
//
// The policy network maps observations to distribution parameters (logits
// for Discrete spaces, means for Box spaces); the value network maps
// observations to a scalar state-value estimate. Both are Tanh MLPs.
//
// Parameter names are fully qualified ("policy.0.weight", "value.2.bias",
// "log_std"), which downstream regularizers use to tell weights from
// biases.
type ActorCritic[B tensor.Backend] struct {
	obsDim  int
	space   Space
	backend B

	policy *Sequential[B]
	value  *Sequential[B]

	categorical *CategoricalHead[B]
	gaussian    *GaussianHead[B]

	params []*Parameter[B]
}

// NewActorCritic builds policy and value networks for the given
// observation dimension and action space.
//
// hiddenSizes defaults to [64, 64] when nil. Only Discrete and Box
// spaces are supported; any other space is an error.
func NewActorCritic[B tensor.Backend](obsDim int, space Space, hiddenSizes []int, backend B) (*ActorCritic[B], error) {
	if obsDim < 1 {
		return nil, fmt.Errorf("actor-critic: observation dimension must be positive, got %d", obsDim)
	}
	if hiddenSizes == nil {
		hiddenSizes = []int{64, 64}
	}
	for _, h := range hiddenSizes {
		if h < 1 {
			return nil, fmt.Errorf("actor-critic: hidden sizes must be positive, got %v", hiddenSizes)
		}
	}

	ac := &ActorCritic[B]{
		obsDim:  obsDim,
		space:   space,
		backend: backend,
	}

	switch s := space.(type) {
	case Discrete:
		if s.N < 2 {
			return nil, fmt.Errorf("actor-critic: Discrete space needs at least 2 actions, got %d", s.N)
		}
		ac.categorical = NewCategoricalHead[B](s.N, backend)
	case Box:
		if s.Dim < 1 {
			return nil, fmt.Errorf("actor-critic: Box space needs at least 1 dimension, got %d", s.Dim)
		}
		ac.gaussian = NewGaussianHead[B](s.Dim, backend)
	default:
		return nil, fmt.Errorf("actor-critic: unsupported action space %v", space)
	}

	ac.policy = mlp(obsDim, hiddenSizes, space.ActionDim(), backend)
	ac.value = mlp(obsDim, hiddenSizes, 1, backend)
	ac.policy.qualifyNames("policy")
	ac.value.qualifyNames("value")

	ac.params = append(ac.params, ac.policy.Parameters()...)
	if ac.gaussian != nil {
		ac.params = append(ac.params, ac.gaussian.Parameters()...)
	}
	ac.params = append(ac.params, ac.value.Parameters()...)

	return ac, nil
}

// mlp stacks Linear and Tanh modules ending in a linear output layer.
func mlp[B tensor.Backend](inDim int, hidden []int, outDim int, backend B) *Sequential[B] {
	seq := NewSequential[B]()
	prev := inDim
	for _, h := range hidden {
		seq.Add(NewLinear(prev, h, backend))
		seq.Add(NewTanh[B]())
		prev = h
	}
	seq.Add(NewLinear(prev, outDim, backend))
	return seq
}

// Space returns the action space this policy was built for.
func (ac *ActorCritic[B]) Space() Space {
	return ac.space
}

// ObsDim returns the observation dimension.
func (ac *ActorCritic[B]) ObsDim() int {
	return ac.obsDim
}

// EvaluateActions computes state values, action log-probabilities and
// distribution entropy for a batch.
//
// obs: [batch, obsDim]. actions: [batch] or [batch, 1] of action indices
// for Discrete spaces, [batch, dim] for Box spaces.
//
// Returns values [batch], logProb [batch] and entropy [batch]. All three
// are differentiable with respect to the network parameters.
func (ac *ActorCritic[B]) EvaluateActions(obs, actions *tensor.Tensor[float32, B]) (values, logProb, entropy *tensor.Tensor[float32, B], err error) {
	obsShape := obs.Shape()
	if len(obsShape) != 2 || obsShape[1] != ac.obsDim {
		return nil, nil, nil, fmt.Errorf("actor-critic: expected observations [batch, %d], got %v", ac.obsDim, obsShape)
	}
	batch := obsShape[0]

	values = ac.value.Forward(obs).Reshape(batch)

	out := ac.policy.Forward(obs)
	switch {
	case ac.categorical != nil:
		logProb, err = ac.categorical.LogProb(out, actions)
		if err != nil {
			return nil, nil, nil, err
		}
		entropy = ac.categorical.Entropy(out)
	default:
		logProb, err = ac.gaussian.LogProb(out, actions)
		if err != nil {
			return nil, nil, nil, err
		}
		entropy = ac.gaussian.Entropy(batch)
	}

	return values, logProb, entropy, nil
}

// Act samples actions for a batch of observations and returns them with
// the value estimates and sample log-probabilities.
//
// Sampling happens on raw data; callers doing rollouts should stop the
// tape first so the forward passes are not recorded.
func (ac *ActorCritic[B]) Act(obs *tensor.Tensor[float32, B], rng *rand.Rand) (actions, values, logProb *tensor.Tensor[float32, B], err error) {
	obsShape := obs.Shape()
	if len(obsShape) != 2 || obsShape[1] != ac.obsDim {
		return nil, nil, nil, fmt.Errorf("actor-critic: expected observations [batch, %d], got %v", ac.obsDim, obsShape)
	}
	batch := obsShape[0]

	out := ac.policy.Forward(obs)
	if ac.categorical != nil {
		sampled := ac.categorical.Sample(out, rng)
		data := make([]float32, batch)
		for i, a := range sampled {
			data[i] = float32(a)
		}
		actions, err = tensor.FromSlice(data, tensor.Shape{batch}, ac.backend)
	} else {
		sampled := ac.gaussian.Sample(out, rng)
		actions, err = tensor.FromSlice(sampled, tensor.Shape{batch, ac.space.ActionDim()}, ac.backend)
	}
	if err != nil {
		return nil, nil, nil, err
	}

	values, logProb, _, err = ac.EvaluateActions(obs, actions)
	if err != nil {
		return nil, nil, nil, err
	}
	return actions, values, logProb, nil
}

// StdMean returns the mean action standard deviation for Box spaces.
// The second result is false for Discrete spaces, where no standard
// deviation exists.
func (ac *ActorCritic[B]) StdMean() (float64, bool) {
	if ac.gaussian == nil {
		return 0, false
	}
	data := ac.gaussian.LogStd().Tensor().Data()
	var sum float64
	for _, v := range data {
		sum += math.Exp(float64(v))
	}
	return sum / float64(len(data)), true
}

// Parameters returns all trainable parameters in a stable order: policy
// network, then log_std for Box spaces, then value network.
func (ac *ActorCritic[B]) Parameters() []*Parameter[B] {
	return ac.params
}

// ZeroGrad clears all parameter gradients.
func (ac *ActorCritic[B]) ZeroGrad() {
	for _, p := range ac.params {
		p.ZeroGrad()
	}
}

// StateDict returns all parameters keyed by their qualified names.
func (ac *ActorCritic[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor, len(ac.params))
	for _, p := range ac.params {
		stateDict[p.Name()] = p.Tensor().Raw()
	}
	return stateDict
}

// LoadStateDict copies parameter data from a state dictionary produced
// by StateDict. Missing or mismatched entries are errors.
func (ac *ActorCritic[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for _, p := range ac.params {
		raw, ok := stateDict[p.Name()]
		if !ok {
			return fmt.Errorf("actor-critic: missing %s in state dict", p.Name())
		}
		if err := p.Tensor().Raw().CopyFrom(raw); err != nil {
			return fmt.Errorf("actor-critic: load %s: %w", p.Name(), err)
		}
	}
	return nil
}
