package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/hero-ml/hero/internal/tensor"
)

// CategoricalHead turns policy logits into a categorical action
// distribution.
//
// Log-probabilities and entropy are built from tensor operations so they
// stay differentiable with respect to the logits, including under
// create-graph backward passes. The log-softmax uses the max-shift trick;
// the row maximum is a shift constant, so treating it as non-differentiable
// is exact.
type CategoricalHead[B tensor.Backend] struct {
	numActions int
	backend    B
}

// NewCategoricalHead creates a head over numActions discrete actions.
func NewCategoricalHead[B tensor.Backend](numActions int, backend B) *CategoricalHead[B] {
	if numActions < 2 {
		panic(fmt.Sprintf("CategoricalHead: need at least 2 actions, got %d", numActions))
	}
	return &CategoricalHead[B]{numActions: numActions, backend: backend}
}

// logSoftmax computes log p = logits - logsumexp(logits) row-wise.
func (h *CategoricalHead[B]) logSoftmax(logits *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	m := logits.MaxDim(1, true)                          // [batch, 1]
	lse := logits.Sub(m).Exp().SumDim(1, true).Log().Add(m) // [batch, 1]
	return logits.Sub(lse)
}

// LogProb returns the log-probability of each action under the logits.
//
// logits: [batch, numActions], actions: [batch] or [batch, 1] holding
// integral values in [0, numActions). Returns [batch].
func (h *CategoricalHead[B]) LogProb(logits, actions *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	batch := logits.Shape()[0]
	if logits.Shape()[1] != h.numActions {
		return nil, fmt.Errorf("categorical: logits have %d columns, head has %d actions", logits.Shape()[1], h.numActions)
	}
	oneHot, err := h.oneHot(actions, batch)
	if err != nil {
		return nil, err
	}
	logp := h.logSoftmax(logits)
	return logp.Mul(oneHot).SumDim(1, false), nil
}

// Entropy returns the entropy of the distribution per batch row.
//
// logits: [batch, numActions]. Returns [batch].
func (h *CategoricalHead[B]) Entropy(logits *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	logp := h.logSoftmax(logits)
	p := logp.Exp()
	return p.Mul(logp).SumDim(1, false).Neg()
}

// Sample draws one action per batch row. Sampling works on raw
// probabilities and records nothing; callers typically stop the tape
// around rollouts.
func (h *CategoricalHead[B]) Sample(logits *tensor.Tensor[float32, B], rng *rand.Rand) []int {
	shape := logits.Shape()
	batch, n := shape[0], shape[1]
	data := logits.Data()

	actions := make([]int, batch)
	for i := 0; i < batch; i++ {
		row := data[i*n : (i+1)*n]

		maxLogit := row[0]
		for _, v := range row[1:] {
			if v > maxLogit {
				maxLogit = v
			}
		}
		var total float64
		probs := make([]float64, n)
		for j, v := range row {
			probs[j] = math.Exp(float64(v - maxLogit))
			total += probs[j]
		}

		u := rng.Float64() * total
		var cum float64
		actions[i] = n - 1
		for j, p := range probs {
			cum += p
			if u < cum {
				actions[i] = j
				break
			}
		}
	}
	return actions
}

// oneHot builds a constant [batch, numActions] indicator tensor from the
// action indices. The result carries no gradient history.
func (h *CategoricalHead[B]) oneHot(actions *tensor.Tensor[float32, B], batch int) (*tensor.Tensor[float32, B], error) {
	shape := actions.Shape()
	valid := (len(shape) == 1 && shape[0] == batch) ||
		(len(shape) == 2 && shape[0] == batch && shape[1] == 1)
	if !valid {
		return nil, fmt.Errorf("categorical: actions shape %v does not match batch size %d", shape, batch)
	}

	data := actions.Data()
	out := make([]float32, batch*h.numActions)
	for i, a := range data {
		idx := int(a)
		if float32(idx) != a || idx < 0 || idx >= h.numActions {
			return nil, fmt.Errorf("categorical: action %v at row %d is not a valid index in [0, %d)", a, i, h.numActions)
		}
		out[i*h.numActions+idx] = 1
	}
	return tensor.FromSlice(out, tensor.Shape{batch, h.numActions}, h.backend)
}
