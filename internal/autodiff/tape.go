package autodiff

import (
	"github.com/hero-ml/hero/internal/autodiff/ops"
	"github.com/hero-ml/hero/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic
// differentiation.
//
// Usage:
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	// ... perform operations ...
//	gradients := tape.Backward(loss, nil, backend, false)
type GradientTape struct {
	operations []ops.Operation // Recorded operations (in execution order)
	recording  bool            // Whether tape is currently recording
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 64),
		recording:  false,
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the tape.
// Only records if the tape is currently recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear resets the tape, removing all recorded operations.
// Recording state is preserved.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Backward computes gradients with respect to output by walking the tape
// in reverse.
//
// Algorithm:
//  1. Seed the output with outputGrad (ones if nil)
//  2. Walk operations in reverse order
//  3. For each operation whose output has a gradient, compute input
//     gradients via the chain rule
//  4. Accumulate gradients when the same tensor feeds multiple operations
//
// With createGraph true, recording stays enabled during the walk: the
// gradient computations are appended to the tape as new operations, so the
// returned gradients can be differentiated again by a later Backward.
// Only the operations present when Backward is called are walked.
//
// With createGraph false, recording is suspended for the duration of the
// walk. The tape is left in place either way; callers decide when to Clear.
//
// Returns a map from RawTensor to its accumulated gradient.
func (t *GradientTape) Backward(
	output, outputGrad *tensor.RawTensor,
	backend tensor.Backend,
	createGraph bool,
) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	if len(t.operations) == 0 {
		return grads
	}

	if !createGraph {
		wasRecording := t.recording
		t.recording = false
		defer func() {
			t.recording = wasRecording
		}()
	}

	if outputGrad == nil {
		outputGrad = onesLike(output)
	}
	grads[output] = outputGrad

	// Snapshot the length: with createGraph the walk itself appends
	// operations, and those must not be walked now.
	recorded := t.operations
	for i := len(recorded) - 1; i >= 0; i-- {
		op := recorded[i]
		outGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}

		inputGrads := op.Backward(outGrad, backend)
		inputs := op.Inputs()
		for j, input := range inputs {
			if j >= len(inputGrads) || inputGrads[j] == nil {
				continue
			}
			if existing, ok := grads[input]; ok {
				grads[input] = backend.Add(existing, inputGrads[j])
			} else {
				grads[input] = inputGrads[j]
			}
		}
	}

	return grads
}

// onesLike creates a gradient seed of ones matching t.
func onesLike(t *tensor.RawTensor) *tensor.RawTensor {
	seed, err := tensor.NewRaw(t.Shape(), t.DType(), t.Device())
	if err != nil {
		panic(err)
	}

	switch t.DType() {
	case tensor.Float32:
		data := seed.AsFloat32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Float64:
		data := seed.AsFloat64()
		for i := range data {
			data[i] = 1
		}
	}

	return seed
}
