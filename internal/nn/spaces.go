package nn

import "fmt"

// Space describes the action space of an environment.
//
// Two spaces are supported: Discrete for categorical actions and Box for
// continuous actions. Constructing a policy over any other Space
// implementation returns an error.
type Space interface {
	// ActionDim returns the width of the policy output layer.
	ActionDim() int
	fmt.Stringer
}

// Discrete is a space of N categorical actions {0, 1, ..., N-1}.
type Discrete struct {
	N int
}

// ActionDim returns N, one logit per action.
func (d Discrete) ActionDim() int { return d.N }

func (d Discrete) String() string { return fmt.Sprintf("Discrete(%d)", d.N) }

// Box is a continuous space of the given dimensionality.
type Box struct {
	Dim int
}

// ActionDim returns the number of action components.
func (b Box) ActionDim() int { return b.Dim }

func (b Box) String() string { return fmt.Sprintf("Box(%d)", b.Dim) }
