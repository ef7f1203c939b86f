package fallback

import "context"

// Capability names a unit of work with a fixed input and output type.
// Validate, when set, enforces the input contract before any candidate runs.
type Capability[In, Out any] struct {
	Name     string
	Validate func(In) error
}

// NewCapability returns a capability with the given input contract.
func NewCapability[In, Out any](name string, validate func(In) error) Capability[In, Out] {
	return Capability[In, Out]{Name: name, Validate: validate}
}

func (c Capability[In, Out]) String() string { return c.Name }

// Candidate is one interchangeable implementation of a Capability.
// Implementations must not keep mutable state between Run calls.
type Candidate[In, Out any] interface {
	Name() string
	Run(ctx context.Context, in In) (Out, error)
}

type funcCandidate[In, Out any] struct {
	name string
	fn   func(ctx context.Context, in In) (Out, error)
}

func (f funcCandidate[In, Out]) Name() string { return f.name }

func (f funcCandidate[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	return f.fn(ctx, in)
}

// Func adapts a plain function into a Candidate.
func Func[In, Out any](name string, fn func(ctx context.Context, in In) (Out, error)) Candidate[In, Out] {
	return funcCandidate[In, Out]{name: name, fn: fn}
}
