package fallback

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdfpages/constants"
)

// Outcome records a single candidate attempt.
type Outcome struct {
	Candidate string
	Kind      constants.OutcomeStatus
	Err       error
	Duration  time.Duration
}

// Succeeded reports whether the attempt produced a value.
func (o Outcome) Succeeded() bool { return o.Kind == constants.OutcomeSucceeded }

func classify(err error) constants.OutcomeStatus {
	switch {
	case err == nil:
		return constants.OutcomeSucceeded
	case errors.Is(err, ErrUnavailable):
		return constants.OutcomeUnavailable
	default:
		return constants.OutcomeFailed
	}
}

// Result is the value of a successful resolution, tagged with the candidate
// that produced it. Attempts holds every outcome in order, the last one being
// the success.
type Result[Out any] struct {
	ID         uuid.UUID
	Capability string
	Candidate  string
	Value      Out
	Attempts   []Outcome
	Duration   time.Duration
}

// Failures returns the failed attempts that preceded the success.
func (r Result[Out]) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Attempts {
		if !o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}
