package fallback

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds. Every typed error below unwraps to one of these so callers
// can branch with errors.Is without caring about the concrete type.
var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrUnknownCapability      = errors.New("unknown capability")
	ErrDuplicateCandidate     = errors.New("duplicate candidate")
	ErrNoCandidates           = errors.New("no candidates configured")
	ErrAllCandidatesFailed    = errors.New("all candidates failed")
	ErrRegistryFrozen         = errors.New("registry is frozen")
	ErrCapabilityTypeMismatch = errors.New("capability type mismatch")

	// ErrUnavailable is wrapped by candidates whose backend is missing
	// (binary not on PATH, library not compiled in). The resolver records
	// such attempts as OutcomeUnavailable rather than OutcomeFailed.
	ErrUnavailable = errors.New("backend unavailable")
)

// Unavailable wraps err so that errors.Is(err, ErrUnavailable) holds.
func Unavailable(err error) error {
	if err == nil {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// InvalidInputError is returned before any candidate runs when the input
// violates the capability's contract.
type InvalidInputError struct {
	Capability string
	Cause      error
}

func (e *InvalidInputError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: invalid input", e.Capability)
	}
	return fmt.Sprintf("%s: invalid input: %v", e.Capability, e.Cause)
}

func (e *InvalidInputError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrInvalidInput}
	}
	return []error{ErrInvalidInput, e.Cause}
}

// UnknownCapabilityError means nothing was ever declared under the name.
type UnknownCapabilityError struct {
	Capability string
}

func (e *UnknownCapabilityError) Error() string {
	return fmt.Sprintf("unknown capability %q", e.Capability)
}

func (e *UnknownCapabilityError) Unwrap() error { return ErrUnknownCapability }

// DuplicateCandidateError is returned by Register when the capability
// already holds a candidate with the same name.
type DuplicateCandidateError struct {
	Capability string
	Candidate  string
}

func (e *DuplicateCandidateError) Error() string {
	return fmt.Sprintf("candidate %q already registered for capability %q", e.Candidate, e.Capability)
}

func (e *DuplicateCandidateError) Unwrap() error { return ErrDuplicateCandidate }

// NoCandidatesConfiguredError is a configuration error: the capability was
// declared but its candidate list is empty. It is never produced by a run
// whose candidates all failed.
type NoCandidatesConfiguredError struct {
	Capability string
}

func (e *NoCandidatesConfiguredError) Error() string {
	return fmt.Sprintf("capability %q has no candidates configured", e.Capability)
}

func (e *NoCandidatesConfiguredError) Unwrap() error { return ErrNoCandidates }

// AllCandidatesFailedError carries one Outcome per attempted candidate in
// attempt order. When Cancelled is set the context ended the resolution
// before the list was exhausted and Cause holds the context error.
type AllCandidatesFailedError struct {
	Capability string
	Outcomes   []Outcome
	Cancelled  bool
	Cause      error
}

// Error is a one-line summary suitable for end users. Use Detail for the
// per-candidate breakdown.
func (e *AllCandidatesFailedError) Error() string {
	names := make([]string, 0, len(e.Outcomes))
	for _, o := range e.Outcomes {
		names = append(names, o.Candidate)
	}
	if e.Cancelled {
		return fmt.Sprintf("%s: cancelled after %d attempt(s) [%s]: %v",
			e.Capability, len(e.Outcomes), strings.Join(names, ", "), e.Cause)
	}
	return fmt.Sprintf("%s: all %d candidate(s) failed [%s]",
		e.Capability, len(e.Outcomes), strings.Join(names, ", "))
}

// Detail renders one line per attempted candidate.
func (e *AllCandidatesFailedError) Detail() string {
	var b strings.Builder
	for i, o := range e.Outcomes {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "  %s: %s: %v", o.Candidate, o.Kind, o.Err)
	}
	return b.String()
}

// AnyOutcomeIs reports whether some attempt failed with an error matching target.
func (e *AllCandidatesFailedError) AnyOutcomeIs(target error) bool {
	for _, o := range e.Outcomes {
		if errors.Is(o.Err, target) {
			return true
		}
	}
	return false
}

func (e *AllCandidatesFailedError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrAllCandidatesFailed, e.Cause}
	}
	return []error{ErrAllCandidatesFailed}
}
