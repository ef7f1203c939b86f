package fallback

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdfpages/constants"
	"github.com/joseph-ayodele/pdfpages/internal/diag"
)

// Resolver runs a capability's candidates in registered order until one
// succeeds. It holds no per-call state and is safe for concurrent use.
type Resolver struct {
	registry *Registry
	diag     *diag.Emitter
}

// NewResolver builds a resolver over reg. A nil emitter discards diagnostics.
func NewResolver(reg *Registry, emitter *diag.Emitter) *Resolver {
	if emitter == nil {
		emitter = diag.Nop()
	}
	return &Resolver{registry: reg, diag: emitter}
}

// Registry returns the registry the resolver reads from.
func (r *Resolver) Registry() *Registry { return r.registry }

// Diagnostics returns the emitter used for attempt messages.
func (r *Resolver) Diagnostics() *diag.Emitter { return r.diag }

// Resolve validates in against the capability contract, then tries each
// candidate once, in order, returning the first success. Later candidates
// are never invoked after a success.
//
// Errors: *InvalidInputError, *UnknownCapabilityError,
// *NoCandidatesConfiguredError, *AllCandidatesFailedError (Cancelled set when
// ctx ended the run). Cancelled is also set when ctx ends while the last
// candidate runs, even though every candidate was attempted, since that
// attempt was cut short.
func Resolve[In, Out any](ctx context.Context, r *Resolver, c Capability[In, Out], in In) (Result[Out], error) {
	res := Result[Out]{ID: uuid.New(), Capability: c.Name}
	em := r.diag.With("capability", c.Name, "resolution_id", res.ID.String())

	candidates, err := ListFor(r.registry, c)
	if err != nil {
		em.Emit(diag.Debug, "capability lookup failed", "error", err)
		return res, err
	}
	if c.Validate != nil {
		if verr := c.Validate(in); verr != nil {
			em.Emit(diag.Verbose, "input rejected", "error", verr)
			return res, &InvalidInputError{Capability: c.Name, Cause: verr}
		}
	}
	if len(candidates) == 0 {
		return res, &NoCandidatesConfiguredError{Capability: c.Name}
	}

	start := time.Now()
	for i, cand := range candidates {
		if cerr := ctx.Err(); cerr != nil {
			em.Emit(diag.Verbose, "resolution cancelled", "attempts", len(res.Attempts), "error", cerr)
			return res, &AllCandidatesFailedError{Capability: c.Name, Outcomes: res.Attempts, Cancelled: true, Cause: cerr}
		}

		em.Emit(diag.Debug, fmt.Sprintf("trying %s", cand.Name()),
			"candidate", cand.Name(), "attempt", i+1, "of", len(candidates))

		t0 := time.Now()
		val, runErr := runCandidate(ctx, cand, in)
		o := Outcome{Candidate: cand.Name(), Kind: classify(runErr), Err: runErr, Duration: time.Since(t0)}
		res.Attempts = append(res.Attempts, o)

		if runErr == nil {
			res.Candidate = cand.Name()
			res.Value = val
			res.Duration = time.Since(start)
			em.Emit(diag.Verbose2, fmt.Sprintf("%s succeeded", cand.Name()),
				"candidate", cand.Name(), "duration_ms", o.Duration.Milliseconds())
			return res, nil
		}
		em.Emit(diag.Debug, fmt.Sprintf("%s %s: %v", cand.Name(), describe(o.Kind), runErr),
			"candidate", cand.Name(), "duration_ms", o.Duration.Milliseconds())
	}

	res.Duration = time.Since(start)
	failed := &AllCandidatesFailedError{Capability: c.Name, Outcomes: res.Attempts}
	if cerr := ctx.Err(); cerr != nil {
		failed.Cancelled = true
		failed.Cause = cerr
	}
	em.Emit(diag.Verbose, failed.Error())
	return res, failed
}

// runCandidate converts a panic inside a candidate into an ordinary failure.
func runCandidate[In, Out any](ctx context.Context, cand Candidate[In, Out], in In) (out Out, err error) {
	defer func() {
		if p := recover(); p != nil {
			var zero Out
			out, err = zero, fmt.Errorf("candidate panicked: %v", p)
		}
	}()
	return cand.Run(ctx, in)
}

func describe(kind constants.OutcomeStatus) string {
	if kind == constants.OutcomeUnavailable {
		return "unavailable"
	}
	return "failed"
}
