package fallback

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Registry holds, per capability, the ordered list of candidates. It is
// mutable until Freeze is called and read-only afterwards.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	caps   map[string]*capEntry
	frozen bool
}

type capEntry struct {
	typ        reflect.Type
	candidates []any
	names      []string
}

// RegisterOption configures a single Register call.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	position int
	explicit bool
}

// AtPosition inserts the candidate at index i instead of appending it.
// Indexes outside the current list are clamped to its bounds.
func AtPosition(i int) RegisterOption {
	return func(o *registerOptions) {
		o.position = i
		o.explicit = true
	}
}

// NewRegistry creates an empty, mutable registry.
func NewRegistry() *Registry {
	return &Registry{caps: make(map[string]*capEntry)}
}

// Freeze ends the registration phase. Later Declare/Register calls fail with
// ErrRegistryFrozen.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Capabilities returns declared capability names in declaration order.
func (r *Registry) Capabilities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// CandidateNames returns the candidate names of a capability in preference order.
func (r *Registry) CandidateNames(capability string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.caps[capability]
	if !ok {
		return nil, &UnknownCapabilityError{Capability: capability}
	}
	return slices.Clone(e.names), nil
}

// entry returns the capability entry, creating it when create is set.
// Callers hold r.mu for writing when create is true.
func (r *Registry) entry(name string, typ reflect.Type, create bool) (*capEntry, error) {
	e, ok := r.caps[name]
	if !ok {
		if !create {
			return nil, &UnknownCapabilityError{Capability: name}
		}
		e = &capEntry{typ: typ}
		r.caps[name] = e
		r.order = append(r.order, name)
		return e, nil
	}
	if e.typ != typ {
		return nil, fmt.Errorf("%w: %q declared as %v, used as %v", ErrCapabilityTypeMismatch, name, e.typ, typ)
	}
	return e, nil
}

func capType[In, Out any]() reflect.Type {
	return reflect.TypeFor[Capability[In, Out]]()
}

// Declare makes a capability known without adding candidates. Resolving a
// declared capability whose list stays empty fails with
// NoCandidatesConfiguredError rather than UnknownCapabilityError.
func Declare[In, Out any](r *Registry, c Capability[In, Out]) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("declare %q: %w", c.Name, ErrRegistryFrozen)
	}
	_, err := r.entry(c.Name, capType[In, Out](), true)
	return err
}

// Register adds a candidate to the capability's list. A candidate whose name
// is already present fails with DuplicateCandidateError and leaves the list
// untouched.
func Register[In, Out any](r *Registry, c Capability[In, Out], cand Candidate[In, Out], opts ...RegisterOption) error {
	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("register %q/%q: %w", c.Name, cand.Name(), ErrRegistryFrozen)
	}
	e, err := r.entry(c.Name, capType[In, Out](), true)
	if err != nil {
		return err
	}
	if slices.Contains(e.names, cand.Name()) {
		return &DuplicateCandidateError{Capability: c.Name, Candidate: cand.Name()}
	}

	pos := len(e.candidates)
	if o.explicit {
		pos = max(0, min(o.position, len(e.candidates)))
	}
	e.candidates = slices.Insert(e.candidates, pos, any(cand))
	e.names = slices.Insert(e.names, pos, cand.Name())
	return nil
}

// ListFor returns a copy of the capability's candidates in preference order.
// A declared capability with no candidates yields an empty list and no error.
func ListFor[In, Out any](r *Registry, c Capability[In, Out]) ([]Candidate[In, Out], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, err := r.entry(c.Name, capType[In, Out](), false)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate[In, Out], 0, len(e.candidates))
	for _, raw := range e.candidates {
		out = append(out, raw.(Candidate[In, Out]))
	}
	return out, nil
}
