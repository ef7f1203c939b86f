package fallback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var countPages = NewCapability[string, int]("count-pages", nil)

func constCandidate(name string, v int) Candidate[string, int] {
	return Func(name, func(context.Context, string) (int, error) { return v, nil })
}

func names[In, Out any](cs []Candidate[In, Out]) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name())
	}
	return out
}

func TestRegistry_RegisterKeepsOrder(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, Register(reg, countPages, constCandidate("a", 1)))
	require.NoError(t, Register(reg, countPages, constCandidate("b", 2)))
	require.NoError(t, Register(reg, countPages, constCandidate("c", 3)))

	got, err := ListFor(reg, countPages)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names(got))
}

func TestRegistry_AtPosition(t *testing.T) {
	tests := []struct {
		name string
		pos  int
		want []string
	}{
		{name: "front", pos: 0, want: []string{"x", "a", "b"}},
		{name: "middle", pos: 1, want: []string{"a", "x", "b"}},
		{name: "end", pos: 2, want: []string{"a", "b", "x"}},
		{name: "negative clamps to front", pos: -5, want: []string{"x", "a", "b"}},
		{name: "past end clamps to end", pos: 99, want: []string{"a", "b", "x"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg := NewRegistry()
			require.NoError(t, Register(reg, countPages, constCandidate("a", 1)))
			require.NoError(t, Register(reg, countPages, constCandidate("b", 2)))
			require.NoError(t, Register(reg, countPages, constCandidate("x", 9), AtPosition(tc.pos)))

			got, err := ListFor(reg, countPages)
			require.NoError(t, err)
			assert.Equal(t, tc.want, names(got))
		})
	}
}

func TestRegistry_DuplicateLeavesListUnchanged(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, Register(reg, countPages, constCandidate("a", 1)))
	require.NoError(t, Register(reg, countPages, constCandidate("b", 2)))

	err := Register(reg, countPages, constCandidate("a", 42), AtPosition(0))
	var dup *DuplicateCandidateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.Candidate)
	assert.Equal(t, "count-pages", dup.Capability)
	assert.ErrorIs(t, err, ErrDuplicateCandidate)

	got, err := ListFor(reg, countPages)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(got))
}

func TestRegistry_SameNameDifferentCapability(t *testing.T) {
	reg := NewRegistry()
	other := NewCapability[string, int]("other", nil)
	require.NoError(t, Register(reg, countPages, constCandidate("a", 1)))
	assert.NoError(t, Register(reg, other, constCandidate("a", 1)))
}

func TestRegistry_ListForUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := ListFor(reg, countPages)
	var unknown *UnknownCapabilityError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "count-pages", unknown.Capability)
}

func TestRegistry_ListForReturnsCopy(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, Register(reg, countPages, constCandidate("a", 1)))

	got, err := ListFor(reg, countPages)
	require.NoError(t, err)
	got[0] = constCandidate("mutated", 0)

	again, err := ListFor(reg, countPages)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names(again))
}

func TestRegistry_DeclareEmpty(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, Declare(reg, countPages))

	got, err := ListFor(reg, countPages)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, []string{"count-pages"}, reg.Capabilities())
}

func TestRegistry_TypeMismatch(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, Declare(reg, countPages))

	asString := NewCapability[string, string]("count-pages", nil)
	err := Register(reg, asString, Func("s", func(context.Context, string) (string, error) { return "", nil }))
	assert.ErrorIs(t, err, ErrCapabilityTypeMismatch)

	_, err = ListFor(reg, asString)
	assert.ErrorIs(t, err, ErrCapabilityTypeMismatch)
}

func TestRegistry_Freeze(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, Register(reg, countPages, constCandidate("a", 1)))
	reg.Freeze()
	assert.True(t, reg.Frozen())

	assert.ErrorIs(t, Register(reg, countPages, constCandidate("b", 2)), ErrRegistryFrozen)
	assert.ErrorIs(t, Declare(reg, NewCapability[int, int]("late", nil)), ErrRegistryFrozen)

	got, err := reg.CandidateNames("count-pages")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	reg := NewRegistry()
	const n = 64

	var wg sync.WaitGroup
	errs := make(chan error, n*2)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- Register(reg, countPages, constCandidate(fmt.Sprintf("c%d", i), i))
			// every name is registered twice; exactly one of each pair wins
			errs <- Register(reg, countPages, constCandidate(fmt.Sprintf("c%d", i), i))
		}(i)
	}
	wg.Wait()
	close(errs)

	var dups int
	for err := range errs {
		if err != nil {
			require.True(t, errors.Is(err, ErrDuplicateCandidate), "unexpected error: %v", err)
			dups++
		}
	}
	assert.Equal(t, n, dups)

	got, err := ListFor(reg, countPages)
	require.NoError(t, err)
	assert.Len(t, got, n)
}
