package runner

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/joseph-ayodele/pdfpages/internal/fallback"
)

// Handler answers a fake command invocation.
type Handler func(args []string) (stdout, stderr []byte, err error)

// Fake implements Runner for testing. Commands without a handler behave as
// if the binary were missing from PATH.
type Fake struct {
	mu       sync.Mutex
	handlers map[string]Handler
	Calls    []string
}

// NewFake builds a fake runner with the given handlers keyed by binary name.
func NewFake(handlers map[string]Handler) *Fake {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	return &Fake{handlers: handlers}
}

func (f *Fake) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, strings.Join(append([]string{name}, args...), " "))
	h, ok := f.handlers[name]
	f.mu.Unlock()
	if !ok {
		return nil, nil, fallback.Unavailable(&exec.Error{Name: name, Err: exec.ErrNotFound})
	}
	return h(args)
}

// Called reports how many invocations of name were recorded.
func (f *Fake) Called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == name || strings.HasPrefix(c, name+" ") {
			n++
		}
	}
	return n
}
