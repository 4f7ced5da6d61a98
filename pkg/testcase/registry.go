package testcase

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/mumoshu/fmharness/pkg/testcase/name"
)

type Registry struct {
	mu    sync.RWMutex
	cases map[string]Func
	keys  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		cases: map[string]Func{},
		keys:  map[string]string{},
	}
}

// Default holds the built-in test cases.
var Default = NewRegistry()

// Register adds fn under name. Two names that normalize to the same key conflict.
func (r *Registry) Register(n string, fn Func) error {
	if n == "" {
		return errors.New("test case name must not be empty")
	}
	if fn == nil {
		return errors.Errorf("test case %s has no steps builder", n)
	}

	key := name.Normalize(n)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.keys[key]; ok {
		return errors.Errorf("test case %s is already registered as %s", n, existing)
	}
	r.cases[n] = fn
	r.keys[key] = n

	return nil
}

func (r *Registry) MustRegister(n string, fn Func) {
	if err := r.Register(n, fn); err != nil {
		panic(err)
	}
}

// Lookup finds a test case by its exact name, then by its normalized form.
// It returns the registered name along with the case.
func (r *Registry) Lookup(n string) (string, Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if fn, ok := r.cases[n]; ok {
		return n, fn, true
	}
	registered, ok := r.keys[name.Normalize(n)]
	if !ok {
		return "", nil, false
	}
	return registered, r.cases[registered], true
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.cases))
	for n := range r.cases {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
