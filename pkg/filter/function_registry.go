package filter

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-fieldbind"
)

// Function represents a callable registered against evaluators.
type Function func(args ...any) (any, error)

// FunctionRegistry stores custom functions. Lookups ignore case; Names keeps
// the spelling used at registration.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]registeredFunction
}

type registeredFunction struct {
	name string
	fn   Function
}

func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]registeredFunction),
	}
}

// Register stores fn under name guarding against duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("filter: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("filter: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction)
	}
	key := strings.ToLower(name)
	if existing, exists := r.functions[key]; exists {
		return fmt.Errorf("filter: function %q already registered as %q", name, existing.name)
	}
	r.functions[key] = registeredFunction{name: name, fn: fn}
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]registeredFunction, len(r.functions)),
	}
	for key, entry := range r.functions {
		clone.functions[key] = entry
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("filter: function registry is nil")
	}
	r.mu.RLock()
	entry, ok := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("filter: function %q not registered", name)
	}
	return entry.fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for _, entry := range r.functions {
		names = append(names, entry.name)
	}
	sort.Strings(names)
	return names
}

// Builtins returns a registry with the string helpers most member filters
// need: prefixed(s, p), suffixed(s, p), includes(s, sub), lowercase(s) and
// label(name), the display label of a member name.
func Builtins() *FunctionRegistry {
	r := NewFunctionRegistry()
	_ = r.Register("prefixed", stringPredicate(strings.HasPrefix))
	_ = r.Register("suffixed", stringPredicate(strings.HasSuffix))
	_ = r.Register("includes", stringPredicate(strings.Contains))
	_ = r.Register("lowercase", stringFunction(strings.ToLower))
	_ = r.Register("label", stringFunction(fieldbind.DisplayLabel))
	return r
}

func stringPredicate(fn func(s, arg string) bool) Function {
	return func(args ...any) (any, error) {
		strs, err := stringArgs(args, 2)
		if err != nil {
			return nil, err
		}
		return fn(strs[0], strs[1]), nil
	}
}

func stringFunction(fn func(string) string) Function {
	return func(args ...any) (any, error) {
		strs, err := stringArgs(args, 1)
		if err != nil {
			return nil, err
		}
		return fn(strs[0]), nil
	}
}

func stringArgs(args []any, want int) ([]string, error) {
	if len(args) != want {
		return nil, fmt.Errorf("filter: expected %d arguments, got %d", want, len(args))
	}
	out := make([]string, want)
	for i, arg := range args {
		s, ok := arg.(string)
		if !ok {
			return nil, fmt.Errorf("filter: argument %d must be a string, got %T", i+1, arg)
		}
		out[i] = s
	}
	return out, nil
}
