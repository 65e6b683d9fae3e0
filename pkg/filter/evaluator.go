package filter

import "sync"

// Context carries the variables visible to one evaluation.
type Context struct {
	Vars map[string]any
	Args map[string]any
}

func (ctx Context) withDefaults() Context {
	if ctx.Vars == nil {
		ctx.Vars = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	return ctx
}

// Evaluator executes expressions against a Context.
type Evaluator interface {
	Evaluate(ctx Context, expression string) (any, error)
	Compile(expression string) (Program, error)
}

// Program is a compiled expression that can be run repeatedly.
type Program interface {
	Evaluate(ctx Context) (any, error)
}

// ProgramCache stores compiled programs keyed by expression text.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MemoryCache is a ProgramCache safe for concurrent use. Engines store their
// own program types, so one cache should serve one engine.
type MemoryCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{programs: map[string]any{}}
}

func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	program, ok := c.programs[key]
	return program, ok
}

func (c *MemoryCache) Set(key string, value any) {
	c.mu.Lock()
	c.programs[key] = value
	c.mu.Unlock()
}

// Len reports the number of cached programs.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}
