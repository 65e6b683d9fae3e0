package filter

import (
	"fmt"
	"time"

	"github.com/goliatone/go-fieldbind"
)

type config struct {
	evaluator Evaluator
	cache     ProgramCache
	registry  *FunctionRegistry
	logger    EvaluatorLogger
	args      map[string]any
}

// Option customises Compile.
type Option func(*config)

// WithEvaluator selects the engine. A nil evaluator, such as NewJSEvaluator
// without the js_eval tag, keeps the expr default.
func WithEvaluator(evaluator Evaluator) Option {
	return func(cfg *config) {
		if evaluator != nil {
			cfg.evaluator = evaluator
		}
	}
}

// WithProgramCache is passed to the default expr evaluator. Combining it with
// WithEvaluator fails; configure the cache on the evaluator instead.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *config) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry is passed to the default expr evaluator. Combining it
// with WithEvaluator fails; configure the registry on the evaluator instead.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.registry = registry.Clone()
		}
	}
}

// WithEvaluatorLogger receives one event per member evaluated.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.logger = noopEvaluatorLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithArgs binds the "args" variable.
func WithArgs(args map[string]any) Option {
	return func(cfg *config) {
		cfg.args = args
	}
}

// Compile turns expression into a member filter. Compilation errors are
// returned; at evaluation time an error or a non bool result rejects the
// member and is reported to the evaluator logger.
//
// WithProgramCache and WithFunctionRegistry configure the default expr
// evaluator. Given together with WithEvaluator, Compile returns
// ErrEvaluatorOptions.
func Compile(expression string, opts ...Option) (fieldbind.MemberFilter, error) {
	if expression == "" {
		return nil, ErrEmptyExpression
	}
	cfg := config{logger: noopEvaluatorLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	evaluator := cfg.evaluator
	if evaluator != nil && (cfg.cache != nil || cfg.registry != nil) {
		return nil, ErrEvaluatorOptions
	}
	if evaluator == nil {
		var exprOpts []ExprEvaluatorOption
		if cfg.cache != nil {
			exprOpts = append(exprOpts, ExprWithProgramCache(cfg.cache))
		}
		if cfg.registry != nil {
			exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.registry))
		}
		evaluator = NewExprEvaluator(exprOpts...)
	}
	engine := EngineName(evaluator)

	program, err := evaluator.Compile(expression)
	if err != nil {
		return nil, wrapEvaluationError(engine, expression, "", err)
	}

	return func(d fieldbind.MemberDescriptor) bool {
		ctx := Context{Vars: Environment(d), Args: cfg.args}
		start := time.Now()
		value, err := program.Evaluate(ctx)
		result, ok := value.(bool)
		if err == nil && !ok {
			err = fmt.Errorf("%w: got %T", ErrNotBoolean, value)
		}
		err = wrapEvaluationError(engine, expression, d.Name, err)
		cfg.logger.LogEvaluation(EvaluatorLogEvent{
			Engine:   engine,
			Expr:     expression,
			Member:   d.Name,
			Result:   result,
			Duration: time.Since(start),
			Err:      err,
		})
		return err == nil && result
	}, nil
}

// MustCompile is Compile that panics on error, for filters declared as
// package variables.
func MustCompile(expression string, opts ...Option) fieldbind.MemberFilter {
	f, err := Compile(expression, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// EngineName reports "expr", "cel", "js" or "custom".
func EngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(interface{ engineName() string }); ok {
		return named.engineName()
	}
	return "custom"
}
