package filter

import (
	"slices"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry declares every registry function with one and two
// dyn arguments.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Member variables
// are declared as dyn; additional context variables are declared on demand.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx Context, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", ErrEmptyExpression)
	}
	ctx = ctx.withDefaults()
	program, err := e.loadOrCompile(expression, extraVariables(ctx.Vars))
	if err != nil {
		return nil, err
	}
	return e.run(program, ctx, expression)
}

func (e *celEvaluator) Compile(expression string) (Program, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", ErrEmptyExpression)
	}
	program, err := e.loadOrCompile(expression, nil)
	if err != nil {
		return nil, err
	}
	return &celCompiledProgram{
		evaluator:  e,
		program:    program,
		expression: expression,
	}, nil
}

func (e *celEvaluator) loadOrCompile(expression string, extra []string) (*celProgram, error) {
	cacheKey := expression
	if len(extra) > 0 {
		cacheKey = expression + "\x00" + strings.Join(extra, ",")
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(cacheKey); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(extra)
	if err != nil {
		return nil, wrapEvaluatorError("cel", err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError("cel", expression, "", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, "", err)
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if e.cache != nil {
		e.cache.Set(cacheKey, bundle)
	}
	return bundle, nil
}

func (e *celEvaluator) buildEnv(extra []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("args", celgo.MapType(celgo.StringType, celgo.DynType)),
	}
	for _, name := range Variables {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	for _, name := range extra {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	for _, name := range e.registry.Names() {
		opts = append(opts, celgo.Function(name,
			celgo.Overload("filter_"+name+"_1",
				[]*celgo.Type{celgo.DynType},
				celgo.DynType,
				celgo.UnaryBinding(func(arg ref.Val) ref.Val {
					return e.call(name, arg)
				}),
			),
			celgo.Overload("filter_"+name+"_2",
				[]*celgo.Type{celgo.DynType, celgo.DynType},
				celgo.DynType,
				celgo.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					return e.call(name, lhs, rhs)
				}),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) call(name string, values ...ref.Val) ref.Val {
	args := make([]any, 0, len(values))
	for _, val := range values {
		args = append(args, val.Value())
	}
	result, err := e.registry.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

func (e *celEvaluator) run(program *celProgram, ctx Context, expression string) (any, error) {
	activation := make(map[string]any, len(ctx.Vars)+1)
	for key, value := range ctx.Vars {
		activation[key] = value
	}
	activation["args"] = ctx.Args
	out, _, err := program.program.Eval(activation)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, memberName(ctx), err)
	}
	return out.Value(), nil
}

type celCompiledProgram struct {
	evaluator  *celEvaluator
	program    *celProgram
	expression string
}

func (p *celCompiledProgram) Evaluate(ctx Context) (any, error) {
	ctx = ctx.withDefaults()
	if extra := extraVariables(ctx.Vars); len(extra) > 0 {
		return p.evaluator.Evaluate(ctx, p.expression)
	}
	return p.evaluator.run(p.program, ctx, p.expression)
}

// extraVariables lists context keys outside Variables, sorted.
func extraVariables(vars map[string]any) []string {
	var extra []string
	for key := range vars {
		if key == "args" || slices.Contains(Variables, key) {
			continue
		}
		extra = append(extra, key)
	}
	sort.Strings(extra)
	return extra
}

func (*celEvaluator) engineName() string { return "cel" }
