package filter

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyExpression reports an empty expression.
	ErrEmptyExpression = errors.New("filter: expression must not be empty")
	// ErrNotBoolean reports an expression whose result is not a bool.
	ErrNotBoolean = errors.New("filter: expression did not return a bool")
	// ErrEvaluatorOptions reports expr-only options given alongside a custom
	// evaluator, which would otherwise never see them.
	ErrEvaluatorOptions = errors.New("filter: program cache and function registry apply to the default evaluator only")
)

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Member string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("filter: %s evaluator %s member=%s: %v", e.Engine, describeExpression(e.Expr), describeMember(e.Member), e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func describeMember(member string) string {
	if member == "" {
		return "<none>"
	}
	return member
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "filter:") {
		return err
	}
	return fmt.Errorf("filter: %s evaluator: %w", engine, err)
}

// wrapEvaluationError fills missing metadata on an existing EvaluationError
// or wraps err in a new one.
func wrapEvaluationError(engine, expr, member string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Member == "" {
			evalErr.Member = member
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Member: member,
		Err:    err,
	}
}
