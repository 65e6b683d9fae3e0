// Package filter compiles expressions into fieldbind.MemberFilter values so
// member lists can be narrowed by authored rules such as
//
//	canWrite && kind in ["Int", "Float"]
//
// Expressions see one variable per member attribute (see Variables) plus an
// "args" map supplied through WithArgs. The default engine is expr-lang/expr;
// CEL is available through NewCELEvaluator and JavaScript (goja) through
// NewJSEvaluator when built with the js_eval tag.
package filter
