package formula

import (
	"math"
	"sort"
	"strconv"
)

// MetricNames is the published vocabulary of fund metrics that callers are
// expected to bind when evaluating formulas against a fund. It is
// documentation for callers, not an enforcement rule: the evaluator accepts
// any name present in the supplied variables.
var MetricNames = []string{
	"dpi",
	"irr",
	"nav",
	"pic",
	"rvpi",
	"total_distributions",
	"tvpi",
}

// Formula is a compiled formula. Compiling once and evaluating against many
// variable sets avoids re-scanning the source text per record. A Formula is
// immutable after Compile and safe for concurrent Eval calls.
type Formula struct {
	src  string
	rpn  []token
	vars []string
}

// Compile tokenizes src and converts it to evaluation order. The returned
// error is a LexError or BracketError describing the first problem found.
func Compile(src string) (*Formula, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	rpn, err := toPostfix(toks)
	if err != nil {
		return nil, err
	}
	f := &Formula{src: src, rpn: rpn}
	seen := make(map[string]bool)
	for _, t := range rpn {
		if t.kind == tokenIdent && !seen[t.text] {
			seen[t.text] = true
			f.vars = append(f.vars, t.text)
		}
	}
	sort.Strings(f.vars)
	return f, nil
}

// String returns the source text the formula was compiled from.
func (f *Formula) String() string {
	return f.src
}

// Vars returns the names the formula looks up during evaluation, sorted and
// deduplicated. Callers can use it to fetch only the metrics a formula needs
// or to reject unknown names before evaluating.
func (f *Formula) Vars() []string {
	return append([]string(nil), f.vars...)
}

// Eval runs the compiled formula against a set of variable bindings and
// returns the resulting value. Division by zero yields NaN rather than an
// error; a NameError reports a name missing from vars, and a SyntaxError
// reports a formula that does not reduce to a single value.
//
// Eval touches neither f nor vars beyond reading them, so distinct calls may
// run concurrently with the same formula.
func (f *Formula) Eval(vars map[string]float64) (float64, error) {
	stack := make([]float64, 0, len(f.rpn))
	for _, t := range f.rpn {
		switch t.kind {
		case tokenNum:
			v, err := strconv.ParseFloat(t.text, 64)
			if err != nil {
				// A malformed run like "1.2.3" has no float value, so it
				// resolves like a name instead.
				w, ok := vars[t.text]
				if !ok {
					return 0, &NameError{Name: t.text}
				}
				v = w
			}
			stack = append(stack, v)
		case tokenIdent:
			v, ok := vars[t.text]
			if !ok {
				return 0, &NameError{Name: t.text}
			}
			stack = append(stack, v)
		case tokenOp:
			if len(stack) < 2 {
				return 0, &SyntaxError{Col: t.pos, Op: t.text}
			}
			b := stack[len(stack)-1]
			a := stack[len(stack)-2]
			stack = stack[:len(stack)-1]
			switch t.text {
			case "+":
				stack[len(stack)-1] = a + b
			case "-":
				stack[len(stack)-1] = a - b
			case "*":
				stack[len(stack)-1] = a * b
			case "/":
				// A zero divisor is a representable outcome, not a failure.
				// The caller decides how to display an undefined ratio.
				if b == 0 {
					stack[len(stack)-1] = math.NaN()
				} else {
					stack[len(stack)-1] = a / b
				}
			}
		default:
			panic("formula: invalid token " + t.String() + " in compiled formula")
		}
	}
	switch len(stack) {
	case 1:
		return stack[0], nil
	case 0:
		return 0, &SyntaxError{}
	default:
		return 0, &SyntaxError{Extra: len(stack)}
	}
}

// Eval is a shortcut to compile a formula and evaluate it once.
func Eval(src string, vars map[string]float64) (float64, error) {
	f, err := Compile(src)
	if err != nil {
		return 0, err
	}
	return f.Eval(vars)
}

// NameError is an error from a lookup for a variable that is missing from the
// supplied bindings.
type NameError struct {
	// Name is the name that was missing.
	Name string
}

func (err *NameError) Error() string {
	return "undefined variable: " + strconv.Quote(err.Name)
}
