// Package formula implements the custom-metric formula language of the fund
// dashboard: arithmetic over named fund metrics such as dpi, irr, and tvpi.
//
// A formula is scanned into tokens, rearranged into postfix order with the
// shunting-yard algorithm, and evaluated with a single operand stack against
// caller-supplied variable bindings. The language has the four binary
// operators + - * / with the usual precedence, parentheses, numeric literals,
// and variables; nothing else. Division by zero is not an error: it yields
// NaN so that callers can render an undefined ratio however they like.
//
// Compile a formula once and evaluate it against many variable sets, or use
// Eval for one-shot evaluation. The whole pipeline is a pure function of the
// formula text and the bindings.
package formula
