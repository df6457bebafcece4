package formula

import "strconv"

// BracketError is an error indicating mismatched parentheses in the input. It
// implements InputError.
type BracketError struct {
	// Col is the position of the unmatched parenthesis.
	Col int
	// Bracket is the unmatched parenthesis, "(" or ")".
	Bracket string
}

func (err *BracketError) Error() string {
	if err.Bracket == ")" {
		return errpos(err.Col, `close paren ")" with no open paren`)
	}
	return errpos(err.Col, `open paren "(" with no close paren`)
}

func (err *BracketError) Pos() int {
	return err.Col
}

// SyntaxError is an error indicating a formula whose operators and operands
// do not reduce to a single value. It implements InputError.
type SyntaxError struct {
	// Col is the position of the operator that was short of operands, or 0
	// when the problem is only visible at the end of the formula.
	Col int
	// Op is the operator that was short of operands, if any.
	Op string
	// Extra is the number of values left over after the last operator, when
	// more than one remained.
	Extra int
}

func (err *SyntaxError) Error() string {
	switch {
	case err.Op != "":
		return errpos(err.Col, "operator "+strconv.Quote(err.Op)+" is missing an operand")
	case err.Extra > 1:
		return strconv.Itoa(err.Extra) + " values remain after the last operator"
	default:
		return "no expression"
	}
}

func (err *SyntaxError) Pos() int {
	return err.Col
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Errors raised against the
// formula text itself implement InputError; a NameError does not, as missing
// variables are a property of the bindings rather than the text.
type InputError interface {
	error
	// Pos returns the position of the error as the number of runes up to and
	// including the character or token that caused the error.
	Pos() int
}

var (
	_ InputError = (*LexError)(nil)
	_ InputError = (*BracketError)(nil)
	_ InputError = (*SyntaxError)(nil)
)
