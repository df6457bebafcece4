package formula

import (
	"strconv"
	"unicode/utf8"
)

// token is a single lexical element of a formula.
type token struct {
	text string
	kind tokenKind
	pos  int
}

func (t token) String() string {
	return t.kind.String() + ":" + t.text + "@" + strconv.Itoa(t.pos)
}

type tokenKind int

const (
	tokenNone tokenKind = iota
	// tokenNum is a numeric literal. The literal text is carried forward as
	// scanned and converted to a float only during evaluation.
	tokenNum
	// tokenIdent is a metric or variable name.
	tokenIdent
	// tokenOp is one of the binary operators + - * /.
	tokenOp
	// tokenLParen and tokenRParen are the grouping parentheses.
	tokenLParen
	tokenRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokenNone:
		return "None"
	case tokenNum:
		return "Num"
	case tokenIdent:
		return "Ident"
	case tokenOp:
		return "Op"
	case tokenLParen:
		return "LParen"
	case tokenRParen:
		return "RParen"
	}
	return "tokenKind(" + strconv.Itoa(int(k)) + ")"
}

// tokenize scans src left to right into its token sequence. Whitespace
// produces no token. The scan never backtracks: each token is the greedy run
// of characters in its class, and the first character that cannot start or
// extend a token stops the scan with a LexError.
func tokenize(src string) ([]token, error) {
	var toks []token
	col := 1
	for i := 0; i < len(src); {
		r, sz := utf8.DecodeRuneInString(src[i:])
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			i += sz
			col++
		case r == '(':
			toks = append(toks, token{text: "(", kind: tokenLParen, pos: col})
			i++
			col++
		case r == ')':
			toks = append(toks, token{text: ")", kind: tokenRParen, pos: col})
			i++
			col++
		case r == '+' || r == '-' || r == '*' || r == '/':
			toks = append(toks, token{text: src[i : i+1], kind: tokenOp, pos: col})
			i++
			col++
		case '0' <= r && r <= '9', r == '.':
			// A numeric run is digits and dots. Runs such as "1.2.3" scan as
			// a single token here and fail float conversion at evaluation.
			j := i + 1
			for j < len(src) && numByte(src[j]) {
				j++
			}
			toks = append(toks, token{text: src[i:j], kind: tokenNum, pos: col})
			col += j - i
			i = j
		case r == '_', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
			j := i + 1
			for j < len(src) && identByte(src[j]) {
				j++
			}
			toks = append(toks, token{text: src[i:j], kind: tokenIdent, pos: col})
			col += j - i
			i = j
		default:
			return nil, &LexError{Char: r, Col: col}
		}
	}
	return toks, nil
}

func numByte(b byte) bool {
	return '0' <= b && b <= '9' || b == '.'
}

func identByte(b byte) bool {
	return b == '_' || '0' <= b && b <= '9' || 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z'
}

// LexError indicates a character that does not belong to any token class. It
// implements InputError.
type LexError struct {
	// Char is the offending character.
	Char rune
	// Col is the column of the character, counting runes from 1.
	Col int
}

func (err *LexError) Error() string {
	return errpos(err.Col, "invalid character "+strconv.QuoteRune(err.Char))
}

func (err *LexError) Pos() int {
	return err.Col
}
