package formula

// opPrec fixes the binding strength of the binary operators. Multiplicative
// operators bind tighter than additive ones. Operators of equal precedence
// are left-associative; the language has no unary or right-associative
// operators.
var opPrec = map[string]int{
	"+": 1,
	"-": 1,
	"*": 2,
	"/": 2,
}

// toPostfix rearranges an infix token sequence into postfix order using the
// shunting-yard algorithm. Operands keep their relative order; operators are
// reordered per opPrec; parentheses are consumed by the conversion and do not
// appear in the result.
func toPostfix(toks []token) ([]token, error) {
	out := make([]token, 0, len(toks))
	// ops is the working stack. It only ever holds operators and open parens.
	var ops []token
	for _, t := range toks {
		switch t.kind {
		case tokenNum, tokenIdent:
			out = append(out, t)
		case tokenLParen:
			ops = append(ops, t)
		case tokenRParen:
			for {
				if len(ops) == 0 {
					return nil, &BracketError{Col: t.pos, Bracket: ")"}
				}
				top := ops[len(ops)-1]
				ops = ops[:len(ops)-1]
				if top.kind == tokenLParen {
					break
				}
				out = append(out, top)
			}
		case tokenOp:
			// Popping operators of equal precedence before pushing keeps
			// same-precedence chains left-associative.
			p := opPrec[t.text]
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.kind != tokenOp || opPrec[top.text] < p {
					break
				}
				out = append(out, top)
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, t)
		default:
			panic("formula: invalid token " + t.String())
		}
	}
	for len(ops) > 0 {
		top := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		if top.kind == tokenLParen {
			return nil, &BracketError{Col: top.pos, Bracket: "("}
		}
		out = append(out, top)
	}
	return out, nil
}
