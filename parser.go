package gosymdiff

import (
	"errors"
	"fmt"
	"strconv"
)

// ============================================================
// Parser
// ============================================================

// ParseError reports where parsing stopped. Err wraps one of ErrReading,
// ErrUnknownOperation, ErrVariablesOverflow or ErrOutOfMemory.
type ParseError struct {
	Pos int
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v at position %d", e.Err, e.Pos)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parser holds parse options. The zero value is ready to use.
type Parser struct {
	MaxDepth int // nesting limit, DefaultMaxDepth when zero
}

// Parse reads src with the default options.
//
// Grammar, lowest precedence first; every binary tier is left-associative,
// "^" included, so 2^3^2 is (2^3)^2:
//
//	expr    := mul (('+' | '-') mul)*
//	mul     := pow (('*' | '/') pow)*
//	pow     := primary ('^' primary)*
//	primary := '(' expr ')' | number | variable | func '(' expr [',' expr] ')'
//	         | '-' (variable | '(' expr ')' | func ...)
//
// Variables are single letters and are registered in vars. On error nothing
// allocated by the call stays live and vars is left as it was.
func Parse(src string, arena *Arena, vars *VarTable) (*Tree, error) {
	return Parser{}.Parse(src, arena, vars)
}

func (p Parser) Parse(src string, arena *Arena, vars *VarTable) (*Tree, error) {
	maxDepth := p.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	st := &parseState{src: src, b: newBuilder(arena), vars: vars, maxDepth: maxDepth}
	known := vars.Len()

	root := st.expr()
	if st.b.err == nil {
		st.skipSpace()
		if st.pos < len(src) {
			st.fail(fmt.Errorf("%w: unexpected %q", ErrReading, src[st.pos]))
		}
	}
	if st.b.err != nil {
		st.b.rollback()
		vars.truncate(known)
		var pe *ParseError
		if errors.As(st.b.err, &pe) {
			return nil, pe
		}
		return nil, &ParseError{Pos: st.pos, Err: st.b.err}
	}
	return &Tree{arena: arena, vars: vars, root: root}, nil
}

type parseState struct {
	src      string
	pos      int
	depth    int
	maxDepth int
	b        *builder
	vars     *VarTable
}

func (st *parseState) fail(err error) NodeID {
	return st.failAt(st.pos, err)
}

func (st *parseState) failAt(pos int, err error) NodeID {
	return st.b.fail(&ParseError{Pos: pos, Err: err})
}

func (st *parseState) skipSpace() {
	for st.pos < len(st.src) && (st.src[st.pos] <= ' ' || st.src[st.pos] >= 0x7f) {
		st.pos++
	}
}

// peek returns the next significant byte, 0 at end of input.
func (st *parseState) peek() byte {
	st.skipSpace()
	if st.pos >= len(st.src) {
		return 0
	}
	return st.src[st.pos]
}

func (st *parseState) expect(c byte) bool {
	if st.peek() != c {
		if st.pos >= len(st.src) {
			st.fail(fmt.Errorf("%w: expected %q, got end of input", ErrReading, c))
		} else {
			st.fail(fmt.Errorf("%w: expected %q, got %q", ErrReading, c, st.src[st.pos]))
		}
		return false
	}
	st.pos++
	return true
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

func (st *parseState) expr() NodeID {
	st.depth++
	defer func() { st.depth-- }()
	if st.depth > st.maxDepth {
		return st.fail(fmt.Errorf("%w: nesting deeper than %d", ErrReading, st.maxDepth))
	}

	left := st.mul()
	for st.b.err == nil {
		var op Op
		switch st.peek() {
		case '+':
			op = OpAdd
		case '-':
			op = OpSub
		default:
			return left
		}
		st.pos++
		right := st.mul()
		left = st.b.op(op, left, right)
	}
	return NilNode
}

func (st *parseState) mul() NodeID {
	left := st.pow()
	for st.b.err == nil {
		var op Op
		switch st.peek() {
		case '*':
			op = OpMul
		case '/':
			op = OpDiv
		default:
			return left
		}
		st.pos++
		right := st.pow()
		left = st.b.op(op, left, right)
	}
	return NilNode
}

func (st *parseState) pow() NodeID {
	left := st.primary()
	for st.b.err == nil {
		if st.peek() != '^' {
			return left
		}
		st.pos++
		right := st.primary()
		left = st.b.op(OpPow, left, right)
	}
	return NilNode
}

func (st *parseState) primary() NodeID {
	if st.b.err != nil {
		return NilNode
	}
	c := st.peek()
	switch {
	case c == 0:
		return st.fail(fmt.Errorf("%w: unexpected end of input", ErrReading))
	case c == '(':
		st.pos++
		inner := st.expr()
		if st.b.err != nil || !st.expect(')') {
			return NilNode
		}
		return inner
	case isDigit(c):
		return st.number(st.pos)
	case c == '-':
		start := st.pos
		st.pos++
		next := st.peek()
		switch {
		case isDigit(next):
			return st.number(start)
		case next == '(' || isLetter(next):
			minusOne := st.b.num(-1)
			operand := st.primary()
			return st.b.op(OpMul, minusOne, operand)
		}
		return st.fail(fmt.Errorf("%w: dangling '-'", ErrReading))
	case isLetter(c):
		return st.word()
	}
	return st.fail(fmt.Errorf("%w: unexpected %q", ErrReading, c))
}

// number reads [-]digits[.digits] starting at start. A sign, if any, has
// already been consumed.
func (st *parseState) number(start int) NodeID {
	for st.pos < len(st.src) && isDigit(st.src[st.pos]) {
		st.pos++
	}
	if st.pos < len(st.src) && st.src[st.pos] == '.' {
		st.pos++
		if st.pos >= len(st.src) || !isDigit(st.src[st.pos]) {
			return st.fail(fmt.Errorf("%w: digits expected after '.'", ErrReading))
		}
		for st.pos < len(st.src) && isDigit(st.src[st.pos]) {
			st.pos++
		}
	}
	text := st.src[start:st.pos]
	if st.src[start] == '-' {
		// Blanks between the sign and the digits were skipped.
		text = "-" + trimLeftSpace(text[1:])
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return st.failAt(start, fmt.Errorf("%w: bad number %q", ErrReading, text))
	}
	return st.b.num(v)
}

func trimLeftSpace(s string) string {
	i := 0
	for i < len(s) && (s[i] <= ' ' || s[i] >= 0x7f) {
		i++
	}
	return s[i:]
}

// word reads a run of letters: one letter is a variable, more name a function.
func (st *parseState) word() NodeID {
	start := st.pos
	for st.pos < len(st.src) && isLetter(st.src[st.pos]) {
		st.pos++
	}
	name := st.src[start:st.pos]
	if len(name) == 1 {
		idx, err := st.vars.Add(name[0])
		if err != nil {
			return st.failAt(start, err)
		}
		return st.b.variable(idx)
	}

	op, ok := LookupOp(name)
	if !ok || op.Priority() != prioFunc {
		return st.failAt(start, fmt.Errorf("%w: %q", ErrUnknownOperation, name))
	}
	if !st.expect('(') {
		return NilNode
	}
	first := st.expr()
	if st.b.err != nil {
		return NilNode
	}
	if op.Arity() == 1 {
		if st.peek() == ',' {
			return st.fail(fmt.Errorf("%w: %s takes one argument", ErrReading, name))
		}
		if !st.expect(')') {
			return NilNode
		}
		return st.b.unary(op, first)
	}
	if st.peek() != ',' {
		return st.fail(fmt.Errorf("%w: %s takes two arguments", ErrReading, name))
	}
	st.pos++
	second := st.expr()
	if st.b.err != nil || !st.expect(')') {
		return NilNode
	}
	return st.b.op(op, first, second)
}
