package gosymdiff

import "fmt"

// ============================================================
// Taylor series
// ============================================================

// DefaultTaylorOrder is used by callers that do not pick an order.
const DefaultTaylorOrder = 5

// Taylor expands t around x = at, x being variable varIdx, up to order:
//
//	sum_{k=0}^{order} f^(k)(at)/k! * (x - at)^k
//
// The polynomial is built in t's arena and simplified. t and the variable
// bindings are left unchanged. Each coefficient is reported as
// ActionSeriesTerm with the derivative it came from.
func Taylor(t *Tree, varIdx int, at float64, order int, obs Observer) (*Tree, error) {
	return Simplifier{Observer: obs}.Taylor(t, varIdx, at, order)
}

func (s Simplifier) Taylor(t *Tree, varIdx int, at float64, order int) (*Tree, error) {
	if varIdx < 0 || varIdx >= t.vars.Len() {
		return nil, fmt.Errorf("%w: index %d", ErrUnknownVariable, varIdx)
	}
	if order < 0 {
		return nil, fmt.Errorf("%w: negative order %d", ErrDifferentiating, order)
	}
	if t.root == NilNode {
		return nil, fmt.Errorf("%w: empty tree", ErrDifferentiating)
	}

	out := NewTree(t.arena, t.vars)
	b := newBuilder(t.arena)
	cur := t
	release := func() {
		if cur != t {
			cur.Release()
		}
	}
	fail := func(err error) (*Tree, error) {
		release()
		b.rollback()
		return nil, err
	}

	sum := NilNode
	factorial := 1.0
	for k := 0; k <= order; k++ {
		if k > 0 {
			next, err := s.Derivative(cur, varIdx)
			if err != nil {
				return fail(err)
			}
			release()
			cur = next
			factorial *= float64(k)
		}
		c, err := EvaluateAt(cur, varIdx, at)
		if err != nil {
			return fail(err)
		}

		term := b.num(c / factorial)
		if k > 0 {
			shift := b.op(OpSub, b.variable(varIdx), b.num(at))
			term = b.op(OpMul, term, b.op(OpPow, shift, b.num(float64(k))))
		}
		if b.err != nil {
			return fail(b.err)
		}
		notify(s.Observer, Step{
			Action: ActionSeriesTerm,
			Before: Subtree{Tree: cur, Node: cur.root},
			After:  Subtree{Tree: out, Node: term},
		})
		if sum == NilNode {
			sum = term
		} else {
			sum = b.op(OpAdd, sum, term)
		}
	}
	if b.err != nil {
		return fail(b.err)
	}
	release()

	out.root = sum
	if err := s.Simplify(out); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}
