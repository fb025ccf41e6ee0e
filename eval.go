package gosymdiff

import "fmt"

// ============================================================
// Evaluation
// ============================================================

// Evaluate computes the value of t with the current variable bindings.
// Unbound variables evaluate to NaN, which propagates without error; domain
// problems such as ln(-1) or 1/0 follow IEEE 754.
func Evaluate(t *Tree) (float64, error) {
	if t.root == NilNode {
		return 0, fmt.Errorf("%w: empty tree", ErrMalformedTree)
	}
	return t.eval(t.root)
}

// EvaluateAt evaluates t with variable idx bound to x. The previous binding is
// restored afterwards.
func EvaluateAt(t *Tree, idx int, x float64) (float64, error) {
	if idx < 0 || idx >= t.vars.Len() {
		return 0, fmt.Errorf("%w: index %d", ErrUnknownVariable, idx)
	}
	old := t.vars.Value(idx)
	defer t.vars.SetIndex(idx, old)
	if err := t.vars.SetIndex(idx, x); err != nil {
		return 0, err
	}
	return Evaluate(t)
}

func (t *Tree) eval(id NodeID) (float64, error) {
	if id == NilNode {
		return 0, fmt.Errorf("%w: missing operand", ErrMalformedTree)
	}
	n := t.arena.at(id)
	switch n.kind {
	case KindNumber:
		return n.num, nil
	case KindVariable:
		if n.varIdx < 0 || n.varIdx >= t.vars.Len() {
			return 0, fmt.Errorf("%w: index %d", ErrUnknownVariable, n.varIdx)
		}
		return t.vars.Value(n.varIdx), nil
	case KindOperation:
		if !n.op.Valid() {
			return 0, fmt.Errorf("%w: op %d", ErrUnknownOperation, n.op)
		}
		right, err := t.eval(n.right)
		if err != nil {
			return 0, err
		}
		var left float64
		if n.op.Arity() == 2 {
			if left, err = t.eval(n.left); err != nil {
				return 0, err
			}
		}
		return n.op.Apply(left, right), nil
	}
	return 0, fmt.Errorf("%w: kind %d at node %d", ErrUnknownNodeType, n.kind, id)
}
