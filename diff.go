package gosymdiff

import "fmt"

// ============================================================
// Differentiation
// ============================================================

// Differentiate builds d t / d x, x being variable varIdx, as a new tree in
// the same arena. The result is not simplified. Every differentiated
// operation node is reported as ActionDifferentiate. On error every node the
// call allocated is released again.
func Differentiate(t *Tree, varIdx int, obs Observer) (*Tree, error) {
	if varIdx < 0 || varIdx >= t.vars.Len() {
		return nil, fmt.Errorf("%w: index %d", ErrUnknownVariable, varIdx)
	}
	if t.root == NilNode {
		return nil, fmt.Errorf("%w: empty tree", ErrDifferentiating)
	}
	d := &differ{
		src: t,
		out: NewTree(t.arena, t.vars),
		b:   newBuilder(t.arena),
		v:   varIdx,
		obs: obs,
	}
	root := d.diff(t.root)
	if d.b.err != nil {
		d.b.rollback()
		return nil, d.b.err
	}
	d.out.root = root
	return d.out, nil
}

// Derivative differentiates t and simplifies the result. The simplified
// derivative is reported as ActionResult.
func Derivative(t *Tree, varIdx int, obs Observer) (*Tree, error) {
	return Simplifier{Observer: obs}.Derivative(t, varIdx)
}

// DiffN returns the simplified n-th derivative. n == 0 yields a copy of t.
func DiffN(t *Tree, varIdx int, n int, obs Observer) (*Tree, error) {
	return Simplifier{Observer: obs}.DiffN(t, varIdx, n)
}

// Derivative is the package-level Derivative with s's epsilon.
func (s Simplifier) Derivative(t *Tree, varIdx int) (*Tree, error) {
	d, err := Differentiate(t, varIdx, s.Observer)
	if err != nil {
		return nil, err
	}
	if err := s.Simplify(d); err != nil {
		d.Release()
		return nil, err
	}
	notify(s.Observer, Step{
		Action: ActionResult,
		Before: Subtree{Tree: t, Node: t.root},
		After:  Subtree{Tree: d, Node: d.root},
	})
	return d, nil
}

func (s Simplifier) DiffN(t *Tree, varIdx int, n int) (*Tree, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative order %d", ErrDifferentiating, n)
	}
	if n == 0 {
		return t.Clone()
	}
	cur := t
	for i := 0; i < n; i++ {
		next, err := s.Derivative(cur, varIdx)
		if cur != t {
			cur.Release()
		}
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

type differ struct {
	src *Tree
	out *Tree
	b   *builder
	v   int
	obs Observer
}

func (d *differ) fail(format string, args ...any) NodeID {
	return d.b.fail(fmt.Errorf("%w: "+format, append([]any{ErrDifferentiating}, args...)...))
}

func (d *differ) depends(id NodeID) bool { return d.src.CountVar(id, d.v) > 0 }

func (d *differ) diff(id NodeID) NodeID {
	if d.b.err != nil {
		return NilNode
	}
	if id == NilNode {
		return d.fail("missing operand")
	}
	n := *d.src.arena.at(id)
	switch n.kind {
	case KindNumber:
		return d.b.num(0)
	case KindVariable:
		if n.varIdx == d.v {
			return d.b.num(1)
		}
		return d.b.num(0)
	case KindOperation:
		if !n.op.Valid() {
			return d.b.fail(fmt.Errorf("%w: %w: op %d at node %d", ErrDifferentiating, ErrUnknownOperation, n.op, id))
		}
		if n.right == NilNode || (n.op.Arity() == 2 && n.left == NilNode) {
			return d.fail("%s at node %d is missing an operand", n.op, id)
		}
		res := d.rule(n.op, n.left, n.right)
		if d.b.err == nil {
			notify(d.obs, Step{
				Action: ActionDifferentiate,
				Before: Subtree{Tree: d.src, Node: id},
				After:  Subtree{Tree: d.out, Node: res},
			})
		}
		return res
	}
	return d.b.fail(fmt.Errorf("%w: %w: kind %d at node %d", ErrDifferentiating, ErrUnknownNodeType, n.kind, id))
}

// rule applies the differentiation rule of op. f is the left operand (the
// base of pow and log), g the right one; unary operations only have g.
func (d *differ) rule(op Op, f, g NodeID) NodeID {
	b := d.b
	num := b.num
	cp := b.copy
	sq := func(id NodeID) NodeID { return b.op(OpPow, id, num(2)) }
	neg := func(id NodeID) NodeID { return b.op(OpMul, num(-1), id) }

	switch op {
	case OpAdd, OpSub:
		return b.op(op, d.diff(f), d.diff(g))
	case OpMul:
		return b.op(OpAdd,
			b.op(OpMul, d.diff(f), cp(g)),
			b.op(OpMul, d.diff(g), cp(f)))
	case OpDiv:
		return b.op(OpDiv,
			b.op(OpSub, b.op(OpMul, d.diff(f), cp(g)), b.op(OpMul, cp(f), d.diff(g))),
			sq(cp(g)))
	case OpPow:
		return d.pow(f, g)
	case OpLog:
		return d.log(f, g)
	case OpLn:
		return b.op(OpDiv, d.diff(g), cp(g))
	case OpSin:
		return b.op(OpMul, b.unary(OpCos, cp(g)), d.diff(g))
	case OpCos:
		return neg(b.op(OpMul, b.unary(OpSin, cp(g)), d.diff(g)))
	case OpTan:
		return b.op(OpDiv, d.diff(g), sq(b.unary(OpCos, cp(g))))
	case OpCot:
		return neg(b.op(OpDiv, d.diff(g), sq(b.unary(OpSin, cp(g)))))
	case OpArcsin:
		return b.op(OpDiv, d.diff(g), b.op(OpPow, b.op(OpSub, num(1), sq(cp(g))), num(0.5)))
	case OpArccos:
		return b.op(OpDiv, neg(d.diff(g)), b.op(OpPow, b.op(OpSub, num(1), sq(cp(g))), num(0.5)))
	case OpArctan:
		return b.op(OpDiv, d.diff(g), b.op(OpAdd, num(1), sq(cp(g))))
	case OpArccot:
		return b.op(OpDiv, neg(d.diff(g)), b.op(OpAdd, num(1), sq(cp(g))))
	case OpSinh:
		return b.op(OpMul, b.unary(OpCosh, cp(g)), d.diff(g))
	case OpCosh:
		return b.op(OpMul, b.unary(OpSinh, cp(g)), d.diff(g))
	case OpTanh:
		return b.op(OpDiv, d.diff(g), sq(b.unary(OpCosh, cp(g))))
	case OpCoth:
		return b.op(OpDiv, neg(d.diff(g)), sq(b.unary(OpSinh, cp(g))))
	}
	return d.fail("no rule for %s", op)
}

// pow differentiates f^g, picking the rule by which side depends on the
// variable.
func (d *differ) pow(f, g NodeID) NodeID {
	b, cp := d.b, d.b.copy
	inBase, inExp := d.depends(f), d.depends(g)
	switch {
	case !inBase && !inExp:
		return b.num(0)
	case inBase && !inExp:
		// g * f^(g-1) * f'
		return b.op(OpMul,
			b.op(OpMul, cp(g), b.op(OpPow, cp(f), b.op(OpSub, cp(g), b.num(1)))),
			d.diff(f))
	case !inBase && inExp:
		// ln(f) * f^g * g'
		return b.op(OpMul,
			b.op(OpMul, b.unary(OpLn, cp(f)), b.op(OpPow, cp(f), cp(g))),
			d.diff(g))
	}
	// (g' ln f + g f'/f) * f^g
	return b.op(OpMul,
		b.op(OpAdd,
			b.op(OpMul, d.diff(g), b.unary(OpLn, cp(f))),
			b.op(OpMul, cp(g), b.op(OpDiv, d.diff(f), cp(f)))),
		b.op(OpPow, cp(f), cp(g)))
}

// log differentiates log_f(g).
func (d *differ) log(f, g NodeID) NodeID {
	b, cp := d.b, d.b.copy
	lnf := func() NodeID { return b.unary(OpLn, cp(f)) }
	lng := func() NodeID { return b.unary(OpLn, cp(g)) }
	inBase, inArg := d.depends(f), d.depends(g)
	switch {
	case !inBase && !inArg:
		return b.num(0)
	case !inBase && inArg:
		// g' / (g ln f)
		return b.op(OpDiv, d.diff(g), b.op(OpMul, cp(g), lnf()))
	case inBase && !inArg:
		// -(f' ln g) / (f (ln f)^2)
		return b.op(OpMul, b.num(-1),
			b.op(OpDiv,
				b.op(OpMul, d.diff(f), lng()),
				b.op(OpMul, cp(f), b.op(OpPow, lnf(), b.num(2)))))
	}
	// ((g'/g) ln f - (f'/f) ln g) / (ln f)^2
	return b.op(OpDiv,
		b.op(OpSub,
			b.op(OpMul, b.op(OpDiv, d.diff(g), cp(g)), lnf()),
			b.op(OpMul, b.op(OpDiv, d.diff(f), cp(f)), lng())),
		b.op(OpPow, lnf(), b.num(2)))
}
