package gosymdiff

import "math"

// ============================================================
// Simplification
// ============================================================

// Simplifier rewrites a tree in place to a fixed point of constant folding
// and neutral-element elimination. The zero value uses DefaultEpsilon and
// reports nothing.
type Simplifier struct {
	Epsilon  float64
	Observer Observer
}

// Simplify simplifies t in place with the default epsilon.
func Simplify(t *Tree, obs Observer) error {
	return Simplifier{Observer: obs}.Simplify(t)
}

func (s Simplifier) eps() float64 {
	if s.Epsilon <= 0 {
		return DefaultEpsilon
	}
	return s.Epsilon
}

// Simplify alternates a folding pass and a neutral-element pass until the
// neutral pass changes nothing or the whole tree folds to one number. A second
// call on the result makes no changes.
func (s Simplifier) Simplify(t *Tree) error {
	if t.root == NilNode {
		return nil
	}
	if err := t.check(t.root); err != nil {
		return err
	}
	p := &simplifyPass{t: t, eps: s.eps(), obs: s.Observer}
	for {
		v, err := p.fold(t.root)
		if err != nil {
			return err
		}
		if !math.IsNaN(v) {
			if t.Kind(t.root) != KindNumber {
				num, err := p.replaceWithNumber(t.root, v)
				if err != nil {
					return err
				}
				t.root = num
			}
			return nil
		}
		p.changes = 0
		root, err := p.rewrite(t.root)
		if err != nil {
			return err
		}
		t.root = root
		if p.changes == 0 {
			return nil
		}
	}
}

type simplifyPass struct {
	t       *Tree
	eps     float64
	obs     Observer
	changes int
}

// replaceWithNumber allocates a number for v, reports the fold and frees the
// subtree it replaces. The caller links the returned node in.
func (p *simplifyPass) replaceWithNumber(id NodeID, v float64) (NodeID, error) {
	num, err := p.t.arena.newNumber(v)
	if err != nil {
		return NilNode, err
	}
	notify(p.obs, Step{
		Action: ActionFold,
		Before: Subtree{Tree: p.t, Node: id},
		After:  Subtree{Tree: p.t, Node: num},
	})
	p.t.arena.FreeSubtree(id)
	return num, nil
}

// fold returns the value of a constant subtree and NaN otherwise. A constant
// operand of a non-constant operation is collapsed to a single number unless
// it already is one.
func (p *simplifyPass) fold(id NodeID) (float64, error) {
	n := p.t.arena.at(id)
	switch n.kind {
	case KindNumber:
		return n.num, nil
	case KindVariable:
		return math.NaN(), nil
	}

	right, err := p.fold(n.right)
	if err != nil {
		return 0, err
	}
	left := 0.0
	if n.op.Arity() == 2 {
		if left, err = p.fold(n.left); err != nil {
			return 0, err
		}
	}
	lc := n.op.Arity() == 2 && !math.IsNaN(left)
	rc := !math.IsNaN(right)
	if (lc || n.op.Arity() == 1) && rc {
		if v := n.op.Apply(left, right); !math.IsNaN(v) {
			return v, nil
		}
	}
	if lc && p.t.Kind(n.left) != KindNumber {
		num, err := p.replaceWithNumber(n.left, left)
		if err != nil {
			return 0, err
		}
		n.left = num
	}
	if rc && p.t.Kind(n.right) != KindNumber {
		num, err := p.replaceWithNumber(n.right, right)
		if err != nil {
			return 0, err
		}
		n.right = num
	}
	return math.NaN(), nil
}

// rewrite applies the neutral-element rules top-down and returns the node that
// now stands at id's position. A replacement is not rescanned in the same
// pass.
func (p *simplifyPass) rewrite(id NodeID) (NodeID, error) {
	n := p.t.arena.at(id)
	if n.kind != KindOperation {
		return id, nil
	}
	repl, fired, err := p.neutral(id)
	if err != nil || fired {
		return repl, err
	}
	if n.left != NilNode {
		l, err := p.rewrite(n.left)
		if err != nil {
			return id, err
		}
		n.left = l
	}
	if n.right != NilNode {
		r, err := p.rewrite(n.right)
		if err != nil {
			return id, err
		}
		n.right = r
	}
	return id, nil
}

// neutral tries the rule table of the operation at id.
func (p *simplifyPass) neutral(id NodeID) (NodeID, bool, error) {
	n := p.t.arena.at(id)
	l, r := n.left, n.right
	is := func(child NodeID, v float64) bool {
		return child != NilNode && p.t.isNumber(child, v, p.eps)
	}
	switch n.op {
	case OpAdd:
		if is(r, 0) {
			return p.keep(id, l)
		}
		if is(l, 0) {
			return p.keep(id, r)
		}
	case OpSub:
		if is(r, 0) {
			return p.keep(id, l)
		}
	case OpMul:
		if is(l, 0) || is(r, 0) {
			return p.constant(id, 0)
		}
		if is(r, 1) {
			return p.keep(id, l)
		}
		if is(l, 1) {
			return p.keep(id, r)
		}
	case OpDiv:
		if is(r, 1) {
			return p.keep(id, l)
		}
		if is(l, 0) {
			return p.constant(id, 0)
		}
	case OpPow:
		if is(l, 0) {
			return p.constant(id, 0)
		}
		if is(l, 1) {
			return p.constant(id, 1)
		}
		if is(r, 1) {
			return p.keep(id, l)
		}
		if is(r, 0) {
			return p.constant(id, 1)
		}
	case OpLog, OpLn:
		if is(r, 1) {
			return p.constant(id, 0)
		}
	}
	return id, false, nil
}

// keep replaces id by its child, freeing everything else under id.
func (p *simplifyPass) keep(id, child NodeID) (NodeID, bool, error) {
	notify(p.obs, Step{
		Action: ActionNeutral,
		Before: Subtree{Tree: p.t, Node: id},
		After:  Subtree{Tree: p.t, Node: child},
	})
	n := p.t.arena.at(id)
	if n.left == child {
		n.left = NilNode
	} else {
		n.right = NilNode
	}
	p.t.arena.FreeSubtree(id)
	p.changes++
	return child, true, nil
}

// constant replaces id by a fresh number.
func (p *simplifyPass) constant(id NodeID, v float64) (NodeID, bool, error) {
	num, err := p.t.arena.newNumber(v)
	if err != nil {
		return id, false, err
	}
	notify(p.obs, Step{
		Action: ActionNeutral,
		Before: Subtree{Tree: p.t, Node: id},
		After:  Subtree{Tree: p.t, Node: num},
	})
	p.t.arena.FreeSubtree(id)
	p.changes++
	return num, true, nil
}
