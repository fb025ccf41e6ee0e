package gosymdiff

import (
	"fmt"
	"math"

	"github.com/emirpasic/gods/stacks/arraystack"
)

// ============================================================
// Expression tree
// ============================================================

// Tree owns the subtree under its root. Trees built from the same expression
// share one Arena and one VarTable.
type Tree struct {
	arena *Arena
	vars  *VarTable
	root  NodeID
}

// NewTree returns an empty tree on arena and vars.
func NewTree(arena *Arena, vars *VarTable) *Tree {
	return &Tree{arena: arena, vars: vars}
}

// Release frees every node of the tree. The tree is empty afterwards.
func (t *Tree) Release() {
	if t == nil || t.root == NilNode {
		return
	}
	t.arena.FreeSubtree(t.root)
	t.root = NilNode
}

func (t *Tree) Root() NodeID      { return t.root }
func (t *Tree) Empty() bool       { return t.root == NilNode }
func (t *Tree) Vars() *VarTable   { return t.vars }
func (t *Tree) Arena() *Arena     { return t.arena }
func (t *Tree) setRoot(id NodeID) { t.root = id }

func (t *Tree) Kind(id NodeID) Kind {
	if !t.arena.valid(id) {
		return KindNone
	}
	return t.arena.at(id).kind
}

func (t *Tree) Number(id NodeID) float64 { return t.arena.at(id).num }
func (t *Tree) VarIndex(id NodeID) int   { return t.arena.at(id).varIdx }
func (t *Tree) Op(id NodeID) Op          { return t.arena.at(id).op }
func (t *Tree) Left(id NodeID) NodeID    { return t.arena.at(id).left }
func (t *Tree) Right(id NodeID) NodeID   { return t.arena.at(id).right }

// isNumber reports whether id is a bare number equal to v within eps.
func (t *Tree) isNumber(id NodeID, v, eps float64) bool {
	n := t.arena.at(id)
	return n.kind == KindNumber && approxEqual(n.num, v, eps)
}

// walk visits every node under id in pre-order without recursion. Returning
// false from fn skips the children of that node.
func (t *Tree) walk(id NodeID, fn func(NodeID) bool) {
	if id == NilNode {
		return
	}
	stack := arraystack.New()
	stack.Push(id)
	for !stack.Empty() {
		v, _ := stack.Pop()
		cur := v.(NodeID)
		if !fn(cur) {
			continue
		}
		n := t.arena.at(cur)
		if n.right != NilNode {
			stack.Push(n.right)
		}
		if n.left != NilNode {
			stack.Push(n.left)
		}
	}
}

// Size counts the nodes under id, id included.
func (t *Tree) Size(id NodeID) int {
	n := 0
	t.walk(id, func(NodeID) bool { n++; return true })
	return n
}

// CountVar counts occurrences of variable idx under id.
func (t *Tree) CountVar(id NodeID, idx int) int {
	n := 0
	t.walk(id, func(cur NodeID) bool {
		nd := t.arena.at(cur)
		if nd.kind == KindVariable && nd.varIdx == idx {
			n++
		}
		return true
	})
	return n
}

// IsConstant reports whether no variable occurs under id.
func (t *Tree) IsConstant(id NodeID) bool {
	constant := true
	t.walk(id, func(cur NodeID) bool {
		if t.arena.at(cur).kind == KindVariable {
			constant = false
		}
		return constant
	})
	return constant
}

// Clone deep-copies the tree into the same arena.
func (t *Tree) Clone() (*Tree, error) {
	root, err := t.arena.copySubtree(t.root)
	if err != nil {
		return nil, err
	}
	return &Tree{arena: t.arena, vars: t.vars, root: root}, nil
}

type nodePair struct{ a, b NodeID }

// Equal reports structural equality. Numbers are compared within
// DefaultEpsilon, with NaN equal to NaN; variables by name.
func (t *Tree) Equal(other *Tree) bool {
	if other == nil {
		return false
	}
	stack := arraystack.New()
	stack.Push(nodePair{t.root, other.root})
	for !stack.Empty() {
		v, _ := stack.Pop()
		p := v.(nodePair)
		if p.a == NilNode || p.b == NilNode {
			if p.a != p.b {
				return false
			}
			continue
		}
		x, y := t.arena.at(p.a), other.arena.at(p.b)
		if x.kind != y.kind {
			return false
		}
		switch x.kind {
		case KindNumber:
			bothNaN := math.IsNaN(x.num) && math.IsNaN(y.num)
			if !bothNaN && !approxEqual(x.num, y.num, DefaultEpsilon) {
				return false
			}
		case KindVariable:
			if t.vars.Name(x.varIdx) != other.vars.Name(y.varIdx) {
				return false
			}
		case KindOperation:
			if x.op != y.op {
				return false
			}
		}
		stack.Push(nodePair{x.left, y.left})
		stack.Push(nodePair{x.right, y.right})
	}
	return true
}

// check verifies that every operation node has the children its arity
// requires and that every variable index is known.
func (t *Tree) check(id NodeID) error {
	var err error
	t.walk(id, func(cur NodeID) bool {
		if err != nil {
			return false
		}
		if !t.arena.valid(cur) {
			err = fmt.Errorf("%w: dangling node %d", ErrMalformedTree, cur)
			return false
		}
		n := t.arena.at(cur)
		switch n.kind {
		case KindNumber:
		case KindVariable:
			if n.varIdx < 0 || n.varIdx >= t.vars.Len() {
				err = fmt.Errorf("%w: index %d", ErrUnknownVariable, n.varIdx)
			}
		case KindOperation:
			if !n.op.Valid() {
				err = fmt.Errorf("%w: op %d at node %d", ErrUnknownOperation, n.op, cur)
			} else if n.right == NilNode || (n.op.Arity() == 2) != (n.left != NilNode) {
				err = fmt.Errorf("%w: %s at node %d", ErrMalformedTree, n.op, cur)
			}
		default:
			err = fmt.Errorf("%w: kind %d at node %d", ErrUnknownNodeType, n.kind, cur)
		}
		return err == nil
	})
	return err
}

// ============================================================
// Substitution annotations
// ============================================================

// SetSubstitution tags id with a display name used by the LaTeX renderer in
// place of the subtree.
func (t *Tree) SetSubstitution(id NodeID, name string) {
	n := t.arena.at(id)
	n.substName = name
	n.subst = true
}

func (t *Tree) Substitution(id NodeID) (string, bool) {
	n := t.arena.at(id)
	return n.substName, n.subst
}

func (t *Tree) ClearSubstitutions() {
	t.walk(t.root, func(cur NodeID) bool {
		n := t.arena.at(cur)
		n.substName = ""
		n.subst = false
		return true
	})
}

// Abbreviate tags every maximal proper subtree whose size lies in [min, max]
// with the names I_{1}, I_{2}, ... and returns the tagged nodes in pre-order.
// Earlier tags are cleared first.
func (t *Tree) Abbreviate(min, max int) []NodeID {
	t.ClearSubstitutions()
	var marked []NodeID
	t.walk(t.root, func(cur NodeID) bool {
		if cur == t.root {
			return true
		}
		size := t.Size(cur)
		if size < min {
			return false
		}
		if size <= max {
			marked = append(marked, cur)
			t.SetSubstitution(cur, fmt.Sprintf("I_{%d}", len(marked)))
			return false
		}
		return true
	})
	return marked
}
