package gosymdiff

import (
	"math"
	"strconv"
	"strings"
)

// ============================================================
// Rendering
// ============================================================

func String(t *Tree) string { return t.String() }
func LaTeX(t *Tree) string  { return t.LaTeX() }

// String renders the tree in the infix syntax accepted by Parse.
func (t *Tree) String() string {
	if t == nil || t.root == NilNode {
		return ""
	}
	return t.Format(t.root)
}

// Format renders the subtree under id as infix text.
func (t *Tree) Format(id NodeID) string {
	var sb strings.Builder
	t.writeInfix(&sb, id)
	return sb.String()
}

// formatNumber writes v so that Parse reads the same value back. Infinities
// and NaN become the divisions that produce them.
func formatNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "(1/0)"
	case math.IsInf(v, -1):
		return "(-1/0)"
	case math.IsNaN(v):
		return "(0/0)"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func latexNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return `\infty`
	case math.IsInf(v, -1):
		return `-\infty`
	case math.IsNaN(v):
		return `\mathrm{NaN}`
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func finite(v float64) bool { return !math.IsInf(v, 0) && !math.IsNaN(v) }

// priority of the node at id as seen by its parent.
func (t *Tree) priority(id NodeID) int {
	n := t.arena.at(id)
	if n.kind == KindOperation {
		return n.op.Priority()
	}
	return prioLeaf
}

// needsParens decides whether child, sitting left or right of a binary
// operation parent, must be wrapped. Every binary tier is left-associative, so
// a right child of equal priority keeps its parentheses.
func (t *Tree) needsParens(parent Op, child NodeID, right bool) bool {
	c := t.arena.at(child)
	if c.kind == KindNumber && !finite(c.num) {
		// formatNumber already brackets these.
		return false
	}
	if c.kind == KindNumber && c.num < 0 {
		// -1*x and -1+x read back as written; anything else is ambiguous.
		return right || parent == OpPow
	}
	p, cp := parent.Priority(), t.priority(child)
	if right {
		return cp <= p
	}
	return cp < p
}

func (t *Tree) writeInfix(sb *strings.Builder, id NodeID) {
	if id == NilNode {
		sb.WriteString("?")
		return
	}
	n := t.arena.at(id)
	switch n.kind {
	case KindNumber:
		sb.WriteString(formatNumber(n.num))
	case KindVariable:
		sb.WriteByte(t.vars.Name(n.varIdx))
	case KindOperation:
		switch {
		case n.op == OpLog:
			sb.WriteString("log(")
			t.writeInfix(sb, n.left)
			sb.WriteString(", ")
			t.writeInfix(sb, n.right)
			sb.WriteByte(')')
		case n.op.IsUnary():
			sb.WriteString(n.op.String())
			sb.WriteByte('(')
			t.writeInfix(sb, n.right)
			sb.WriteByte(')')
		default:
			t.writeOperand(sb, n.op, n.left, false)
			sb.WriteString(n.op.String())
			t.writeOperand(sb, n.op, n.right, true)
		}
	default:
		sb.WriteString("?")
	}
}

func (t *Tree) writeOperand(sb *strings.Builder, parent Op, child NodeID, right bool) {
	if child != NilNode && t.needsParens(parent, child, right) {
		sb.WriteByte('(')
		t.writeInfix(sb, child)
		sb.WriteByte(')')
		return
	}
	t.writeInfix(sb, child)
}

// LaTeX renders the tree as a LaTeX formula. Nodes carrying a substitution
// annotation are printed by name.
func (t *Tree) LaTeX() string {
	if t == nil || t.root == NilNode {
		return ""
	}
	return t.FormatLaTeX(t.root)
}

func (t *Tree) FormatLaTeX(id NodeID) string {
	var sb strings.Builder
	t.writeLaTeX(&sb, id, false)
	return sb.String()
}

// writeLaTeX writes id. Substitution names apply to nested nodes only, so a
// tagged subtree can itself be rendered in full.
func (t *Tree) writeLaTeX(sb *strings.Builder, id NodeID, nested bool) {
	if id == NilNode {
		sb.WriteString("?")
		return
	}
	n := t.arena.at(id)
	if nested && n.subst {
		sb.WriteString(n.substName)
		return
	}
	switch n.kind {
	case KindNumber:
		sb.WriteString(latexNumber(n.num))
	case KindVariable:
		sb.WriteByte(t.vars.Name(n.varIdx))
	case KindOperation:
		switch n.op {
		case OpDiv:
			sb.WriteString(`\frac{`)
			t.writeLaTeX(sb, n.left, true)
			sb.WriteString("}{")
			t.writeLaTeX(sb, n.right, true)
			sb.WriteString("}")
		case OpPow:
			base := t.arena.at(n.left)
			if (base.kind == KindOperation && !base.subst) || (base.kind == KindNumber && base.num < 0) {
				t.writeLaTeXArg(sb, n.left)
			} else {
				t.writeLaTeX(sb, n.left, true)
			}
			sb.WriteString("^{")
			t.writeLaTeX(sb, n.right, true)
			sb.WriteString("}")
		case OpLog:
			sb.WriteString(`\log_{`)
			t.writeLaTeX(sb, n.left, true)
			sb.WriteString("}")
			t.writeLaTeXArg(sb, n.right)
		case OpAdd, OpSub, OpMul:
			t.writeLaTeXOperand(sb, n.op, n.left, false)
			switch n.op {
			case OpMul:
				sb.WriteString(` \cdot `)
			default:
				sb.WriteString(" " + n.op.LaTeX() + " ")
			}
			t.writeLaTeXOperand(sb, n.op, n.right, true)
		default:
			sb.WriteString(n.op.LaTeX())
			t.writeLaTeXArg(sb, n.right)
		}
	default:
		sb.WriteString("?")
	}
}

func (t *Tree) writeLaTeXArg(sb *strings.Builder, id NodeID) {
	sb.WriteString(`\left(`)
	t.writeLaTeX(sb, id, true)
	sb.WriteString(`\right)`)
}

func (t *Tree) writeLaTeXOperand(sb *strings.Builder, parent Op, child NodeID, right bool) {
	if child == NilNode {
		sb.WriteString("?")
		return
	}
	c := t.arena.at(child)
	if !c.subst && t.needsParens(parent, child, right) && !(c.kind == KindOperation && c.op == OpDiv) {
		t.writeLaTeXArg(sb, child)
		return
	}
	t.writeLaTeX(sb, child, true)
}
