package gosymdiff

import (
	"math"

	"github.com/cornelk/hashmap"
	"golang.org/x/exp/constraints"
)

// ============================================================
// Operations
// ============================================================

// Op is the closed set of operations an operation node can carry.
type Op uint8

const (
	OpUnknown Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPow
	OpLog // log_b(x): left is the base, right the argument
	OpLn
	OpSin
	OpCos
	OpTan
	OpCot
	OpArcsin
	OpArccos
	OpArctan
	OpArccot
	OpSinh
	OpCosh
	OpTanh
	OpCoth
	opCount
)

type opInfo struct {
	name     string
	aliases  []string
	arity    int
	priority int
	latex    string
}

// Priorities: higher binds tighter. Function applications are atomic.
const (
	prioAdd  = 1
	prioMul  = 2
	prioPow  = 3
	prioFunc = 4
	prioLeaf = 5
)

var operations = [opCount]opInfo{
	OpAdd:    {name: "+", arity: 2, priority: prioAdd, latex: "+"},
	OpSub:    {name: "-", arity: 2, priority: prioAdd, latex: "-"},
	OpMul:    {name: "*", arity: 2, priority: prioMul, latex: `\cdot`},
	OpDiv:    {name: "/", arity: 2, priority: prioMul, latex: `\frac`},
	OpPow:    {name: "^", arity: 2, priority: prioPow, latex: "^"},
	OpLog:    {name: "log", arity: 2, priority: prioFunc, latex: `\log`},
	OpLn:     {name: "ln", arity: 1, priority: prioFunc, latex: `\ln`},
	OpSin:    {name: "sin", arity: 1, priority: prioFunc, latex: `\sin`},
	OpCos:    {name: "cos", arity: 1, priority: prioFunc, latex: `\cos`},
	OpTan:    {name: "tan", aliases: []string{"tg"}, arity: 1, priority: prioFunc, latex: `\tan`},
	OpCot:    {name: "cot", aliases: []string{"ctg"}, arity: 1, priority: prioFunc, latex: `\cot`},
	OpArcsin: {name: "arcsin", arity: 1, priority: prioFunc, latex: `\arcsin`},
	OpArccos: {name: "arccos", arity: 1, priority: prioFunc, latex: `\arccos`},
	OpArctan: {name: "arctan", aliases: []string{"arctg"}, arity: 1, priority: prioFunc, latex: `\arctan`},
	OpArccot: {name: "arccot", aliases: []string{"arcctg"}, arity: 1, priority: prioFunc, latex: `\operatorname{arccot}`},
	OpSinh:   {name: "sinh", aliases: []string{"sh"}, arity: 1, priority: prioFunc, latex: `\sinh`},
	OpCosh:   {name: "cosh", aliases: []string{"ch"}, arity: 1, priority: prioFunc, latex: `\cosh`},
	OpTanh:   {name: "tanh", aliases: []string{"th"}, arity: 1, priority: prioFunc, latex: `\tanh`},
	OpCoth:   {name: "coth", aliases: []string{"cth"}, arity: 1, priority: prioFunc, latex: `\coth`},
}

// opNames is built once and only read afterwards; parsers on different
// goroutines share it.
var opNames = buildOpNames()

func buildOpNames() *hashmap.Map[string, Op] {
	m := hashmap.New[string, Op]()
	for op := OpAdd; op < opCount; op++ {
		m.Set(operations[op].name, op)
		for _, alias := range operations[op].aliases {
			m.Set(alias, op)
		}
	}
	return m
}

// LookupOp resolves an operation by name or alias ("tg", "sh", ...).
func LookupOp(name string) (Op, bool) {
	op, ok := opNames.Get(name)
	if !ok {
		return OpUnknown, false
	}
	return op, true
}

func (op Op) Valid() bool { return op > OpUnknown && op < opCount }

func (op Op) String() string {
	if !op.Valid() {
		return "unknown"
	}
	return operations[op].name
}

func (op Op) Arity() int {
	if !op.Valid() {
		return 0
	}
	return operations[op].arity
}

func (op Op) IsUnary() bool { return op.Arity() == 1 }

func (op Op) Priority() int {
	if !op.Valid() {
		return 0
	}
	return operations[op].priority
}

func (op Op) LaTeX() string {
	if !op.Valid() {
		return ""
	}
	return operations[op].latex
}

// Apply evaluates op on concrete operands. Unary operations read only right.
// Domain errors follow floating-point semantics.
func (op Op) Apply(left, right float64) float64 {
	switch op {
	case OpAdd:
		return left + right
	case OpSub:
		return left - right
	case OpMul:
		return left * right
	case OpDiv:
		return left / right
	case OpPow:
		return math.Pow(left, right)
	case OpLog:
		return math.Log(right) / math.Log(left)
	case OpLn:
		return math.Log(right)
	case OpSin:
		return math.Sin(right)
	case OpCos:
		return math.Cos(right)
	case OpTan:
		return math.Tan(right)
	case OpCot:
		return 1 / math.Tan(right)
	case OpArcsin:
		return math.Asin(right)
	case OpArccos:
		return math.Acos(right)
	case OpArctan:
		return math.Atan(right)
	case OpArccot:
		return math.Pi/2 - math.Atan(right)
	case OpSinh:
		return math.Sinh(right)
	case OpCosh:
		return math.Cosh(right)
	case OpTanh:
		return math.Tanh(right)
	case OpCoth:
		return 1 / math.Tanh(right)
	}
	return math.NaN()
}

// Operations lists every supported operation in code order.
func Operations() []Op {
	ops := make([]Op, 0, opCount-1)
	for op := OpAdd; op < opCount; op++ {
		ops = append(ops, op)
	}
	return ops
}

// ============================================================
// Numeric helpers
// ============================================================

// DefaultEpsilon is the tolerance used when comparing against neutral elements.
const DefaultEpsilon = 1e-9

func approxEqual[F constraints.Float](a, b, eps F) bool {
	if a == b {
		return true
	}
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}
