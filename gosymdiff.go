// Package gosymdiff is a symbolic differentiation kernel for Go.
//
// Expressions are parsed into binary trees whose nodes live in an Arena and
// whose variables live in a shared VarTable. A tree can be evaluated,
// differentiated with respect to one variable and simplified to a fixed point
// of constant folding and neutral-element elimination. Every rewrite can be
// reported to an Observer.
//
//	arena := gosymdiff.NewArena()
//	vars := gosymdiff.NewVarTable(0)
//	t, _ := gosymdiff.Parse("sin(x)*x", arena, vars)
//	d, _ := gosymdiff.Derivative(t, 0, nil)
//	fmt.Println(d) // cos(x)*x+sin(x)
//
// Trees sharing an arena are not safe for concurrent use. Separate arenas can
// be used from separate goroutines.
package gosymdiff

import (
	"errors"
	"io"
	"log/slog"
)

// ============================================================
// Errors
// ============================================================

var (
	ErrOutOfMemory       = errors.New("gosymdiff: out of memory")
	ErrReading           = errors.New("gosymdiff: reading error")
	ErrUnknownOperation  = errors.New("gosymdiff: unknown operation")
	ErrUnknownNodeType   = errors.New("gosymdiff: unknown node type")
	ErrMalformedTree     = errors.New("gosymdiff: malformed tree")
	ErrVariablesOverflow = errors.New("gosymdiff: too many variables")
	ErrUnknownVariable   = errors.New("gosymdiff: unknown variable")
	ErrDifferentiating   = errors.New("gosymdiff: differentiation error")
)

// ============================================================
// Configuration
// ============================================================

// DefaultMaxDepth bounds parser nesting.
const DefaultMaxDepth = 1000

// Config collects the tunables of a Workspace.
type Config struct {
	BlockSize int     // node slots per arena container
	NodeLimit int     // live node cap, 0 for none
	MaxVars   int     // variable table capacity
	MaxDepth  int     // parser nesting limit
	Epsilon   float64 // neutral element tolerance
	Logger    *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		BlockSize: DefaultBlockSize,
		MaxVars:   DefaultMaxVars,
		MaxDepth:  DefaultMaxDepth,
		Epsilon:   DefaultEpsilon,
		Logger:    discardLogger(),
	}
}

// normalize fills zero fields with defaults.
func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.BlockSize <= 0 {
		c.BlockSize = d.BlockSize
	}
	if c.NodeLimit < 0 {
		c.NodeLimit = 0
	}
	if c.MaxVars <= 0 {
		c.MaxVars = d.MaxVars
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.Epsilon <= 0 {
		c.Epsilon = d.Epsilon
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	return c
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ============================================================
// Top-level convenience functions
// ============================================================

// DiffString parses src, differentiates it with respect to the variable
// named v and returns the simplified derivative as text.
func DiffString(src string, v byte) (string, error) {
	return DiffNString(src, v, 1)
}

// DiffNString is DiffString for the n-th derivative.
func DiffNString(src string, v byte, n int) (string, error) {
	arena := NewArena()
	vars := NewVarTable(0)
	t, err := Parse(src, arena, vars)
	if err != nil {
		return "", err
	}
	defer t.Release()
	idx, ok := vars.Lookup(v)
	if !ok && n > 0 {
		// Every node is constant with respect to an absent variable.
		return "0", nil
	}
	d, err := DiffN(t, idx, n, nil)
	if err != nil {
		return "", err
	}
	defer d.Release()
	return d.String(), nil
}

// SimplifyString parses and simplifies src.
func SimplifyString(src string) (string, error) {
	arena := NewArena()
	t, err := Parse(src, arena, NewVarTable(0))
	if err != nil {
		return "", err
	}
	defer t.Release()
	if err := Simplify(t, nil); err != nil {
		return "", err
	}
	return t.String(), nil
}
