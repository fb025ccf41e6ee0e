package gosymdiff

import (
	"fmt"
	"math"
)

// ============================================================
// Variable table
// ============================================================

// DefaultMaxVars is the default capacity of a VarTable.
const DefaultMaxVars = 10

type variable struct {
	name  byte
	value float64
}

// VarTable maps single-letter variable names to stable indices in insertion
// order. A variable is unbound (NaN) until set. One table is shared by every
// tree derived from the same expression.
type VarTable struct {
	vars     []variable
	capacity int
}

func NewVarTable(capacity int) *VarTable {
	if capacity <= 0 {
		capacity = DefaultMaxVars
	}
	return &VarTable{vars: make([]variable, 0, capacity), capacity: capacity}
}

func (v *VarTable) Len() int      { return len(v.vars) }
func (v *VarTable) Capacity() int { return v.capacity }

// Add registers name and returns its index. An already known name keeps its
// index.
func (v *VarTable) Add(name byte) (int, error) {
	if idx, ok := v.Lookup(name); ok {
		return idx, nil
	}
	if len(v.vars) >= v.capacity {
		return -1, fmt.Errorf("%w: cannot add %q, capacity %d", ErrVariablesOverflow, name, v.capacity)
	}
	v.vars = append(v.vars, variable{name: name, value: math.NaN()})
	return len(v.vars) - 1, nil
}

func (v *VarTable) Lookup(name byte) (int, bool) {
	for i, vr := range v.vars {
		if vr.name == name {
			return i, true
		}
	}
	return -1, false
}

func (v *VarTable) Name(idx int) byte {
	if idx < 0 || idx >= len(v.vars) {
		return '?'
	}
	return v.vars[idx].name
}

// Value returns the bound value of idx, NaN when unbound or unknown.
func (v *VarTable) Value(idx int) float64 {
	if idx < 0 || idx >= len(v.vars) {
		return math.NaN()
	}
	return v.vars[idx].value
}

func (v *VarTable) Bound(idx int) bool { return !math.IsNaN(v.Value(idx)) }

func (v *VarTable) Set(name byte, value float64) error {
	idx, ok := v.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	v.vars[idx].value = value
	return nil
}

func (v *VarTable) SetIndex(idx int, value float64) error {
	if idx < 0 || idx >= len(v.vars) {
		return fmt.Errorf("%w: index %d", ErrUnknownVariable, idx)
	}
	v.vars[idx].value = value
	return nil
}

func (v *VarTable) Unbind(idx int) {
	if idx >= 0 && idx < len(v.vars) {
		v.vars[idx].value = math.NaN()
	}
}

// Reset unbinds every variable but keeps the indices.
func (v *VarTable) Reset() {
	for i := range v.vars {
		v.vars[i].value = math.NaN()
	}
}

// Bind sets every name in values. Names must be single letters already known
// to the table; if any is not, nothing is set.
func (v *VarTable) Bind(values map[string]float64) error {
	idx := make(map[int]float64, len(values))
	for name, val := range values {
		if len(name) != 1 {
			return fmt.Errorf("%w: %q is not a single letter", ErrUnknownVariable, name)
		}
		i, ok := v.Lookup(name[0])
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownVariable, name)
		}
		idx[i] = val
	}
	for i, val := range idx {
		v.vars[i].value = val
	}
	return nil
}

// Bindings returns the bound variables by name.
func (v *VarTable) Bindings() map[string]float64 {
	out := map[string]float64{}
	for _, vr := range v.vars {
		if !math.IsNaN(vr.value) {
			out[string(vr.name)] = vr.value
		}
	}
	return out
}

// truncate forgets every variable registered after the first n.
func (v *VarTable) truncate(n int) {
	if n >= 0 && n < len(v.vars) {
		v.vars = v.vars[:n]
	}
}
