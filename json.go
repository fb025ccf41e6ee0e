package gosymdiff

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ============================================================
// JSON Serialization
// ============================================================

// ToJSON encodes the tree as nested objects:
//
//	{"type":"num","value":2}
//	{"type":"num","value":"+Inf"}   (also "-Inf" and "NaN")
//	{"type":"var","name":"x"}
//	{"type":"op","op":"sin","arg":{...}}
//	{"type":"op","op":"+","left":{...},"right":{...}}
func ToJSON(t *Tree) (string, error) {
	b, err := json.Marshal(t.ToMap())
	return string(b), err
}

// ToMap returns the JSON shape of the tree, nil for an empty tree.
func (t *Tree) ToMap() map[string]interface{} {
	if t.root == NilNode {
		return nil
	}
	return t.toJSON(t.root)
}

func (t *Tree) toJSON(id NodeID) map[string]interface{} {
	n := t.arena.at(id)
	switch n.kind {
	case KindNumber:
		return map[string]interface{}{"type": "num", "value": jsonNumber(n.num)}
	case KindVariable:
		return map[string]interface{}{"type": "var", "name": string(t.vars.Name(n.varIdx))}
	case KindOperation:
		m := map[string]interface{}{"type": "op", "op": n.op.String()}
		if n.op.IsUnary() {
			m["arg"] = t.toJSON(n.right)
		} else {
			m["left"] = t.toJSON(n.left)
			m["right"] = t.toJSON(n.right)
		}
		return m
	}
	return map[string]interface{}{"type": n.kind.String()}
}

// jsonNumber keeps v a JSON number when it can be one.
func jsonNumber(v float64) interface{} {
	if finite(v) {
		return v
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FromJSON decodes the ToJSON shape into a new tree on arena and vars. On
// error nothing allocated by the call stays live.
func FromJSON(data map[string]interface{}, arena *Arena, vars *VarTable) (*Tree, error) {
	b := newBuilder(arena)
	known := vars.Len()
	root := decodeNode(b, vars, data)
	if b.err != nil {
		b.rollback()
		vars.truncate(known)
		return nil, b.err
	}
	return &Tree{arena: arena, vars: vars, root: root}, nil
}

func decodeNode(b *builder, vars *VarTable, data map[string]interface{}) NodeID {
	if b.err != nil {
		return NilNode
	}
	if data == nil {
		return b.fail(fmt.Errorf("%w: expression must be an object", ErrReading))
	}
	typ, _ := data["type"].(string)

	subObj := func(field string) map[string]interface{} {
		m, ok := data[field].(map[string]interface{})
		if !ok {
			b.fail(fmt.Errorf("%w: %s: %q must be an object", ErrReading, typ, field))
		}
		return m
	}

	switch typ {
	case "num":
		switch v := data["value"].(type) {
		case float64:
			return b.num(v)
		case string:
			switch v {
			case "+Inf":
				return b.num(math.Inf(1))
			case "-Inf":
				return b.num(math.Inf(-1))
			case "NaN":
				return b.num(math.NaN())
			}
		}
		return b.fail(fmt.Errorf("%w: num: 'value' must be a number, \"+Inf\", \"-Inf\" or \"NaN\"", ErrReading))

	case "var":
		name, _ := data["name"].(string)
		if len(name) != 1 || !isLetter(name[0]) {
			return b.fail(fmt.Errorf("%w: var: 'name' must be a single letter", ErrReading))
		}
		idx, err := vars.Add(name[0])
		if err != nil {
			return b.fail(err)
		}
		return b.variable(idx)

	case "op":
		name, _ := data["op"].(string)
		op, ok := LookupOp(name)
		if !ok {
			return b.fail(fmt.Errorf("%w: %q", ErrUnknownOperation, name))
		}
		if op.IsUnary() {
			arg := subObj("arg")
			return b.unary(op, decodeNode(b, vars, arg))
		}
		left, right := subObj("left"), subObj("right")
		l := decodeNode(b, vars, left)
		r := decodeNode(b, vars, right)
		return b.op(op, l, r)
	}
	return b.fail(fmt.Errorf("%w: unknown expression type %q", ErrUnknownNodeType, typ))
}
