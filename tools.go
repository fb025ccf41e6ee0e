package gosymdiff

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ============================================================
// MCP Tool Interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{}    `json:"result,omitempty"`
	LaTeX  string         `json:"latex,omitempty"`
	String string         `json:"string,omitempty"`
	Steps  []RecordedStep `json:"steps,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// HandleToolCall runs one tool with the default configuration. Every call
// works on its own arena, so calls may run concurrently.
func HandleToolCall(req ToolRequest) ToolResponse {
	return HandleToolCallWith(DefaultConfig(), req)
}

// HandleToolCallWith is HandleToolCall with an explicit configuration.
func HandleToolCallWith(cfg Config, req ToolRequest) ToolResponse {
	w := NewWorkspace(cfg)
	rec := &Recorder{}
	if trace, _ := req.Params["trace"].(bool); trace {
		w.SetObserver(rec)
	}

	getExpr := func(key string) (*Tree, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		switch val := v.(type) {
		case string:
			return w.Parse(val)
		case map[string]interface{}:
			return FromJSON(val, w.arena, w.vars)
		}
		return nil, fmt.Errorf("invalid type for param %s", key)
	}
	getVar := func(key string) (byte, error) {
		v, ok := req.Params[key]
		if !ok {
			return 0, fmt.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok || len(s) != 1 {
			return 0, fmt.Errorf("param %s must be a single letter", key)
		}
		return s[0], nil
	}
	getNumber := func(key string, def float64) (float64, error) {
		v, ok := req.Params[key]
		if !ok {
			return def, nil
		}
		f, ok := v.(float64)
		if !ok {
			return 0, fmt.Errorf("param %s must be a number", key)
		}
		return f, nil
	}
	getInt := func(key string, def int) (int, error) {
		f, err := getNumber(key, float64(def))
		if err != nil {
			return 0, err
		}
		if f != math.Trunc(f) || f < 0 {
			return 0, fmt.Errorf("param %s must be a non-negative integer", key)
		}
		return int(f), nil
	}
	bindValues := func() error {
		v, ok := req.Params["values"]
		if !ok {
			return nil
		}
		raw, ok := v.(map[string]interface{})
		if !ok {
			return fmt.Errorf("param values must be an object")
		}
		values := make(map[string]float64, len(raw))
		for name, x := range raw {
			f, ok := x.(float64)
			if !ok {
				return fmt.Errorf("param values[%s] must be a number", name)
			}
			values[name] = f
		}
		return w.Bind(values)
	}
	respond := func(t *Tree) ToolResponse {
		resp := ToolResponse{Result: t.ToMap(), LaTeX: t.LaTeX(), String: t.String()}
		if len(rec.Steps) > 0 {
			resp.Steps = rec.Steps
		}
		return resp
	}
	fail := func(err error) ToolResponse { return ToolResponse{Error: err.Error()} }

	switch req.Tool {
	case "parse":
		t, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(t)

	case "simplify":
		t, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		if err := w.Simplify(t); err != nil {
			return fail(err)
		}
		return respond(t)

	case "evaluate":
		t, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		if err := bindValues(); err != nil {
			return fail(err)
		}
		v, err := w.Evaluate(t)
		if err != nil {
			return fail(err)
		}
		s := strconv.FormatFloat(v, 'f', -1, 64)
		return ToolResponse{Result: s, String: s, LaTeX: latexNumber(v)}

	case "diff":
		t, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := getVar("var")
		if err != nil {
			return fail(err)
		}
		d, err := w.Differentiate(t, v)
		if err != nil {
			return fail(err)
		}
		return respond(d)

	case "derivative":
		t, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := getVar("var")
		if err != nil {
			return fail(err)
		}
		n, err := getInt("n", 1)
		if err != nil {
			return fail(err)
		}
		d, err := w.DiffN(t, v, n)
		if err != nil {
			return fail(err)
		}
		return respond(d)

	case "taylor":
		t, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := getVar("var")
		if err != nil {
			return fail(err)
		}
		at, err := getNumber("around", 0)
		if err != nil {
			return fail(err)
		}
		order, err := getInt("order", DefaultTaylorOrder)
		if err != nil {
			return fail(err)
		}
		p, err := w.Taylor(t, v, at, order)
		if err != nil {
			return fail(err)
		}
		return respond(p)

	case "to_latex":
		t, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		lo, err := getInt("abbreviate_min", 0)
		if err != nil {
			return fail(err)
		}
		hi, err := getInt("abbreviate_max", 0)
		if err != nil {
			return fail(err)
		}
		resp := ToolResponse{String: t.String()}
		if hi > 0 {
			defs := map[string]string{}
			for _, id := range t.Abbreviate(lo, hi) {
				name, _ := t.Substitution(id)
				defs[name] = t.FormatLaTeX(id)
			}
			resp.Result = defs
		}
		resp.LaTeX = t.LaTeX()
		return resp

	case "size":
		t, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		n := t.Size(t.root)
		return ToolResponse{Result: n, String: fmt.Sprint(n)}

	case "mcp_spec":
		return ToolResponse{Result: MCPToolSpec(), String: "MCP tool specification"}
	}

	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// ============================================================
// MCP tool schema
// ============================================================

func MCPToolSpec() string {
	tools := []map[string]interface{}{
		ts("parse", "Parse an infix expression and return its tree", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("simplify", "Fold constants and drop neutral elements", []string{"expr"}, map[string]string{"expr": "string", "trace": "boolean"}),
		ts("evaluate", "Evaluate with values={name: number}", []string{"expr"}, map[string]string{"expr": "string", "values": "object"}),
		ts("diff", "Unsimplified first derivative d/dvar", []string{"expr", "var"}, map[string]string{"expr": "string", "var": "string", "trace": "boolean"}),
		ts("derivative", "Simplified n-th derivative (n defaults to 1)", []string{"expr", "var"}, map[string]string{"expr": "string", "var": "string", "n": "integer", "trace": "boolean"}),
		ts("taylor", "Taylor polynomial around a point", []string{"expr", "var"}, map[string]string{"expr": "string", "var": "string", "around": "number", "order": "integer"}),
		ts("to_latex", "Convert to LaTeX, optionally abbreviating subtrees sized in [abbreviate_min, abbreviate_max]", []string{"expr"}, map[string]string{"expr": "string", "abbreviate_min": "integer", "abbreviate_max": "integer"}),
		ts("size", "Number of nodes in the expression tree", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
