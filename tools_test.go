package gosymdiff_test

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/njchilds90/gosymdiff"
)

// ============================================================
// MCP tool tests
// ============================================================

func call(t *testing.T, tool string, params map[string]interface{}) gosymdiff.ToolResponse {
	t.Helper()
	resp := gosymdiff.HandleToolCall(gosymdiff.ToolRequest{Tool: tool, Params: params})
	if resp.Error != "" {
		t.Fatalf("%s: unexpected error: %s", tool, resp.Error)
	}
	return resp
}

func TestHandleToolCall_Derivative(t *testing.T) {
	resp := call(t, "derivative", map[string]interface{}{"expr": "x^2", "var": "x"})
	if resp.String != "2*x" {
		t.Errorf("want 2*x, got %s", resp.String)
	}
	m, ok := resp.Result.(map[string]interface{})
	if !ok || m["type"] != "op" || m["op"] != "*" {
		t.Errorf("unexpected result %v", resp.Result)
	}
	if resp.LaTeX != `2 \cdot x` {
		t.Errorf("want 2 \\cdot x, got %s", resp.LaTeX)
	}

	resp = call(t, "derivative", map[string]interface{}{"expr": "x^3", "var": "x", "n": float64(3)})
	if resp.String != "6" {
		t.Errorf("third derivative of x^3: want 6, got %s", resp.String)
	}
}

func TestHandleToolCall_DiffIsRaw(t *testing.T) {
	resp := call(t, "diff", map[string]interface{}{"expr": "x^2", "var": "x"})
	if resp.String != "2*x^(2-1)*1" {
		t.Errorf("want the unsimplified 2*x^(2-1)*1, got %s", resp.String)
	}
}

func TestHandleToolCall_JSONExpr(t *testing.T) {
	arena := gosymdiff.NewArena()
	tree, _ := gosymdiff.Parse("x*1+0", arena, gosymdiff.NewVarTable(0))
	j, _ := gosymdiff.ToJSON(tree)
	var m map[string]interface{}
	json.Unmarshal([]byte(j), &m)

	resp := call(t, "simplify", map[string]interface{}{"expr": m, "trace": true})
	if resp.String != "x" {
		t.Errorf("want x, got %s", resp.String)
	}
	if len(resp.Steps) != 2 {
		t.Fatalf("want 2 traced steps, got %+v", resp.Steps)
	}
	if resp.Steps[0].Name != "neutral" || resp.Steps[0].Before != "x*1+0" {
		t.Errorf("unexpected first step %+v", resp.Steps[0])
	}
}

func TestHandleToolCall_NoTraceByDefault(t *testing.T) {
	resp := call(t, "simplify", map[string]interface{}{"expr": "x*1+0"})
	if resp.Steps != nil {
		t.Errorf("want no steps without trace, got %d", len(resp.Steps))
	}
}

func TestHandleToolCall_InfiniteResultEncodes(t *testing.T) {
	resp := call(t, "simplify", map[string]interface{}{"expr": "1/0"})
	if resp.String != "(1/0)" {
		t.Errorf("want (1/0), got %s", resp.String)
	}
	m, _ := resp.Result.(map[string]interface{})
	if m["value"] != "+Inf" {
		t.Errorf("want value +Inf, got %v", resp.Result)
	}
	if _, err := json.Marshal(resp); err != nil {
		t.Errorf("response does not encode: %v", err)
	}

	resp = call(t, "evaluate", map[string]interface{}{"expr": "ln(0)"})
	if resp.String != "-Inf" {
		t.Errorf("want -Inf, got %s", resp.String)
	}
	if _, err := json.Marshal(resp); err != nil {
		t.Errorf("response does not encode: %v", err)
	}
}

func TestHandleToolCall_Evaluate(t *testing.T) {
	resp := call(t, "evaluate", map[string]interface{}{
		"expr":   "x*y",
		"values": map[string]interface{}{"x": float64(2), "y": float64(3)},
	})
	if resp.String != "6" {
		t.Errorf("want 6, got %s", resp.String)
	}
}

func TestHandleToolCall_Taylor(t *testing.T) {
	resp := call(t, "taylor", map[string]interface{}{"expr": "x^2", "var": "x", "order": float64(3)})
	if resp.String != "x^2" {
		t.Errorf("want x^2, got %s", resp.String)
	}
	resp = call(t, "taylor", map[string]interface{}{"expr": "cos(x)", "var": "x", "order": float64(4)})
	if !strings.Contains(resp.String, "x^4") || strings.Contains(resp.String, "x^3") {
		t.Errorf("unexpected cos(x) polynomial %s", resp.String)
	}
}

func TestHandleToolCall_ToLaTeX(t *testing.T) {
	resp := call(t, "to_latex", map[string]interface{}{
		"expr":           "sin(x+1)*cos(y*2)+x",
		"abbreviate_min": float64(3),
		"abbreviate_max": float64(5),
	})
	if resp.LaTeX != `I_{1} \cdot I_{2} + x` {
		t.Errorf("unexpected LaTeX %q", resp.LaTeX)
	}
	defs, ok := resp.Result.(map[string]string)
	if !ok {
		t.Fatalf("want map[string]string, got %T", resp.Result)
	}
	if defs["I_{2}"] != `\cos\left(y \cdot 2\right)` {
		t.Errorf("unexpected I_{2} = %q", defs["I_{2}"])
	}

	resp = call(t, "to_latex", map[string]interface{}{"expr": "x/2"})
	if resp.LaTeX != `\frac{x}{2}` || resp.Result != nil {
		t.Errorf("unexpected plain LaTeX response %+v", resp)
	}
}

func TestHandleToolCall_Size(t *testing.T) {
	resp := call(t, "size", map[string]interface{}{"expr": "sin(x)+1"})
	if n, ok := resp.Result.(int); !ok || n != 4 {
		t.Errorf("want 4, got %v", resp.Result)
	}
}

func TestHandleToolCall_Errors(t *testing.T) {
	cases := []struct {
		tool   string
		params map[string]interface{}
		want   string
	}{
		{"nonexistent", map[string]interface{}{}, "unknown tool"},
		{"derivative", map[string]interface{}{"var": "x"}, "missing param: expr"},
		{"derivative", map[string]interface{}{"expr": "x"}, "missing param: var"},
		{"derivative", map[string]interface{}{"expr": "x", "var": "xy"}, "single letter"},
		{"derivative", map[string]interface{}{"expr": "x", "var": "x", "n": 1.5}, "non-negative integer"},
		{"parse", map[string]interface{}{"expr": 42.0}, "invalid type"},
		{"parse", map[string]interface{}{"expr": "foo(x)"}, "unknown operation"},
		{"evaluate", map[string]interface{}{"expr": "x", "values": map[string]interface{}{"x": "one"}}, "must be a number"},
	}
	for _, c := range cases {
		resp := gosymdiff.HandleToolCall(gosymdiff.ToolRequest{Tool: c.tool, Params: c.params})
		if !strings.Contains(resp.Error, c.want) {
			t.Errorf("%s %v: want error containing %q, got %q", c.tool, c.params, c.want, resp.Error)
		}
	}
}

func TestHandleToolCall_NodeLimit(t *testing.T) {
	cfg := gosymdiff.DefaultConfig()
	cfg.NodeLimit = 8
	resp := gosymdiff.HandleToolCallWith(cfg, gosymdiff.ToolRequest{
		Tool:   "derivative",
		Params: map[string]interface{}{"expr": "sin(x)*cos(x)", "var": "x"},
	})
	if !strings.Contains(resp.Error, "out of memory") {
		t.Errorf("want out of memory, got %+v", resp)
	}
}

func TestHandleToolCall_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := gosymdiff.HandleToolCall(gosymdiff.ToolRequest{
				Tool:   "derivative",
				Params: map[string]interface{}{"expr": "sin(x)*x", "var": "x"},
			})
			if resp.String != "cos(x)*x+sin(x)" {
				errs <- resp.String + resp.Error
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Errorf("unexpected response %q", e)
	}
}

func TestMCPToolSpec(t *testing.T) {
	var spec struct {
		Tools []struct {
			Name        string                 `json:"name"`
			InputSchema map[string]interface{} `json:"inputSchema"`
		} `json:"tools"`
	}
	if err := json.Unmarshal([]byte(gosymdiff.MCPToolSpec()), &spec); err != nil {
		t.Fatal(err)
	}
	if len(spec.Tools) != 9 {
		t.Errorf("want 9 tools, got %d", len(spec.Tools))
	}
	for _, tool := range spec.Tools {
		if tool.InputSchema["type"] != "object" {
			t.Errorf("%s: want object schema", tool.Name)
		}
	}
	resp := call(t, "mcp_spec", nil)
	if resp.Result != gosymdiff.MCPToolSpec() {
		t.Error("mcp_spec should return the schema")
	}
}
