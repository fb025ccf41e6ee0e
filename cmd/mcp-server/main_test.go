package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/njchilds90/gosymdiff"
)

func post(t *testing.T, mux *http.ServeMux, body string) (*httptest.ResponseRecorder, gosymdiff.ToolResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/tool", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	var resp gosymdiff.ToolResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	return rr, resp
}

func TestToolEndpoint(t *testing.T) {
	mux := newMux(gosymdiff.DefaultConfig())
	rr, resp := post(t, mux, `{"tool":"derivative","params":{"expr":"x^2","var":"x"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rr.Code)
	}
	if resp.Error != "" {
		t.Fatalf("unexpected error %q", resp.Error)
	}
	if resp.String != "2*x" {
		t.Errorf("want 2*x, got %q", resp.String)
	}
}

func TestToolEndpointInfiniteResult(t *testing.T) {
	mux := newMux(gosymdiff.DefaultConfig())
	rr, resp := post(t, mux, `{"tool":"simplify","params":{"expr":"1/0"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rr.Code)
	}
	if rr.Body.Len() == 0 {
		t.Fatal("want a body")
	}
	if resp.String != "(1/0)" {
		t.Errorf("want (1/0), got %q", resp.String)
	}
}

func TestToolEndpointRejectsBadJSON(t *testing.T) {
	mux := newMux(gosymdiff.DefaultConfig())
	for _, body := range []string{
		`{"tool":`,
		`{"tool":"size","unknown":1}`,
		`{"tool":"size","params":{"expr":"x"}} {}`,
	} {
		rr, _ := post(t, mux, body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: want 400, got %d", body, rr.Code)
		}
	}
}

func TestToolEndpointMethod(t *testing.T) {
	mux := newMux(gosymdiff.DefaultConfig())
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/tool", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("want 405, got %d", rr.Code)
	}
}

func TestSchemaAndHealth(t *testing.T) {
	mux := newMux(gosymdiff.DefaultConfig())

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/schema", nil))
	var spec map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &spec); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	if _, ok := spec["tools"]; !ok {
		t.Error("schema has no tools")
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health body %s", rr.Body.String())
	}
}
