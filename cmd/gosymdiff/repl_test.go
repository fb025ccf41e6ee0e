package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/njchilds90/gosymdiff"
	"github.com/njchilds90/gosymdiff/internal/journal"
)

func session(t *testing.T, j *journal.Journal, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	r := newREPL(gosymdiff.DefaultConfig(), j, &out)
	for _, line := range lines {
		if r.handle(line) {
			break
		}
	}
	return out.String()
}

func TestREPLDifferentiates(t *testing.T) {
	out := session(t, nil, "x^2")
	if !strings.Contains(out, "f  = x^2") {
		t.Errorf("missing parsed form in %q", out)
	}
	if !strings.Contains(out, "f' = 2*x") {
		t.Errorf("missing derivative in %q", out)
	}
}

func TestREPLVarAndEval(t *testing.T) {
	out := session(t, nil, "x*y", ":var y", ":set x=3", ":set y=2", ":eval")
	if !strings.Contains(out, "f' = x    (d/dy)") {
		t.Errorf("want derivative wrt y in %q", out)
	}
	if !strings.Contains(out, "f  = 6\n") || !strings.Contains(out, "f' = 3\n") {
		t.Errorf("want f=6 and f'=3 in %q", out)
	}
}

func TestREPLTaylor(t *testing.T) {
	out := session(t, nil, "x^2", ":taylor x 0 3")
	if !strings.Contains(out, "T  = x^2") {
		t.Errorf("want T = x^2 in %q", out)
	}
}

func TestREPLLoadBindings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.yaml")
	if err := os.WriteFile(path, []byte("x: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := session(t, nil, "x+1", ":load "+path, ":eval")
	if !strings.Contains(out, "loaded 1 bindings") || !strings.Contains(out, "f  = 5\n") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestREPLErrors(t *testing.T) {
	out := session(t, nil, "foo(x)", ":eval", ":bogus")
	if !strings.Contains(out, "unknown operation") {
		t.Errorf("want unknown operation error in %q", out)
	}
	if !strings.Contains(out, "no expression") {
		t.Errorf("want no expression error in %q", out)
	}
	if !strings.Contains(out, "unknown command :bogus") {
		t.Errorf("want unknown command error in %q", out)
	}
}

func TestREPLQuit(t *testing.T) {
	out := session(t, nil, ":quit", "x")
	if out != "" {
		t.Errorf("want no output after :quit, got %q", out)
	}
}

func TestREPLJournal(t *testing.T) {
	j, err := journal.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	session(t, j, "sin(x)")
	runs, err := j.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Steps == 0 {
		t.Errorf("want one run with steps, got %+v", runs)
	}
}
