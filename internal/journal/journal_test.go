package journal_test

import (
	"path/filepath"
	"testing"

	"github.com/njchilds90/gosymdiff"
	"github.com/njchilds90/gosymdiff/internal/journal"
)

func derive(t *testing.T, src string, obs gosymdiff.Observer) string {
	t.Helper()
	arena := gosymdiff.NewArena()
	vars := gosymdiff.NewVarTable(0)
	tree, err := gosymdiff.Parse(src, arena, vars)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	d, err := gosymdiff.Derivative(tree, 0, obs)
	if err != nil {
		t.Fatalf("Derivative(%q): %v", src, err)
	}
	return d.String()
}

func TestJournalRecordsSteps(t *testing.T) {
	j, err := journal.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	run, err := j.Begin("x*x")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	rec := &gosymdiff.Recorder{}
	got := derive(t, "x*x", gosymdiff.MultiObserver{run, rec})
	if run.Err() != nil {
		t.Fatalf("run error: %v", run.Err())
	}
	if run.Len() != len(rec.Steps) {
		t.Errorf("want %d steps written, got %d", len(rec.Steps), run.Len())
	}

	steps, err := j.Steps(run.ID)
	if err != nil {
		t.Fatalf("Steps: %v", err)
	}
	if len(steps) != len(rec.Steps) {
		t.Fatalf("want %d stored steps, got %d", len(rec.Steps), len(steps))
	}
	for i, s := range steps {
		if s.Seq != i {
			t.Errorf("step %d: want seq %d, got %d", i, i, s.Seq)
		}
		if s.Action != rec.Steps[i].Name || s.Before != rec.Steps[i].Before || s.After != rec.Steps[i].After {
			t.Errorf("step %d: want %+v, got %+v", i, rec.Steps[i], s)
		}
	}
	last := steps[len(steps)-1]
	if last.Action != "result" || last.After != got {
		t.Errorf("want final result step %q, got %+v", got, last)
	}
}

func TestJournalRuns(t *testing.T) {
	j, err := journal.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	first, _ := j.Begin("first")
	second, _ := j.Begin("second")
	derive(t, "sin(x)", second)

	runs, err := j.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("want 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first.ID || runs[0].Label != "first" || runs[0].Steps != 0 {
		t.Errorf("unexpected first run %+v", runs[0])
	}
	if runs[1].Label != "second" || runs[1].Steps != second.Len() || runs[1].Steps == 0 {
		t.Errorf("unexpected second run %+v (wrote %d)", runs[1], second.Len())
	}
	if runs[1].Created.IsZero() {
		t.Error("want a creation time")
	}
}

func TestJournalPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.db")
	j, err := journal.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	run, _ := j.Begin("ln(x)")
	derive(t, "ln(x)", run)
	written := run.Len()
	j.Close()

	j2, err := journal.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j2.Close()
	steps, err := j2.Steps(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != written {
		t.Errorf("want %d steps after reopen, got %d", written, len(steps))
	}
}
