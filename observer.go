package gosymdiff

import (
	"context"
	"log/slog"
)

// ============================================================
// Step notifications
// ============================================================

// Action names the kind of rewrite a Step reports.
type Action uint8

const (
	ActionDifferentiate Action = iota + 1 // an operation node was differentiated
	ActionFold                            // a constant subtree was folded to a number
	ActionNeutral                         // a neutral-element rule fired
	ActionResult                          // the final simplified derivative
	ActionSeriesTerm                      // a Taylor coefficient was evaluated
)

func (a Action) String() string {
	switch a {
	case ActionDifferentiate:
		return "differentiate"
	case ActionFold:
		return "fold"
	case ActionNeutral:
		return "neutral"
	case ActionResult:
		return "result"
	case ActionSeriesTerm:
		return "series_term"
	}
	return "unknown"
}

// Subtree points at one node of a tree. It is only valid for the duration of
// the Observe call that received it: the nodes may be freed right after.
type Subtree struct {
	Tree *Tree
	Node NodeID
}

func (s Subtree) String() string {
	if s.Tree == nil || s.Node == NilNode {
		return ""
	}
	return s.Tree.Format(s.Node)
}

func (s Subtree) LaTeX() string {
	if s.Tree == nil || s.Node == NilNode {
		return ""
	}
	return s.Tree.FormatLaTeX(s.Node)
}

type Step struct {
	Action Action
	Before Subtree
	After  Subtree
}

// Observer receives every rewrite performed by the differentiator and the
// simplifier. Implementations must copy whatever they need out of the step.
type Observer interface {
	Observe(Step)
}

type ObserverFunc func(Step)

func (f ObserverFunc) Observe(s Step) { f(s) }

type nopObserver struct{}

func (nopObserver) Observe(Step) {}

// NopObserver discards every step. A nil Observer behaves the same way.
var NopObserver Observer = nopObserver{}

func notify(obs Observer, s Step) {
	if obs != nil {
		obs.Observe(s)
	}
}

// MultiObserver fans a step out to several observers in order.
type MultiObserver []Observer

func (m MultiObserver) Observe(s Step) {
	for _, o := range m {
		notify(o, s)
	}
}

// RecordedStep is a Step rendered to text.
type RecordedStep struct {
	Action Action `json:"-"`
	Name   string `json:"action"`
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// Recorder keeps a rendered copy of every step.
type Recorder struct {
	Steps []RecordedStep
}

func (r *Recorder) Observe(s Step) {
	r.Steps = append(r.Steps, RecordedStep{
		Action: s.Action,
		Name:   s.Action.String(),
		Before: s.Before.String(),
		After:  s.After.String(),
	})
}

// Count returns how many recorded steps carry action a.
func (r *Recorder) Count(a Action) int {
	n := 0
	for _, s := range r.Steps {
		if s.Action == a {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() { r.Steps = r.Steps[:0] }

// LogObserver logs each step at debug level.
func LogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		return NopObserver
	}
	return ObserverFunc(func(s Step) {
		if !logger.Enabled(context.Background(), slog.LevelDebug) {
			return
		}
		logger.Debug("step",
			slog.String("action", s.Action.String()),
			slog.String("before", s.Before.String()),
			slog.String("after", s.After.String()),
		)
	})
}
