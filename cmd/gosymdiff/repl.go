package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/njchilds90/gosymdiff"
	"github.com/njchilds90/gosymdiff/internal/config"
	"github.com/njchilds90/gosymdiff/internal/journal"
)

const helpText = `expressions: sin(x)*x, log(2, x), x^2/(1+x), tg(x), ...
commands:
  :var x            differentiate with respect to x
  :set x=1.5        bind a variable
  :load file.yaml   bind variables from a YAML file
  :eval             evaluate the expression and its derivative
  :taylor x a n     Taylor polynomial of order n around x=a
  :latex            print LaTeX
  :help             this text
  :quit             leave`

// repl holds the state of one interactive session. Every expression gets a
// fresh workspace; bindings carry over by name.
type repl struct {
	cfg      gosymdiff.Config
	journal  *journal.Journal
	out      io.Writer
	ws       *gosymdiff.Workspace
	expr     *gosymdiff.Tree
	deriv    *gosymdiff.Tree
	diffVar  byte
	bindings map[string]float64
}

func newREPL(cfg gosymdiff.Config, j *journal.Journal, out io.Writer) *repl {
	return &repl{cfg: cfg, journal: j, out: out, bindings: map[string]float64{}}
}

func (r *repl) errorf(format string, args ...any) {
	fmt.Fprintf(r.out, "error: "+format+"\n", args...)
}

// handle processes one input line and reports whether the session ends.
func (r *repl) handle(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ":") {
		r.load(line)
		return false
	}
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprintln(r.out, helpText)
	case ":var":
		if len(fields) != 2 || len(fields[1]) != 1 {
			r.errorf("usage: :var x")
			return false
		}
		r.diffVar = fields[1][0]
		if r.expr != nil {
			r.differentiate()
		}
	case ":set":
		r.set(strings.TrimSpace(strings.TrimPrefix(line, ":set")))
	case ":load":
		if len(fields) != 2 {
			r.errorf("usage: :load file.yaml")
			return false
		}
		values, err := config.LoadBindingsFile(fields[1])
		if err != nil {
			r.errorf("%v", err)
			return false
		}
		for name, v := range values {
			r.bindings[name] = v
		}
		r.applyBindings()
		fmt.Fprintf(r.out, "loaded %d bindings\n", len(values))
	case ":eval":
		r.eval()
	case ":taylor":
		r.taylor(fields[1:])
	case ":latex":
		if r.expr == nil {
			r.errorf("no expression")
			return false
		}
		fmt.Fprintln(r.out, "f  =", r.expr.LaTeX())
		if r.deriv != nil {
			fmt.Fprintln(r.out, "f' =", r.deriv.LaTeX())
		}
	default:
		r.errorf("unknown command %s, try :help", fields[0])
	}
	return false
}

func (r *repl) observer(label string) (gosymdiff.Observer, func()) {
	if r.journal == nil {
		return nil, func() {}
	}
	run, err := r.journal.Begin(label)
	if err != nil {
		r.errorf("%v", err)
		return nil, func() {}
	}
	return run, func() {
		if err := run.Err(); err != nil {
			r.errorf("%v", err)
		}
	}
}

// load parses src and differentiates it.
func (r *repl) load(src string) {
	ws := gosymdiff.NewWorkspace(r.cfg)
	t, err := ws.Parse(src)
	if err != nil {
		r.errorf("%v", err)
		return
	}
	r.ws, r.expr, r.deriv = ws, t, nil
	r.applyBindings()
	fmt.Fprintln(r.out, "f  =", t)
	r.differentiate()
}

// variable picks the differentiation variable: the one set with :var, else
// the first variable of the expression.
func (r *repl) variable() byte {
	if r.diffVar != 0 {
		return r.diffVar
	}
	if r.ws.Vars().Len() > 0 {
		return r.ws.Vars().Name(0)
	}
	return 'x'
}

func (r *repl) differentiate() {
	if r.deriv != nil {
		r.deriv.Release()
		r.deriv = nil
	}
	v := r.variable()
	obs, done := r.observer(fmt.Sprintf("d/d%c %s", v, r.expr))
	r.ws.SetObserver(obs)
	defer r.ws.SetObserver(nil)
	d, err := r.ws.Derivative(r.expr, v)
	done()
	if err != nil {
		r.errorf("%v", err)
		return
	}
	r.deriv = d
	fmt.Fprintf(r.out, "f' = %s    (d/d%c)\n", d, v)
}

func (r *repl) set(arg string) {
	name, value, ok := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if !ok || len(name) != 1 {
		r.errorf("usage: :set x=1.5")
		return
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		r.errorf("bad value %q", value)
		return
	}
	r.bindings[name] = v
	r.applyBindings()
}

// applyBindings copies the saved bindings into the current workspace,
// skipping names the expression does not use.
func (r *repl) applyBindings() {
	if r.ws == nil {
		return
	}
	for name, v := range r.bindings {
		_ = r.ws.Vars().Set(name[0], v)
	}
}

func (r *repl) eval() {
	if r.expr == nil {
		r.errorf("no expression")
		return
	}
	v, err := r.ws.Evaluate(r.expr)
	if err != nil {
		r.errorf("%v", err)
		return
	}
	fmt.Fprintf(r.out, "f  = %s\n", strconv.FormatFloat(v, 'g', -1, 64))
	if r.deriv != nil {
		dv, err := r.ws.Evaluate(r.deriv)
		if err != nil {
			r.errorf("%v", err)
			return
		}
		fmt.Fprintf(r.out, "f' = %s\n", strconv.FormatFloat(dv, 'g', -1, 64))
	}
}

func (r *repl) taylor(args []string) {
	if r.expr == nil {
		r.errorf("no expression")
		return
	}
	if len(args) != 3 || len(args[0]) != 1 {
		r.errorf("usage: :taylor x a n")
		return
	}
	at, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		r.errorf("bad point %q", args[1])
		return
	}
	order, err := strconv.Atoi(args[2])
	if err != nil || order < 0 {
		r.errorf("bad order %q", args[2])
		return
	}
	obs, done := r.observer(fmt.Sprintf("taylor %s at %s=%g", r.expr, args[0], at))
	r.ws.SetObserver(obs)
	defer r.ws.SetObserver(nil)
	p, err := r.ws.Taylor(r.expr, args[0][0], at, order)
	done()
	if err != nil {
		r.errorf("%v", err)
		return
	}
	defer p.Release()
	fmt.Fprintln(r.out, "T  =", p)
}
