package gosymdiff

import (
	"fmt"
	"log/slog"
)

// ============================================================
// Workspace
// ============================================================

// Workspace bundles an arena, a variable table and the configured parser and
// simplifier. Trees it returns live in its arena until released or until
// Reset. A Workspace is not safe for concurrent use.
type Workspace struct {
	cfg    Config
	arena  *Arena
	vars   *VarTable
	logger *slog.Logger
	obs    Observer
}

func NewWorkspace(cfg Config) *Workspace {
	cfg = cfg.normalize()
	w := &Workspace{cfg: cfg, logger: cfg.Logger}
	w.Reset()
	return w
}

func (w *Workspace) Config() Config       { return w.cfg }
func (w *Workspace) Arena() *Arena        { return w.arena }
func (w *Workspace) Vars() *VarTable      { return w.vars }
func (w *Workspace) Logger() *slog.Logger { return w.logger }

// SetObserver installs obs next to the debug log of every step.
func (w *Workspace) SetObserver(obs Observer) { w.obs = obs }

// Reset drops every tree and variable and starts over with a fresh arena.
func (w *Workspace) Reset() {
	w.arena = NewArena(WithBlockSize(w.cfg.BlockSize), WithNodeLimit(w.cfg.NodeLimit))
	w.vars = NewVarTable(w.cfg.MaxVars)
}

func (w *Workspace) simplifier() Simplifier {
	obs := LogObserver(w.logger)
	if w.obs != nil {
		obs = MultiObserver{obs, w.obs}
	}
	return Simplifier{Epsilon: w.cfg.Epsilon, Observer: obs}
}

// varIndex resolves name, registering it when the expression never used it;
// derivatives with respect to such a variable are zero.
func (w *Workspace) varIndex(name byte) (int, error) {
	if !isLetter(name) {
		return -1, fmt.Errorf("%w: %q is not a letter", ErrUnknownVariable, name)
	}
	return w.vars.Add(name)
}

func (w *Workspace) Parse(src string) (*Tree, error) {
	t, err := Parser{MaxDepth: w.cfg.MaxDepth}.Parse(src, w.arena, w.vars)
	if err != nil {
		w.logger.Debug("parse failed", slog.String("expr", src), slog.Any("error", err))
		return nil, err
	}
	w.logger.Debug("parsed",
		slog.String("expr", src),
		slog.Int("nodes", t.Size(t.root)),
		slog.Int("live", w.arena.Live()),
	)
	return t, nil
}

func (w *Workspace) Simplify(t *Tree) error {
	before := t.Size(t.root)
	if err := w.simplifier().Simplify(t); err != nil {
		return err
	}
	w.logger.Debug("simplified", slog.Int("before", before), slog.Int("after", t.Size(t.root)))
	return nil
}

// Differentiate returns the unsimplified derivative with respect to name.
func (w *Workspace) Differentiate(t *Tree, name byte) (*Tree, error) {
	idx, err := w.varIndex(name)
	if err != nil {
		return nil, err
	}
	return Differentiate(t, idx, w.simplifier().Observer)
}

// Derivative returns the simplified derivative with respect to name.
func (w *Workspace) Derivative(t *Tree, name byte) (*Tree, error) {
	return w.DiffN(t, name, 1)
}

func (w *Workspace) DiffN(t *Tree, name byte, n int) (*Tree, error) {
	idx, err := w.varIndex(name)
	if err != nil {
		return nil, err
	}
	d, err := w.simplifier().DiffN(t, idx, n)
	if err != nil {
		return nil, err
	}
	w.logger.Debug("derivative",
		slog.String("expr", t.String()),
		slog.String("var", string(name)),
		slog.Int("order", n),
		slog.String("result", d.String()),
		slog.Int("live", w.arena.Live()),
	)
	return d, nil
}

func (w *Workspace) Taylor(t *Tree, name byte, at float64, order int) (*Tree, error) {
	idx, err := w.varIndex(name)
	if err != nil {
		return nil, err
	}
	p, err := w.simplifier().Taylor(t, idx, at, order)
	if err != nil {
		return nil, err
	}
	w.logger.Debug("taylor",
		slog.String("expr", t.String()),
		slog.Float64("at", at),
		slog.Int("order", order),
		slog.String("result", p.String()),
	)
	return p, nil
}

func (w *Workspace) Evaluate(t *Tree) (float64, error) { return Evaluate(t) }

// Bind sets variables by name; see VarTable.Bind.
func (w *Workspace) Bind(values map[string]float64) error { return w.vars.Bind(values) }
