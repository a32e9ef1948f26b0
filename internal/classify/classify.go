// Package classify decides what kind of statement a cleaned LaTeX formula
// expresses and solves it with a symbolic engine.
package classify

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/njchilds90/formsolve/internal/relation"
	"github.com/njchilds90/formsolve/symbolic"
)

// Engine is the symbolic math collaborator. symbolic.Engine implements it.
type Engine interface {
	Parse(src string) (symbolic.Expr, error)
	Simplify(e symbolic.Expr) (symbolic.Expr, error)
	Mod(p, q symbolic.Expr) (symbolic.Expr, error)
	Solve(lhs, rhs symbolic.Expr, varName string) ([]symbolic.Expr, error)
	SolveInequality(lhs symbolic.Expr, op string, rhs symbolic.Expr, varName string) (string, error)
	Compare(lhs symbolic.Expr, op string, rhs symbolic.Expr) (bool, error)
	LaTeX(e symbolic.Expr) string
	Evaluate(e symbolic.Expr) (float64, error)
	FreeSymbols(e symbolic.Expr) []string
}

var orderOps = map[relation.Kind]string{
	relation.LessEq:    symbolic.OpLE,
	relation.GreaterEq: symbolic.OpGE,
	relation.Less:      symbolic.OpLT,
	relation.Greater:   symbolic.OpGT,
}

type Classifier struct {
	engine Engine
	logger *slog.Logger
}

func New(engine Engine, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{engine: engine, logger: logger}
}

// Classify dispatches on the relation if there is one, then on "=", and
// treats anything else as a bare expression. It never panics; unhandled
// failures become an Error result.
func (c *Classifier) Classify(cleaned string, m *relation.Match) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("classifier panic", "latex", cleaned, "panic", r)
			res = Error{Message: fmt.Sprintf("could not parse or solve: %v", r)}
		}
	}()

	var err error
	switch {
	case m != nil:
		res = c.relation(*m)
	case strings.Contains(cleaned, "="):
		res, err = c.equation(cleaned)
	default:
		res, err = c.expression(cleaned)
	}
	if err != nil {
		c.logger.Debug("classification failed", "latex", cleaned, "error", err)
		return Error{Message: "could not parse or solve: " + err.Error()}
	}
	c.logger.Debug("classified", "latex", cleaned, "result", fmt.Sprintf("%T", res))
	return res
}

func (c *Classifier) relation(m relation.Match) Result {
	switch k := m.Symbol.Kind; {
	case k == relation.Divides || k == relation.NotDivides:
		return c.divisibility(m, k == relation.Divides)
	case k.IsOrder():
		return c.order(m, orderOps[k])
	}
	text := strings.TrimSpace(m.Left) + " " + m.Symbol.Glyph + " " + strings.TrimSpace(m.Right)
	if m.Symbol.Description != "" {
		text += " (" + m.Symbol.Description + ")"
	}
	return Statement{Text: text}
}

// divisibility decides "a divides b" from the remainder of b mod a.
func (c *Classifier) divisibility(m relation.Match, divides bool) Result {
	left, right := strings.TrimSpace(m.Left), strings.TrimSpace(m.Right)
	a, errA := c.engine.Parse(left)
	b, errB := c.engine.Parse(right)
	if errA != nil || errB != nil {
		return Statement{Text: fmt.Sprintf("Could not parse operands for '%s'", m.Symbol.Glyph)}
	}
	echo := Statement{Text: left + " " + m.Symbol.Glyph + " " + right}
	rem, err := c.engine.Mod(b, a)
	if err != nil {
		c.logger.Debug("modulo failed", "a", a.String(), "b", b.String(), "error", err)
		return echo
	}
	if rem, err = c.engine.Simplify(rem); err != nil {
		return echo
	}
	if symbolic.IsZero(rem) {
		if divides {
			return Divisibility{Text: fmt.Sprintf("%s divides %s ✓", a, b)}
		}
		return Divisibility{Text: fmt.Sprintf("%s does NOT divide %s ✗  (they divide evenly)", a, b)}
	}
	mark := "✗"
	if !divides {
		mark = "✓"
	}
	return Divisibility{Text: fmt.Sprintf("%s does NOT divide %s  (remainder: %s) %s", a, b, rem, mark)}
}

// order solves an inequality for each free variable in turn.
func (c *Classifier) order(m relation.Match, op string) Result {
	left, right := strings.TrimSpace(m.Left), strings.TrimSpace(m.Right)
	claim := left + " " + op + " " + right
	a, errA := c.engine.Parse(left)
	b, errB := c.engine.Parse(right)
	if errA != nil || errB != nil {
		return Statement{Text: claim + " — could not parse"}
	}
	free := union(c.engine.FreeSymbols(a), c.engine.FreeSymbols(b))
	if len(free) == 0 {
		ok, err := c.engine.Compare(a, op, b)
		if err != nil {
			return Inequality{Raw: fmt.Sprintf("%s (could not solve: %v)", claim, err)}
		}
		if ok {
			return Inequality{Raw: "True"}
		}
		return Inequality{Raw: "False"}
	}
	ranges := make([]VarRange, 0, len(free))
	for _, v := range free {
		r, err := c.engine.SolveInequality(a, op, b, v)
		if err != nil {
			return Inequality{Raw: fmt.Sprintf("%s (could not solve: %v)", claim, err)}
		}
		ranges = append(ranges, VarRange{Variable: v, Range: r})
	}
	return Inequality{ByVariable: ranges}
}

func (c *Classifier) equation(cleaned string) (Result, error) {
	lhsText, rhsText, _ := strings.Cut(cleaned, "=")
	lhs, err := c.engine.Parse(strings.TrimSpace(lhsText))
	if err != nil {
		return nil, err
	}
	rhs, err := c.engine.Parse(strings.TrimSpace(rhsText))
	if err != nil {
		return nil, err
	}
	diff, err := c.engine.Simplify(symbolic.AddOf(lhs, symbolic.MulOf(symbolic.N(-1), rhs)))
	if err != nil {
		return nil, err
	}
	// A constant difference settles the equation without solving.
	if len(c.engine.FreeSymbols(diff)) == 0 {
		if symbolic.IsZero(diff) {
			return EqualityCheck{IsTrue: true, Detail: "True"}, nil
		}
		return EqualityCheck{Detail: "Not equal — difference: " + c.engine.LaTeX(diff)}, nil
	}
	free := union(c.engine.FreeSymbols(lhs), c.engine.FreeSymbols(rhs))
	// Every variable of the equation gets an entry, even one that cancels.
	out := make([]VarSolutions, 0, len(free))
	for _, v := range free {
		roots, err := c.engine.Solve(lhs, rhs, v)
		if err != nil {
			return nil, fmt.Errorf("solve for %s: %w", v, err)
		}
		sols := make([]string, len(roots))
		for i, r := range roots {
			sols[i] = c.engine.LaTeX(r)
		}
		out = append(out, VarSolutions{Variable: v, Solutions: sols})
	}
	return Equation{ByVariable: out}, nil
}

func (c *Classifier) expression(cleaned string) (Result, error) {
	e, err := c.engine.Parse(cleaned)
	if err != nil {
		return nil, err
	}
	s, err := c.engine.Simplify(e)
	if err != nil {
		return nil, err
	}
	res := Expression{Simplified: c.engine.LaTeX(s)}
	if len(c.engine.FreeSymbols(s)) == 0 {
		v, err := c.engine.Evaluate(s)
		if err != nil {
			return nil, err
		}
		res.Numeric = &v
	}
	return res, nil
}

func union(a, b []string) []string {
	set := map[string]struct{}{}
	for _, s := range append(a, b...) {
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
