package symbolic

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ============================================================
// Inequality
// ============================================================

// Order operators accepted by Ineq.
const (
	OpLT = "<"
	OpLE = "<="
	OpGT = ">"
	OpGE = ">="
)

var opGlyph = map[string]string{OpLT: "<", OpLE: "≤", OpGT: ">", OpGE: "≥"}

var opFlip = map[string]string{OpLT: OpGT, OpLE: OpGE, OpGT: OpLT, OpGE: OpLE}

type Inequality struct {
	LHS, RHS Expr
	Op       string
}

func Ineq(lhs Expr, op string, rhs Expr) (*Inequality, error) {
	if _, ok := opGlyph[op]; !ok {
		return nil, fmt.Errorf("%w: order operator %q", ErrUnsupported, op)
	}
	return &Inequality{LHS: lhs, RHS: rhs, Op: op}, nil
}

func (q *Inequality) String() string {
	return q.LHS.String() + " " + opGlyph[q.Op] + " " + q.RHS.String()
}

func (q *Inequality) LaTeX() string {
	ops := map[string]string{OpLT: "<", OpLE: "\\leq", OpGT: ">", OpGE: "\\geq"}
	return q.LHS.LaTeX() + " " + ops[q.Op] + " " + q.RHS.LaTeX()
}

// Residual returns LHS - RHS, expanded.
func (q *Inequality) Residual() Expr { return Expand(AddOf(q.LHS, MulOf(N(-1), q.RHS))) }

// holds reports whether a residual value v satisfies the operator.
func (q *Inequality) holds(sign int) bool {
	switch q.Op {
	case OpLT:
		return sign < 0
	case OpLE:
		return sign <= 0
	case OpGT:
		return sign > 0
	default:
		return sign >= 0
	}
}

// Truth decides an inequality without free symbols.
func (q *Inequality) Truth() (bool, error) {
	r := q.Residual()
	if len(FreeSymbols(r)) > 0 {
		return false, fmt.Errorf("%w: %s has free symbols", ErrUnsupported, q.String())
	}
	if n, ok := r.(*Num); ok {
		return q.holds(n.val.Sign()), nil
	}
	v, ok := floatValue(r)
	if !ok {
		return false, fmt.Errorf("%w: cannot evaluate %s", ErrDomain, r.String())
	}
	return q.holds(floatSign(v)), nil
}

func floatSign(v float64) int {
	switch {
	case math.Abs(v) < 1e-12:
		return 0
	case v < 0:
		return -1
	}
	return 1
}

// ============================================================
// Interval sets
// ============================================================

// Interval is a connected subset of the real line. A nil bound is infinite.
type Interval struct {
	Lo, Hi             Expr
	LoClosed, HiClosed bool
}

func (iv Interval) String() string {
	if iv.Lo != nil && iv.Hi != nil && iv.LoClosed && iv.HiClosed && iv.Lo.Equal(iv.Hi) {
		return "{" + iv.Lo.String() + "}"
	}
	var b strings.Builder
	if iv.Lo == nil {
		b.WriteString("(-∞")
	} else {
		if iv.LoClosed {
			b.WriteString("[")
		} else {
			b.WriteString("(")
		}
		b.WriteString(iv.Lo.String())
	}
	b.WriteString(", ")
	if iv.Hi == nil {
		b.WriteString("∞)")
	} else {
		b.WriteString(iv.Hi.String())
		if iv.HiClosed {
			b.WriteString("]")
		} else {
			b.WriteString(")")
		}
	}
	return b.String()
}

// Range is a union of disjoint intervals in ascending order.
type Range []Interval

func (r Range) String() string {
	if len(r) == 0 {
		return "∅"
	}
	parts := make([]string, len(r))
	for i, iv := range r {
		parts[i] = iv.String()
	}
	return strings.Join(parts, " ∪ ")
}

// ============================================================
// Inequality solving
// ============================================================

// SolveInequality describes the values of varName satisfying q. The answer is
// an interval set when varName is the only symbol, or a relation such as
// "x < 3 - y" when the bound depends on other symbols.
func SolveInequality(q *Inequality, varName string) (string, error) {
	r := q.Residual()
	free := FreeSymbols(r)
	if _, ok := free[varName]; !ok {
		if len(free) > 0 {
			return "", fmt.Errorf("%w: %s does not constrain %s", ErrUnsolvable, q.String(), varName)
		}
		ok, err := q.Truth()
		if err != nil {
			return "", err
		}
		if ok {
			return Range{{}}.String(), nil
		}
		return Range{}.String(), nil
	}
	if len(free) > 1 {
		return solveLinearRelation(q, r, varName)
	}
	rng, err := solveRange(q, r, varName)
	if err != nil {
		return "", err
	}
	return rng.String(), nil
}

// solveLinearRelation isolates varName in a·x + b op 0 with a numeric a.
func solveLinearRelation(q *Inequality, r Expr, varName string) (string, error) {
	pc, ok := PolyCoeffs(r, varName)
	if !ok || Degree(r, varName) != 1 {
		return "", fmt.Errorf("%w: %s is not linear in %s", ErrUnsolvable, q.String(), varName)
	}
	a, ok := pc[1].(*Num)
	if !ok {
		return "", fmt.Errorf("%w: coefficient of %s in %s has unknown sign", ErrUnsolvable, varName, q.String())
	}
	b := Expr(N(0))
	if c, ok := pc[0]; ok {
		b = c
	}
	op := q.Op
	if a.IsNegative() {
		op = opFlip[op]
	}
	return varName + " " + opGlyph[op] + " " + SolveLinear(a, b).String(), nil
}

// solveRange finds the critical points of the residual (zeros of numerator
// and denominator) and tests the sign on each piece between them.
func solveRange(q *Inequality, r Expr, varName string) (Range, error) {
	num, dens := splitFraction(r, varName)
	if _, ok := PolyCoeffs(num, varName); !ok {
		return nil, fmt.Errorf("%w: %s is not polynomial or rational in %s", ErrUnsolvable, q.String(), varName)
	}
	points, err := Solve(Eq(num, N(0)), varName)
	if err != nil {
		return nil, err
	}
	for _, d := range dens {
		zs, err := Solve(Eq(d, N(0)), varName)
		if err != nil {
			return nil, err
		}
		points = append(points, zs...)
	}
	type critical struct {
		e Expr
		v float64
	}
	crit := make([]critical, 0, len(points))
	seen := map[string]bool{}
	for _, p := range points {
		key := p.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		v, ok := floatValue(p)
		if !ok {
			return nil, fmt.Errorf("%w: critical point %s is not numeric", ErrUnsolvable, key)
		}
		crit = append(crit, critical{e: p, v: v})
	}
	sort.Slice(crit, func(i, j int) bool { return crit[i].v < crit[j].v })

	test := func(x float64) bool {
		v, ok := evalFloat(r, varName, x)
		return ok && q.holds(floatSign(v))
	}
	testPoint := func(p Expr) bool {
		v := r.Sub(varName, p)
		if IsZero(v) {
			return q.holds(0)
		}
		if hasUndefined(v) {
			return false
		}
		f, ok := floatValue(v)
		return ok && q.holds(floatSign(f))
	}

	var out Range
	var cur *Interval
	flush := func() {
		if cur != nil {
			out = append(out, *cur)
			cur = nil
		}
	}
	for i := 0; i <= len(crit); i++ {
		var lo, hi Expr
		var x float64
		switch {
		case len(crit) == 0:
			x = 0
		case i == 0:
			hi, x = crit[0].e, crit[0].v-1
		case i == len(crit):
			lo, x = crit[i-1].e, crit[i-1].v+1
		default:
			lo, hi, x = crit[i-1].e, crit[i].e, (crit[i-1].v+crit[i].v)/2
		}
		if test(x) {
			if cur == nil {
				cur = &Interval{Lo: lo}
			}
			cur.Hi, cur.HiClosed = hi, false
		} else {
			flush()
		}
		if i == len(crit) {
			break
		}
		if testPoint(crit[i].e) {
			if cur == nil {
				cur = &Interval{Lo: crit[i].e, LoClosed: true}
			}
			cur.Hi, cur.HiClosed = crit[i].e, true
		} else {
			flush()
		}
	}
	flush()
	return out, nil
}

// hasUndefined reports a division by zero left in a simplified tree.
func hasUndefined(e Expr) bool {
	switch v := e.(type) {
	case *Pow:
		if n, ok := v.exp.(*Num); ok && n.IsNegative() && IsZero(v.base) {
			return true
		}
		return hasUndefined(v.base) || hasUndefined(v.exp)
	case *Add:
		for _, t := range v.terms {
			if hasUndefined(t) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if hasUndefined(f) {
				return true
			}
		}
	case *Func:
		return hasUndefined(v.arg)
	}
	return false
}
