package symbolic

import (
	"math"
	"sort"
)

// ============================================================
// Equation
// ============================================================

type Equation struct{ LHS, RHS Expr }

func Eq(lhs, rhs Expr) *Equation { return &Equation{LHS: lhs, RHS: rhs} }

func (e *Equation) String() string { return e.LHS.String() + " = " + e.RHS.String() }
func (e *Equation) LaTeX() string  { return e.LHS.LaTeX() + " = " + e.RHS.LaTeX() }

// Residual returns LHS - RHS, expanded.
func (e *Equation) Residual() Expr { return Expand(AddOf(e.LHS, MulOf(N(-1), e.RHS))) }

// ============================================================
// Expansion
// ============================================================

func Expand(e Expr) Expr { return expandExpr(e).Simplify() }

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Mul:
		expanded := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			expanded[i] = expandExpr(f)
		}
		for i, f := range expanded {
			if a, ok := f.(*Add); ok {
				rest := make([]Expr, 0, len(expanded)-1)
				for j, ef := range expanded {
					if j != i {
						rest = append(rest, ef)
					}
				}
				terms := make([]Expr, len(a.terms))
				for k, t := range a.terms {
					terms[k] = expandExpr(MulOf(append([]Expr{t}, rest...)...))
				}
				return expandExpr(AddOf(terms...))
			}
		}
		return MulOf(expanded...)
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = expandExpr(t)
		}
		return AddOf(newTerms...)
	case *Pow:
		if n, ok := v.exp.(*Num); ok && n.IsInteger() && !n.approx {
			exp := n.val.Num().Int64()
			base := expandExpr(v.base)
			if _, isSum := base.(*Add); isSum && exp >= 2 && exp <= 10 {
				result := base
				for i := int64(1); i < exp; i++ {
					result = distribute(result, base)
				}
				return result
			}
			return PowOf(base, n)
		}
		return PowOf(expandExpr(v.base), expandExpr(v.exp))
	case *Func:
		return funcOf(v.name, expandExpr(v.arg)).Simplify()
	}
	return e
}

// distribute multiplies two sums term by term. MulOf alone would fold
// (x+1)·(x+1) back into (x+1)^2.
func distribute(a, b Expr) Expr {
	at, bt := addTerms(a), addTerms(b)
	terms := make([]Expr, 0, len(at)*len(bt))
	for _, x := range at {
		for _, y := range bt {
			terms = append(terms, MulOf(x, y))
		}
	}
	return AddOf(terms...)
}

func addTerms(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.terms
	}
	return []Expr{e}
}

// ============================================================
// Free Symbols
// ============================================================

func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	return result
}

// SortedSymbols returns the free symbols of e in alphabetical order.
func SortedSymbols(e Expr) []string {
	set := FreeSymbols(e)
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		collectSymbols(v.arg, out)
	}
}

func contains(e Expr, varName string) bool {
	_, ok := FreeSymbols(e)[varName]
	return ok
}

// ============================================================
// Polynomial utilities
// ============================================================

func Degree(expr Expr, varName string) int {
	expr = expr.Simplify()
	switch v := expr.(type) {
	case *Sym:
		if v.name == varName {
			return 1
		}
		return 0
	case *Pow:
		if sym, ok := v.base.(*Sym); ok && sym.name == varName {
			if n, ok2 := v.exp.(*Num); ok2 && n.IsInteger() {
				return int(n.val.Num().Int64())
			}
		}
		return 0
	case *Add:
		maxDeg := 0
		for _, t := range v.terms {
			if d := Degree(t, varName); d > maxDeg {
				maxDeg = d
			}
		}
		return maxDeg
	case *Mul:
		totalDeg := 0
		for _, f := range v.factors {
			totalDeg += Degree(f, varName)
		}
		return totalDeg
	}
	return 0
}

type PolyCoeffsResult map[int]Expr

// PolyCoeffs returns the coefficients of expr as a polynomial in varName.
// ok is false when some term is not coeff·varName^k with a non-negative
// integer k and a coefficient free of varName.
func PolyCoeffs(expr Expr, varName string) (PolyCoeffsResult, bool) {
	out := PolyCoeffsResult{}
	terms := []Expr{Expand(expr)}
	if a, ok := terms[0].(*Add); ok {
		terms = a.terms
	}
	for _, t := range terms {
		deg, coeff, ok := monomial(t, varName)
		if !ok {
			return nil, false
		}
		if existing, seen := out[deg]; seen {
			out[deg] = AddOf(existing, coeff)
		} else {
			out[deg] = coeff
		}
	}
	return out, true
}

func monomial(t Expr, varName string) (int, Expr, bool) {
	factors := []Expr{t}
	if m, ok := t.(*Mul); ok {
		factors = m.factors
	}
	deg := 0
	coeff := []Expr{}
	for _, f := range factors {
		if !contains(f, varName) {
			coeff = append(coeff, f)
			continue
		}
		switch v := f.(type) {
		case *Sym:
			deg++
		case *Pow:
			sym, ok := v.base.(*Sym)
			n, ok2 := v.exp.(*Num)
			if !ok || !ok2 || sym.name != varName || !n.IsInteger() || n.IsNegative() || n.approx {
				return 0, nil, false
			}
			deg += int(n.val.Num().Int64())
		default:
			return 0, nil, false
		}
	}
	return deg, MulOf(coeff...), true
}

// numericCoeffs converts polynomial coefficients into a dense slice, lowest
// degree first, when every coefficient is a number.
func numericCoeffs(pc PolyCoeffsResult) ([]*Num, bool) {
	maxDeg := 0
	for d := range pc {
		if d > maxDeg {
			maxDeg = d
		}
	}
	out := make([]*Num, maxDeg+1)
	for i := range out {
		out[i] = N(0)
	}
	for d, c := range pc {
		n, ok := c.(*Num)
		if !ok {
			return nil, false
		}
		out[d] = n
	}
	return trimCoeffs(out), true
}

func trimCoeffs(c []*Num) []*Num {
	for len(c) > 1 && c[len(c)-1].IsZero() {
		c = c[:len(c)-1]
	}
	return c
}

func anyApprox(c []*Num) bool {
	for _, n := range c {
		if n.approx {
			return true
		}
	}
	return false
}

// evalPoly evaluates the dense polynomial c at x using Horner's rule.
func evalPoly(c []*Num, x *Num) *Num {
	acc := N(0)
	for i := len(c) - 1; i >= 0; i-- {
		acc = numAdd(numMul(acc, x), c[i])
	}
	return acc
}

// deflate divides c by (x - r), returning the quotient.
func deflate(c []*Num, r *Num) []*Num {
	n := len(c) - 1
	q := make([]*Num, n)
	carry := N(0)
	for i := n; i >= 1; i-- {
		carry = numAdd(numMul(carry, r), c[i])
		q[i-1] = carry
	}
	return q
}

// ============================================================
// Numerator / denominator split
// ============================================================

// splitFraction writes e as num/den where den collects the factors with
// negative integer exponents whose base depends on varName.
func splitFraction(e Expr, varName string) (num Expr, dens []Expr) {
	e = Expand(e)
	terms := []Expr{e}
	if a, ok := e.(*Add); ok {
		terms = a.terms
	}
	type denom struct {
		base Expr
		exp  int64
	}
	seen := map[string]*denom{}
	order := []string{}
	for _, t := range terms {
		factors := []Expr{t}
		if m, ok := t.(*Mul); ok {
			factors = m.factors
		}
		for _, f := range factors {
			p, ok := f.(*Pow)
			if !ok || !contains(p.base, varName) {
				continue
			}
			n, ok := p.exp.(*Num)
			if !ok || !n.IsInteger() || !n.IsNegative() {
				continue
			}
			k := -n.val.Num().Int64()
			key := p.base.String()
			if d, ok := seen[key]; ok {
				if k > d.exp {
					d.exp = k
				}
				continue
			}
			seen[key] = &denom{base: p.base, exp: k}
			order = append(order, key)
		}
	}
	if len(order) == 0 {
		return e, nil
	}
	mult := make([]Expr, 0, len(order))
	for _, key := range order {
		d := seen[key]
		mult = append(mult, PowOf(d.base, N(d.exp)))
		dens = append(dens, d.base)
	}
	cleared := make([]Expr, len(terms))
	for i, t := range terms {
		cleared[i] = MulOf(append([]Expr{t}, mult...)...)
	}
	return Expand(AddOf(cleared...)), dens
}

// ============================================================
// Numeric evaluation
// ============================================================

// evalFloat evaluates e with varName bound to x. Other symbols make the
// value undefined.
func evalFloat(e Expr, varName string, x float64) (float64, bool) {
	var r float64
	switch v := e.(type) {
	case *Num:
		return v.Float64(), true
	case *Const:
		return v.value, true
	case *Sym:
		if v.name != varName {
			return 0, false
		}
		return x, true
	case *Add:
		for _, t := range v.terms {
			f, ok := evalFloat(t, varName, x)
			if !ok {
				return 0, false
			}
			r += f
		}
	case *Mul:
		r = 1
		for _, t := range v.factors {
			f, ok := evalFloat(t, varName, x)
			if !ok {
				return 0, false
			}
			r *= f
		}
	case *Pow:
		b, ok := evalFloat(v.base, varName, x)
		if !ok {
			return 0, false
		}
		p, ok := evalFloat(v.exp, varName, x)
		if !ok {
			return 0, false
		}
		if b < 0 && p != math.Trunc(p) {
			// odd roots of negative numbers stay real
			if n, isNum := v.exp.(*Num); isNum && !n.approx && n.val.Denom().Bit(0) == 1 {
				r = -math.Pow(-b, p)
				if n.val.Num().Bit(0) == 0 {
					r = -r
				}
				break
			}
			return 0, false
		}
		r = math.Pow(b, p)
	case *Func:
		a, ok := evalFloat(v.arg, varName, x)
		if !ok {
			return 0, false
		}
		return applyFunc(v.name, a)
	default:
		return 0, false
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

// floatValue evaluates an expression without free symbols.
func floatValue(e Expr) (float64, bool) { return evalFloat(e, "", 0) }

// snap turns x into an exact integer when it is within tol of one.
func snap(x float64) Expr {
	if r := math.Round(x); math.Abs(x-r) < 1e-9 && math.Abs(r) < 1<<53 {
		return N(int64(r))
	}
	return NFloat(x)
}
