package symbolic

import (
	"fmt"
	"math"
	"math/big"
	"sort"
)

// ============================================================
// Solvers
// ============================================================

// Numeric root search parameters for equations that are not polynomial.
const (
	newtonRange    = 100.0
	newtonStarts   = 200
	newtonMaxIter  = 100
	newtonTol      = 1e-10
	maxNumericRoot = 10
)

// Solve returns the real solutions of eq for varName in ascending order.
// An empty slice means there is no real solution.
func Solve(eq *Equation, varName string) ([]Expr, error) {
	residual := eq.Residual()
	if !contains(residual, varName) {
		return []Expr{}, nil
	}
	num, dens := splitFraction(residual, varName)
	var roots []Expr
	if pc, ok := PolyCoeffs(num, varName); ok {
		r, err := solvePolynomial(pc, num, varName)
		if err != nil {
			return nil, err
		}
		roots = r
	} else {
		r, err := solveNumeric(num, varName)
		if err != nil {
			return nil, err
		}
		roots = r
	}
	return finishRoots(roots, dens, varName), nil
}

func solvePolynomial(pc PolyCoeffsResult, poly Expr, varName string) ([]Expr, error) {
	if c, ok := numericCoeffs(pc); ok {
		return solveNumericPoly(c, poly, varName)
	}
	deg := 0
	for d, c := range pc {
		if d > deg && !IsZero(c) {
			deg = d
		}
	}
	coeff := func(d int) Expr {
		if c, ok := pc[d]; ok {
			return c
		}
		return N(0)
	}
	switch deg {
	case 0:
		return []Expr{}, nil
	case 1:
		return []Expr{SolveLinear(coeff(1), coeff(0))}, nil
	case 2:
		return SolveQuadraticExact(coeff(2), coeff(1), coeff(0)), nil
	}
	return nil, fmt.Errorf("%w: degree %d polynomial in %s with symbolic coefficients", ErrUnsolvable, deg, varName)
}

// SolveLinear solves a·x + b = 0.
func SolveLinear(a, b Expr) Expr {
	if an, ok := a.(*Num); ok {
		if bn, ok := b.(*Num); ok {
			return numDiv(numNeg(bn), an)
		}
	}
	return Expand(MulOf(N(-1), b, PowOf(a, N(-1))))
}

// SolveQuadraticExact solves a·x² + b·x + c = 0. Numeric coefficients give
// exact real roots (a negative discriminant gives none); symbolic coefficients
// use the quadratic formula.
func SolveQuadraticExact(a, b, c Expr) []Expr {
	an, aok := a.(*Num)
	bn, bok := b.(*Num)
	cn, cok := c.(*Num)
	if !aok || !bok || !cok {
		disc := Expand(AddOf(PowOf(b, N(2)), MulOf(N(-4), a, c)))
		denom := PowOf(MulOf(N(2), a), N(-1))
		x1 := MulOf(AddOf(MulOf(N(-1), b), SqrtOf(disc)), denom)
		x2 := MulOf(AddOf(MulOf(N(-1), b), MulOf(N(-1), SqrtOf(disc))), denom)
		return []Expr{x1, x2}
	}
	if an.IsZero() {
		if bn.IsZero() {
			return []Expr{}
		}
		return []Expr{SolveLinear(bn, cn)}
	}
	disc := numSub(numMul(bn, bn), numMul(N(4), numMul(an, cn)))
	twoA := numMul(N(2), an)
	switch {
	case disc.IsNegative():
		return []Expr{}
	case disc.IsZero():
		return []Expr{numDiv(numNeg(bn), twoA)}
	}
	sq := SqrtOf(disc)
	x1 := MulOf(AddOf(numNeg(bn), MulOf(N(-1), sq)), numRecip(twoA))
	x2 := MulOf(AddOf(numNeg(bn), sq), numRecip(twoA))
	return []Expr{x1, x2}
}

// solveNumericPoly handles polynomials with numeric coefficients: rational
// roots are found exactly and divided out, the rest goes to the quadratic
// formula or the numeric search.
func solveNumericPoly(c []*Num, poly Expr, varName string) ([]Expr, error) {
	if anyApprox(c) {
		switch len(c) - 1 {
		case 0:
			return []Expr{}, nil
		case 1:
			return []Expr{numDiv(numNeg(c[0]), c[1])}, nil
		case 2:
			return SolveQuadraticExact(c[2], c[1], c[0]), nil
		}
		return solveNumeric(poly, varName)
	}
	var roots []Expr
	for len(c) > 3 {
		r, ok := rationalRoot(c)
		if !ok {
			break
		}
		roots = append(roots, r)
		c = trimCoeffs(deflate(c, r))
	}
	switch len(c) - 1 {
	case 0:
	case 1:
		roots = append(roots, numDiv(numNeg(c[0]), c[1]))
	case 2:
		roots = append(roots, SolveQuadraticExact(c[2], c[1], c[0])...)
	default:
		rest := make([]Expr, len(c))
		x := S(varName)
		for i, n := range c {
			rest[i] = MulOf(n, PowOf(x, N(int64(i))))
		}
		numeric, err := solveNumeric(AddOf(rest...), varName)
		if err != nil {
			return nil, err
		}
		roots = append(roots, numeric...)
	}
	return roots, nil
}

// rationalRoot finds a root p/q of the polynomial c where p divides the
// constant term and q the leading coefficient, after scaling to integers.
func rationalRoot(c []*Num) (*Num, bool) {
	if c[0].IsZero() {
		return N(0), true
	}
	lcm := big.NewInt(1)
	for _, n := range c {
		d := n.val.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Quo(d, g))
	}
	scale := &Num{val: new(big.Rat).SetInt(lcm)}
	a0 := numMul(c[0], scale).val.Num()
	an := numMul(c[len(c)-1], scale).val.Num()
	ps, ok := divisors(new(big.Int).Abs(a0))
	if !ok {
		return nil, false
	}
	qs, ok := divisors(new(big.Int).Abs(an))
	if !ok {
		return nil, false
	}
	for _, p := range ps {
		for _, q := range qs {
			for _, sign := range []int64{1, -1} {
				r := F(sign*p, q)
				if evalPoly(c, r).IsZero() {
					return r, true
				}
			}
		}
	}
	return nil, false
}

// divisors lists the positive divisors of n, refusing large inputs.
func divisors(n *big.Int) ([]int64, bool) {
	if !n.IsInt64() || n.Int64() > 1_000_000 || n.Sign() == 0 {
		return nil, false
	}
	v := n.Int64()
	var out []int64
	for d := int64(1); d*d <= v; d++ {
		if v%d == 0 {
			out = append(out, d)
			if d*d != v {
				out = append(out, v/d)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, true
}

// solveNumeric searches for real roots of e (which must depend on varName
// only) with Newton's method started from evenly spaced points.
func solveNumeric(e Expr, varName string) ([]Expr, error) {
	for name := range FreeSymbols(e) {
		if name != varName {
			return nil, fmt.Errorf("%w: cannot isolate %s in %s", ErrUnsolvable, varName, e.String())
		}
	}
	f := func(x float64) (float64, bool) { return evalFloat(e, varName, x) }
	var roots []float64
	for i := 0; i <= newtonStarts; i++ {
		x := -newtonRange + 2*newtonRange*float64(i)/newtonStarts
		r, ok := newton(f, x)
		if !ok {
			continue
		}
		dup := false
		for _, have := range roots {
			if math.Abs(have-r) < 1e-6*math.Max(1, math.Abs(r)) {
				dup = true
				break
			}
		}
		if !dup {
			roots = append(roots, r)
		}
	}
	if len(roots) > maxNumericRoot {
		sort.Slice(roots, func(i, j int) bool { return math.Abs(roots[i]) < math.Abs(roots[j]) })
		roots = roots[:maxNumericRoot]
	}
	out := make([]Expr, len(roots))
	for i, r := range roots {
		out[i] = snap(r)
	}
	return out, nil
}

func newton(f func(float64) (float64, bool), x float64) (float64, bool) {
	for iter := 0; iter < newtonMaxIter; iter++ {
		fx, ok := f(x)
		if !ok {
			return 0, false
		}
		if math.Abs(fx) < newtonTol {
			return x, true
		}
		h := 1e-7 * math.Max(1, math.Abs(x))
		fp, ok1 := f(x + h)
		fm, ok2 := f(x - h)
		if !ok1 || !ok2 {
			return 0, false
		}
		dfx := (fp - fm) / (2 * h)
		if math.Abs(dfx) < 1e-15 {
			return 0, false
		}
		x -= fx / dfx
		if math.Abs(x) > newtonRange*10 {
			return 0, false
		}
	}
	return 0, false
}

// finishRoots drops roots that zero a denominator, removes duplicates and
// sorts numerically when every root has a value.
func finishRoots(roots []Expr, dens []Expr, varName string) []Expr {
	out := make([]Expr, 0, len(roots))
	seen := map[string]bool{}
	for _, r := range roots {
		r = r.Simplify()
		key := r.String()
		if seen[key] || zeroesAny(dens, varName, r) {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	type valued struct {
		e Expr
		v float64
	}
	vs := make([]valued, len(out))
	for i, r := range out {
		v, ok := floatValue(r)
		if !ok {
			return out
		}
		vs[i] = valued{e: r, v: v}
	}
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].v < vs[j].v })
	for i := range vs {
		out[i] = vs[i].e
	}
	return out
}

func zeroesAny(dens []Expr, varName string, root Expr) bool {
	for _, d := range dens {
		v := d.Sub(varName, root)
		if IsZero(v) {
			return true
		}
		if f, ok := floatValue(v); ok && math.Abs(f) < 1e-12 {
			return true
		}
	}
	return false
}
