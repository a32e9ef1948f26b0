// Package symbolic is the compact symbolic math engine behind formsolve.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat), decimals only where a value
//     is genuinely approximate
//   - Deterministic simplification and stable output
//   - LaTeX in, LaTeX out: the parser and the printer round-trip
//   - Real solutions of the equations and inequalities a handwritten
//     formula usually states
package symbolic

import (
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

// Expr is a node of an expression tree. Constructors such as AddOf and MulOf
// return simplified trees, so equal expressions print identically.
type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Eval() (*Num, bool)
	Equal(other Expr) bool
}

// ============================================================
// Num: rational number, exact unless approx is set
// ============================================================

type Num struct {
	val    *big.Rat
	approx bool
}

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }

func F(p, q int64) *Num {
	if q == 0 {
		panic("symbolic: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NFloat wraps an approximate value. f must be finite.
func NFloat(f float64) *Num {
	n, ok := floatNum(f)
	if !ok {
		panic("symbolic: non-finite value")
	}
	return n
}

func floatNum(f float64) (*Num, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return &Num{val: new(big.Rat).SetFloat64(f), approx: true}, true
}

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Eval() (*Num, bool)    { return n, true }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(big.NewRat(1, 1)) == 0 }
func (n *Num) IsNegOne() bool        { return n.val.Cmp(big.NewRat(-1, 1)) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) IsApprox() bool        { return n.approx }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }

func (n *Num) String() string {
	if n.approx {
		return formatApprox(n.Float64())
	}
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.approx || n.val.IsInt() {
		return n.String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return sign + "\\frac{" + v.Num().String() + "}{" + v.Denom().String() + "}"
}

// formatApprox prints f with twelve significant digits and no exponent, so
// the text parses back as a plain decimal.
func formatApprox(f float64) string {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(f, 'g', 12, 64), 64)
	if r == 0 {
		return "0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func numAdd(a, b *Num) *Num {
	return &Num{val: new(big.Rat).Add(a.val, b.val), approx: a.approx || b.approx}
}
func numSub(a, b *Num) *Num {
	return &Num{val: new(big.Rat).Sub(a.val, b.val), approx: a.approx || b.approx}
}
func numMul(a, b *Num) *Num {
	return &Num{val: new(big.Rat).Mul(a.val, b.val), approx: a.approx || b.approx}
}
func numNeg(a *Num) *Num { return &Num{val: new(big.Rat).Neg(a.val), approx: a.approx} }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("symbolic: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val), approx: a.approx}
}
func numDiv(a, b *Num) *Num { return numMul(a, numRecip(b)) }
func numAbs(a *Num) *Num {
	if a.IsNegative() {
		return numNeg(a)
	}
	return a
}
func numCmp(a, b *Num) int { return a.val.Cmp(b.val) }

// numFloor returns the largest integer not greater than a.
func numFloor(a *Num) *Num {
	q := new(big.Int).Div(a.val.Num(), a.val.Denom()) // Euclidean: floor for a positive divisor
	return &Num{val: new(big.Rat).SetInt(q), approx: a.approx}
}

func numCeil(a *Num) *Num {
	f := numFloor(a)
	if numCmp(f, a) == 0 {
		return f
	}
	return numAdd(f, N(1))
}

// ============================================================
// Sym: symbolic variable
// ============================================================

type Sym struct{ name string }

var greekLetters = map[string]bool{
	"alpha": true, "beta": true, "gamma": true, "delta": true, "epsilon": true,
	"varepsilon": true, "zeta": true, "eta": true, "theta": true, "vartheta": true,
	"iota": true, "kappa": true, "lambda": true, "mu": true, "nu": true, "xi": true,
	"rho": true, "sigma": true, "tau": true, "upsilon": true, "phi": true,
	"varphi": true, "chi": true, "psi": true, "omega": true,
	"Gamma": true, "Delta": true, "Theta": true, "Lambda": true, "Xi": true,
	"Sigma": true, "Phi": true, "Psi": true, "Omega": true,
}

func S(name string) *Sym        { return &Sym{name: name} }
func (s *Sym) Simplify() Expr   { return s }
func (s *Sym) String() string   { return s.name }
func (s *Sym) Name() string     { return s.name }
func (s *Sym) Eval() (*Num, bool) { return nil, false }
func (s *Sym) Equal(other Expr) bool {
	o, ok := other.(*Sym)
	return ok && s.name == o.name
}
func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}

func (s *Sym) LaTeX() string {
	base, sub, hasSub := strings.Cut(s.name, "_")
	if greekLetters[base] {
		base = "\\" + base
	}
	if hasSub {
		return base + "_{" + sub + "}"
	}
	return base
}

// ============================================================
// Const: named real constants
// ============================================================

type Const struct {
	name  string
	value float64
}

var (
	Pi = &Const{name: "pi", value: math.Pi}
	E  = &Const{name: "E", value: math.E}
)

func (c *Const) Simplify() Expr        { return c }
func (c *Const) String() string        { return c.name }
func (c *Const) Sub(string, Expr) Expr { return c }
func (c *Const) Eval() (*Num, bool)    { return floatNum(c.value) }
func (c *Const) Equal(other Expr) bool { o, ok := other.(*Const); return ok && o.name == c.name }
func (c *Const) LaTeX() string {
	if c == Pi || c.name == "pi" {
		return "\\pi"
	}
	return "\\mathrm{e}"
}

// ============================================================
// Add: sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// Simplify flattens nested sums, folds numbers and collects like terms:
// 2x + 3x becomes 5x. Terms are ordered by descending degree, numbers last.
func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}
	constant := N(0)
	coeffs := map[string]*Num{}
	rests := map[string]Expr{}
	order := []string{}
	for _, t := range flat {
		if v, ok := t.(*Num); ok {
			constant = numAdd(constant, v)
			continue
		}
		c, rest := extractCoefficient(t)
		key := rest.String()
		if _, seen := coeffs[key]; !seen {
			order = append(order, key)
			coeffs[key] = N(0)
			rests[key] = rest
		}
		coeffs[key] = numAdd(coeffs[key], c)
	}
	result := make([]Expr, 0, len(order)+1)
	for _, key := range order {
		c := coeffs[key]
		switch {
		case c.IsZero():
			continue
		case c.IsOne() && !c.approx:
			result = append(result, rests[key])
		default:
			result = append(result, MulOf(c, rests[key]))
		}
	}
	sortTerms(result)
	if !constant.IsZero() || (constant.approx && len(result) == 0) {
		result = append(result, constant)
	}
	if len(result) == 0 {
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

func sortTerms(terms []Expr) {
	type keyed struct {
		e   Expr
		deg int
		key string
	}
	ks := make([]keyed, len(terms))
	for i, t := range terms {
		_, rest := extractCoefficient(t)
		ks[i] = keyed{e: t, deg: totalDegree(rest), key: rest.String()}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].deg != ks[j].deg {
			return ks[i].deg > ks[j].deg
		}
		return ks[i].key < ks[j].key
	})
	for i := range ks {
		terms[i] = ks[i].e
	}
}

// totalDegree sums the integer exponents of the symbols in a monomial.
func totalDegree(e Expr) int {
	switch v := e.(type) {
	case *Sym:
		return 1
	case *Pow:
		if _, ok := v.base.(*Sym); ok {
			if n, ok := v.exp.(*Num); ok && n.IsInteger() {
				return int(n.val.Num().Int64())
			}
		}
	case *Mul:
		d := 0
		for _, f := range v.factors {
			d += totalDegree(f)
		}
		return d
	}
	return 0
}

// orderedForPrint moves a positive term to the front when the sum would
// otherwise start with a minus sign: -y + 3 prints as 3 - y.
func (a *Add) orderedForPrint() []Expr {
	if len(a.terms) < 2 || !isNegativeTerm(a.terms[0]) {
		return a.terms
	}
	for i, t := range a.terms {
		if !isNegativeTerm(t) {
			out := make([]Expr, 0, len(a.terms))
			out = append(out, t)
			out = append(out, a.terms[:i]...)
			return append(out, a.terms[i+1:]...)
		}
	}
	return a.terms
}

func (a *Add) String() string {
	var b strings.Builder
	for i, t := range a.orderedForPrint() {
		switch {
		case i == 0:
			b.WriteString(t.String())
		case isNegativeTerm(t):
			b.WriteString(" - ")
			b.WriteString(negateTerm(t).String())
		default:
			b.WriteString(" + ")
			b.WriteString(t.String())
		}
	}
	return b.String()
}

func (a *Add) LaTeX() string {
	var b strings.Builder
	for i, t := range a.orderedForPrint() {
		switch {
		case i == 0:
			b.WriteString(t.LaTeX())
		case isNegativeTerm(t):
			b.WriteString(" - ")
			b.WriteString(negateTerm(t).LaTeX())
		default:
			b.WriteString(" + ")
			b.WriteString(t.LaTeX())
		}
	}
	return b.String()
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) Terms() []Expr { return a.terms }

func isNegativeTerm(e Expr) bool {
	switch v := e.(type) {
	case *Num:
		return v.IsNegative()
	case *Mul:
		if c, ok := v.factors[0].(*Num); ok {
			return c.IsNegative()
		}
	}
	return false
}

func negateTerm(e Expr) Expr { return MulOf(N(-1), e) }

// ============================================================
// Mul: product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// Simplify flattens nested products, folds the numeric coefficient, merges
// powers of the same base (x·x = x², x·x⁻¹ = 1) and distributes a numeric
// coefficient over a single sum.
func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}
	type power struct{ base, exp Expr }
	coeff := N(1)
	groups := map[string]*power{}
	order := []string{}
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
			continue
		}
		base, exp := f, Expr(N(1))
		if p, ok := f.(*Pow); ok {
			base, exp = p.base, p.exp
		}
		key := base.String()
		if g, ok := groups[key]; ok {
			g.exp = AddOf(g.exp, exp)
			continue
		}
		groups[key] = &power{base: base, exp: exp}
		order = append(order, key)
	}
	if coeff.IsZero() {
		return N(0)
	}
	others := make([]Expr, 0, len(order))
	regroup := false
	for _, key := range order {
		g := groups[key]
		f := PowOf(g.base, g.exp)
		switch v := f.(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Mul:
			regroup = true
			others = append(others, v.factors...)
		default:
			others = append(others, f)
		}
	}
	if regroup {
		return MulOf(append([]Expr{coeff}, others...)...)
	}
	if coeff.IsZero() {
		return N(0)
	}
	if len(others) == 0 {
		return coeff
	}
	if !coeff.IsOne() && len(others) == 1 {
		if sum, ok := others[0].(*Add); ok {
			terms := make([]Expr, len(sum.terms))
			for i, t := range sum.terms {
				terms[i] = MulOf(coeff, t)
			}
			return AddOf(terms...)
		}
	}

	// Precompute sort keys to avoid repeated String() calls in comparator.
	type keyed struct {
		e   Expr
		key string
	}
	ks := make([]keyed, len(others))
	for i, e := range others {
		ks[i] = keyed{e: e, key: e.String()}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].key < ks[j].key })
	for i := range ks {
		others[i] = ks[i].e
	}

	if coeff.IsOne() && !coeff.approx {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

// split separates a product into its numeric coefficient, the factors of the
// numerator and the factors of the denominator (negative powers, inverted).
func (m *Mul) split() (*Num, []Expr, []Expr) {
	coeff := N(1)
	var num, den []Expr
	for _, f := range m.factors {
		switch v := f.(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Pow:
			if e, ok := v.exp.(*Num); ok && e.IsNegative() {
				den = append(den, PowOf(v.base, numNeg(e)))
				continue
			}
			num = append(num, f)
		default:
			num = append(num, f)
		}
	}
	return coeff, num, den
}

func (m *Mul) String() string {
	coeff, num, den := m.split()
	sign := ""
	if coeff.IsNegative() {
		sign = "-"
		coeff = numNeg(coeff)
	}
	parts := []string{}
	numer := coeff
	denom := N(1)
	if !coeff.approx && !coeff.IsInteger() {
		numer = &Num{val: new(big.Rat).SetInt(coeff.val.Num())}
		denom = &Num{val: new(big.Rat).SetInt(coeff.val.Denom())}
	}
	if !numer.IsOne() || len(num) == 0 {
		parts = append(parts, numer.String())
	}
	for _, f := range num {
		parts = append(parts, wrapString(f, precMul))
	}
	out := strings.Join(parts, "*")
	denParts := []string{}
	if !denom.IsOne() {
		denParts = append(denParts, denom.String())
	}
	for _, f := range den {
		denParts = append(denParts, wrapString(f, precMul))
	}
	switch {
	case len(denParts) == 1:
		out += "/" + denParts[0]
	case len(denParts) > 1:
		out += "/(" + strings.Join(denParts, "*") + ")"
	}
	return sign + out
}

func (m *Mul) LaTeX() string {
	coeff, num, den := m.split()
	sign := ""
	if coeff.IsNegative() {
		sign = "-"
		coeff = numNeg(coeff)
	}
	numParts := []string{}
	denParts := []string{}
	if coeff.approx || coeff.IsInteger() {
		if !coeff.IsOne() || len(num) == 0 {
			numParts = append(numParts, coeff.LaTeX())
		}
	} else {
		if c := coeff.val.Num(); c.Cmp(big.NewInt(1)) != 0 || len(num) == 0 {
			numParts = append(numParts, c.String())
		}
		denParts = append(denParts, coeff.val.Denom().String())
	}
	for _, f := range num {
		numParts = append(numParts, wrapLaTeX(f, precMul))
	}
	for _, f := range den {
		if len(den) == 1 && len(denParts) == 0 {
			denParts = append(denParts, f.LaTeX())
		} else {
			denParts = append(denParts, wrapLaTeX(f, precMul))
		}
	}
	if len(numParts) == 0 {
		numParts = append(numParts, "1")
	}
	if len(denParts) == 0 {
		return sign + strings.Join(numParts, " ")
	}
	if len(num) == 1 && len(numParts) == 1 {
		numParts[0] = num[0].LaTeX()
	}
	return sign + "\\frac{" + strings.Join(numParts, " ") + "}{" + strings.Join(denParts, " ") + "}"
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) Factors() []Expr { return m.factors }

func extractCoefficient(e Expr) (*Num, Expr) {
	if m, ok := e.(*Mul); ok && len(m.factors) >= 2 {
		if coeff, ok2 := m.factors[0].(*Num); ok2 {
			rest := m.factors[1:]
			if len(rest) == 1 {
				return coeff, rest[0]
			}
			return coeff, &Mul{factors: rest}
		}
	}
	return N(1), e
}

// ============================================================
// Pow: base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func SqrtOf(arg Expr) Expr { return PowOf(arg, F(1, 2)) }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	en, expIsNum := exp.(*Num)
	if expIsNum && en.IsZero() {
		return N(1)
	}
	if expIsNum && en.IsOne() && !en.approx {
		return base
	}

	if bn, ok := base.(*Num); ok {
		// 0^negative is division by zero and stays unevaluated.
		if bn.IsZero() {
			if expIsNum && en.IsNegative() {
				return &Pow{base: base, exp: exp}
			}
			if expIsNum {
				return N(0)
			}
		}
		if bn.IsOne() && !bn.approx {
			return N(1)
		}
		if expIsNum {
			if r, ok := numPow(bn, en); ok {
				return r
			}
			if !bn.approx && !en.approx && !bn.IsNegative() {
				return rootRational(bn, en)
			}
		}
	}
	if inner, ok := base.(*Pow); ok && expIsNum && en.IsInteger() {
		return PowOf(inner.base, MulOf(inner.exp, exp))
	}
	if m, ok := base.(*Mul); ok && expIsNum && en.IsInteger() {
		factors := make([]Expr, len(m.factors))
		for i, f := range m.factors {
			factors[i] = PowOf(f, exp)
		}
		return MulOf(factors...)
	}
	return &Pow{base: base, exp: exp}
}

// numPow evaluates b^e when the result is exact (integer e) or b is already
// approximate.
func numPow(b, e *Num) (*Num, bool) {
	if b.approx || e.approx {
		if !e.IsInteger() && b.IsNegative() {
			return nil, false
		}
		return floatNum(math.Pow(b.Float64(), e.Float64()))
	}
	if !e.IsInteger() || e.val.Num().BitLen() > 10 {
		return nil, false
	}
	k := e.val.Num().Int64()
	neg := k < 0
	if neg {
		k = -k
	}
	num := new(big.Int).Exp(b.val.Num(), big.NewInt(k), nil)
	den := new(big.Int).Exp(b.val.Denom(), big.NewInt(k), nil)
	r := &Num{val: new(big.Rat).SetFrac(num, den)}
	if neg {
		return numRecip(r), true
	}
	return r, true
}

// rootRational evaluates b^(p/q) for b > 0, pulling perfect q-th powers out
// of the radical: 8^(1/2) = 2·2^(1/2), (1/2)^(1/2) = 2^(1/2)/2.
func rootRational(b, e *Num) Expr {
	raw := &Pow{base: b, exp: e}
	p := e.val.Num()
	q := e.val.Denom()
	if !q.IsInt64() || q.Int64() > 12 || !p.IsInt64() {
		return raw
	}
	qi := q.Int64()
	// b = a/d = a·d^(q-1) / d^q
	d := b.val.Denom()
	m := new(big.Int).Mul(b.val.Num(), new(big.Int).Exp(d, big.NewInt(qi-1), nil))
	if m.BitLen() > 62 {
		return raw
	}
	outside, inside := splitPower(m.Int64(), qi)
	root := &Num{val: new(big.Rat).SetFrac(big.NewInt(outside), d)}
	if inside == 1 {
		r, ok := numPow(root, &Num{val: new(big.Rat).SetInt(p)})
		if !ok {
			return raw
		}
		return r
	}
	if outside == 1 && d.Cmp(big.NewInt(1)) == 0 {
		return raw
	}
	if p.Int64() != 1 {
		return raw
	}
	return MulOf(root, &Pow{base: N(inside), exp: F(1, qi)})
}

// splitPower writes m = outside^q · inside with inside free of q-th powers of
// small primes.
func splitPower(m, q int64) (outside, inside int64) {
	outside, inside = 1, m
	for d := int64(2); d <= 100000 && d*d <= inside; d++ {
		dq := int64(1)
		overflow := false
		for i := int64(0); i < q; i++ {
			if dq > inside/d {
				overflow = true
				break
			}
			dq *= d
		}
		if overflow {
			if q > 2 {
				continue
			}
			break
		}
		for inside%dq == 0 {
			inside /= dq
			outside *= d
		}
	}
	return outside, inside
}

func (p *Pow) rootIndex() (int64, bool) {
	if e, ok := p.exp.(*Num); ok && !e.approx && e.val.Num().Cmp(big.NewInt(1)) == 0 && e.val.Denom().IsInt64() {
		return e.val.Denom().Int64(), true
	}
	return 0, false
}

func (p *Pow) String() string {
	if q, ok := p.rootIndex(); ok {
		if q == 2 {
			return "sqrt(" + p.base.String() + ")"
		}
		return p.base.String() + "^(1/" + strconv.FormatInt(q, 10) + ")"
	}
	if e, ok := p.exp.(*Num); ok && e.IsNegative() {
		return "1/" + wrapString(PowOf(p.base, numNeg(e)), precMul)
	}
	return wrapString(p.base, precPow) + "^" + wrapString(p.exp, precPow)
}

func (p *Pow) LaTeX() string {
	if q, ok := p.rootIndex(); ok {
		if q == 2 {
			return "\\sqrt{" + p.base.LaTeX() + "}"
		}
		return "\\sqrt[" + strconv.FormatInt(q, 10) + "]{" + p.base.LaTeX() + "}"
	}
	if e, ok := p.exp.(*Num); ok && e.IsNegative() {
		return "\\frac{1}{" + PowOf(p.base, numNeg(e)).LaTeX() + "}"
	}
	return wrapLaTeX(p.base, precPow) + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 {
		return nil, false
	}
	if b.IsZero() && e.IsNegative() {
		return nil, false
	}
	if r, ok := numPow(b, e); ok {
		return r, true
	}
	if b.IsNegative() {
		return nil, false
	}
	return floatNum(math.Pow(b.Float64(), e.Float64()))
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }

// ============================================================
// Func: named function applications
// ============================================================

type Func struct {
	name string
	arg  Expr
}

func funcOf(name string, arg Expr) *Func { return &Func{name: name, arg: arg} }

func SinOf(arg Expr) Expr       { return funcOf("sin", arg).Simplify() }
func CosOf(arg Expr) Expr       { return funcOf("cos", arg).Simplify() }
func TanOf(arg Expr) Expr       { return funcOf("tan", arg).Simplify() }
func ExpOf(arg Expr) Expr       { return funcOf("exp", arg).Simplify() }
func LnOf(arg Expr) Expr        { return funcOf("ln", arg).Simplify() }
func LogOf(arg Expr) Expr       { return funcOf("log", arg).Simplify() }
func AbsOf(arg Expr) Expr       { return funcOf("abs", arg).Simplify() }
func AsinOf(arg Expr) Expr      { return funcOf("asin", arg).Simplify() }
func AcosOf(arg Expr) Expr      { return funcOf("acos", arg).Simplify() }
func AtanOf(arg Expr) Expr      { return funcOf("atan", arg).Simplify() }
func SinhOf(arg Expr) Expr      { return funcOf("sinh", arg).Simplify() }
func CoshOf(arg Expr) Expr      { return funcOf("cosh", arg).Simplify() }
func TanhOf(arg Expr) Expr      { return funcOf("tanh", arg).Simplify() }
func FloorOf(arg Expr) Expr     { return funcOf("floor", arg).Simplify() }
func CeilOf(arg Expr) Expr      { return funcOf("ceil", arg).Simplify() }
func SignOf(arg Expr) Expr      { return funcOf("sign", arg).Simplify() }
func FactorialOf(arg Expr) Expr { return funcOf("factorial", arg).Simplify() }

// Simplify evaluates a function only where the value is exact; sin(1) stays
// symbolic and is left to Eval.
func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()
	n, isNum := arg.(*Num)
	if isNum && n.approx {
		if v, ok := applyFunc(f.name, n.Float64()); ok {
			if r, ok := floatNum(v); ok {
				return r
			}
		}
	}
	switch f.name {
	case "sin", "tan", "asin", "atan", "sinh", "tanh":
		if isNumEqual(arg, 0) {
			return N(0)
		}
		if f.name != "asin" && f.name != "atan" && f.name != "sinh" && f.name != "tanh" && arg.Equal(Pi) {
			return N(0)
		}
	case "cos", "cosh":
		if isNumEqual(arg, 0) {
			return N(1)
		}
		if f.name == "cos" && arg.Equal(Pi) {
			return N(-1)
		}
	case "ln":
		if isNumEqual(arg, 1) {
			return N(0)
		}
		if arg.Equal(E) {
			return N(1)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "exp" {
			return inner.arg
		}
	case "log":
		if isNum && !n.approx && n.IsPositive() {
			if k, ok := exactLog10(n); ok {
				return N(k)
			}
		}
	case "exp":
		if isNumEqual(arg, 0) {
			return N(1)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "ln" {
			return inner.arg
		}
	case "abs":
		if isNum {
			return numAbs(n)
		}
		if m, ok := arg.(*Mul); ok {
			if coeff, ok2 := m.factors[0].(*Num); ok2 && coeff.IsNegative() {
				return MulOf(numAbs(coeff), AbsOf(MulOf(m.factors[1:]...)))
			}
		}
	case "floor":
		if isNum {
			return numFloor(n)
		}
	case "ceil":
		if isNum {
			return numCeil(n)
		}
	case "sign":
		if isNum {
			return N(int64(n.val.Sign()))
		}
	case "factorial":
		if isNum && n.IsInteger() && !n.IsNegative() && n.val.Num().Int64() <= 170 {
			return &Num{val: new(big.Rat).SetInt(new(big.Int).MulRange(1, n.val.Num().Int64()))}
		}
	}
	return &Func{name: f.name, arg: arg}
}

func (n *Num) IsPositive() bool { return n.val.Sign() > 0 }

// exactLog10 reports k when n == 10^k for an integer k.
func exactLog10(n *Num) (int64, bool) {
	ten := big.NewRat(10, 1)
	v := new(big.Rat).Set(n.val)
	k := int64(0)
	if v.Cmp(big.NewRat(1, 1)) < 0 {
		for v.Cmp(big.NewRat(1, 1)) < 0 && k > -64 {
			v.Mul(v, ten)
			k--
		}
	} else {
		for v.Cmp(ten) >= 0 && k < 64 {
			v.Quo(v, ten)
			k++
		}
	}
	return k, v.Cmp(big.NewRat(1, 1)) == 0
}

func (f *Func) String() string {
	if f.name == "factorial" {
		return wrapString(f.arg, precAtom) + "!"
	}
	return f.name + "(" + f.arg.String() + ")"
}

func (f *Func) LaTeX() string {
	arg := f.arg.LaTeX()
	switch f.name {
	case "sin", "cos", "tan", "exp", "ln", "log", "sinh", "cosh", "tanh":
		return "\\" + f.name + "\\left(" + arg + "\\right)"
	case "asin":
		return "\\arcsin\\left(" + arg + "\\right)"
	case "acos":
		return "\\arccos\\left(" + arg + "\\right)"
	case "atan":
		return "\\arctan\\left(" + arg + "\\right)"
	case "abs":
		return "\\left|" + arg + "\\right|"
	case "floor":
		return "\\lfloor " + arg + " \\rfloor"
	case "ceil":
		return "\\lceil " + arg + " \\rceil"
	case "factorial":
		return wrapLaTeX(f.arg, precAtom) + "!"
	}
	return "\\operatorname{" + f.name + "}\\left(" + arg + "\\right)"
}

func (f *Func) Sub(varName string, value Expr) Expr {
	return funcOf(f.name, f.arg.Sub(varName, value)).Simplify()
}

func (f *Func) Eval() (*Num, bool) {
	n, ok := f.arg.Eval()
	if !ok {
		return nil, false
	}
	if exact := funcOf(f.name, n).Simplify(); exact != nil {
		if r, ok := exact.(*Num); ok {
			return r, true
		}
	}
	v, ok := applyFunc(f.name, n.Float64())
	if !ok {
		return nil, false
	}
	return floatNum(v)
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) FuncName() string { return f.name }
func (f *Func) Arg() Expr        { return f.arg }

// applyFunc evaluates a named real function, reporting false outside its
// domain.
func applyFunc(name string, v float64) (float64, bool) {
	var r float64
	switch name {
	case "sin":
		r = math.Sin(v)
	case "cos":
		r = math.Cos(v)
	case "tan":
		r = math.Tan(v)
	case "exp":
		r = math.Exp(v)
	case "ln":
		if v <= 0 {
			return 0, false
		}
		r = math.Log(v)
	case "log":
		if v <= 0 {
			return 0, false
		}
		r = math.Log10(v)
	case "abs":
		r = math.Abs(v)
	case "asin":
		r = math.Asin(v)
	case "acos":
		r = math.Acos(v)
	case "atan":
		r = math.Atan(v)
	case "sinh":
		r = math.Sinh(v)
	case "cosh":
		r = math.Cosh(v)
	case "tanh":
		r = math.Tanh(v)
	case "floor":
		r = math.Floor(v)
	case "ceil":
		r = math.Ceil(v)
	case "sign":
		switch {
		case v > 0:
			r = 1
		case v < 0:
			r = -1
		}
	case "factorial":
		if v < 0 {
			return 0, false
		}
		r = math.Gamma(v + 1)
	default:
		return 0, false
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

func isNumEqual(e Expr, v int64) bool {
	n, ok := e.(*Num)
	return ok && n.Equal(N(v))
}

// IsZero reports whether e simplified to the number zero.
func IsZero(e Expr) bool {
	n, ok := e.(*Num)
	return ok && n.IsZero()
}

// ============================================================
// Printing precedence
// ============================================================

const (
	precAdd = iota + 1
	precMul
	precPow
	precAtom
)

func precedence(e Expr) int {
	switch v := e.(type) {
	case *Add:
		return precAdd
	case *Mul:
		return precMul
	case *Pow:
		if _, ok := v.rootIndex(); ok {
			return precAtom
		}
		if n, ok := v.exp.(*Num); ok && n.IsNegative() {
			return precMul
		}
		return precPow
	case *Num:
		if v.IsNegative() {
			return precAdd
		}
		if !v.approx && !v.IsInteger() {
			return precMul
		}
	case *Func:
		if v.name == "factorial" {
			return precPow
		}
	}
	return precAtom
}

func wrapString(e Expr, outer int) string {
	if precedence(e) <= outer {
		return "(" + e.String() + ")"
	}
	return e.String()
}

func wrapLaTeX(e Expr, outer int) string {
	if precedence(e) <= outer && !(outer == precMul && precedence(e) == precMul) {
		return "\\left(" + e.LaTeX() + "\\right)"
	}
	return e.LaTeX()
}
