package symbolic

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================
// Engine: error-returning facade over the kernel
// ============================================================

var (
	ErrParse       = errors.New("parse error")
	ErrUnsolvable  = errors.New("cannot solve")
	ErrUnsupported = errors.New("unsupported operation")
	ErrDomain      = errors.New("math domain error")
)

// Engine exposes the kernel through error-returning methods. Kernel panics
// (division by zero, non-finite values) surface as ErrDomain. The zero value
// is ready to use and safe for concurrent use.
type Engine struct{}

func NewEngine() Engine { return Engine{} }

func guard(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrDomain, r)
	}
}

func (Engine) Parse(src string) (e Expr, err error) {
	defer guard(&err)
	return Parse(src)
}

// Simplify returns the shorter of the collected and the expanded form.
func (Engine) Simplify(x Expr) (e Expr, err error) {
	defer guard(&err)
	s := x.Simplify()
	if ex := Expand(x); len(ex.String()) < len(s.String()) {
		s = ex
	}
	if hasUndefined(s) {
		return nil, fmt.Errorf("%w: division by zero in %s", ErrDomain, s.String())
	}
	return s, nil
}

func (Engine) Mod(p, q Expr) (e Expr, err error) {
	defer guard(&err)
	return Mod(p, q)
}

func (Engine) Solve(lhs, rhs Expr, varName string) (roots []Expr, err error) {
	defer guard(&err)
	return Solve(Eq(lhs, rhs), varName)
}

func (Engine) SolveInequality(lhs Expr, op string, rhs Expr, varName string) (s string, err error) {
	defer guard(&err)
	q, err := Ineq(lhs, op, rhs)
	if err != nil {
		return "", err
	}
	return SolveInequality(q, varName)
}

// Compare decides lhs op rhs for expressions without free symbols.
func (Engine) Compare(lhs Expr, op string, rhs Expr) (ok bool, err error) {
	defer guard(&err)
	q, err := Ineq(lhs, op, rhs)
	if err != nil {
		return false, err
	}
	return q.Truth()
}

func (Engine) LaTeX(x Expr) string { return x.LaTeX() }

// Human renders x in plain text: ^ for powers and √ for square roots.
func (Engine) Human(x Expr) string {
	return strings.ReplaceAll(x.String(), "sqrt(", "√(")
}

func (Engine) Evaluate(x Expr) (v float64, err error) {
	defer guard(&err)
	if names := SortedSymbols(x); len(names) > 0 {
		return 0, fmt.Errorf("%w: %s has free symbols %s", ErrUnsupported, x.String(), strings.Join(names, ", "))
	}
	if hasUndefined(x) {
		return 0, fmt.Errorf("%w: division by zero in %s", ErrDomain, x.String())
	}
	if n, ok := x.(*Num); ok {
		return n.Float64(), nil
	}
	f, ok := floatValue(x)
	if !ok {
		return 0, fmt.Errorf("%w: %s has no real value", ErrDomain, x.String())
	}
	return f, nil
}

// IsExactInteger reports whether x is an exact integer.
func (Engine) IsExactInteger(x Expr) bool {
	n, ok := x.(*Num)
	return ok && !n.approx && n.IsInteger()
}

func (Engine) FreeSymbols(x Expr) []string { return SortedSymbols(x) }
