package symbolic

import (
	"fmt"
	"math"
)

// ============================================================
// Modulo
// ============================================================

// Mod returns p mod q with the sign of q, as p - q·floor(p/q). A quotient
// that simplifies to an integer gives 0 even for symbolic operands, so
// Mod(6x, 3x) = 0.
func Mod(p, q Expr) (Expr, error) {
	p, q = p.Simplify(), q.Simplify()
	if IsZero(q) {
		return nil, fmt.Errorf("%w: modulo by zero", ErrDomain)
	}
	pn, pok := p.(*Num)
	qn, qok := q.(*Num)
	if pok && qok {
		if pn.approx || qn.approx {
			a, b := pn.Float64(), qn.Float64()
			r := math.Mod(a, b)
			if r != 0 && (r < 0) != (b < 0) {
				r += b
			}
			return NFloat(r), nil
		}
		return numSub(pn, numMul(qn, numFloor(numDiv(pn, qn)))), nil
	}
	ratio := Expand(MulOf(p, PowOf(q, N(-1))))
	if n, ok := ratio.(*Num); ok && n.IsInteger() {
		return N(0), nil
	}
	if pv, ok := p.Eval(); ok {
		if qv, ok := q.Eval(); ok {
			if qv.IsZero() {
				return nil, fmt.Errorf("%w: modulo by zero", ErrDomain)
			}
			return Mod(pv, qv)
		}
	}
	return nil, fmt.Errorf("%w: %s mod %s", ErrUnsupported, p.String(), q.String())
}
