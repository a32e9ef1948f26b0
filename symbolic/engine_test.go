package symbolic_test

import (
	"errors"
	"testing"

	"github.com/njchilds90/formsolve/symbolic"
)

func TestEngine_SimplifyPrefersShorterForm(t *testing.T) {
	eng := symbolic.NewEngine()
	e, err := eng.Parse("(x+1)^2 - x^2")
	if err != nil {
		t.Fatal(err)
	}
	s, err := eng.Simplify(e)
	if err != nil {
		t.Fatal(err)
	}
	if s.String() != "2*x + 1" {
		t.Errorf("want 2*x + 1, got %s", s.String())
	}
}

func TestEngine_EvaluateDivisionByZero(t *testing.T) {
	eng := symbolic.NewEngine()
	e, err := eng.Parse(`\frac{1}{0}`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Evaluate(e); !errors.Is(err, symbolic.ErrDomain) {
		t.Errorf("want ErrDomain, got %v", err)
	}
	if _, err := eng.Simplify(e); !errors.Is(err, symbolic.ErrDomain) {
		t.Errorf("want ErrDomain from Simplify, got %v", err)
	}
}

func TestEngine_EvaluateFreeSymbols(t *testing.T) {
	eng := symbolic.NewEngine()
	if _, err := eng.Evaluate(symbolic.S("x")); !errors.Is(err, symbolic.ErrUnsupported) {
		t.Errorf("want ErrUnsupported, got %v", err)
	}
}

func TestEngine_Compare(t *testing.T) {
	eng := symbolic.NewEngine()
	ok, err := eng.Compare(symbolic.N(2), symbolic.OpGE, symbolic.N(2))
	if err != nil || !ok {
		t.Errorf("want 2 >= 2, got %v (%v)", ok, err)
	}
}

func TestEngine_Human(t *testing.T) {
	eng := symbolic.NewEngine()
	e, _ := eng.Parse(`\sqrt{2}`)
	if got := eng.Human(e); got != "√(2)" {
		t.Errorf("want √(2), got %s", got)
	}
}

func TestEngine_FreeSymbolsSorted(t *testing.T) {
	eng := symbolic.NewEngine()
	e, _ := eng.Parse("z+a+m")
	got := eng.FreeSymbols(e)
	if len(got) != 3 || got[0] != "a" || got[1] != "m" || got[2] != "z" {
		t.Errorf("want [a m z], got %v", got)
	}
}

func TestEngine_IsExactInteger(t *testing.T) {
	eng := symbolic.NewEngine()
	if !eng.IsExactInteger(symbolic.N(4)) {
		t.Error("4 is an exact integer")
	}
	if eng.IsExactInteger(symbolic.F(1, 2)) || eng.IsExactInteger(symbolic.NFloat(4)) {
		t.Error("1/2 and approximate 4 are not exact integers")
	}
}
