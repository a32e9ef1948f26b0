package symbolic_test

import (
	"errors"
	"math"
	"testing"

	"github.com/njchilds90/formsolve/symbolic"
)

// ============================================================
// Parser tests
// ============================================================

func TestParse_Strings(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2+3", "5"},
		{`\frac{1}{2}`, "1/2"},
		{"2x+3x", "5*x"},
		{`x^{2}`, "x^2"},
		{`x^2 \cdot x`, "x^3"},
		{`6 \div 4`, "3/2"},
		{`\sqrt{8}`, "2*sqrt(2)"},
		{`\sqrt[3]{27}`, "3"},
		{`\sin x`, "sin(x)"},
		{`x_{1}+x_1`, "2*x_1"},
		{"|-3|", "3"},
		{"3!", "6"},
		{`\left(x+1\right)-1`, "x"},
		{"0.5+0.25", "3/4"},
		{`\alpha+\alpha`, "2*alpha"},
	}
	for _, c := range cases {
		e, err := symbolic.Parse(c.in)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", c.in, err)
			continue
		}
		if e.String() != c.want {
			t.Errorf("Parse(%q): want %s, got %s", c.in, c.want, e.String())
		}
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "2+", "(x", `\infty`, `\foo{x}`, "x = 2", "3 \\leq 4"} {
		_, err := symbolic.Parse(in)
		if err == nil {
			t.Errorf("Parse(%q): want error, got nil", in)
			continue
		}
		if !errors.Is(err, symbolic.ErrParse) {
			t.Errorf("Parse(%q): want ErrParse, got %v", in, err)
		}
	}
}

func TestParse_Numeric(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{`2\pi`, 2 * math.Pi},
		{`\log_{2} 8`, 3},
		{`\sin^{2}x+\cos^{2}x`, 1},
		{`\mathrm{e}^{2}`, math.E * math.E},
		{`\frac{\sqrt{2}}{2}`, math.Sqrt2 / 2},
	}
	eng := symbolic.NewEngine()
	for _, c := range cases {
		e, err := symbolic.Parse(c.in)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", c.in, err)
			continue
		}
		if c.in == `\sin^{2}x+\cos^{2}x` {
			e = e.Sub("x", symbolic.F(7, 10))
		}
		v, err := eng.Evaluate(e)
		if err != nil {
			t.Errorf("Evaluate(%q): unexpected error %v", c.in, err)
			continue
		}
		if math.Abs(v-c.want) > 1e-9 {
			t.Errorf("Evaluate(%q): want %g, got %g", c.in, c.want, v)
		}
	}
}

func TestParse_ImplicitMultiplication(t *testing.T) {
	e, err := symbolic.Parse("2(x+1)")
	if err != nil {
		t.Fatal(err)
	}
	if e.String() != "2*x + 2" {
		t.Errorf("want 2*x + 2, got %s", e.String())
	}
}

func TestParse_LaTeXRoundTrip(t *testing.T) {
	for _, in := range []string{`\frac{x}{2}`, `x^{2} + 1`, `\sqrt{2}`} {
		e, err := symbolic.Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		back, err := symbolic.Parse(e.LaTeX())
		if err != nil {
			t.Fatalf("Parse(%q): %v", e.LaTeX(), err)
		}
		if !back.Equal(e) {
			t.Errorf("round trip of %q: want %s, got %s", in, e.String(), back.String())
		}
	}
}
