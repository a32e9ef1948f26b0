package classify_test

import (
	"strings"
	"testing"

	"github.com/njchilds90/formsolve/internal/classify"
	"github.com/njchilds90/formsolve/internal/relation"
	"github.com/njchilds90/formsolve/symbolic"
)

func classifyText(t *testing.T, text string) classify.Result {
	t.Helper()
	c := classify.New(symbolic.NewEngine(), nil)
	if m, ok := relation.Extract(text); ok {
		return c.Classify(text, &m)
	}
	return c.Classify(text, nil)
}

// ============================================================
// Relation tests
// ============================================================

func TestClassify_Divisibility(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`3 \mid 12`, "3 divides 12 ✓"},
		{`7 \mid 12`, "7 does NOT divide 12  (remainder: 5) ✗"},
		{`7 \nmid 12`, "7 does NOT divide 12  (remainder: 5) ✓"},
		{`3 \nmid 12`, "3 does NOT divide 12 ✗  (they divide evenly)"},
	}
	for _, c := range cases {
		res, ok := classifyText(t, c.in).(classify.Divisibility)
		if !ok {
			t.Errorf("%s: want Divisibility, got %T", c.in, classifyText(t, c.in))
			continue
		}
		if res.Text != c.want {
			t.Errorf("%s: want %q, got %q", c.in, c.want, res.Text)
		}
	}
}

func TestClassify_DivisibilityParseFailure(t *testing.T) {
	res := classifyText(t, `2+ \mid 4`)
	st, ok := res.(classify.Statement)
	if !ok || st.Text != "Could not parse operands for '∣'" {
		t.Errorf("want parse failure statement, got %#v", res)
	}
}

func TestClassify_Inequality(t *testing.T) {
	res := classifyText(t, `2x+1 \leq 7`)
	q, ok := res.(classify.Inequality)
	if !ok {
		t.Fatalf("want Inequality, got %T", res)
	}
	if len(q.ByVariable) != 1 || q.ByVariable[0].Variable != "x" || q.ByVariable[0].Range != "(-∞, 3]" {
		t.Errorf("want x in (-∞, 3], got %+v", q.ByVariable)
	}
}

func TestClassify_ClosedInequality(t *testing.T) {
	cases := map[string]string{
		"3 < 5":     "True",
		`4 \geq 9`:  "False",
		`\pi \gt 3`: "True",
	}
	for in, want := range cases {
		q, ok := classifyText(t, in).(classify.Inequality)
		if !ok || q.Raw != want {
			t.Errorf("%s: want %s, got %#v", in, want, q)
		}
	}
}

func TestClassify_InequalityParseFailure(t *testing.T) {
	st, ok := classifyText(t, "x+ < 2").(classify.Statement)
	if !ok || st.Text != "x+ < 2 — could not parse" {
		t.Errorf("want could not parse statement, got %#v", st)
	}
}

func TestClassify_Statements(t *testing.T) {
	cases := map[string]string{
		`a \in B`:       "a ∈ B (set membership)",
		`a \notin B`:    "a ∉ B (non-membership)",
		`x \neq 2`:      "x ≠ 2",
		`A \subset B`:   "A ⊂ B (subset)",
		`A \subseteq B`: "A ⊆ B (subset)",
		`A \supseteq B`: "A ⊇ B (superset)",
		`p \implies q`:  "p ⟹ q (implication)",
	}
	for in, want := range cases {
		st, ok := classifyText(t, in).(classify.Statement)
		if !ok || st.Text != want {
			t.Errorf("%s: want %q, got %#v", in, want, st)
		}
	}
}

// ============================================================
// Equation tests
// ============================================================

func TestClassify_EqualityCheck(t *testing.T) {
	eq, ok := classifyText(t, "x+1=x+1").(classify.EqualityCheck)
	if !ok || !eq.IsTrue {
		t.Errorf("want true equality, got %#v", eq)
	}
	eq, ok = classifyText(t, "1=2").(classify.EqualityCheck)
	if !ok || eq.IsTrue {
		t.Fatalf("want false equality, got %#v", eq)
	}
	if eq.Detail != "Not equal — difference: -1" {
		t.Errorf("unexpected detail %q", eq.Detail)
	}
}

func TestClassify_EquationSolved(t *testing.T) {
	res := classifyText(t, "2x+3=7")
	eq, ok := res.(classify.Equation)
	if !ok {
		t.Fatalf("want Equation, got %T", res)
	}
	if len(eq.ByVariable) != 1 {
		t.Fatalf("want one variable, got %+v", eq.ByVariable)
	}
	v := eq.ByVariable[0]
	if v.Variable != "x" || len(v.Solutions) != 1 || v.Solutions[0] != "2" {
		t.Errorf("want x = 2, got %+v", v)
	}
}

func TestClassify_EquationNoRealSolutions(t *testing.T) {
	eq, ok := classifyText(t, "x^2+1=0").(classify.Equation)
	if !ok {
		t.Fatal("want Equation")
	}
	if len(eq.ByVariable) != 1 || eq.ByVariable[0].Variable != "x" || len(eq.ByVariable[0].Solutions) != 0 {
		t.Errorf("want x with no solutions, got %+v", eq.ByVariable)
	}
}

func TestClassify_EquationKeepsCancelledVariable(t *testing.T) {
	eq, ok := classifyText(t, "x=x+y").(classify.Equation)
	if !ok {
		t.Fatal("want Equation")
	}
	if len(eq.ByVariable) != 2 {
		t.Fatalf("want entries for x and y, got %+v", eq.ByVariable)
	}
	x, y := eq.ByVariable[0], eq.ByVariable[1]
	if x.Variable != "x" || len(x.Solutions) != 0 {
		t.Errorf("want x with no solutions, got %+v", x)
	}
	if y.Variable != "y" || len(y.Solutions) != 1 || y.Solutions[0] != "0" {
		t.Errorf("want y = 0, got %+v", y)
	}
}

func TestClassify_EquationConstantDifference(t *testing.T) {
	eq, ok := classifyText(t, "x=x+1").(classify.EqualityCheck)
	if !ok || eq.IsTrue {
		t.Fatalf("want false equality, got %#v", eq)
	}
	if eq.Detail != "Not equal — difference: -1" {
		t.Errorf("unexpected detail %q", eq.Detail)
	}
}

func TestClassify_EquationUnsolvable(t *testing.T) {
	for _, text := range []string{`\sin x=y`, `\sin x+y=x^{3}`} {
		res := classifyText(t, text)
		e, ok := res.(classify.Error)
		if !ok {
			t.Errorf("%s: want Error result, got %#v", text, res)
			continue
		}
		if !strings.HasPrefix(e.Message, "could not parse or solve: solve for x: ") {
			t.Errorf("%s: unexpected message %q", text, e.Message)
		}
	}
}

// ============================================================
// Expression tests
// ============================================================

func TestClassify_NumericExpression(t *testing.T) {
	ex, ok := classifyText(t, "2+3").(classify.Expression)
	if !ok {
		t.Fatal("want Expression")
	}
	if ex.Simplified != "5" || ex.Numeric == nil || *ex.Numeric != 5 {
		t.Errorf("want 5, got %+v", ex)
	}
}

func TestClassify_SymbolicExpression(t *testing.T) {
	ex, ok := classifyText(t, "x+x").(classify.Expression)
	if !ok {
		t.Fatal("want Expression")
	}
	if ex.Numeric != nil {
		t.Errorf("expression with a free variable has no numeric value, got %v", *ex.Numeric)
	}
}

func TestClassify_ParseError(t *testing.T) {
	res := classifyText(t, "2+")
	e, ok := res.(classify.Error)
	if !ok || !strings.HasPrefix(e.Message, "could not parse or solve: ") {
		t.Errorf("want Error result, got %#v", res)
	}
}

func TestClassify_DivisionByZero(t *testing.T) {
	res := classifyText(t, `\frac{1}{0}`)
	if _, ok := res.(classify.Error); !ok {
		t.Errorf("want Error result, got %#v", res)
	}
}
