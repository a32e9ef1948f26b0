package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/njchilds90/formsolve/internal/classify"
	"github.com/njchilds90/formsolve/internal/format"
	"github.com/njchilds90/formsolve/internal/pipeline"
	"github.com/njchilds90/formsolve/internal/recognize"
	"github.com/njchilds90/formsolve/symbolic"
)

func newPipeline() *pipeline.Pipeline {
	return pipeline.New(symbolic.NewEngine(), nil)
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		`\left(x+1\right) \cdot 2`: "(x+1) * 2",
		`6 \div 3`:                 "6 / 3",
		`2 \dagger 4`:              `2 \mid 4`,
		`  3 \times 4  `:           "3 * 4",
		`\left[x\right]`:           "[x]",
	}
	for in, want := range cases {
		if got := pipeline.Normalize(in); got != want {
			t.Errorf("Normalize(%q): want %q, got %q", in, want, got)
		}
	}
}

// ============================================================
// End-to-end processing tests
// ============================================================

func TestProcess(t *testing.T) {
	cases := []struct {
		in, label, answer, expression string
	}{
		{"x + x = 4", "Equation solved", "x  =  2", "x + x = 4"},
		{"5 = 5", "Checking equality", "✓ Both sides are equal.", "5 = 5"},
		{`6 \mid 2`, "Divisibility check", "6 does NOT divide 2  (remainder: 2) ✗", "6 ∣ 2"},
		{`2 \dagger 4`, "Divisibility check", "2 divides 4 ✓", "2 ∣ 4"},
		{`x \leq 3`, "Inequality", "x is in the range: (-∞, 3]", "x ≤ 3"},
		{`6 \div 4`, "Simplified", "1.5", "6 ÷ 4"},
		{`\left(1+2\right) \cdot 3`, "Simplified", "9", "(1+2) · 3"},
		{`a \neq b`, "Statement", "a ≠ b", "a ≠ b"},
		{"x^2 = -1", "Equation solved", "x: no solution", "x^2 = -1"},
		{"x = x + y", "Equation solved", "x: no solution\ny  =  0", "x = x + y"},
		{`\sin x = y`, "Couldn't solve", "We couldn't make sense of the drawing. Try writing it more clearly.", "sin x = y"},
	}
	p := newPipeline()
	for _, c := range cases {
		got := p.Process(c.in)
		if got.Label != c.label {
			t.Errorf("Process(%q): want label %q, got %q", c.in, c.label, got.Label)
		}
		if got.Answer != c.answer {
			t.Errorf("Process(%q): want answer %q, got %q", c.in, c.answer, got.Answer)
		}
		if got.Expression == nil || *got.Expression != c.expression {
			t.Errorf("Process(%q): want expression %q, got %v", c.in, c.expression, got.Expression)
		}
	}
}

// A rendered solution read back as LaTeX is the solved value to four places.
func TestProcess_SolutionsReparse(t *testing.T) {
	eng := symbolic.NewEngine()
	f := format.New(eng)
	p := newPipeline()
	for _, in := range []string{"2x+3=8", "x^2=2", "3x=1", "x^3-6x^2+11x-6=0", `\frac{1}{x}=7`} {
		eq, ok := p.Classify(in).(classify.Equation)
		if !ok || len(eq.ByVariable) != 1 || len(eq.ByVariable[0].Solutions) == 0 {
			t.Errorf("%s: want solutions, got %#v", in, p.Classify(in))
			continue
		}
		for _, sol := range eq.ByVariable[0].Solutions {
			exact, err := eng.Parse(sol)
			if err != nil {
				t.Fatalf("%s: solution %q does not parse: %v", in, sol, err)
			}
			want, err := eng.Evaluate(exact)
			if err != nil {
				t.Fatalf("%s: solution %q does not evaluate: %v", in, sol, err)
			}
			shown := f.Human(sol)
			back, err := eng.Parse(shown)
			if err != nil {
				t.Errorf("%s: rendered %q does not parse: %v", in, shown, err)
				continue
			}
			got, err := eng.Evaluate(back)
			if err != nil || math.Abs(got-want) > 5e-5+1e-12 {
				t.Errorf("%s: want %v, got %q (%v)", in, want, shown, err)
			}
		}
	}
}

func TestProcess_Unparseable(t *testing.T) {
	got := newPipeline().Process(`\foo{x}`)
	if got.Label != "Couldn't solve" || got.Answer == "" {
		t.Errorf("want apology, got %+v", got)
	}
	if got.Note != nil {
		t.Errorf("parse diagnostics should be hidden, got %q", *got.Note)
	}
	if got.Expression == nil {
		t.Error("expression must always be set")
	}
}

func TestProcess_LogsCorrectionOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := pipeline.New(symbolic.NewEngine(), logger)

	p.Process(`3 \dagger 12 \dag 6`)
	if n := strings.Count(buf.String(), "ocr corrected latex"); n != 1 {
		t.Errorf("want one correction line, got %d in:\n%s", n, buf.String())
	}
	if strings.Contains(buf.String(), "level=INFO msg=\"ocr") {
		t.Errorf("corrections must log at debug, got:\n%s", buf.String())
	}

	buf.Reset()
	p.Process("2+3")
	if strings.Contains(buf.String(), "ocr corrected latex") {
		t.Errorf("want no correction line for clean input, got:\n%s", buf.String())
	}
}

func TestProcess_EmptyInput(t *testing.T) {
	got := newPipeline().Process("")
	if got.Label != "Couldn't solve" {
		t.Errorf("want Couldn't solve, got %q", got.Label)
	}
}

// ============================================================
// Recognition tests
// ============================================================

type stubRecognizer struct {
	latex string
	err   error
}

func (s stubRecognizer) Name() string { return "stub" }

func (s stubRecognizer) Recognize(context.Context, recognize.Image) (string, error) {
	return s.latex, s.err
}

func TestRecognize(t *testing.T) {
	p := newPipeline()
	latex, got, err := p.Recognize(context.Background(), stubRecognizer{latex: "2x+3=7"}, recognize.Image{})
	if err != nil {
		t.Fatal(err)
	}
	if latex != "2x+3=7" || got.Answer != "x  =  2" {
		t.Errorf("want x  =  2 from 2x+3=7, got %q from %q", got.Answer, latex)
	}
}

func TestRecognize_Failure(t *testing.T) {
	boom := errors.New("model unavailable")
	_, got, err := newPipeline().Recognize(context.Background(), stubRecognizer{err: boom}, recognize.Image{})
	if !errors.Is(err, boom) {
		t.Errorf("want wrapped error, got %v", err)
	}
	if got.Label != "Error" || got.Answer != "Something went wrong on the server. Please try again." {
		t.Errorf("unexpected failure record %+v", got)
	}
	if got.Note == nil || *got.Note != "model unavailable" {
		t.Errorf("want note with the error text, got %v", got.Note)
	}
}
