// Package format turns classification results into the display record
// returned to callers.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/njchilds90/formsolve/internal/classify"
	"github.com/njchilds90/formsolve/symbolic"
)

const (
	apology      = "We couldn't make sense of the drawing. Try writing it more clearly."
	serverFailed = "Something went wrong on the server. Please try again."
)

// DisplayResult is the record that crosses the system boundary. All four
// keys are always present in JSON; Expression and Note may be null.
type DisplayResult struct {
	Label      string  `json:"label"`
	Expression *string `json:"expression"`
	Answer     string  `json:"answer"`
	Note       *string `json:"note"`
}

// Engine is the subset of the symbolic engine used for human rendering.
type Engine interface {
	Parse(src string) (symbolic.Expr, error)
	Evaluate(e symbolic.Expr) (float64, error)
	Human(e symbolic.Expr) string
}

type Formatter struct {
	engine Engine
}

func New(engine Engine) *Formatter {
	return &Formatter{engine: engine}
}

// Format maps a result to its display record. Expression is left nil for
// the caller to fill.
func (f *Formatter) Format(r classify.Result) DisplayResult {
	switch r := r.(type) {
	case classify.Error:
		out := DisplayResult{Label: "Couldn't solve", Answer: apology}
		if !strings.Contains(strings.ToLower(r.Message), "parse") {
			out.Note = strPtr(r.Message)
		}
		return out

	case classify.EqualityCheck:
		if r.IsTrue {
			return DisplayResult{Label: "Checking equality", Answer: "✓ Both sides are equal."}
		}
		return DisplayResult{Label: "Checking equality", Answer: "✗ Not equal. " + r.Detail}

	case classify.Divisibility:
		return DisplayResult{Label: "Divisibility check", Answer: r.Text}

	case classify.Inequality:
		if r.ByVariable == nil {
			return DisplayResult{Label: "Inequality", Answer: r.Raw}
		}
		lines := make([]string, len(r.ByVariable))
		for i, vr := range r.ByVariable {
			lines[i] = vr.Variable + " is in the range: " + vr.Range
		}
		return DisplayResult{Label: "Inequality", Answer: strings.Join(lines, "\n")}

	case classify.Statement:
		return DisplayResult{Label: "Statement", Answer: r.Text}

	case classify.Equation:
		if len(r.ByVariable) == 0 {
			return DisplayResult{Label: "Equation", Answer: "No solutions found."}
		}
		lines := make([]string, len(r.ByVariable))
		for i, vs := range r.ByVariable {
			if len(vs.Solutions) == 0 {
				lines[i] = vs.Variable + ": no solution"
				continue
			}
			vals := make([]string, len(vs.Solutions))
			for j, s := range vs.Solutions {
				vals[j] = f.Human(s)
			}
			lines[i] = vs.Variable + "  =  " + strings.Join(vals, ",  ")
		}
		return DisplayResult{Label: "Equation solved", Answer: strings.Join(lines, "\n")}

	case classify.Expression:
		if r.Numeric != nil {
			return DisplayResult{Label: "Simplified", Answer: decimal(*r.Numeric, 6)}
		}
		return DisplayResult{Label: "Simplified", Answer: f.Human(r.Simplified)}
	}
	return DisplayResult{Label: "Result", Answer: fmt.Sprintf("%+v", r)}
}

// Human renders a LaTeX value for people: an integer when exact, a decimal
// rounded to four places when it evaluates, the engine's plain text form
// otherwise, and the LaTeX itself when it does not parse.
func (f *Formatter) Human(latex string) string {
	e, err := f.engine.Parse(latex)
	if err != nil {
		return latex
	}
	v, err := f.engine.Evaluate(e)
	if err != nil {
		return f.engine.Human(e)
	}
	return decimal(v, 4)
}

// Failure is the record for a request whose image could not be recognized.
func Failure(err error) DisplayResult {
	return DisplayResult{Label: "Error", Answer: serverFailed, Note: strPtr(err.Error())}
}

func decimal(v float64, places int) string {
	switch {
	case v == 0:
		return "0"
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	}
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	p := math.Pow(10, float64(places))
	return strconv.FormatFloat(math.Round(v*p)/p, 'f', -1, 64)
}

func strPtr(s string) *string { return &s }
