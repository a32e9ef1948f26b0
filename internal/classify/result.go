package classify

// Result is the typed outcome of classifying and solving one formula. The
// set of implementations is closed: Error, EqualityCheck, Divisibility,
// Inequality, Statement, Equation and Expression.
type Result interface {
	isResult()
}

// Error is the only result produced by an unhandled parse or solve failure.
type Error struct {
	Message string
}

// EqualityCheck is an equation without free variables.
type EqualityCheck struct {
	IsTrue bool
	Detail string
}

// Divisibility is the verdict on an a ∣ b or a ∤ b claim.
type Divisibility struct {
	Text string
}

// VarRange is the solution set of an inequality for one variable.
type VarRange struct {
	Variable string
	Range    string
}

// Inequality holds either one range per free variable, sorted by name, or a
// raw text (truth value of a closed inequality, or a solver failure echo).
type Inequality struct {
	ByVariable []VarRange
	Raw        string
}

// Statement is a claim that is echoed rather than solved.
type Statement struct {
	Text string
}

// VarSolutions lists the solutions of an equation for one variable as LaTeX.
type VarSolutions struct {
	Variable  string
	Solutions []string
}

// Equation holds the solutions of every variable of the equation, sorted by
// name. A variable without real solutions has an empty Solutions list.
type Equation struct {
	ByVariable []VarSolutions
}

// Expression is a simplified bare expression; Numeric is set when it has no
// free variables.
type Expression struct {
	Simplified string
	Numeric    *float64
}

func (Error) isResult()         {}
func (EqualityCheck) isResult() {}
func (Divisibility) isResult()  {}
func (Inequality) isResult()    {}
func (Statement) isResult()     {}
func (Equation) isResult()      {}
func (Expression) isResult()    {}
