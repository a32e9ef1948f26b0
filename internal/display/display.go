// Package display rewrites recognized LaTeX into plain text that reads
// naturally to people who do not know LaTeX.
package display

import (
	"regexp"
	"strings"
)

// Longer commands precede the commands they start with.
var replacer = strings.NewReplacer(
	`\infty`, "∞",
	`\int`, "∫",
	`\cdots`, "⋯",
	`\nmid`, " ∤ ",
	`\mid`, " ∣ ",
	`\notin`, " ∉ ",
	`\neq`, " ≠ ",
	`\leq`, " ≤ ",
	`\geq`, " ≥ ",
	`\lt`, " < ",
	`\gt`, " > ",
	`\approx`, " ≈ ",
	`\times`, " × ",
	`\div`, " ÷ ",
	`\cdot`, " · ",
	`\implies`, " ⟹ ",
	`\iff`, " ⟺ ",
	`\subseteq`, " ⊆ ",
	`\supseteq`, " ⊇ ",
	`\subset`, " ⊂ ",
	`\supset`, " ⊃ ",
	`\in`, " ∈ ",
	`\pi`, "π",
	`\alpha`, "α",
	`\beta`, "β",
	`\theta`, "θ",
	`\sqrt`, "√",
	`\frac`, "",
	`\left(`, "(",
	`\right)`, ")",
	`\left[`, "[",
	`\right]`, "]",
	`\left`, "",
	`\right`, "",
	"{", "",
	"}", "",
	`\`, "",
)

var spaces = regexp.MustCompile(` {2,}`)

// Clean returns a human-readable rendering of a raw LaTeX string.
func Clean(latex string) string {
	s := replacer.Replace(strings.TrimSpace(latex))
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
