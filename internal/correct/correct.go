// Package correct repairs LaTeX tokens that formula OCR models commonly
// misrecognize.
package correct

import "strings"

// Rule replaces every occurrence of Wrong with Right.
type Rule struct {
	Wrong string
	Right string
}

// Longest pattern first: \dag is a prefix of \dagger and must not fire on it.
var rules = []Rule{
	{Wrong: `\ddagger`, Right: `\nmid`},
	{Wrong: `\dagger`, Right: `\mid`},
	{Wrong: `\ddag`, Right: `\nmid`},
	{Wrong: `\dag`, Right: `\mid`},
	{Wrong: `\vdots`, Right: `\div`},
	{Wrong: `\not\mid`, Right: `\nmid`},
	{Wrong: `\not=`, Right: `\neq`},
}

// Rules returns a copy of the correction table in application order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Apply runs every rule over text in order. It never fails and applying it
// twice gives the same result as applying it once.
func Apply(text string) string {
	out := text
	for _, r := range rules {
		out = strings.ReplaceAll(out, r.Wrong, r.Right)
	}
	return out
}
