// Package relation finds the binary relation symbol that a recognized
// formula asserts and splits the formula around it.
package relation

import "strings"

// Kind groups relation symbols that share a solving strategy.
type Kind int

const (
	Divides Kind = iota + 1
	NotDivides
	Member
	NotMember
	LessEq
	GreaterEq
	Less
	Greater
	NotEqual
	Approx
	Implies
	Iff
	Subset
	Superset
)

// Symbol is one entry of the relation table.
type Symbol struct {
	Token       string // literal LaTeX token searched for
	Glyph       string // display glyph
	Kind        Kind
	Description string // parenthesised suffix in statement texts, may be empty
}

// Match is a relation found in a formula.
type Match struct {
	Symbol Symbol
	Left   string
	Right  string
}

// Table order is the priority: the first symbol present wins. Longer tokens
// precede their prefixes, and token boundaries keep \le from matching \leq.
var table = []Symbol{
	{Token: `\nmid`, Glyph: "∤", Kind: NotDivides},
	{Token: `\mid`, Glyph: "∣", Kind: Divides},
	{Token: `\notin`, Glyph: "∉", Kind: NotMember, Description: "non-membership"},
	{Token: `\in`, Glyph: "∈", Kind: Member, Description: "set membership"},
	{Token: `\leqslant`, Glyph: "≤", Kind: LessEq},
	{Token: `\leq`, Glyph: "≤", Kind: LessEq},
	{Token: `\le`, Glyph: "≤", Kind: LessEq},
	{Token: `\geqslant`, Glyph: "≥", Kind: GreaterEq},
	{Token: `\geq`, Glyph: "≥", Kind: GreaterEq},
	{Token: `\ge`, Glyph: "≥", Kind: GreaterEq},
	{Token: `\lt`, Glyph: "<", Kind: Less},
	{Token: `\gt`, Glyph: ">", Kind: Greater},
	{Token: `<`, Glyph: "<", Kind: Less},
	{Token: `>`, Glyph: ">", Kind: Greater},
	{Token: `\neq`, Glyph: "≠", Kind: NotEqual},
	{Token: `\ne`, Glyph: "≠", Kind: NotEqual},
	{Token: `\approx`, Glyph: "≈", Kind: Approx, Description: "approximately equal"},
	{Token: `\implies`, Glyph: "⟹", Kind: Implies, Description: "implication"},
	{Token: `\iff`, Glyph: "⟺", Kind: Iff, Description: "if and only if"},
	{Token: `\subseteq`, Glyph: "⊆", Kind: Subset, Description: "subset"},
	{Token: `\supseteq`, Glyph: "⊇", Kind: Superset, Description: "superset"},
	{Token: `\subset`, Glyph: "⊂", Kind: Subset, Description: "subset"},
	{Token: `\supset`, Glyph: "⊃", Kind: Superset, Description: "superset"},
}

// Table returns a copy of the relation table in priority order.
func Table() []Symbol {
	out := make([]Symbol, len(table))
	copy(out, table)
	return out
}

// IsOrder reports whether the kind is one of ≤ ≥ < >.
func (k Kind) IsOrder() bool {
	return k == LessEq || k == GreaterEq || k == Less || k == Greater
}

// Extract returns the relation asserted by text, split at the first
// occurrence of the highest-priority symbol present. The operands are not
// trimmed. ok is false when text contains no relation symbol.
func Extract(text string) (m Match, ok bool) {
	for _, sym := range table {
		i := index(text, sym.Token)
		if i < 0 {
			continue
		}
		return Match{
			Symbol: sym,
			Left:   text[:i],
			Right:  text[i+len(sym.Token):],
		}, true
	}
	return Match{}, false
}

// index finds the first occurrence of tok in text that is not the prefix of a
// longer control word: \in inside \infty or \int does not count.
func index(text, tok string) int {
	wordLike := strings.HasPrefix(tok, `\`) && isLetter(tok[len(tok)-1])
	for from := 0; from <= len(text)-len(tok); {
		i := strings.Index(text[from:], tok)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(tok)
		if !wordLike || end == len(text) || !isLetter(text[end]) {
			return i
		}
		from = i + 1
	}
	return -1
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
