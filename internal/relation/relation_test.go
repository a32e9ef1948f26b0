package relation_test

import (
	"strings"
	"testing"

	"github.com/njchilds90/formsolve/internal/relation"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		in          string
		token       string
		left, right string
	}{
		{`3 \mid 12`, `\mid`, "3 ", " 12"},
		{`3 \nmid 12`, `\nmid`, "3 ", " 12"},
		{`x \in A`, `\in`, "x ", " A"},
		{`x \notin A`, `\notin`, "x ", " A"},
		{`2x+1 \leq 7`, `\leq`, "2x+1 ", " 7"},
		{`2x+1 \le 7`, `\le`, "2x+1 ", " 7"},
		{`x \geq 1`, `\geq`, "x ", " 1"},
		{`x \lt 1`, `\lt`, "x ", " 1"},
		{`x > 1`, `>`, "x ", " 1"},
		{`a \neq b`, `\neq`, "a ", " b"},
		{`a \approx b`, `\approx`, "a ", " b"},
		{`p \implies q`, `\implies`, "p ", " q"},
		{`p \iff q`, `\iff`, "p ", " q"},
		{`A \subset B`, `\subset`, "A ", " B"},
		{`A \subseteq B`, `\subseteq`, "A ", " B"},
		{`A \supseteq B`, `\supseteq`, "A ", " B"},
		{`A \supset B`, `\supset`, "A ", " B"},
	}
	for _, c := range cases {
		m, ok := relation.Extract(c.in)
		if !ok {
			t.Errorf("Extract(%q): want a match", c.in)
			continue
		}
		if m.Symbol.Token != c.token || m.Left != c.left || m.Right != c.right {
			t.Errorf("Extract(%q): want %q|%q|%q, got %q|%q|%q", c.in, c.left, c.token, c.right, m.Left, m.Symbol.Token, m.Right)
		}
	}
}

func TestExtract_None(t *testing.T) {
	for _, in := range []string{"x^2 + 1", "x = 3", `\int x`, `x + \infty`, `\left( x \right)`} {
		if m, ok := relation.Extract(in); ok {
			t.Errorf("Extract(%q): want no match, got %q", in, m.Symbol.Token)
		}
	}
}

func TestExtract_PriorityOverPosition(t *testing.T) {
	// \in is earlier in the table than \leq even though \leq comes first in the text.
	m, ok := relation.Extract(`x \leq 3 \in A`)
	if !ok || m.Symbol.Token != `\in` {
		t.Fatalf(`want \in, got %+v`, m)
	}
	if m.Left != `x \leq 3 ` {
		t.Errorf("want left %q, got %q", `x \leq 3 `, m.Left)
	}
}

func TestExtract_SplitsAtFirstOccurrence(t *testing.T) {
	m, ok := relation.Extract(`1 < x < 3`)
	if !ok {
		t.Fatal("want a match")
	}
	if m.Left != "1 " || m.Right != " x < 3" {
		t.Errorf("want %q and %q, got %q and %q", "1 ", " x < 3", m.Left, m.Right)
	}
}

func TestExtract_TokenBoundary(t *testing.T) {
	m, ok := relation.Extract(`\infty \in S`)
	if !ok || m.Left != `\infty ` {
		t.Errorf("want split after \\infty, got %+v", m)
	}
}

func TestTable_PrefixesFollowLongerTokens(t *testing.T) {
	table := relation.Table()
	for i, s := range table {
		for _, later := range table[i+1:] {
			if strings.HasPrefix(later.Token, s.Token) && s.Token != later.Token {
				isWord := strings.HasPrefix(s.Token, `\`)
				next := later.Token[len(s.Token)]
				letter := next >= 'a' && next <= 'z'
				if !(isWord && letter) {
					t.Errorf("%q shadows %q", s.Token, later.Token)
				}
			}
		}
	}
}

func TestKind_IsOrder(t *testing.T) {
	if !relation.LessEq.IsOrder() || relation.Member.IsOrder() {
		t.Error("IsOrder misclassifies kinds")
	}
}
