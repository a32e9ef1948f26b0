package correct_test

import (
	"strings"
	"testing"

	"github.com/njchilds90/formsolve/internal/correct"
)

func TestApply(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`3 \dagger 12`, `3 \mid 12`},
		{`3 \ddagger 12`, `3 \nmid 12`},
		{`3 \dag 12`, `3 \mid 12`},
		{`3 \ddag 12`, `3 \nmid 12`},
		{`6 \vdots 3`, `6 \div 3`},
		{`4 \not\mid 9`, `4 \nmid 9`},
		{`x \not= 2`, `x \neq 2`},
		{`x^2 + 1`, `x^2 + 1`},
		{``, ``},
	}
	for _, c := range cases {
		if got := correct.Apply(c.in); got != c.want {
			t.Errorf("Apply(%q): want %q, got %q", c.in, c.want, got)
		}
	}
}

func TestApply_Idempotent(t *testing.T) {
	inputs := []string{`3 \dagger 12`, `\ddag \dag \vdots`, `\not\dagger`, `a \not= b \not\mid c`}
	for _, in := range inputs {
		once := correct.Apply(in)
		if twice := correct.Apply(once); twice != once {
			t.Errorf("Apply not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestRules_NoRuleFiresOnAnotherRulesOutput(t *testing.T) {
	rules := correct.Rules()
	for _, r := range rules {
		for _, other := range rules {
			if strings.Contains(r.Right, other.Wrong) {
				t.Errorf("output %q of rule %q contains pattern %q", r.Right, r.Wrong, other.Wrong)
			}
		}
	}
}

func TestRules_LongestPrefixFirst(t *testing.T) {
	rules := correct.Rules()
	for i, r := range rules {
		for _, later := range rules[i+1:] {
			if strings.HasPrefix(later.Wrong, r.Wrong) {
				t.Errorf("rule %q shadows longer rule %q", r.Wrong, later.Wrong)
			}
		}
	}
}
