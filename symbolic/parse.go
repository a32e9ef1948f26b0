package symbolic

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// ============================================================
// LaTeX lexer
// ============================================================

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokLetter
	tokCmd
	tokOp
)

type token struct {
	kind tokenKind
	text string
}

// commands that only affect typesetting
var skipCommands = map[string]bool{
	"left": true, "right": true, "big": true, "Big": true, "bigg": true, "Bigg": true,
	"bigl": true, "bigr": true, "Bigl": true, "Bigr": true, "biggl": true, "biggr": true,
	"Biggl": true, "Biggr": true, "displaystyle": true, "textstyle": true, "limits": true,
	",": true, ";": true, ":": true, "!": true, " ": true, "quad": true, "qquad": true,
}

// commands that spell an operator or bracket
var opCommands = map[string]string{
	"cdot": "*", "times": "*", "ast": "*", "div": "/",
	"{": "(", "}": ")", "lbrace": "(", "rbrace": ")", "lbrack": "[", "rbrack": "]",
	"|": "|", "vert": "|", "lvert": "|", "rvert": "|",
}

var unicodeOps = map[rune]token{
	'·': {tokOp, "*"}, '×': {tokOp, "*"}, '÷': {tokOp, "/"}, '−': {tokOp, "-"},
	'π': {tokCmd, "pi"}, '√': {tokCmd, "sqrt"}, '∞': {tokCmd, "infty"},
}

func lex(src string) []token {
	rs := []rune(src)
	var out []token
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r >= '0' && r <= '9' || r == '.' && i+1 < len(rs) && rs[i+1] >= '0' && rs[i+1] <= '9':
			j := i
			dot := false
			for j < len(rs) && (rs[j] >= '0' && rs[j] <= '9' || rs[j] == '.' && !dot) {
				if rs[j] == '.' {
					dot = true
				}
				j++
			}
			out = append(out, token{tokNum, strings.TrimSuffix(string(rs[i:j]), ".")})
			i = j
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			out = append(out, token{tokLetter, string(r)})
			i++
		case r == '\\':
			j := i + 1
			for j < len(rs) && rs[j] < unicode.MaxASCII && unicode.IsLetter(rs[j]) {
				j++
			}
			if j == i+1 && j < len(rs) {
				j++
			}
			name := string(rs[i+1 : j])
			i = j
			if (name == "left" || name == "right") && i < len(rs) && rs[i] == '.' {
				i++
			}
			switch {
			case skipCommands[name]:
			case opCommands[name] != "":
				out = append(out, token{tokOp, opCommands[name]})
			default:
				out = append(out, token{tokCmd, name})
			}
		default:
			if t, ok := unicodeOps[r]; ok {
				out = append(out, t)
			} else {
				out = append(out, token{tokOp, string(r)})
			}
			i++
		}
	}
	return append(out, token{kind: tokEOF})
}

// ============================================================
// LaTeX parser
// ============================================================

var trigInverse = map[string]string{"sin": "asin", "cos": "acos", "tan": "atan"}

var funcCommands = map[string]string{
	"sin": "sin", "cos": "cos", "tan": "tan", "arcsin": "asin", "arccos": "acos",
	"arctan": "atan", "sinh": "sinh", "cosh": "cosh", "tanh": "tanh", "ln": "ln",
	"log": "log", "lg": "log", "exp": "exp", "cot": "cot", "sec": "sec", "csc": "csc",
}

type parser struct {
	toks     []token
	pos      int
	absDepth int
}

// Parse reads a LaTeX math expression. Errors wrap ErrParse.
func Parse(src string) (Expr, error) {
	p := &parser{toks: lex(src)}
	if p.peek().kind == tokEOF {
		return nil, fmt.Errorf("%w: empty expression", ErrParse)
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf("unexpected %q", t.text)
	}
	return e.Simplify(), nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(text string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == text
}

func (p *parser) expectOp(text string) error {
	if !p.isOp(text) {
		t := p.peek()
		if t.kind == tokEOF {
			return p.errorf("missing %q", text)
		}
		return p.errorf("expected %q, found %q", text, t.text)
	}
	p.pos++
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}

func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := p.next().text
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if op == "-" {
			right = MulOf(N(-1), right)
		}
		left = AddOf(left, right)
	}
	return left, nil
}

func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseSigned()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isOp("*"):
			p.next()
			right, err := p.parseSigned()
			if err != nil {
				return nil, err
			}
			left = MulOf(left, right)
		case p.isOp("/"):
			p.next()
			right, err := p.parseSigned()
			if err != nil {
				return nil, err
			}
			left = MulOf(left, PowOf(right, N(-1)))
		case p.startsOperand():
			right, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			left = MulOf(left, right)
		default:
			return left, nil
		}
	}
}

// startsOperand reports whether the next token can begin an implicit
// multiplication operand.
func (p *parser) startsOperand() bool {
	t := p.peek()
	switch t.kind {
	case tokNum, tokLetter:
		return true
	case tokCmd:
		return t.text != "rfloor" && t.text != "rceil"
	case tokOp:
		switch t.text {
		case "(", "[", "{":
			return true
		case "|":
			return p.absDepth == 0
		}
	}
	return false
}

func (p *parser) parseSigned() (Expr, error) {
	switch {
	case p.isOp("-"):
		p.next()
		e, err := p.parseSigned()
		if err != nil {
			return nil, err
		}
		return MulOf(N(-1), e), nil
	case p.isOp("+"):
		p.next()
		return p.parseSigned()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for p.isOp("^") {
		p.next()
		exp, err := p.parseScript()
		if err != nil {
			return nil, err
		}
		base = PowOf(base, exp)
	}
	return base, nil
}

func (p *parser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.isOp("!") {
		p.next()
		e = FactorialOf(e)
	}
	return e, nil
}

// parseScript reads a superscript or subscript: a braced group, one digit,
// one letter or one command.
func (p *parser) parseScript() (Expr, error) {
	t := p.peek()
	switch {
	case t.kind == tokNum && len(t.text) > 1 && !strings.Contains(t.text, "."):
		p.toks[p.pos].text = t.text[1:]
		return N(int64(t.text[0] - '0')), nil
	case t.kind == tokOp && t.text == "-":
		p.next()
		e, err := p.parseScript()
		if err != nil {
			return nil, err
		}
		return MulOf(N(-1), e), nil
	case t.kind == tokOp && t.text == "{":
		return p.parseGroup("{", "}")
	}
	return p.parsePrimary()
}

// parseArg reads a command argument: a braced group or a single token.
func (p *parser) parseArg() (Expr, error) {
	if p.isOp("{") {
		return p.parseGroup("{", "}")
	}
	return p.parseScript()
}

func (p *parser) parseGroup(open, close string) (Expr, error) {
	if err := p.expectOp(open); err != nil {
		return nil, err
	}
	saved := p.absDepth
	p.absDepth = 0
	e, err := p.parseExpr()
	p.absDepth = saved
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(close); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokEOF:
		return nil, p.errorf("unexpected end of input")
	case tokNum:
		p.next()
		r, ok := new(big.Rat).SetString(t.text)
		if !ok {
			return nil, p.errorf("bad number %q", t.text)
		}
		return &Num{val: r}, nil
	case tokLetter:
		p.next()
		name := t.text
		if p.isOp("_") {
			p.next()
			sub, err := p.rawScript()
			if err != nil {
				return nil, err
			}
			name += "_" + sub
		}
		return S(name), nil
	case tokCmd:
		return p.parseCommand()
	}
	switch t.text {
	case "(":
		return p.parseGroup("(", ")")
	case "[":
		return p.parseGroup("[", "]")
	case "{":
		return p.parseGroup("{", "}")
	case "|":
		p.next()
		p.absDepth++
		e, err := p.parseExpr()
		p.absDepth--
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("|"); err != nil {
			return nil, err
		}
		return AbsOf(e), nil
	}
	return nil, p.errorf("unexpected %q", t.text)
}

// rawScript reads a subscript as text: x_1, x_{12}, a_{n}.
func (p *parser) rawScript() (string, error) {
	if !p.isOp("{") {
		t := p.next()
		switch t.kind {
		case tokNum:
			if len(t.text) > 1 {
				p.pos--
				p.toks[p.pos].text = t.text[1:]
				return t.text[:1], nil
			}
			return t.text, nil
		case tokLetter:
			return t.text, nil
		case tokCmd:
			return t.text, nil
		}
		return "", p.errorf("bad subscript %q", t.text)
	}
	p.next()
	var b strings.Builder
	for !p.isOp("}") {
		t := p.next()
		if t.kind == tokEOF {
			return "", p.errorf("missing %q", "}")
		}
		b.WriteString(t.text)
	}
	p.next()
	if b.Len() == 0 {
		return "", p.errorf("empty subscript")
	}
	return b.String(), nil
}

// rawText reads a braced group as plain text, for \text and \mathrm.
func (p *parser) rawText() (string, error) {
	if err := p.expectOp("{"); err != nil {
		return "", err
	}
	var b strings.Builder
	for !p.isOp("}") {
		t := p.next()
		if t.kind == tokEOF {
			return "", p.errorf("missing %q", "}")
		}
		b.WriteString(t.text)
	}
	p.next()
	return b.String(), nil
}

func (p *parser) parseCommand() (Expr, error) {
	name := p.next().text
	switch name {
	case "frac", "dfrac", "tfrac", "cfrac":
		num, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		den, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		return MulOf(num, PowOf(den, N(-1))), nil
	case "sqrt":
		var index Expr = N(2)
		if p.isOp("[") {
			idx, err := p.parseGroup("[", "]")
			if err != nil {
				return nil, err
			}
			index = idx
		}
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		return PowOf(arg, PowOf(index, N(-1))), nil
	case "pi":
		return Pi, nil
	case "infty":
		return nil, p.errorf("infinity is not a number")
	case "lfloor", "lceil":
		closing := "r" + name[1:]
		saved := p.absDepth
		p.absDepth = 0
		e, err := p.parseExpr()
		p.absDepth = saved
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokCmd || t.text != closing {
			return nil, p.errorf("missing \\%s", closing)
		}
		if name == "lfloor" {
			return FloorOf(e), nil
		}
		return CeilOf(e), nil
	case "mathrm", "text", "mathit", "mathbf", "operatorname", "textrm":
		text, err := p.rawText()
		if err != nil {
			return nil, err
		}
		switch {
		case text == "e":
			return E, nil
		case funcCommands[text] != "":
			return p.parseFunction(text)
		case text == "":
			return nil, p.errorf("empty \\%s", name)
		}
		return S(text), nil
	}
	if funcCommands[name] != "" {
		return p.parseFunction(name)
	}
	if greekLetters[name] {
		sym := name
		if p.isOp("_") {
			p.next()
			sub, err := p.rawScript()
			if err != nil {
				return nil, err
			}
			sym += "_" + sub
		}
		return S(sym), nil
	}
	return nil, p.errorf("unsupported command \\%s", name)
}

// parseFunction reads \sin^2 x, \log_2(8), \ln{x} and friends.
func (p *parser) parseFunction(cmd string) (Expr, error) {
	name := funcCommands[cmd]
	var power, base Expr
	for p.isOp("^") || p.isOp("_") {
		op := p.next().text
		s, err := p.parseScript()
		if err != nil {
			return nil, err
		}
		if op == "^" {
			power = s
		} else {
			base = s
		}
	}
	if power != nil && isNumEqual(power, -1) {
		if inv, ok := trigInverse[name]; ok {
			name, power = inv, nil
		}
	}
	arg, err := p.parseFuncArg()
	if err != nil {
		return nil, err
	}
	var f Expr
	switch name {
	case "cot":
		f = PowOf(TanOf(arg), N(-1))
	case "sec":
		f = PowOf(CosOf(arg), N(-1))
	case "csc":
		f = PowOf(SinOf(arg), N(-1))
	case "log":
		if base != nil {
			f = MulOf(LnOf(arg), PowOf(LnOf(base), N(-1)))
		} else {
			f = LogOf(arg)
		}
	default:
		f = funcOf(name, arg).Simplify()
	}
	if power != nil {
		f = PowOf(f, power)
	}
	return f, nil
}

// parseFuncArg reads a bracketed argument, or the run of implicitly
// multiplied numbers and letters that follows \sin.
func (p *parser) parseFuncArg() (Expr, error) {
	switch {
	case p.isOp("("):
		return p.parseGroup("(", ")")
	case p.isOp("["):
		return p.parseGroup("[", "]")
	case p.isOp("{"):
		return p.parseGroup("{", "}")
	}
	arg, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokNum || t.kind == tokLetter; t = p.peek() {
		f, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		arg = MulOf(arg, f)
	}
	return arg, nil
}
