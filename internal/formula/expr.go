package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// The expression evaluator consumes fully substituted formula text: by the
// time it runs, every reference and function call has been replaced, so only
// numbers, quoted strings, operators and parentheses remain.

type valueKind int

const (
	kindNumber valueKind = iota
	kindBool
	kindString
)

// Value is the typed result of evaluating an expression.
type Value struct {
	kind valueKind
	num  float64
	str  string
	b    bool
}

func numberValue(n float64) Value { return Value{kind: kindNumber, num: n} }
func boolValue(b bool) Value      { return Value{kind: kindBool, b: b} }
func stringValue(s string) Value  { return Value{kind: kindString, str: s} }

// truth coerces a value to a condition result: positive numbers and
// non-empty strings are true.
func (v Value) truth() bool {
	switch v.kind {
	case kindBool:
		return v.b
	case kindNumber:
		return v.num > 0
	default:
		return len(v.str) > 0
	}
}

// display renders the value as cell text. Numbers are rounded to 12
// significant digits to suppress floating-point noise.
func (v Value) display() string {
	switch v.kind {
	case kindBool:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	case kindNumber:
		return formatNumber(roundSignificant(v.num, 12))
	default:
		return v.str
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func roundSignificant(n float64, digits int) float64 {
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return n
	}
	scale := math.Pow(10, float64(digits)-math.Ceil(math.Log10(math.Abs(n))))
	return math.Round(n*scale) / scale
}

type tokenType int

const (
	tokEOF tokenType = iota
	tokNumber
	tokString
	tokBool
	tokOperator
	tokLeftParen
	tokRightParen
)

type token struct {
	typ   tokenType
	value string
	pos   int
}

type tokenizer struct {
	input []rune
	pos   int
}

func (t *tokenizer) tokens() ([]token, error) {
	var out []token
	for {
		tok, err := t.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.typ == tokEOF {
			return out, nil
		}
	}
}

func (t *tokenizer) current() rune {
	if t.pos >= len(t.input) {
		return 0
	}
	return t.input[t.pos]
}

func (t *tokenizer) next() (token, error) {
	for t.pos < len(t.input) && (t.current() == ' ' || t.current() == '\t') {
		t.pos++
	}
	if t.pos >= len(t.input) {
		return token{typ: tokEOF, pos: t.pos}, nil
	}

	start := t.pos
	ch := t.current()

	switch {
	case ch >= '0' && ch <= '9' || ch == '.':
		return t.scanNumber()
	case ch == '"':
		return t.scanString()
	case ch == '(':
		t.pos++
		return token{typ: tokLeftParen, value: "(", pos: start}, nil
	case ch == ')':
		t.pos++
		return token{typ: tokRightParen, value: ")", pos: start}, nil
	case ch == '+' || ch == '-' || ch == '*' || ch == '/' || ch == '^':
		t.pos++
		return token{typ: tokOperator, value: string(ch), pos: start}, nil
	case ch == '<' || ch == '>' || ch == '=' || ch == '!':
		return t.scanComparison()
	}

	// TRUE/FALSE are the only identifiers that survive substitution
	if isLetter(ch) {
		for t.pos < len(t.input) && isLetter(t.current()) {
			t.pos++
		}
		word := strings.ToUpper(string(t.input[start:t.pos]))
		if word == "TRUE" || word == "FALSE" {
			return token{typ: tokBool, value: word, pos: start}, nil
		}
		return token{}, fmt.Errorf("unexpected identifier %q at %d", word, start)
	}

	return token{}, fmt.Errorf("unexpected character %q at %d", string(ch), start)
}

func isLetter(ch rune) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func (t *tokenizer) scanNumber() (token, error) {
	start := t.pos
	seenDot := false
	for t.pos < len(t.input) {
		ch := t.current()
		if ch >= '0' && ch <= '9' {
			t.pos++
			continue
		}
		if ch == '.' && !seenDot {
			seenDot = true
			t.pos++
			continue
		}
		// scientific notation
		if (ch == 'e' || ch == 'E') && t.pos > start {
			save := t.pos
			t.pos++
			if t.current() == '+' || t.current() == '-' {
				t.pos++
			}
			if t.current() < '0' || t.current() > '9' {
				t.pos = save
				break
			}
			for t.pos < len(t.input) && t.current() >= '0' && t.current() <= '9' {
				t.pos++
			}
		}
		break
	}

	value := string(t.input[start:t.pos])
	if value == "." {
		return token{}, fmt.Errorf("malformed number at %d", start)
	}
	return token{typ: tokNumber, value: value, pos: start}, nil
}

func (t *tokenizer) scanString() (token, error) {
	start := t.pos
	t.pos++ // opening quote

	var buf strings.Builder
	for t.pos < len(t.input) {
		ch := t.current()
		if ch == '\\' && t.pos+1 < len(t.input) {
			t.pos++
			buf.WriteRune(t.current())
			t.pos++
			continue
		}
		if ch == '"' {
			t.pos++
			return token{typ: tokString, value: buf.String(), pos: start}, nil
		}
		buf.WriteRune(ch)
		t.pos++
	}

	return token{}, fmt.Errorf("unclosed string literal at %d", start)
}

func (t *tokenizer) scanComparison() (token, error) {
	start := t.pos
	ch := t.current()
	t.pos++

	switch ch {
	case '<':
		if t.current() == '=' {
			t.pos++
			return token{typ: tokOperator, value: "<=", pos: start}, nil
		}
		if t.current() == '>' {
			t.pos++
			return token{typ: tokOperator, value: "!=", pos: start}, nil
		}
		return token{typ: tokOperator, value: "<", pos: start}, nil
	case '>':
		if t.current() == '=' {
			t.pos++
			return token{typ: tokOperator, value: ">=", pos: start}, nil
		}
		return token{typ: tokOperator, value: ">", pos: start}, nil
	case '=':
		if t.current() == '=' {
			t.pos++
			return token{typ: tokOperator, value: "==", pos: start}, nil
		}
		return token{}, fmt.Errorf("unexpected '=' at %d", start)
	default: // '!'
		if t.current() == '=' {
			t.pos++
			return token{typ: tokOperator, value: "!=", pos: start}, nil
		}
		return token{}, fmt.Errorf("unexpected '!' at %d", start)
	}
}

// exprParser is a recursive-descent parser over the token stream. Precedence
// from lowest to highest: equality, relational, additive, multiplicative,
// power (right-associative), unary minus.
type exprParser struct {
	tokens []token
	pos    int
}

// evalExpression tokenizes, parses and evaluates a fully substituted
// expression in one walk.
func evalExpression(input string) (Value, error) {
	tk := &tokenizer{input: []rune(input)}
	tokens, err := tk.tokens()
	if err != nil {
		return Value{}, err
	}

	p := &exprParser{tokens: tokens}
	v, err := p.parseEquality()
	if err != nil {
		return Value{}, err
	}
	if p.peek().typ != tokEOF {
		return Value{}, fmt.Errorf("trailing input at %d", p.peek().pos)
	}
	return v, nil
}

func (p *exprParser) peek() token {
	if p.pos >= len(p.tokens) {
		return token{typ: tokEOF}
	}
	return p.tokens[p.pos]
}

func (p *exprParser) acceptOperator(ops ...string) (string, bool) {
	tok := p.peek()
	if tok.typ != tokOperator {
		return "", false
	}
	for _, op := range ops {
		if tok.value == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *exprParser) parseEquality() (Value, error) {
	left, err := p.parseRelational()
	if err != nil {
		return Value{}, err
	}

	for {
		op, ok := p.acceptOperator("==", "!=")
		if !ok {
			return left, nil
		}
		right, err := p.parseRelational()
		if err != nil {
			return Value{}, err
		}
		equal := valuesEqual(left, right)
		if op == "!=" {
			equal = !equal
		}
		left = boolValue(equal)
	}
}

func (p *exprParser) parseRelational() (Value, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return Value{}, err
	}

	for {
		op, ok := p.acceptOperator("<=", ">=", "<", ">")
		if !ok {
			return left, nil
		}
		right, err := p.parseAdditive()
		if err != nil {
			return Value{}, err
		}
		a, err := numericOperand(left, op)
		if err != nil {
			return Value{}, err
		}
		b, err := numericOperand(right, op)
		if err != nil {
			return Value{}, err
		}

		var result bool
		switch op {
		case "<":
			result = a < b
		case "<=":
			result = a <= b
		case ">":
			result = a > b
		case ">=":
			result = a >= b
		}
		left = boolValue(result)
	}
}

func (p *exprParser) parseAdditive() (Value, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return Value{}, err
	}

	for {
		op, ok := p.acceptOperator("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return Value{}, err
		}
		left, err = arithmetic(left, right, op)
		if err != nil {
			return Value{}, err
		}
	}
}

func (p *exprParser) parseMultiplicative() (Value, error) {
	left, err := p.parsePower()
	if err != nil {
		return Value{}, err
	}

	for {
		op, ok := p.acceptOperator("*", "/")
		if !ok {
			return left, nil
		}
		right, err := p.parsePower()
		if err != nil {
			return Value{}, err
		}
		left, err = arithmetic(left, right, op)
		if err != nil {
			return Value{}, err
		}
	}
}

func (p *exprParser) parsePower() (Value, error) {
	left, err := p.parseUnary()
	if err != nil {
		return Value{}, err
	}

	// right-associative
	if _, ok := p.acceptOperator("^"); ok {
		right, err := p.parsePower()
		if err != nil {
			return Value{}, err
		}
		return arithmetic(left, right, "^")
	}

	return left, nil
}

func (p *exprParser) parseUnary() (Value, error) {
	if _, ok := p.acceptOperator("-"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return Value{}, err
		}
		n, err := numericOperand(operand, "-")
		if err != nil {
			return Value{}, err
		}
		return numberValue(-n), nil
	}
	if _, ok := p.acceptOperator("+"); ok {
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (Value, error) {
	tok := p.peek()

	switch tok.typ {
	case tokNumber:
		p.pos++
		n, err := strconv.ParseFloat(tok.value, 64)
		if err != nil {
			return Value{}, fmt.Errorf("malformed number %q", tok.value)
		}
		return numberValue(n), nil

	case tokString:
		p.pos++
		return stringValue(tok.value), nil

	case tokBool:
		p.pos++
		return boolValue(tok.value == "TRUE"), nil

	case tokLeftParen:
		p.pos++
		v, err := p.parseEquality()
		if err != nil {
			return Value{}, err
		}
		if p.peek().typ != tokRightParen {
			return Value{}, fmt.Errorf("expected closing parenthesis at %d", p.peek().pos)
		}
		p.pos++
		return v, nil
	}

	return Value{}, fmt.Errorf("unexpected token at %d", tok.pos)
}

func arithmetic(left, right Value, op string) (Value, error) {
	a, err := numericOperand(left, op)
	if err != nil {
		return Value{}, err
	}
	b, err := numericOperand(right, op)
	if err != nil {
		return Value{}, err
	}

	switch op {
	case "+":
		return numberValue(a + b), nil
	case "-":
		return numberValue(a - b), nil
	case "*":
		return numberValue(a * b), nil
	case "/":
		return numberValue(a / b), nil
	case "^":
		return numberValue(math.Pow(a, b)), nil
	}
	return Value{}, fmt.Errorf("unknown operator %q", op)
}

// numericOperand coerces numbers and booleans for arithmetic and relational
// operators. Strings never coerce implicitly.
func numericOperand(v Value, op string) (float64, error) {
	switch v.kind {
	case kindNumber:
		return v.num, nil
	case kindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("operator %q requires a numeric operand", op)
}

// valuesEqual compares like kinds directly; a string never equals a number
// or boolean.
func valuesEqual(a, b Value) bool {
	if a.kind == kindString || b.kind == kindString {
		return a.kind == b.kind && a.str == b.str
	}
	an, _ := numericOperand(a, "==")
	bn, _ := numericOperand(b, "==")
	return an == bn
}
