// Package formula evaluates spreadsheet formulas over an immutable snapshot
// of a sheet: multi-pass resolution of function calls and conditionals,
// reference substitution with cycle protection, and a typed expression
// evaluator for the fully substituted text.
package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gridwhale/gridsheet/internal/refs"
)

// Error tokens surface as ordinary cell text, never as Go errors.
const (
	ErrorToken    = "#ERROR!"
	DivZeroToken  = "#DIV/0!"
	CircularToken = "#CIRC!"
	RefToken      = "#REF!"
)

// maxPasses bounds the substitution loop for formulas that never reach a
// textual fixpoint, such as mutually nested calls beyond any sane depth.
const maxPasses = 10

// Snapshot is one immutable view of a sheet's cells. All reads during a
// single evaluation observe the same snapshot.
type Snapshot interface {
	// Cell returns the stored value and formula text of a cell. A cell
	// without a formula is a plain literal; ok is false for absent cells.
	Cell(id string) (value, formula string, ok bool)
}

// RangeValue pairs a cell id with its resolved display text.
type RangeValue struct {
	ID      string
	Display string
}

// Evaluator resolves cells against a single snapshot. The memo and the
// in-progress set live exactly as long as the evaluator, so results from
// one snapshot can never leak into an evaluation of another.
type Evaluator struct {
	snap       Snapshot
	memo       map[string]string
	inProgress map[string]bool
}

// NewEvaluator starts a fresh evaluation over snap.
func NewEvaluator(snap Snapshot) *Evaluator {
	return &Evaluator{
		snap:       snap,
		memo:       make(map[string]string),
		inProgress: make(map[string]bool),
	}
}

// Resolve computes the display text of one cell. A cell that is re-entered
// while still being computed is on a reference cycle and resolves to
// #CIRC! without recursing further.
func (e *Evaluator) Resolve(cellID string) string {
	id := strings.ToUpper(cellID)

	if memoized, ok := e.memo[id]; ok {
		return memoized
	}
	if e.inProgress[id] {
		return CircularToken
	}

	e.inProgress[id] = true
	resolved := e.compute(id)
	delete(e.inProgress, id)

	e.memo[id] = resolved
	return resolved
}

// ResolveRange resolves every cell of a range given as "A1:B3" or as a
// single reference, in row-major order.
func (e *Evaluator) ResolveRange(rangeText string) ([]RangeValue, error) {
	first, second, err := splitRange(rangeText)
	if err != nil {
		return nil, err
	}

	cells, err := refs.ExpandRange(first, second)
	if err != nil {
		return nil, err
	}

	values := make([]RangeValue, 0, len(cells))
	for _, id := range cells {
		values = append(values, RangeValue{ID: id, Display: e.Resolve(id)})
	}
	return values, nil
}

func splitRange(rangeText string) (first, second string, err error) {
	text := strings.ToUpper(strings.TrimSpace(rangeText))
	if a, b, found := strings.Cut(text, ":"); found {
		return a, b, nil
	}
	if !refs.IsReference(text) {
		return "", "", fmt.Errorf("range %q: %w", rangeText, refs.ErrInvalidReference)
	}
	return text, text, nil
}

func (e *Evaluator) compute(id string) string {
	value, formulaText, ok := e.snap.Cell(id)
	if !ok {
		// absent cells read as empty, never as an error
		return coerceDisplay("")
	}
	if formulaText == "" {
		return coerceDisplay(value)
	}
	return e.evaluateFormula(formulaText)
}

// evaluateFormula runs the multi-pass substitution pipeline: special
// function calls, numeric function calls, conditionals, then remaining bare
// references, and finally the typed expression evaluator.
func (e *Evaluator) evaluateFormula(text string) string {
	text = strings.TrimPrefix(strings.TrimSpace(text), "=")
	text = upperOutsideQuotes(text)

	for pass := 0; pass < maxPasses; pass++ {
		before := text
		var errTok string

		if text, errTok = e.substituteCalls(text, true); errTok != "" {
			return errTok
		}
		if text, errTok = e.substituteCalls(text, false); errTok != "" {
			return errTok
		}
		if text, errTok = e.substituteConditionals(text); errTok != "" {
			return errTok
		}

		if text == before {
			break
		}
	}

	text, errTok := e.substituteReferences(text)
	if errTok != "" {
		return errTok
	}

	value, err := evalExpression(normalizeComparisons(text))
	if err != nil {
		return ErrorToken
	}
	if value.kind == kindNumber && !isFinite(value.num) {
		return DivZeroToken
	}
	return value.display()
}

// substituteCalls replaces every syntactically complete call to a function
// in one of the two tables: a call is complete once its argument span
// contains no unresolved inner parentheses. Incomplete calls are left for a
// later pass.
func (e *Evaluator) substituteCalls(text string, special bool) (string, string) {
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		if runes[i] == '"' {
			i = skipString(runes, i)
			continue
		}
		if !isLetter(runes[i]) {
			continue
		}
		if i > 0 && (isLetter(runes[i-1]) || isDigit(runes[i-1])) {
			continue // inside a longer word
		}

		nameEnd := i
		for nameEnd < len(runes) && (isLetter(runes[nameEnd]) || isDigit(runes[nameEnd])) {
			nameEnd++
		}
		name := string(runes[i:nameEnd])

		if nameEnd >= len(runes) || runes[nameEnd] != '(' || name == "IF" {
			i = nameEnd - 1
			continue
		}

		var known bool
		if special {
			_, known = specialFunctions[name]
		} else {
			_, known = numericFunctions[name]
		}
		if !known {
			i = nameEnd - 1
			continue
		}

		closeIdx := matchParen(runes, nameEnd)
		if closeIdx < 0 {
			// unbalanced parentheses fail at expression time
			i = nameEnd - 1
			continue
		}

		span := runes[nameEnd+1 : closeIdx]
		if containsParen(span) {
			// inner call still unresolved; keep scanning inside it
			i = nameEnd
			continue
		}

		args, errTok := e.collectArgs(string(span))
		if errTok != "" {
			return "", errTok
		}

		var result float64
		if special {
			result = specialFunctions[name](args)
		} else {
			result = numericFunctions[name](numericArgs(args))
		}
		if !isFinite(result) {
			return "", DivZeroToken
		}

		replacement := []rune(formatNumber(result))
		rebuilt := make([]rune, 0, len(runes)-(closeIdx+1-i)+len(replacement))
		rebuilt = append(rebuilt, runes[:i]...)
		rebuilt = append(rebuilt, replacement...)
		rebuilt = append(rebuilt, runes[closeIdx+1:]...)
		runes = rebuilt
		i += len(replacement) - 1
	}

	return string(runes), ""
}

// substituteConditionals replaces every IF(cond, then, else) whose condition
// span holds no unresolved parentheses. The chosen branch is substituted
// back unresolved so later passes can keep working on it.
func (e *Evaluator) substituteConditionals(text string) (string, string) {
	runes := []rune(text)

	for i := 0; i+2 < len(runes); i++ {
		if runes[i] == '"' {
			i = skipString(runes, i)
			continue
		}
		if runes[i] != 'I' || runes[i+1] != 'F' || runes[i+2] != '(' {
			continue
		}
		if i > 0 && (isLetter(runes[i-1]) || isDigit(runes[i-1])) {
			continue // tail of a longer name
		}

		closeIdx := matchParen(runes, i+2)
		if closeIdx < 0 {
			continue
		}

		parts := splitTopLevel(runes[i+3 : closeIdx])
		if len(parts) != 3 {
			return "", ErrorToken
		}

		cond := parts[0]
		if containsParen([]rune(cond)) {
			// condition not ready yet; inner IFs are still reachable
			// because the scan continues past this position
			i += 2
			continue
		}

		condSub, errTok := e.substituteReferences(cond)
		if errTok != "" {
			return "", errTok
		}
		condValue, err := evalExpression(normalizeComparisons(condSub))
		if err != nil {
			return "", ErrorToken
		}

		branch := strings.TrimSpace(parts[1])
		if !condValue.truth() {
			branch = strings.TrimSpace(parts[2])
		}

		replacement := []rune(branch)
		rebuilt := make([]rune, 0, len(runes)-(closeIdx+1-i)+len(replacement))
		rebuilt = append(rebuilt, runes[:i]...)
		rebuilt = append(rebuilt, replacement...)
		rebuilt = append(rebuilt, runes[closeIdx+1:]...)
		runes = rebuilt
		i += len(replacement) - 1
	}

	return string(runes), ""
}

// substituteReferences replaces every bare cell reference with its resolved
// value in arithmetic context. A resolved error token aborts the whole
// evaluation with that token.
func (e *Evaluator) substituteReferences(text string) (string, string) {
	runes := []rune(text)
	var out strings.Builder

	for i := 0; i < len(runes); {
		ch := runes[i]

		if ch == '"' {
			end := skipString(runes, i)
			if end >= len(runes) {
				out.WriteString(string(runes[i:]))
				break
			}
			out.WriteString(string(runes[i : end+1]))
			i = end + 1
			continue
		}

		if isLetter(ch) || isDigit(ch) || ch == '.' {
			wordEnd := i
			for wordEnd < len(runes) && (isLetter(runes[wordEnd]) || isDigit(runes[wordEnd]) || runes[wordEnd] == '.') {
				wordEnd++
			}
			word := string(runes[i:wordEnd])

			if refs.IsReference(word) {
				resolved := e.Resolve(word)
				if IsErrorToken(resolved) {
					return "", resolved
				}
				out.WriteString(coerceArithmetic(resolved))
			} else {
				out.WriteString(word)
			}
			i = wordEnd
			continue
		}

		out.WriteRune(ch)
		i++
	}

	return out.String(), ""
}

// collectArgs splits a comma-separated argument span at top-level commas
// and classifies each token as a range, a single reference, a quoted
// literal, or a sub-expression. Ranges contribute one raw+numeric pair per
// cell; sub-expressions are evaluated in place so arguments like A1+A2 or
// 1-5 contribute their computed value. Non-numeric raw text is kept so
// special functions can see it.
func (e *Evaluator) collectArgs(argText string) ([]Arg, string) {
	if strings.TrimSpace(argText) == "" {
		return nil, ""
	}

	var args []Arg
	for _, part := range splitTopLevel([]rune(argText)) {
		token := strings.TrimSpace(part)

		switch {
		case isRangeToken(token):
			first, second, _ := strings.Cut(token, ":")
			cells, err := refs.ExpandRange(strings.TrimSpace(first), strings.TrimSpace(second))
			if err != nil {
				return nil, RefToken
			}
			for _, id := range cells {
				args = append(args, makeArg(e.Resolve(id)))
			}

		case refs.IsReference(token):
			args = append(args, makeArg(e.Resolve(token)))

		case len(token) > 1 && token[0] == '"':
			args = append(args, makeArg(unquote(token)))

		default:
			arg, errTok := e.evalArg(token)
			if errTok != "" {
				return nil, errTok
			}
			args = append(args, arg)
		}
	}

	return args, ""
}

// evalArg evaluates one argument token as an expression with its references
// substituted. Tokens that do not evaluate stand as their raw text.
func (e *Evaluator) evalArg(token string) (Arg, string) {
	substituted, errTok := e.substituteReferences(token)
	if errTok != "" {
		return Arg{}, errTok
	}

	value, err := evalExpression(normalizeComparisons(substituted))
	if err != nil {
		return makeArg(token), ""
	}
	if value.kind == kindNumber {
		if !isFinite(value.num) {
			return Arg{}, DivZeroToken
		}
		return Arg{Raw: value.display(), Num: value.num, IsNumeric: true}, ""
	}
	return makeArg(value.display()), ""
}

func makeArg(raw string) Arg {
	num, err := strconv.ParseFloat(raw, 64)
	return Arg{Raw: raw, Num: num, IsNumeric: err == nil}
}

// isRangeToken reports whether the token is a colon-joined pair outside of
// any string literal.
func isRangeToken(token string) bool {
	if len(token) == 0 || token[0] == '"' {
		return false
	}
	return strings.Contains(token, ":")
}

// coerceArithmetic converts a resolved cell value for use inside an
// expression: empty cells read as 0, numbers pass through, everything else
// becomes a quoted string literal. The companion coerceDisplay keeps empty
// cells empty; the asymmetry is deliberate and covered by tests.
func coerceArithmetic(resolved string) string {
	if resolved == "" {
		return "0"
	}
	if _, err := strconv.ParseFloat(resolved, 64); err == nil {
		return resolved
	}
	return quote(resolved)
}

// coerceDisplay renders a resolved cell value as cell text: an empty cell
// stays the empty string.
func coerceDisplay(resolved string) string {
	return resolved
}

// IsErrorToken reports whether text is one of the evaluation error tokens.
func IsErrorToken(text string) bool {
	switch text {
	case ErrorToken, DivZeroToken, CircularToken, RefToken:
		return true
	}
	return false
}

func quote(s string) string {
	var buf strings.Builder
	buf.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteRune(r)
	}
	buf.WriteByte('"')
	return buf.String()
}

func unquote(token string) string {
	inner := token[1:]
	if strings.HasSuffix(inner, `"`) {
		inner = inner[:len(inner)-1]
	}
	var buf strings.Builder
	escaped := false
	for _, r := range inner {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		buf.WriteRune(r)
	}
	return buf.String()
}

// splitTopLevel splits on commas that sit outside parentheses and string
// literals.
func splitTopLevel(runes []rune) []string {
	var parts []string
	depth := 0
	start := 0

	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '"':
			i = skipString(runes, i)
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, string(runes[start:i]))
				start = i + 1
			}
		}
	}

	parts = append(parts, string(runes[start:]))
	return parts
}

// matchParen returns the index of the parenthesis closing the one at open,
// or -1 when unbalanced.
func matchParen(runes []rune, open int) int {
	depth := 0
	for i := open; i < len(runes); i++ {
		switch runes[i] {
		case '"':
			i = skipString(runes, i)
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// skipString returns the index of the quote closing the string literal
// opening at i, or len(runes) when unterminated.
func skipString(runes []rune, i int) int {
	for j := i + 1; j < len(runes); j++ {
		if runes[j] == '\\' {
			j++
			continue
		}
		if runes[j] == '"' {
			return j
		}
	}
	return len(runes)
}

func containsParen(runes []rune) bool {
	for i := 0; i < len(runes); i++ {
		if runes[i] == '"' {
			i = skipString(runes, i)
			continue
		}
		if runes[i] == '(' || runes[i] == ')' {
			return true
		}
	}
	return false
}

// upperOutsideQuotes uppercases references and function names while leaving
// string literals untouched.
func upperOutsideQuotes(text string) string {
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '"' {
			i = skipString(runes, i)
			continue
		}
		if runes[i] >= 'a' && runes[i] <= 'z' {
			runes[i] -= 'a' - 'A'
		}
	}
	return string(runes)
}

// normalizeComparisons rewrites the spreadsheet comparison spellings to the
// evaluator's grammar: <> becomes != and a lone = becomes ==.
func normalizeComparisons(text string) string {
	runes := []rune(text)
	var out strings.Builder

	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if ch == '"' {
			end := skipString(runes, i)
			if end >= len(runes) {
				out.WriteString(string(runes[i:]))
				break
			}
			out.WriteString(string(runes[i : end+1]))
			i = end
			continue
		}

		if ch == '<' && i+1 < len(runes) && runes[i+1] == '>' {
			out.WriteString("!=")
			i++
			continue
		}

		if ch == '=' {
			prevIsCompare := i > 0 && strings.ContainsRune("<>=!", runes[i-1])
			nextIsEqual := i+1 < len(runes) && runes[i+1] == '='
			if !prevIsCompare && !nextIsEqual {
				out.WriteString("==")
				continue
			}
		}

		out.WriteRune(ch)
	}

	return out.String()
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isFinite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}
