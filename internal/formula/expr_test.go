package formula

import (
	"math"
	"testing"
)

func evalNumber(t *testing.T, input string) float64 {
	t.Helper()
	v, err := evalExpression(input)
	if err != nil {
		t.Fatalf("evalExpression(%q): %v", input, err)
	}
	if v.kind != kindNumber {
		t.Fatalf("evalExpression(%q) kind = %v, want number", input, v.kind)
	}
	return v.num
}

func TestExpressionArithmetic(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1+2", 3},
		{"2*3+4", 10},
		{"2+3*4", 14},
		{"(2+3)*4", 20},
		{"10-4-3", 3},
		{"20/5/2", 2},
		{"2^3", 8},
		{"2^3^2", 512}, // right-associative
		{"-3+5", 2},
		{"-(2+3)", -5},
		{"--4", 4},
		{"2*-3", -6},
		{"1.5e2", 150},
		{"0.5*4", 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := evalNumber(t, tt.input); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpressionComparisons(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1<2", true},
		{"2<=2", true},
		{"3>2", true},
		{"3>=4", false},
		{"1==1", true},
		{"1!=1", false},
		{"1+1==2", true},
		{"2<3==1<2", true}, // relational binds tighter than equality
		{`"abc"=="abc"`, true},
		{`"abc"=="abd"`, false},
		{`"1"==1`, false}, // strings never equal numbers
		{"TRUE==1", true},
		{"FALSE==0", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := evalExpression(tt.input)
			if err != nil {
				t.Fatalf("evalExpression(%q): %v", tt.input, err)
			}
			if v.kind != kindBool || v.b != tt.want {
				t.Errorf("got %+v, want bool %v", v, tt.want)
			}
		})
	}
}

func TestExpressionStrings(t *testing.T) {
	v, err := evalExpression(`"hello"`)
	if err != nil {
		t.Fatal(err)
	}
	if v.kind != kindString || v.str != "hello" {
		t.Errorf("got %+v, want string hello", v)
	}

	v, err = evalExpression(`"say \"hi\""`)
	if err != nil {
		t.Fatal(err)
	}
	if v.str != `say "hi"` {
		t.Errorf("escape handling: got %q", v.str)
	}
}

func TestExpressionErrors(t *testing.T) {
	invalid := []string{
		"",
		"1+",
		"*2",
		"(1+2",
		"1 2",
		`"unclosed`,
		"1 ^^ 2",
		"foo",
		`"a" + 1`,
		`"a" < "b"`,
	}

	for _, input := range invalid {
		t.Run(input, func(t *testing.T) {
			if _, err := evalExpression(input); err == nil {
				t.Errorf("evalExpression(%q) succeeded, want error", input)
			}
		})
	}
}

func TestExpressionDivisionByZeroIsNonFinite(t *testing.T) {
	v, err := evalExpression("1/0")
	if err != nil {
		t.Fatal(err)
	}
	if isFinite(v.num) {
		t.Errorf("1/0 = %v, want non-finite", v.num)
	}
}

func TestDisplayRendering(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{numberValue(6), "6"},
		{numberValue(2.5), "2.5"},
		{numberValue(0.1 + 0.2), "0.3"}, // 12 significant digits
		{boolValue(true), "TRUE"},
		{boolValue(false), "FALSE"},
		{stringValue("yes"), "yes"},
	}

	for _, tt := range tests {
		if got := tt.value.display(); got != tt.want {
			t.Errorf("display(%+v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestRoundSignificant(t *testing.T) {
	if got := roundSignificant(0.30000000000000004, 12); got != 0.3 {
		t.Errorf("roundSignificant = %v, want 0.3", got)
	}
	if got := roundSignificant(123456789.123456789, 12); got != 123456789.123 {
		t.Errorf("roundSignificant = %v, want 123456789.123", got)
	}
	if got := roundSignificant(0, 12); got != 0 {
		t.Errorf("roundSignificant(0) = %v", got)
	}
}
