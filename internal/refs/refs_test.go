package refs

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		ref  string
		row  int
		col  int
		fail bool
	}{
		{ref: "A1", row: 1, col: 0},
		{ref: "B12", row: 12, col: 1},
		{ref: "Z9", row: 9, col: 25},
		{ref: "AA1", row: 1, col: 26},
		{ref: "AZ3", row: 3, col: 51},
		{ref: "BA100", row: 100, col: 52},
		{ref: "aa1", row: 1, col: 26},
		{ref: "A", fail: true},
		{ref: "12", fail: true},
		{ref: "1A", fail: true},
		{ref: "A1B", fail: true},
		{ref: "A1:B2", fail: true},
		{ref: "", fail: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			row, col, err := Parse(tt.ref)
			if tt.fail {
				if err == nil {
					t.Fatalf("Parse(%q) succeeded, want error", tt.ref)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.ref, err)
			}
			if row != tt.row || col != tt.col {
				t.Errorf("Parse(%q) = (%d, %d), want (%d, %d)", tt.ref, row, col, tt.row, tt.col)
			}
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for row := 1; row <= 120; row += 7 {
		for col := 0; col <= 800; col += 13 {
			ref := Format(row, col)
			gotRow, gotCol, err := Parse(ref)
			if err != nil {
				t.Fatalf("Parse(Format(%d, %d)) = Parse(%q): %v", row, col, ref, err)
			}
			if gotRow != row || gotCol != col {
				t.Fatalf("round trip (%d, %d) -> %q -> (%d, %d)", row, col, ref, gotRow, gotCol)
			}
		}
	}
}

func TestColumnLetters(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{
		{0, "A"},
		{25, "Z"},
		{26, "AA"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}

	for _, tt := range tests {
		if got := ColumnLetters(tt.col); got != tt.want {
			t.Errorf("ColumnLetters(%d) = %q, want %q", tt.col, got, tt.want)
		}
	}
}

func TestExpandRange(t *testing.T) {
	tests := []struct {
		a, b string
		want []string
	}{
		{"A1", "A1", []string{"A1"}},
		{"A1", "B2", []string{"A1", "B1", "A2", "B2"}},
		{"A1", "A3", []string{"A1", "A2", "A3"}},
	}

	for _, tt := range tests {
		got, err := ExpandRange(tt.a, tt.b)
		if err != nil {
			t.Fatalf("ExpandRange(%q, %q): %v", tt.a, tt.b, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ExpandRange(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestExpandRangeReversal(t *testing.T) {
	forward, err := ExpandRange("A1", "A10")
	if err != nil {
		t.Fatal(err)
	}
	reversed, err := ExpandRange("A10", "A1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(forward, reversed) {
		t.Errorf("reversed range expansion differs: %v vs %v", forward, reversed)
	}

	if _, err := ExpandRange("A1", "1B"); err == nil {
		t.Error("ExpandRange with invalid corner succeeded, want error")
	}
}
