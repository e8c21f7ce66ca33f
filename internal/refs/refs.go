// Package refs parses and formats A1-style cell references and expands
// rectangular ranges into cell lists.
package refs

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidReference is returned for text that is not one or more letters
// followed by one or more digits.
var ErrInvalidReference = errors.New("invalid cell reference")

var referencePattern = regexp.MustCompile(`^([A-Za-z]+)([0-9]+)$`)

// Parse splits a reference like "B12" into its 1-based row and 0-based
// column index. Letters are case-insensitive.
func Parse(ref string) (row, col int, err error) {
	m := referencePattern.FindStringSubmatch(ref)
	if m == nil {
		return 0, 0, ErrInvalidReference
	}

	row, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, ErrInvalidReference
	}

	return row, lettersToColumn(m[1]), nil
}

// Format is the exact inverse of Parse.
func Format(row, col int) string {
	return ColumnLetters(col) + strconv.Itoa(row)
}

// IsReference reports whether ref parses as a single cell reference.
func IsReference(ref string) bool {
	return referencePattern.MatchString(ref)
}

// ExpandRange lists every cell in the rectangle spanned by a and b in
// row-major order. The corners may be given in any order: min and max are
// taken per axis, so A10:A1 expands the same as A1:A10.
func ExpandRange(a, b string) ([]string, error) {
	rowA, colA, err := Parse(a)
	if err != nil {
		return nil, err
	}
	rowB, colB, err := Parse(b)
	if err != nil {
		return nil, err
	}

	minRow, maxRow := minMax(rowA, rowB)
	minCol, maxCol := minMax(colA, colB)

	cells := make([]string, 0, (maxRow-minRow+1)*(maxCol-minCol+1))
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			cells = append(cells, Format(row, col))
		}
	}

	return cells, nil
}

// ColumnLetters converts a 0-based column index to its letter name
// (A=0, Z=25, AA=26, ...).
func ColumnLetters(col int) string {
	var buf strings.Builder
	for col >= 0 {
		buf.WriteByte(byte('A' + col%26))
		col = col/26 - 1
	}

	// the digits came out backwards
	letters := []byte(buf.String())
	for i, j := 0, len(letters)-1; i < j; i, j = i+1, j-1 {
		letters[i], letters[j] = letters[j], letters[i]
	}
	return string(letters)
}

func lettersToColumn(letters string) int {
	col := 0
	for _, r := range strings.ToUpper(letters) {
		col = col*26 + int(r-'A') + 1
	}
	return col - 1
}

func minMax(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
