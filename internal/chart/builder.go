// Package chart turns resolved sheet ranges into labeled series for the
// host's chart renderer, and provides the regression utilities used for
// trendline annotation.
package chart

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gridwhale/gridsheet/internal/formula"
	"github.com/gridwhale/gridsheet/internal/refs"
)

// Series is one plotted line or bar group.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Color  string    `json:"color"`
}

// Data is a complete chart input: for every series,
// len(Values) == len(Labels).
type Data struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// palette is assigned round-robin by column offset.
var palette = [...]string{
	"#4E79A7", "#F28E2B", "#E15759", "#76B7B2",
	"#59A14F", "#EDC948", "#B07AA1", "#9C755F",
}

type rect struct {
	minRow, maxRow int
	minCol, maxCol int
}

// parseRect accepts a single reference (a 1-cell range) or an "a:b" pair.
func parseRect(text string) (rect, error) {
	text = strings.TrimSpace(text)

	first, second, found := strings.Cut(text, ":")
	if !found {
		second = first
	}

	rowA, colA, err := refs.Parse(strings.TrimSpace(first))
	if err != nil {
		return rect{}, fmt.Errorf("chart range %q: %w", text, err)
	}
	rowB, colB, err := refs.Parse(strings.TrimSpace(second))
	if err != nil {
		return rect{}, fmt.Errorf("chart range %q: %w", text, err)
	}

	r := rect{minRow: rowA, maxRow: rowB, minCol: colA, maxCol: colB}
	if r.minRow > r.maxRow {
		r.minRow, r.maxRow = r.maxRow, r.minRow
	}
	if r.minCol > r.maxCol {
		r.minCol, r.maxCol = r.maxCol, r.minCol
	}
	return r, nil
}

// Build converts an X range and a Y range into chart data. When hasHeader
// is set, the first row of each range names the series and is excluded from
// the data. An empty rangeX synthesizes sequential integer labels.
func Build(snap formula.Snapshot, rangeX, rangeY string, hasHeader bool) (Data, error) {
	ev := formula.NewEvaluator(snap)

	yRect, err := parseRect(rangeY)
	if err != nil {
		return Data{}, err
	}

	dataStart := 0
	if hasHeader {
		dataStart = 1
	}

	yRows := yRect.maxRow - yRect.minRow + 1 - dataStart
	if yRows < 0 {
		yRows = 0
	}

	var labels []string
	if rangeX != "" {
		xRect, err := parseRect(rangeX)
		if err != nil {
			return Data{}, err
		}
		// one label per row of the X range's single (first) column
		for row := xRect.minRow + dataStart; row <= xRect.maxRow; row++ {
			labels = append(labels, ev.Resolve(refs.Format(row, xRect.minCol)))
		}
	} else {
		for i := 0; i < yRows; i++ {
			labels = append(labels, strconv.Itoa(i+1))
		}
	}

	data := Data{Labels: labels}

	for col := yRect.minCol; col <= yRect.maxCol; col++ {
		name := refs.ColumnLetters(col)
		if hasHeader {
			if header := ev.Resolve(refs.Format(yRect.minRow, col)); header != "" {
				name = header
			}
		}

		// rows align with labels by index, not by address: shorter
		// columns pad with zeros, longer ones truncate
		values := make([]float64, len(labels))
		for i := range labels {
			row := yRect.minRow + dataStart + i
			if row > yRect.maxRow {
				break
			}
			values[i] = numericOrZero(ev.Resolve(refs.Format(row, col)))
		}

		data.Series = append(data.Series, Series{
			Name:   name,
			Values: values,
			Color:  palette[(col-yRect.minCol)%len(palette)],
		})
	}

	return data, nil
}

func numericOrZero(text string) float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0
	}
	return n
}
