package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/csimplestring/go-csv/detector"

	"github.com/gridwhale/gridsheet/internal/refs"
)

// ImportCSV loads CSV text into the sheet starting at A1, detecting the
// delimiter from the data. It returns the imported grid dimensions.
func ImportCSV(s *Sheet, data string) (rows, cols int, err error) {
	// normalize line endings before sniffing and parsing
	data = strings.ReplaceAll(data, "\r\n", "\n")
	data = strings.ReplaceAll(data, "\r", "\n")

	delimiters := detector.New().DetectDelimiter(strings.NewReader(data), '"')

	reader := csv.NewReader(strings.NewReader(data))
	reader.FieldsPerRecord = -1
	if len(delimiters) > 0 {
		reader.Comma = []rune(delimiters[0])[0]
	}

	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, 0, fmt.Errorf("read csv record: %w", err)
		}

		for col, field := range record {
			s.SetText(refs.Format(row+1, col), strings.TrimSpace(field))
			if col+1 > cols {
				cols = col + 1
			}
		}
		row++
	}

	return row, cols, nil
}

// ExportCSV writes the sheet's bounding rectangle as CSV, one resolved
// display value per cell.
func ExportCSV(w io.Writer, s *Sheet, resolve func(id string) string) error {
	maxRow, maxCol := bounds(s)
	if maxRow == 0 {
		return nil
	}

	writer := csv.NewWriter(w)
	record := make([]string, maxCol)
	for row := 1; row <= maxRow; row++ {
		for col := 0; col < maxCol; col++ {
			record[col] = resolve(refs.Format(row, col))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// bounds returns the 1-based row count and column count of the smallest
// rectangle containing every stored cell.
func bounds(s *Sheet) (maxRow, maxCol int) {
	s.Each(func(id string, c Cell) {
		row, col, err := refs.Parse(id)
		if err != nil {
			return
		}
		if row > maxRow {
			maxRow = row
		}
		if col+1 > maxCol {
			maxCol = col + 1
		}
	})
	return maxRow, maxCol
}
