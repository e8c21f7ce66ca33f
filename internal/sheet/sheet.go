// Package sheet holds the sparse cell grid, immutable snapshots of it for
// formula evaluation, sqlite persistence and CSV import/export.
package sheet

import (
	"strings"
)

// Cell is one grid cell. A cell with a formula ignores its value; a cell
// without one is a plain literal.
type Cell struct {
	Value   string
	Formula string
}

// Sheet is a sparse mapping from canonical cell ids (e.g. "B12") to cells.
// Cells are created implicitly on first write and never explicitly deleted:
// clearing both fields makes a cell behave as absent.
type Sheet struct {
	cells map[string]Cell
}

func New() *Sheet {
	return &Sheet{cells: make(map[string]Cell)}
}

// Set stores a cell under the canonical (upper-case) form of id.
func (s *Sheet) Set(id string, c Cell) {
	id = strings.ToUpper(id)
	if c.Value == "" && c.Formula == "" {
		delete(s.cells, id)
		return
	}
	s.cells[id] = c
}

// SetText applies a user edit: text starting with "=" is a formula,
// anything else a plain literal, and empty text clears the cell.
func (s *Sheet) SetText(id, text string) {
	if strings.HasPrefix(text, "=") {
		s.Set(id, Cell{Formula: text})
		return
	}
	s.Set(id, Cell{Value: text})
}

func (s *Sheet) Get(id string) (Cell, bool) {
	c, ok := s.cells[strings.ToUpper(id)]
	return c, ok
}

func (s *Sheet) Len() int {
	return len(s.cells)
}

// Each visits every stored cell in unspecified order.
func (s *Sheet) Each(visit func(id string, c Cell)) {
	for id, c := range s.cells {
		visit(id, c)
	}
}

// Snapshot copies the current cell mapping into an immutable view. Writes
// to the sheet after this point are invisible to evaluations holding the
// snapshot.
func (s *Sheet) Snapshot() *Snapshot {
	cells := make(map[string]Cell, len(s.cells))
	for id, c := range s.cells {
		cells[id] = c
	}
	return &Snapshot{cells: cells}
}

// Snapshot is one frozen view of a sheet, satisfying the formula engine's
// snapshot interface.
type Snapshot struct {
	cells map[string]Cell
}

// Cell returns the stored value and formula of a cell; ok is false for
// absent cells.
func (s *Snapshot) Cell(id string) (value, formula string, ok bool) {
	c, ok := s.cells[strings.ToUpper(id)]
	return c.Value, c.Formula, ok
}
