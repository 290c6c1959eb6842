package pdfstatement

import (
	"math"
	"sort"
)

// DefaultRowTolerance is the pixel distance within which token centers
// share a row.
const DefaultRowTolerance = 10.0

// TableReconstructor groups positioned tokens into rows and columns.
type TableReconstructor struct {
	Tolerance float64
}

// NewTableReconstructor returns a reconstructor with the given row
// tolerance; non-positive values use DefaultRowTolerance.
func NewTableReconstructor(tolerance float64) TableReconstructor {
	if tolerance <= 0 {
		tolerance = DefaultRowTolerance
	}
	return TableReconstructor{Tolerance: tolerance}
}

// Reconstruct sorts tokens by vertical center and starts a new row
// whenever a token's center is more than Tolerance away from the center of
// the row's first token. Each row is then ordered left to right. Rows keep
// their own width.
func (r TableReconstructor) Reconstruct(tokens []PositionedToken) Table {
	if len(tokens) == 0 {
		return nil
	}

	tolerance := r.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultRowTolerance
	}

	sorted := make([]PositionedToken, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := sorted[i].Box.CenterY(), sorted[j].Box.CenterY()
		if ci != cj {
			return ci < cj
		}
		return sorted[i].Box.X0 < sorted[j].Box.X0
	})

	var rows [][]PositionedToken
	var current []PositionedToken
	var reference float64

	for _, tok := range sorted {
		center := tok.Box.CenterY()
		if len(current) > 0 && math.Abs(center-reference) > tolerance {
			rows = append(rows, current)
			current = nil
		}
		if len(current) == 0 {
			reference = center
		}
		current = append(current, tok)
	}
	rows = append(rows, current)

	table := make(Table, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool {
			return row[i].Box.X0 < row[j].Box.X0
		})
		cells := make([]string, len(row))
		for i, tok := range row {
			cells[i] = tok.Text
		}
		table = append(table, cells)
	}

	return table
}
