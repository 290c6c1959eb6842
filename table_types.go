package pdfstatement

// Edge represents a horizontal or vertical line segment used for table detection.
// Based on pdfplumber's edge structure.
type Edge struct {
	X0          float64 // Left x coordinate
	X1          float64 // Right x coordinate
	Top         float64 // Top y coordinate
	Bottom      float64 // Bottom y coordinate
	Width       float64 // Width (for horizontal edges)
	Height      float64 // Height (for vertical edges)
	Orientation string  // "h" for horizontal, "v" for vertical
}

// Point represents an (x, y) coordinate where edges intersect.
type Point struct {
	X float64
	Y float64
}

// CellBBox represents a table cell as a bounding box.
type CellBBox struct {
	X0     float64
	Top    float64
	X1     float64
	Bottom float64
}

// Rect converts the cell box to a Rect.
func (c CellBBox) Rect() Rect {
	return Rect{X0: c.X0, Y0: c.Top, X1: c.X1, Y1: c.Bottom}
}

// Grid is a lattice table: its bounding box and cell text by row.
type Grid struct {
	BBox    CellBBox
	Rows    [][]string
	NumCols int
}

// Table returns the grid's cell text.
func (g Grid) Table() Table {
	return Table(g.Rows)
}

// TableSettings configures table detection behavior.
// Based on pdfplumber's TableSettings.
type TableSettings struct {
	// Strategy for detecting table edges: "lines", "lines_strict" or "text".
	// "lines" falls back to text alignment when a page has no rules.
	VerticalStrategy   string
	HorizontalStrategy string

	// Tolerances for snapping close edges together
	SnapXTolerance float64
	SnapYTolerance float64

	// Tolerances for joining edges on the same line
	JoinXTolerance float64
	JoinYTolerance float64

	// Minimum edge length to consider
	EdgeMinLength float64

	// Minimum number of words required to infer edges from text alignment
	MinWordsVertical   int
	MinWordsHorizontal int

	// Tolerances for finding edge intersections
	IntersectionXTolerance float64
	IntersectionYTolerance float64
}

// DefaultTableSettings returns settings for PDF point space, using only
// explicit rules.
func DefaultTableSettings() TableSettings {
	return TableSettings{
		VerticalStrategy:       "lines_strict",
		HorizontalStrategy:     "lines_strict",
		SnapXTolerance:         3.0,
		SnapYTolerance:         3.0,
		JoinXTolerance:         3.0,
		JoinYTolerance:         3.0,
		EdgeMinLength:          3.0,
		MinWordsVertical:       3,
		MinWordsHorizontal:     1,
		IntersectionXTolerance: 3.0,
		IntersectionYTolerance: 3.0,
	}
}

// Scaled returns the settings with distance tolerances multiplied by
// factor, for use in image pixel space.
func (s TableSettings) Scaled(factor float64) TableSettings {
	s.SnapXTolerance *= factor
	s.SnapYTolerance *= factor
	s.JoinXTolerance *= factor
	s.JoinYTolerance *= factor
	s.EdgeMinLength *= factor
	s.IntersectionXTolerance *= factor
	s.IntersectionYTolerance *= factor
	return s
}
