package pdfstatement

import (
	"cmp"
	"maps"
	"math"
	"slices"
	"strings"
)

// An edge's position is its fixed coordinate; its span runs from start to
// end along the other axis.

func (e Edge) horizontal() bool { return e.Orientation == "h" }

func (e Edge) position() float64 {
	if e.horizontal() {
		return e.Top
	}
	return e.X0
}

func (e Edge) start() float64 {
	if e.horizontal() {
		return e.X0
	}
	return e.Top
}

func (e Edge) end() float64 {
	if e.horizontal() {
		return e.X1
	}
	return e.Bottom
}

func (e Edge) length() float64 {
	if e.horizontal() {
		return e.Width
	}
	return e.Height
}

// moveTo shifts the edge across its axis so that its position is pos.
func (e *Edge) moveTo(pos float64) {
	d := pos - e.position()
	if e.horizontal() {
		e.Top += d
		e.Bottom += d
		return
	}
	e.X0 += d
	e.X1 += d
}

// extendTo moves the end of the edge's span to end.
func (e *Edge) extendTo(end float64) {
	if e.horizontal() {
		e.X1 = end
		e.Width = e.X1 - e.X0
		return
	}
	e.Bottom = end
	e.Height = e.Bottom - e.Top
}

// sameRule reports whether a and b are the same rule after merging.
func sameRule(a, b Edge) bool {
	return a.position() == b.position() && a.start() == b.start() && a.end() == b.end()
}

func splitEdges(edges []Edge) (h, v []Edge) {
	for _, e := range edges {
		if e.horizontal() {
			h = append(h, e)
		} else {
			v = append(v, e)
		}
	}
	return h, v
}

// mergeEdges snaps nearly aligned edges onto a shared position and joins
// collinear edges whose spans touch.
func mergeEdges(edges []Edge, settings TableSettings) []Edge {
	h, v := splitEdges(edges)
	if settings.SnapXTolerance > 0 || settings.SnapYTolerance > 0 {
		v = snapEdges(v, settings.SnapXTolerance)
		h = snapEdges(h, settings.SnapYTolerance)
	}
	return append(joinCollinear(h, settings.JoinXTolerance), joinCollinear(v, settings.JoinYTolerance)...)
}

// snapEdges clusters edges whose positions fall within tolerance of a
// cluster's running mean, then moves every member onto that mean.
func snapEdges(edges []Edge, tolerance float64) []Edge {
	type cluster struct {
		mean    float64
		members []int
	}

	var clusters []cluster
	for i, e := range edges {
		pos := e.position()
		idx := slices.IndexFunc(clusters, func(c cluster) bool {
			return math.Abs(c.mean-pos) <= tolerance
		})
		if idx < 0 {
			clusters = append(clusters, cluster{mean: pos, members: []int{i}})
			continue
		}
		c := &clusters[idx]
		n := float64(len(c.members))
		c.mean = (c.mean*n + pos) / (n + 1)
		c.members = append(c.members, i)
	}

	snapped := slices.Clone(edges)
	for _, c := range clusters {
		for _, i := range c.members {
			snapped[i].moveTo(c.mean)
		}
	}
	return snapped
}

// joinCollinear merges edges at the same position whose spans overlap or
// are separated by no more than tolerance.
func joinCollinear(edges []Edge, tolerance float64) []Edge {
	sorted := slices.Clone(edges)
	slices.SortStableFunc(sorted, func(a, b Edge) int {
		return cmp.Or(cmp.Compare(a.position(), b.position()), cmp.Compare(a.start(), b.start()))
	})

	var joined []Edge
	for _, e := range sorted {
		if n := len(joined); n > 0 {
			last := &joined[n-1]
			if last.position() == e.position() && e.start() <= last.end()+tolerance {
				if e.end() > last.end() {
					last.extendTo(e.end())
				}
				continue
			}
		}
		joined = append(joined, e)
	}
	return joined
}

// filterEdgesByLength drops edges shorter than minLength.
func filterEdgesByLength(edges []Edge, minLength float64) []Edge {
	if minLength <= 0 {
		return edges
	}
	return slices.DeleteFunc(slices.Clone(edges), func(e Edge) bool {
		return e.length() < minLength
	})
}

// junction holds the rules crossing at one point.
type junction struct {
	h, v []Edge
}

func sharesRule(a, b []Edge) bool {
	for _, x := range a {
		for _, y := range b {
			if sameRule(x, y) {
				return true
			}
		}
	}
	return false
}

// findIntersections returns every point where a vertical rule crosses a
// horizontal one, within the intersection tolerances.
func findIntersections(edges []Edge, settings TableSettings) map[Point]*junction {
	h, v := splitEdges(edges)
	xTol, yTol := settings.IntersectionXTolerance, settings.IntersectionYTolerance

	junctions := make(map[Point]*junction)
	for _, ve := range v {
		for _, he := range h {
			if ve.Top > he.Top+yTol || ve.Bottom < he.Top-yTol ||
				ve.X0 < he.X0-xTol || ve.X0 > he.X1+xTol {
				continue
			}

			pt := Point{X: ve.X0, Y: he.Top}
			j := junctions[pt]
			if j == nil {
				j = &junction{}
				junctions[pt] = j
			}
			j.v = append(j.v, ve)
			j.h = append(j.h, he)
		}
	}
	return junctions
}

// intersectionsToCells builds the minimal cells of the lattice: each point
// is paired with its nearest neighbours to the right and below, and a cell
// is kept when a single rule runs along each of its four sides.
func intersectionsToCells(junctions map[Point]*junction) []CellBBox {
	points := slices.Collect(maps.Keys(junctions))
	slices.SortFunc(points, func(a, b Point) int {
		return cmp.Or(cmp.Compare(a.Y, b.Y), cmp.Compare(a.X, b.X))
	})

	connected := func(a, b Point) bool {
		ja, jb := junctions[a], junctions[b]
		return (a.X == b.X && sharesRule(ja.v, jb.v)) || (a.Y == b.Y && sharesRule(ja.h, jb.h))
	}

	var cells []CellBBox
	for i, pt := range points {
		right, below, ok := nearestNeighbours(pt, points[i+1:])
		if !ok || !connected(pt, right) || !connected(pt, below) {
			continue
		}

		corner := Point{X: right.X, Y: below.Y}
		if _, exists := junctions[corner]; !exists {
			continue
		}
		if connected(corner, right) && connected(corner, below) {
			cells = append(cells, CellBBox{X0: pt.X, Top: pt.Y, X1: corner.X, Bottom: corner.Y})
		}
	}
	return cells
}

// nearestNeighbours finds the closest points directly right of and below
// pt among candidates.
func nearestNeighbours(pt Point, candidates []Point) (right, below Point, ok bool) {
	var hasRight, hasBelow bool
	for _, p := range candidates {
		if p.X == pt.X && p.Y > pt.Y && (!hasBelow || p.Y < below.Y) {
			below, hasBelow = p, true
		}
		if p.Y == pt.Y && p.X > pt.X && (!hasRight || p.X < right.X) {
			right, hasRight = p, true
		}
	}
	return right, below, hasRight && hasBelow
}

func (c CellBBox) corners() [4]Point {
	return [4]Point{
		{X: c.X0, Y: c.Top},
		{X: c.X0, Y: c.Bottom},
		{X: c.X1, Y: c.Top},
		{X: c.X1, Y: c.Bottom},
	}
}

// cellsToTables groups cells that share a corner into tables. A lone cell
// is not a table.
func cellsToTables(cells []CellBBox) [][]CellBBox {
	remaining := slices.Clone(cells)

	var tables [][]CellBBox
	for len(remaining) > 0 {
		table := []CellBBox{remaining[0]}
		seen := make(map[Point]bool)
		for _, c := range remaining[0].corners() {
			seen[c] = true
		}
		remaining = remaining[1:]

		for grew := true; grew; {
			grew = false
			rest := remaining[:0]
			for _, cell := range remaining {
				corners := cell.corners()
				if !seen[corners[0]] && !seen[corners[1]] && !seen[corners[2]] && !seen[corners[3]] {
					rest = append(rest, cell)
					continue
				}
				table = append(table, cell)
				for _, c := range corners {
					seen[c] = true
				}
				grew = true
			}
			remaining = rest
		}

		if len(table) > 1 {
			tables = append(tables, table)
		}
	}
	return tables
}

// createGrid lays cells out in rows by their top edge and fills each cell
// with the words whose centers it contains. Rows with no text are dropped.
func createGrid(cells []CellBBox, words []EnrichedWord) Grid {
	if len(cells) == 0 {
		return Grid{}
	}

	const rowTolerance = 1.0

	sorted := slices.Clone(cells)
	slices.SortStableFunc(sorted, func(a, b CellBBox) int {
		return cmp.Compare(a.Top, b.Top)
	})

	var rows [][]CellBBox
	for _, cell := range sorted {
		if n := len(rows); n > 0 && math.Abs(rows[n-1][0].Top-cell.Top) < rowTolerance {
			rows[n-1] = append(rows[n-1], cell)
			continue
		}
		rows = append(rows, []CellBBox{cell})
	}

	grid := Grid{BBox: cellsBounds(cells)}
	for _, row := range rows {
		slices.SortStableFunc(row, func(a, b CellBBox) int {
			return cmp.Compare(a.X0, b.X0)
		})

		texts := make([]string, len(row))
		hasContent := false
		for i, cell := range row {
			texts[i] = cellContent(cell, words)
			hasContent = hasContent || texts[i] != ""
		}
		if !hasContent {
			continue
		}
		grid.NumCols = max(grid.NumCols, len(texts))
		grid.Rows = append(grid.Rows, texts)
	}

	return grid
}

// cellContent joins the words inside a cell in reading order. Words on
// different lines of a wrapped cell are joined with a space.
func cellContent(cell CellBBox, words []EnrichedWord) string {
	const tolerance = 1.0

	var inside []EnrichedWord
	for _, word := range words {
		cx := word.Box.CenterX()
		cy := word.Box.CenterY()
		if cx >= cell.X0-tolerance && cx <= cell.X1+tolerance &&
			cy >= cell.Top-tolerance && cy <= cell.Bottom+tolerance {
			inside = append(inside, word)
		}
	}
	if len(inside) == 0 {
		return ""
	}

	lines := groupWordsIntoLines(inside, 0)

	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, line.Text())
	}
	return strings.Join(parts, " ")
}
