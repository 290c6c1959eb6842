package pdfstatement

import (
	"math"
	"sort"
)

type wordCluster struct {
	pos   float64
	words []EnrichedWord
	box   Rect
}

// clusterWords groups words whose key lies within 1 unit of a cluster's
// first member.
func clusterWords(words []EnrichedWord, key func(EnrichedWord) float64) []wordCluster {
	var clusters []wordCluster
	for _, word := range words {
		k := key(word)
		found := false
		for i := range clusters {
			if math.Abs(clusters[i].pos-k) < 1.0 {
				clusters[i].words = append(clusters[i].words, word)
				clusters[i].box = mergeRects(clusters[i].box, word.Box)
				found = true
				break
			}
		}
		if !found {
			clusters = append(clusters, wordCluster{pos: k, words: []EnrichedWord{word}, box: word.Box})
		}
	}
	return clusters
}

// wordsToEdgesHorizontal infers row boundaries from words sharing a top.
// Based on pdfplumber's words_to_edges_h function.
func wordsToEdgesHorizontal(words []EnrichedWord, minWords int) []Edge {
	var rows []wordCluster
	for _, c := range clusterWords(words, func(w EnrichedWord) float64 { return w.Box.Y0 }) {
		if len(c.words) >= minWords {
			rows = append(rows, c)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	span := rows[0].box
	for _, c := range rows[1:] {
		span = mergeRects(span, c.box)
	}

	edges := make([]Edge, 0, len(rows)*2)
	for _, c := range rows {
		for _, y := range []float64{c.pos, c.box.Y1} {
			edges = append(edges, Edge{
				X0:          span.X0,
				X1:          span.X1,
				Top:         y,
				Bottom:      y,
				Width:       span.Width(),
				Orientation: "h",
			})
		}
	}
	return edges
}

// wordsToEdgesVertical infers column boundaries from words aligned on their
// left edge, right edge or center.
// Based on pdfplumber's words_to_edges_v function.
func wordsToEdgesVertical(words []EnrichedWord, minWords int) []Edge {
	if len(words) == 0 {
		return nil
	}

	all := clusterWords(words, func(w EnrichedWord) float64 { return w.Box.X0 })
	all = append(all, clusterWords(words, func(w EnrichedWord) float64 { return w.Box.X1 })...)
	all = append(all, clusterWords(words, func(w EnrichedWord) float64 { return w.Box.CenterX() })...)

	sort.SliceStable(all, func(i, j int) bool {
		return len(all[i].words) > len(all[j].words)
	})

	// Keep the largest alignments that do not overlap an already kept one
	var kept []Rect
	for _, c := range all {
		if len(c.words) < minWords {
			break
		}
		overlaps := false
		for _, k := range kept {
			if !(c.box.X1 < k.X0 || c.box.X0 > k.X1 || c.box.Y1 < k.Y0 || c.box.Y0 > k.Y1) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c.box)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].X0 < kept[j].X0 })

	span := kept[0]
	for _, k := range kept[1:] {
		span = mergeRects(span, k)
	}

	edges := make([]Edge, 0, len(kept)+1)
	for _, k := range kept {
		edges = append(edges, Edge{X0: k.X0, X1: k.X0, Top: span.Y0, Bottom: span.Y1, Height: span.Height(), Orientation: "v"})
	}
	edges = append(edges, Edge{X0: span.X1, X1: span.X1, Top: span.Y0, Bottom: span.Y1, Height: span.Height(), Orientation: "v"})
	return edges
}

// DetectGrids finds ruled tables from edges and fills their cells with
// the words whose centers fall inside. Edges and words must share a
// coordinate space. Tables whose cells are all empty are dropped.
// Based on pdfplumber's TableFinder supporting multiple strategies.
func DetectGrids(rules []Edge, words []EnrichedWord, settings TableSettings) []Grid {
	var edges []Edge

	// Vertical edges: "lines" falls back to text alignment when no rules exist
	vLineEdges := 0
	if settings.VerticalStrategy == "lines" || settings.VerticalStrategy == "lines_strict" {
		for _, rule := range rules {
			if rule.Orientation == "v" {
				edges = append(edges, rule)
				vLineEdges++
			}
		}
	}
	if (vLineEdges == 0 && settings.VerticalStrategy == "lines") || settings.VerticalStrategy == "text" {
		edges = append(edges, wordsToEdgesVertical(words, settings.MinWordsVertical)...)
	}

	hLineEdges := 0
	if settings.HorizontalStrategy == "lines" || settings.HorizontalStrategy == "lines_strict" {
		for _, rule := range rules {
			if rule.Orientation == "h" {
				edges = append(edges, rule)
				hLineEdges++
			}
		}
	}
	if (hLineEdges == 0 && settings.HorizontalStrategy == "lines") || settings.HorizontalStrategy == "text" {
		edges = append(edges, wordsToEdgesHorizontal(words, settings.MinWordsHorizontal)...)
	}

	if len(edges) == 0 {
		return nil
	}

	cellGroups := DetectCells(edges, settings)

	grids := make([]Grid, 0, len(cellGroups))
	for _, cells := range cellGroups {
		grid := createGrid(cells, words)
		if len(grid.Rows) == 0 {
			continue
		}
		grids = append(grids, grid)
	}

	return grids
}

// DetectCells snaps, joins and intersects edges and returns the cells of
// each contiguous table.
func DetectCells(edges []Edge, settings TableSettings) [][]CellBBox {
	edges = mergeEdges(edges, settings)
	edges = filterEdgesByLength(edges, settings.EdgeMinLength)
	intersections := findIntersections(edges, settings)
	cells := intersectionsToCells(intersections)
	return cellsToTables(cells)
}

// cellsBounds returns the bounding box of a group of cells.
func cellsBounds(cells []CellBBox) CellBBox {
	bbox := CellBBox{
		X0:     math.MaxFloat64,
		Top:    math.MaxFloat64,
		X1:     -math.MaxFloat64,
		Bottom: -math.MaxFloat64,
	}
	for _, cell := range cells {
		bbox.X0 = math.Min(bbox.X0, cell.X0)
		bbox.Top = math.Min(bbox.Top, cell.Top)
		bbox.X1 = math.Max(bbox.X1, cell.X1)
		bbox.Bottom = math.Max(bbox.Bottom, cell.Bottom)
	}
	return bbox
}
