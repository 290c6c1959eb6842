package pdfstatement

import (
	"math"
	"sort"
)

// Segment represents a group of horizontally adjacent words.
// Based on PDF-TREX algorithm
type Segment struct {
	Words []EnrichedWord
	Box   Rect
}

// LineType represents the classification of a line in region detection
type LineType string

const (
	TextLine    LineType = "TxL" // Text line (single segment spanning > 50% width)
	TableLine   LineType = "TbL" // Table line (multiple segments)
	UnknownLine LineType = "UnL" // Unknown line (single segment spanning < 50% width)
)

// TaggedLine is a line with its type classification
type TaggedLine struct {
	Line     Line
	Segments []Segment
	Type     LineType
}

// AdaptiveThresholds contains document-specific threshold values
type AdaptiveThresholds struct {
	HorizontalThreshold float64 // hT: for horizontal clustering
	VerticalThreshold   float64 // vT: for vertical clustering
}

// calculateAdaptiveThresholds derives clustering thresholds from the gap
// distribution between words and between lines.
func calculateAdaptiveThresholds(lines []Line) AdaptiveThresholds {
	var horizontalGaps, verticalGaps []float64

	for i, line := range lines {
		for j := 1; j < len(line.Words); j++ {
			gap := line.Words[j].Box.X0 - line.Words[j-1].Box.X1
			if gap > 0 && gap < 200 {
				horizontalGaps = append(horizontalGaps, gap)
			}
		}
		if i > 0 {
			gap := line.Box.Y0 - lines[i-1].Box.Y1
			if gap > 0 && gap < 200 {
				verticalGaps = append(verticalGaps, gap)
			}
		}
	}

	return AdaptiveThresholds{
		HorizontalThreshold: calculateThresholdFromGaps(horizontalGaps, 20.0),
		VerticalThreshold:   calculateThresholdFromGaps(verticalGaps, 5.0),
	}
}

// calculateThresholdFromGaps returns median + 1.5 * stddev, clamped to
// [5, 100]. Fewer than three gaps yields the default.
func calculateThresholdFromGaps(gaps []float64, defaultValue float64) float64 {
	if len(gaps) < 3 {
		return defaultValue
	}

	threshold := calculateMedian(gaps) + 1.5*calculateStdDev(gaps)
	return clamp(threshold, 5.0, 100.0)
}

// buildSegmentsFromLine clusters the words of a line into segments by
// agglomerative merging of the closest pair until the gap exceeds hT.
func buildSegmentsFromLine(line Line, hT float64) []Segment {
	if len(line.Words) == 0 {
		return nil
	}

	clusters := make([]Segment, len(line.Words))
	for i, word := range line.Words {
		clusters[i] = Segment{Words: []EnrichedWord{word}, Box: word.Box}
	}

	for len(clusters) > 1 {
		minDist := math.MaxFloat64
		minI, minJ := -1, -1

		for i := 0; i < len(clusters)-1; i++ {
			for j := i + 1; j < len(clusters); j++ {
				if dist := horizontalDistance(clusters[i].Box, clusters[j].Box); dist < minDist {
					minDist = dist
					minI, minJ = i, j
				}
			}
		}

		if minI == -1 || minDist > hT {
			break
		}

		merged := Segment{
			Words: append(append([]EnrichedWord{}, clusters[minI].Words...), clusters[minJ].Words...),
			Box:   mergeRects(clusters[minI].Box, clusters[minJ].Box),
		}
		clusters[minI] = merged
		clusters = append(clusters[:minJ], clusters[minJ+1:]...)
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Box.X0 < clusters[j].Box.X0
	})
	return clusters
}

// tagLine classifies a line based on its segments
// Implements PDF-TREX line tagging algorithm
func tagLine(segments []Segment, pageWidth float64) LineType {
	switch {
	case len(segments) == 0:
		return UnknownLine
	case len(segments) > 1:
		return TableLine
	case segments[0].Box.Width() > pageWidth*0.5:
		return TextLine
	default:
		return UnknownLine
	}
}

// buildTaggedLines creates tagged lines with segments from regular lines
func buildTaggedLines(lines []Line, hT float64, pageWidth float64) []TaggedLine {
	taggedLines := make([]TaggedLine, 0, len(lines))
	for _, line := range lines {
		segments := buildSegmentsFromLine(line, hT)
		taggedLines = append(taggedLines, TaggedLine{
			Line:     line,
			Segments: segments,
			Type:     tagLine(segments, pageWidth),
		})
	}
	return taggedLines
}

// TableArea represents a run of consecutive table or unknown lines
type TableArea struct {
	Lines []TaggedLine
	Box   Rect
}

// TableLineCount returns the number of multi-segment lines in the area.
func (a TableArea) TableLineCount() int {
	n := 0
	for _, l := range a.Lines {
		if l.Type == TableLine {
			n++
		}
	}
	return n
}

// buildTableAreas groups consecutive table/unknown lines into table areas.
// Text lines end an area.
func buildTableAreas(taggedLines []TaggedLine) []TableArea {
	var areas []TableArea
	var current []TaggedLine

	flush := func() {
		if len(current) == 0 {
			return
		}
		box := current[0].Line.Box
		for _, l := range current[1:] {
			box = mergeRects(box, l.Line.Box)
		}
		areas = append(areas, TableArea{Lines: current, Box: box})
		current = nil
	}

	for _, tl := range taggedLines {
		if tl.Type == TextLine {
			flush()
			continue
		}
		current = append(current, tl)
	}
	flush()

	return areas
}

// DetectTextRegions finds table-shaped regions from whitespace gaps
// between words: runs of lines that split into several aligned segments.
// Areas need at least two multi-segment lines. Boxes are padded by pad.
func DetectTextRegions(words []EnrichedWord, pageWidth, pad float64) []Rect {
	if len(words) == 0 {
		return nil
	}

	lines := groupWordsIntoLines(words, 0)
	thresholds := calculateAdaptiveThresholds(lines)
	tagged := buildTaggedLines(lines, thresholds.HorizontalThreshold, pageWidth)

	var regions []Rect
	for _, area := range buildTableAreas(tagged) {
		if area.TableLineCount() < 2 {
			continue
		}
		regions = append(regions, expandRect(area.Box, pad))
	}
	return regions
}
