package pdfstatement

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// calculateMedian calculates the median value of a float64 slice
func calculateMedian(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// average calculates the average of a slice of floats.
func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateStdDev calculates the standard deviation of a float64 slice
func calculateStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	mean := average(values)
	var sumSquares float64
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)))
}

// horizontalOverlapRatio returns how much two boxes share a horizontal band,
// relative to the shorter box.
func horizontalOverlapRatio(r1, r2 Rect) float64 {
	overlap := math.Min(r1.Y1, r2.Y1) - math.Max(r1.Y0, r2.Y0)
	if overlap <= 0 {
		return 0
	}
	minHeight := math.Min(r1.Height(), r2.Height())
	if minHeight <= 0 {
		return 0
	}
	return math.Min(overlap/minHeight, 1)
}

// horizontalDistance is the gap between two boxes on the same band, or
// MaxFloat64 when they do not share one.
func horizontalDistance(r1, r2 Rect) float64 {
	if horizontalOverlapRatio(r1, r2) == 0 {
		return math.MaxFloat64
	}
	if r2.X0 >= r1.X1 {
		return r2.X0 - r1.X1
	}
	if r1.X0 >= r2.X1 {
		return r1.X0 - r2.X1
	}
	return 0
}

// mergeRects merges two rectangles into their bounding box
func mergeRects(r1, r2 Rect) Rect {
	return Rect{
		X0: math.Min(r1.X0, r2.X0),
		Y0: math.Min(r1.Y0, r2.Y0),
		X1: math.Max(r1.X1, r2.X1),
		Y1: math.Max(r1.Y1, r2.Y1),
	}
}

// expandRect expands a rectangle by the given amount in all directions
func expandRect(rect Rect, amount float64) Rect {
	return Rect{
		X0: rect.X0 - amount,
		Y0: rect.Y0 - amount,
		X1: rect.X1 + amount,
		Y1: rect.Y1 + amount,
	}
}

// clamp restricts a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// isNoiseRune reports runes that carry no content: whitespace, control
// characters, private use glyphs and the replacement character.
func isNoiseRune(r rune) bool {
	if unicode.IsSpace(r) || unicode.IsControl(r) {
		return true
	}
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	return r == unicode.ReplacementChar || unicode.Is(unicode.Cf, r)
}
