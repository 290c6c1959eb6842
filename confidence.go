package pdfstatement

import (
	"strings"
	"unicode/utf8"
)

const (
	// densityScale is the chars-per-square-point ratio treated as fully dense.
	densityScale = 0.01
	// adequateWordCount is the word count treated as fully adequate.
	adequateWordCount = 100
	// tableWeight is the likelihood contributed by each table found.
	tableWeight = 0.3
)

// ScoreConfidence blends text density, word adequacy and table likelihood
// for a page of the given size in points.
func ScoreConfidence(text string, tables int, width, height float64) Confidence {
	chars := utf8.RuneCountInString(text)
	words := len(strings.Fields(text))

	var density float64
	if area := width * height; area > 0 {
		density = clamp(float64(chars)/area/densityScale, 0, 1)
	}
	adequacy := clamp(float64(words)/adequateWordCount, 0, 1)
	likelihood := clamp(float64(tables)*tableWeight, 0, 1)

	return Confidence{
		TextDensity:     density,
		WordCount:       words,
		TableLikelihood: likelihood,
		Overall:         clamp(0.3*density+0.3*adequacy+0.4*likelihood, 0, 1),
	}
}
