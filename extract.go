package pdfstatement

import (
	"math"
	"sort"
	"strings"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/pkg/errors"
)

// extractPageWords loads the text layer of a page and groups its glyphs
// into words.
func extractPageWords(instance pdfium.Pdfium, page references.FPDF_PAGE, pageHeight float64) ([]EnrichedWord, error) {
	textPage, err := instance.FPDFText_LoadPage(&requests.FPDFText_LoadPage{
		Page: requests.Page{
			ByReference: &page,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load text page")
	}
	defer instance.FPDFText_ClosePage(&requests.FPDFText_ClosePage{
		TextPage: textPage.TextPage,
	})

	charCount, err := instance.FPDFText_CountChars(&requests.FPDFText_CountChars{
		TextPage: textPage.TextPage,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to count characters")
	}
	if charCount.Count == 0 {
		return nil, nil
	}

	chars := extractChars(instance, textPage.TextPage, charCount.Count, pageHeight)
	words := groupCharsIntoWords(chars)
	return expandLigatures(words), nil
}

// extractChars extracts every glyph with its bounding box. Glyphs pdfium
// cannot describe are skipped.
func extractChars(instance pdfium.Pdfium, textPage references.FPDF_TEXTPAGE, count int, pageHeight float64) []EnrichedChar {
	chars := make([]EnrichedChar, 0, count)

	for i := range count {
		unicodeRes, err := instance.FPDFText_GetUnicode(&requests.FPDFText_GetUnicode{
			TextPage: textPage,
			Index:    i,
		})
		if err != nil || unicodeRes.Unicode == 0 {
			continue
		}

		charBox, err := instance.FPDFText_GetCharBox(&requests.FPDFText_GetCharBox{
			TextPage: textPage,
			Index:    i,
		})
		if err != nil {
			continue
		}

		// Convert PDF coordinates (origin bottom-left) to standard (origin top-left)
		chars = append(chars, EnrichedChar{
			Text: rune(unicodeRes.Unicode),
			Box: Rect{
				X0: charBox.Left,
				Y0: pageHeight - charBox.Top,
				X1: charBox.Right,
				Y1: pageHeight - charBox.Bottom,
			},
		})
	}

	return chars
}

func isWhitespaceRune(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == 0xA0
}

// groupCharsIntoWords splits glyphs on whitespace and on large horizontal
// jumps, which happen when a content stream places columns without spaces.
func groupCharsIntoWords(chars []EnrichedChar) []EnrichedWord {
	if len(chars) == 0 {
		return nil
	}

	var words []EnrichedWord
	var current []rune
	var wordBox Rect
	var prev EnrichedChar

	flush := func() {
		if len(current) > 0 {
			words = append(words, EnrichedWord{Text: string(current), Box: wordBox})
			current = nil
		}
	}

	for _, char := range chars {
		if isWhitespaceRune(char.Text) {
			flush()
			continue
		}

		if len(current) > 0 && startsNewWord(prev, char) {
			flush()
		}

		if len(current) == 0 {
			wordBox = char.Box
		} else {
			wordBox = mergeRects(wordBox, char.Box)
		}
		current = append(current, char.Text)
		prev = char
	}
	flush()

	return words
}

// startsNewWord detects a word boundary between adjacent glyphs that have
// no whitespace glyph between them.
func startsNewWord(prev, curr EnrichedChar) bool {
	height := math.Max(prev.Box.Height(), curr.Box.Height())
	if height <= 0 {
		height = 1
	}
	// Moved to another line
	if math.Abs(curr.Box.CenterY()-prev.Box.CenterY()) > height*0.6 {
		return true
	}
	// Horizontal gap wider than a typical space, or a jump backwards
	gap := curr.Box.X0 - prev.Box.X1
	return gap > height*0.6 || gap < -height
}

// ligatureMap maps ligature unicode codepoints to their expanded forms
var ligatureMap = map[rune]string{
	0xFB00: "ff",
	0xFB01: "fi",
	0xFB02: "fl",
	0xFB03: "ffi",
	0xFB04: "ffl",
	0xFB05: "ft",
	0xFB06: "st",
}

// expandLigatures expands ligature characters into their component letters
func expandLigatures(words []EnrichedWord) []EnrichedWord {
	for i := range words {
		if !strings.ContainsFunc(words[i].Text, func(r rune) bool {
			_, ok := ligatureMap[r]
			return ok
		}) {
			continue
		}

		var b strings.Builder
		for _, r := range words[i].Text {
			if expansion, ok := ligatureMap[r]; ok {
				b.WriteString(expansion)
			} else {
				b.WriteRune(r)
			}
		}
		words[i].Text = b.String()
	}
	return words
}

// groupWordsIntoLines groups words whose vertical centers fall within
// tolerance of the line's first word, in reading order. A non-positive
// tolerance adapts to the median word height.
func groupWordsIntoLines(words []EnrichedWord, tolerance float64) []Line {
	if len(words) == 0 {
		return nil
	}

	if tolerance <= 0 {
		heights := make([]float64, 0, len(words))
		for _, w := range words {
			heights = append(heights, w.Box.Height())
		}
		tolerance = calculateMedian(heights) * 0.5
		if tolerance <= 0 {
			tolerance = 3.0 // Same line threshold in points
		}
	}

	sorted := make([]EnrichedWord, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Box.CenterY() < sorted[j].Box.CenterY()
	})

	var lines []Line
	var current Line
	var reference float64

	for i, word := range sorted {
		if i == 0 {
			current = Line{Words: []EnrichedWord{word}, Box: word.Box}
			reference = word.Box.CenterY()
			continue
		}

		if math.Abs(word.Box.CenterY()-reference) <= tolerance {
			current.Words = append(current.Words, word)
			current.Box = mergeRects(current.Box, word.Box)
			continue
		}

		lines = append(lines, current)
		current = Line{Words: []EnrichedWord{word}, Box: word.Box}
		reference = word.Box.CenterY()
	}
	lines = append(lines, current)

	for i := range lines {
		sort.SliceStable(lines[i].Words, func(a, b int) bool {
			return lines[i].Words[a].Box.X0 < lines[i].Words[b].Box.X0
		})
	}

	return lines
}

// linesToText renders lines as newline-separated text.
func linesToText(lines []Line) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line.Text())
	}
	return b.String()
}
