package pdfstatement

import (
	"image"
	"strings"

	"github.com/pkg/errors"
)

// ErrOCRNotEnabled is returned when the package was built without the
// "ocr" build tag and no OCR engine was supplied.
var ErrOCRNotEnabled = errors.New("OCR support not enabled: build with -tags ocr or supply an OCREngine")

// OCREngine recognizes text in page images. Implementations must be safe
// for use by one pipeline at a time; the Tesseract engine serializes calls.
type OCREngine interface {
	// RecognizeText returns the plain text of the image.
	RecognizeText(img image.Image) (string, error)

	// RecognizeTokens returns word tokens with pixel boxes relative to the
	// image bounds and confidences in [0,100].
	RecognizeTokens(img image.Image) ([]PositionedToken, error)

	Close() error
}

// filterTokens drops blank tokens and tokens below minConfidence.
func filterTokens(tokens []PositionedToken, minConfidence float64) []PositionedToken {
	kept := tokens[:0:0]
	for _, tok := range tokens {
		if tok.Confidence < minConfidence {
			continue
		}
		text := strings.TrimSpace(tok.Text)
		if text == "" {
			continue
		}
		tok.Text = text
		kept = append(kept, tok)
	}
	return kept
}

// tokensToWords converts OCR tokens to words for cell filling.
func tokensToWords(tokens []PositionedToken) []EnrichedWord {
	words := make([]EnrichedWord, 0, len(tokens))
	for _, tok := range tokens {
		words = append(words, EnrichedWord{Text: tok.Text, Box: tok.Box})
	}
	return words
}
