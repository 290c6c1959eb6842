//go:build ocr

package pdfstatement

import (
	"bytes"
	"image"
	"image/png"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/pkg/errors"
)

// TesseractEngine runs OCR through a single gosseract client.
type TesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseractEngine creates a Tesseract client for the given languages.
func NewTesseractEngine(languages ...string) (*TesseractEngine, error) {
	client := gosseract.NewClient()
	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			client.Close()
			return nil, errors.Wrap(err, "failed to set OCR language")
		}
	}
	return &TesseractEngine{client: client}, nil
}

func newDefaultOCREngine(cfg Config) (OCREngine, error) {
	engine, err := NewTesseractEngine(cfg.OCRLanguages...)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

// Close releases the Tesseract client.
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}

func (e *TesseractEngine) setImage(img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return errors.Wrap(err, "failed to encode image")
	}
	return errors.Wrap(e.client.SetImageFromBytes(buf.Bytes()), "failed to set image")
}

// RecognizeText returns the plain text of the image.
func (e *TesseractEngine) RecognizeText(img image.Image) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.setImage(img); err != nil {
		return "", err
	}
	text, err := e.client.Text()
	return text, errors.Wrap(err, "failed to recognize text")
}

// RecognizeTokens returns word boxes with confidences.
func (e *TesseractEngine) RecognizeTokens(img image.Image) ([]PositionedToken, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.setImage(img); err != nil {
		return nil, err
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, errors.Wrap(err, "failed to recognize words")
	}

	tokens := make([]PositionedToken, 0, len(boxes))
	for _, box := range boxes {
		tokens = append(tokens, PositionedToken{
			Text: box.Word,
			Box: Rect{
				X0: float64(box.Box.Min.X),
				Y0: float64(box.Box.Min.Y),
				X1: float64(box.Box.Max.X),
				Y1: float64(box.Box.Max.Y),
			},
			Confidence: box.Confidence,
		})
	}
	return tokens, nil
}
