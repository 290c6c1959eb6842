package pdfstatement

import (
	"image"
	"image/draw"
	"io"
	"log/slog"

	"github.com/pkg/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePage is one page of a fakeSource. Sizes are in points.
type fakePage struct {
	width, height float64
	text          string
	words         []EnrichedWord
	edges         []Edge
	textErr       error

	// paint draws the rendered page; nil renders a blank white page.
	paint func(w, h int) image.Image
}

// fakeSource is an in-memory PageSource.
type fakeSource struct {
	pages []fakePage

	renders  []float64
	released int
}

func (s *fakeSource) page(pageNo int) (*fakePage, error) {
	if pageNo < 1 || pageNo > len(s.pages) {
		return nil, errors.Wrapf(ErrPageOutOfRange, "page %d of %d", pageNo, len(s.pages))
	}
	return &s.pages[pageNo-1], nil
}

func (s *fakeSource) PageCount() int { return len(s.pages) }

func (s *fakeSource) PageSize(pageNo int) (float64, float64, error) {
	p, err := s.page(pageNo)
	if err != nil {
		return 0, 0, err
	}
	return p.width, p.height, nil
}

func (s *fakeSource) Words(pageNo int) ([]EnrichedWord, error) {
	p, err := s.page(pageNo)
	if err != nil {
		return nil, err
	}
	return p.words, nil
}

func (s *fakeSource) Text(pageNo int) (string, error) {
	p, err := s.page(pageNo)
	if err != nil {
		return "", err
	}
	if p.textErr != nil {
		return "", p.textErr
	}
	return p.text, nil
}

func (s *fakeSource) Edges(pageNo int) ([]Edge, error) {
	p, err := s.page(pageNo)
	if err != nil {
		return nil, err
	}
	return p.edges, nil
}

func (s *fakeSource) Render(pageNo int, zoom float64) (image.Image, func(), error) {
	p, err := s.page(pageNo)
	if err != nil {
		return nil, func() {}, err
	}
	s.renders = append(s.renders, zoom)

	w, h := scaledSize(p.width, p.height, zoom)
	var img image.Image
	if p.paint != nil {
		img = p.paint(w, h)
	} else {
		img = blankImage(w, h)
	}
	return img, func() { s.released++ }, nil
}

func (s *fakeSource) Close() error { return nil }

func blankImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

// fakeOCR returns canned tokens and text.
type fakeOCR struct {
	tokens []PositionedToken
	text   string
	err    error

	tokenCalls int
	textCalls  int
	lastBounds image.Rectangle
}

func (o *fakeOCR) RecognizeText(img image.Image) (string, error) {
	o.textCalls++
	o.lastBounds = img.Bounds()
	return o.text, o.err
}

func (o *fakeOCR) RecognizeTokens(img image.Image) ([]PositionedToken, error) {
	o.tokenCalls++
	o.lastBounds = img.Bounds()
	if o.err != nil {
		return nil, o.err
	}
	return append([]PositionedToken(nil), o.tokens...), nil
}

func (o *fakeOCR) Close() error { return nil }

// fakeProvider hands out a fixed engine or error.
type fakeProvider struct {
	engine OCREngine
	err    error
}

func (p fakeProvider) OCR() (OCREngine, error) {
	return p.engine, p.err
}

func token(text string, x0, y0, x1, y1 float64) PositionedToken {
	return PositionedToken{Text: text, Box: Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}, Confidence: 95}
}
