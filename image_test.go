package pdfstatement

import (
	"image"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pointScaleConfig renders at one pixel per point.
func pointScaleConfig() Config {
	cfg := DefaultConfig()
	cfg.OCRDPI = 72
	return cfg
}

func TestImageTableExtractor_RuledImage(t *testing.T) {
	src := &fakeSource{pages: []fakePage{{
		width: 200, height: 200,
		paint: func(w, h int) image.Image { return ruledImage(w, []int{20, 100, 180}) },
	}}}
	engine := &fakeOCR{tokens: []PositionedToken{
		token("Date", 30, 40, 60, 55),
		token("Amount", 110, 40, 160, 55),
		token("01/02", 30, 120, 60, 135),
		token("4.50", 110, 120, 140, 135),
		{Text: "smudge", Box: Rect{X0: 30, Y0: 60, X1: 60, Y1: 70}, Confidence: 12},
	}}

	extractor := NewImageTableExtractor(pointScaleConfig(), fakeProvider{engine: engine}, discardLogger())
	got, err := extractor.Extract(src, 1)
	require.NoError(t, err)

	assert.Equal(t, MethodImageTableLines, got.Method)
	require.Len(t, got.Tables, 1)
	assert.Equal(t, Table{
		{"Date", "Amount"},
		{"01/02", "4.50"},
	}, got.Tables[0])
	assert.Equal(t, 1, engine.tokenCalls, "whole page is recognized once")
	assert.Equal(t, len(src.renders), src.released, "every render is released")
}

func TestImageTableExtractor_RegionOCR(t *testing.T) {
	src := &fakeSource{pages: []fakePage{{
		width: 200, height: 200,
		edges: gridRules([]float64{20, 100, 180}, []float64{20, 60, 100}),
	}}}
	engine := &fakeOCR{tokens: []PositionedToken{
		token("01/02", 5, 5, 35, 15),
		token("Coffee", 60, 5, 100, 15),
		token("02/02", 5, 30, 35, 40),
		token("Tea", 60, 30, 80, 40),
	}}

	extractor := NewImageTableExtractor(pointScaleConfig(), fakeProvider{engine: engine}, discardLogger())
	got, err := extractor.Extract(src, 1)
	require.NoError(t, err)

	assert.Equal(t, MethodImageTableOCR, got.Method)
	require.Len(t, got.Tables, 1)
	assert.Equal(t, Table{
		{"01/02", "Coffee"},
		{"02/02", "Tea"},
	}, got.Tables[0])

	// Region is the ruled box padded by two points
	assert.Equal(t, 164, engine.lastBounds.Dx())
	assert.Equal(t, 84, engine.lastBounds.Dy())
}

func TestImageTableExtractor_UpscalesCrops(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OCRDPI = 144
	cfg.Raster.MaxWidth = 200
	cfg.Raster.MaxHeight = 200

	src := &fakeSource{pages: []fakePage{{
		width: 200, height: 200,
		edges: gridRules([]float64{20, 100, 180}, []float64{20, 60, 100}),
	}}}
	// Centers 16px apart in the upscaled crop are 8px apart on the page,
	// inside the row tolerance.
	engine := &fakeOCR{tokens: []PositionedToken{
		token("a", 10, 10, 40, 30),
		token("b", 100, 26, 140, 46),
	}}

	extractor := NewImageTableExtractor(cfg, fakeProvider{engine: engine}, discardLogger())
	got, err := extractor.Extract(src, 1)
	require.NoError(t, err)

	require.Len(t, src.renders, 1)
	assert.InDelta(t, 1.0, src.renders[0], 1e-9)
	assert.Equal(t, 328, engine.lastBounds.Dx())
	assert.Equal(t, 168, engine.lastBounds.Dy())

	require.Len(t, got.Tables, 1)
	assert.Equal(t, Table{{"a", "b"}}, got.Tables[0])
}

func TestImageTableExtractor_NothingFound(t *testing.T) {
	src := &fakeSource{pages: []fakePage{{width: 200, height: 200}}}
	engine := &fakeOCR{}

	extractor := NewImageTableExtractor(pointScaleConfig(), fakeProvider{engine: engine}, discardLogger())
	got, err := extractor.Extract(src, 1)
	require.NoError(t, err)

	assert.Equal(t, MethodImageTableOCR, got.Method)
	assert.Empty(t, got.Tables)
	assert.Zero(t, engine.tokenCalls)
}

func TestImageTableExtractor_OCRFailure(t *testing.T) {
	src := &fakeSource{pages: []fakePage{{
		width: 200, height: 200,
		edges: gridRules([]float64{20, 100, 180}, []float64{20, 60, 100}),
	}}}
	engine := &fakeOCR{err: errors.New("tesseract crashed")}

	extractor := NewImageTableExtractor(pointScaleConfig(), fakeProvider{engine: engine}, discardLogger())
	_, err := extractor.Extract(src, 1)
	require.Error(t, err)

	var engineErr *EngineError
	assert.False(t, errors.As(err, &engineErr), "recognition failures are retryable")
	assert.Equal(t, len(src.renders), src.released)
}

func TestImageTableExtractor_EngineUnavailable(t *testing.T) {
	src := &fakeSource{pages: []fakePage{{width: 200, height: 200}}}

	extractor := NewImageTableExtractor(pointScaleConfig(), fakeProvider{err: ErrOCRNotEnabled}, discardLogger())
	_, err := extractor.Extract(src, 1)

	var engineErr *EngineError
	require.True(t, errors.As(err, &engineErr))
	assert.ErrorIs(t, err, ErrOCRNotEnabled)
	assert.Empty(t, src.renders, "nothing is rendered without an engine")

	wrapped := &EngineError{Engine: "ocr", Err: ErrOCRNotEnabled}
	extractor = NewImageTableExtractor(pointScaleConfig(), fakeProvider{err: wrapped}, discardLogger())
	_, err = extractor.Extract(src, 1)
	assert.Same(t, wrapped, err)
}

func TestImageTableExtractor_InvalidGeometry(t *testing.T) {
	src := &fakeSource{pages: []fakePage{{width: 0, height: 200}}}

	extractor := NewImageTableExtractor(pointScaleConfig(), fakeProvider{engine: &fakeOCR{}}, discardLogger())
	_, err := extractor.Extract(src, 1)
	assert.Error(t, err)
}

// opaqueImage hides SubImage from cropRegion.
type opaqueImage struct {
	image.Image
}

func TestCropRegion(t *testing.T) {
	img := blankImage(100, 100)

	crop, origin := cropRegion(img, Rect{X0: 10, Y0: 20, X1: 30, Y1: 25}, 2)
	require.NotNil(t, crop)
	assert.Equal(t, image.Pt(20, 40), origin)
	assert.Equal(t, 40, crop.Bounds().Dx())
	assert.Equal(t, 10, crop.Bounds().Dy())

	crop, origin = cropRegion(opaqueImage{img}, Rect{X0: 10, Y0: 20, X1: 30, Y1: 25}, 2)
	require.NotNil(t, crop)
	assert.Equal(t, image.Pt(20, 40), origin)
	assert.Equal(t, image.Rect(0, 0, 40, 10), crop.Bounds())

	crop, _ = cropRegion(img, Rect{X0: 200, Y0: 200, X1: 300, Y1: 300}, 1)
	assert.Nil(t, crop)
}

func TestCropRegion_ClipsToImage(t *testing.T) {
	img := blankImage(100, 100)

	crop, origin := cropRegion(img, Rect{X0: -5, Y0: 90, X1: 20, Y1: 120}, 1)
	require.NotNil(t, crop)
	assert.Equal(t, image.Pt(0, 90), origin)
	assert.Equal(t, 20, crop.Bounds().Dx())
	assert.Equal(t, 10, crop.Bounds().Dy())
}

func TestScaleImage(t *testing.T) {
	scaled := scaleImage(blankImage(30, 20), 2)
	assert.Equal(t, image.Rect(0, 0, 60, 40), scaled.Bounds())
}

func TestDedupeRegions(t *testing.T) {
	regions := []Rect{
		{X0: 0, Y0: 0, X1: 100, Y1: 100},
		{X0: 2, Y0: 2, X1: 101, Y1: 99},
		{X0: 200, Y0: 0, X1: 300, Y1: 100},
	}

	assert.Equal(t, []Rect{regions[0], regions[2]}, dedupeRegions(regions))
}
