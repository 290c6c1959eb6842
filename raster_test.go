package pdfstatement

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanZoom(t *testing.T) {
	limits := RasterLimits{MaxWidth: 2000, MaxHeight: 2000, MaxSamples: 30_000_000}

	tests := []struct {
		name          string
		width, height float64
		dpi           int
		expected      float64
	}{
		{"fits at target dpi", 200, 200, 300, 300.0 / 72},
		{"clamped by width", 1000, 200, 300, 2.0},
		{"clamped by height", 612, 792, 300, 2000.0 / 792},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, planZoom(tt.width, tt.height, tt.dpi, limits), 1e-9)
		})
	}
}

func TestRenderBounded_WithinLimits(t *testing.T) {
	src := &fakeSource{pages: []fakePage{{width: 612, height: 792}}}
	limits := RasterLimits{MaxWidth: 4000, MaxHeight: 4000, MaxSamples: 30_000_000}

	page, err := renderBounded(src, 1, 150, limits)
	require.NoError(t, err)

	assert.False(t, page.Rerender)
	assert.InDelta(t, 150.0/72, page.Zoom, 1e-9)
	assert.Equal(t, 1275, page.Image.Bounds().Dx())
	assert.Equal(t, 1650, page.Image.Bounds().Dy())

	page.Release()
	page.Release()
	assert.Equal(t, 1, src.released, "release is idempotent")
}

func TestRenderBounded_RerendersOverSampleCeiling(t *testing.T) {
	src := &fakeSource{pages: []fakePage{{width: 612, height: 792}}}
	limits := RasterLimits{MaxWidth: 10000, MaxHeight: 10000, MaxSamples: 3_000_000}

	page, err := renderBounded(src, 1, 300, limits)
	require.NoError(t, err)
	defer page.Release()

	assert.True(t, page.Rerender)
	require.Len(t, src.renders, 2)
	assert.Less(t, src.renders[1], src.renders[0])
	assert.Equal(t, 1, src.released, "first render released before the second")

	b := page.Image.Bounds()
	assert.LessOrEqual(t, b.Dx()*b.Dy()*3, limits.MaxSamples)
	assert.Equal(t, src.renders[1], page.Zoom)
}

func TestRenderBounded_StillTooLarge(t *testing.T) {
	// A renderer that ignores the requested zoom
	src := &fakeSource{pages: []fakePage{{
		width: 612, height: 792,
		paint: func(int, int) image.Image { return blankImage(3000, 3000) },
	}}}
	limits := RasterLimits{MaxWidth: 10000, MaxHeight: 10000, MaxSamples: 3_000_000}

	page, err := renderBounded(src, 1, 300, limits)
	assert.Error(t, err)
	assert.Nil(t, page)
	assert.Equal(t, 2, src.released)
}

func TestRenderBounded_InvalidGeometry(t *testing.T) {
	limits := DefaultConfig().Raster

	for _, p := range []fakePage{{width: 0, height: 792}, {width: 612, height: -1}} {
		src := &fakeSource{pages: []fakePage{p}}
		_, err := renderBounded(src, 1, 300, limits)
		assert.Error(t, err)
		assert.Empty(t, src.renders)
	}

	src := &fakeSource{}
	_, err := renderBounded(src, 1, 300, limits)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
}
