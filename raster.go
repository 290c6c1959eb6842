package pdfstatement

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// pointsPerInch converts DPI to a zoom factor.
const pointsPerInch = 72.0

// sampleChannels is the number of samples per pixel counted against
// RasterLimits.MaxSamples.
const sampleChannels = 3

func scaledSize(width, height, zoom float64) (int, int) {
	return int(math.Round(width * zoom)), int(math.Round(height * zoom))
}

// planZoom picks the zoom for rendering a width x height point page at
// dpi, reduced so the result fits MaxWidth and MaxHeight.
func planZoom(width, height float64, dpi int, limits RasterLimits) float64 {
	zoom := float64(dpi) / pointsPerInch
	if width*zoom > float64(limits.MaxWidth) {
		zoom = float64(limits.MaxWidth) / width
	}
	if height*zoom > float64(limits.MaxHeight) {
		zoom = float64(limits.MaxHeight) / height
	}
	return zoom
}

// safeZoom is the largest zoom whose sample count stays within
// MaxSamples, never above the current zoom.
func safeZoom(width, height, current float64, limits RasterLimits) float64 {
	zoom := math.Sqrt(float64(limits.MaxSamples) / (width * height * sampleChannels))
	// Rounding the pixel size up can still cross the ceiling
	zoom *= 0.999
	return math.Min(zoom, current)
}

func exceedsSamples(img image.Image, limits RasterLimits) bool {
	b := img.Bounds()
	return b.Dx()*b.Dy()*sampleChannels > limits.MaxSamples
}

// RenderedPage is a rasterized page and the zoom used to produce it.
type RenderedPage struct {
	Image    image.Image
	Zoom     float64
	Rerender bool
	release  func()
}

// Release frees the page image.
func (r *RenderedPage) Release() {
	if r.release != nil {
		r.release()
		r.release = nil
	}
}

// renderBounded rasterizes a page at dpi within limits. If the first image
// still exceeds the sample ceiling it is released and the page rendered
// again at a reduced zoom.
func renderBounded(src PageSource, pageNo, dpi int, limits RasterLimits) (*RenderedPage, error) {
	width, height, err := src.PageSize(pageNo)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get page size")
	}
	if width <= 0 || height <= 0 || math.IsNaN(width) || math.IsNaN(height) {
		return nil, errors.Errorf("invalid page geometry %.1fx%.1f", width, height)
	}

	zoom := planZoom(width, height, dpi, limits)
	img, release, err := src.Render(pageNo, zoom)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render page")
	}

	rendered := &RenderedPage{Image: img, Zoom: zoom, release: release}
	if !exceedsSamples(img, limits) {
		return rendered, nil
	}

	rendered.Release()

	zoom = safeZoom(width, height, zoom, limits)
	img, release, err = src.Render(pageNo, zoom)
	if err != nil {
		return nil, errors.Wrap(err, "failed to re-render page at reduced zoom")
	}
	rendered = &RenderedPage{Image: img, Zoom: zoom, Rerender: true, release: release}

	if exceedsSamples(img, limits) {
		b := img.Bounds()
		rendered.Release()
		return nil, errors.Errorf("page still exceeds sample ceiling at zoom %.3f (%dx%d)", zoom, b.Dx(), b.Dy())
	}
	return rendered, nil
}
