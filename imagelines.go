package pdfstatement

import (
	"image"
	"image/color"
)

const (
	// darkThreshold is the luminance below which a pixel counts as ink.
	darkThreshold = 128
	// runGapTolerance bridges small breaks in scanned rules.
	runGapTolerance = 2
)

// luminance returns a row-major grayscale copy of img.
func luminance(img image.Image) ([]uint8, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]uint8, w*h)

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < h; y++ {
			row := rgba.Pix[rgba.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < w; x++ {
				p := row[x*4 : x*4+3]
				// ITU-R 601 luma, as color.GrayModel
				out[y*w+x] = uint8((19595*uint32(p[0]) + 38470*uint32(p[1]) + 7471*uint32(p[2]) + 1<<15) >> 16)
			}
		}
		return out, w, h
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			out[y*w+x] = g.Y
		}
	}
	return out, w, h
}

// detectImageRules finds horizontal and vertical ink runs at least
// minLength pixels long. Coordinates are relative to the image bounds.
func detectImageRules(img image.Image, minLength int) []Edge {
	gray, w, h := luminance(img)
	if w == 0 || h == 0 {
		return nil
	}
	if minLength < 1 {
		minLength = 1
	}

	var edges []Edge

	for y := 0; y < h; y++ {
		for _, r := range inkRuns(w, minLength, func(x int) bool { return gray[y*w+x] < darkThreshold }) {
			edges = append(edges, Edge{
				X0:          float64(r[0]),
				X1:          float64(r[1]),
				Top:         float64(y),
				Bottom:      float64(y),
				Width:       float64(r[1] - r[0]),
				Orientation: "h",
			})
		}
	}

	for x := 0; x < w; x++ {
		for _, r := range inkRuns(h, minLength, func(y int) bool { return gray[y*w+x] < darkThreshold }) {
			edges = append(edges, Edge{
				X0:          float64(x),
				X1:          float64(x),
				Top:         float64(r[0]),
				Bottom:      float64(r[1]),
				Height:      float64(r[1] - r[0]),
				Orientation: "v",
			})
		}
	}

	return edges
}

// inkRuns returns [start, end) spans of dark pixels along one axis,
// bridging gaps up to runGapTolerance, that are at least minLength long.
func inkRuns(n, minLength int, dark func(i int) bool) [][2]int {
	var runs [][2]int
	start, last := -1, -1

	for i := 0; i < n; i++ {
		if !dark(i) {
			continue
		}
		if start >= 0 && i-last-1 <= runGapTolerance {
			last = i
			continue
		}
		if start >= 0 && last-start+1 >= minLength {
			runs = append(runs, [2]int{start, last + 1})
		}
		start, last = i, i
	}
	if start >= 0 && last-start+1 >= minLength {
		runs = append(runs, [2]int{start, last + 1})
	}

	return runs
}
