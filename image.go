package pdfstatement

import (
	"image"
	"log/slog"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// OCRProvider hands out the process-wide OCR engine.
type OCRProvider interface {
	OCR() (OCREngine, error)
}

// ImageExtractor extracts tables from a rasterized page.
type ImageExtractor interface {
	Extract(src PageSource, pageNo int) (ImageExtraction, error)
}

// ImageExtraction is the result of image-based extraction.
type ImageExtraction struct {
	Tables []Table
	Method ExtractionMethod
}

// regionPadding is added around detected regions, in points.
const regionPadding = 2.0

// maxCropUpscale caps how far a crop is enlarged before OCR.
const maxCropUpscale = 2.0

// ImageTableExtractor finds tables on a rendered page: first from ruled
// lines visible in the image, then by OCR of table regions found in the
// page geometry.
type ImageTableExtractor struct {
	cfg           Config
	engines       OCRProvider
	reconstructor TableReconstructor
	logger        *slog.Logger
}

// NewImageTableExtractor creates an image extractor.
func NewImageTableExtractor(cfg Config, engines OCRProvider, logger *slog.Logger) *ImageTableExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageTableExtractor{
		cfg:           cfg,
		engines:       engines,
		reconstructor: NewTableReconstructor(cfg.RowTolerance),
		logger:        logger,
	}
}

// Extract renders the page and runs both strategies. Finding nothing is
// not an error.
func (e *ImageTableExtractor) Extract(src PageSource, pageNo int) (ImageExtraction, error) {
	engine, err := e.engines.OCR()
	if err != nil {
		var engineErr *EngineError
		if errors.As(err, &engineErr) {
			return ImageExtraction{}, err
		}
		return ImageExtraction{}, &EngineError{Engine: "ocr", Err: err}
	}

	page, err := renderBounded(src, pageNo, e.cfg.OCRDPI, e.cfg.Raster)
	if err != nil {
		return ImageExtraction{}, err
	}
	defer page.Release()

	if page.Rerender {
		e.logger.Info("page re-rendered at reduced zoom",
			slog.Int("page", pageNo), slog.Float64("zoom", page.Zoom))
	}

	tables, err := e.fromImageRules(page, engine)
	if err != nil {
		return ImageExtraction{}, errors.Wrap(err, "ruled-line detection failed")
	}
	if len(tables) > 0 {
		return ImageExtraction{Tables: tables, Method: MethodImageTableLines}, nil
	}

	regions := e.regions(src, pageNo)
	tables, err = e.fromRegions(page, regions, engine)
	if err != nil {
		return ImageExtraction{}, errors.Wrap(err, "region OCR failed")
	}
	return ImageExtraction{Tables: tables, Method: MethodImageTableOCR}, nil
}

// fromImageRules runs lattice detection on ink rules in the image. The
// page is only OCR'd when the rules form at least one cell group.
func (e *ImageTableExtractor) fromImageRules(page *RenderedPage, engine OCREngine) ([]Table, error) {
	minLength := int(math.Max(20, 15*page.Zoom))
	rules := detectImageRules(page.Image, minLength)
	if len(rules) == 0 {
		return nil, nil
	}

	settings := e.cfg.TableSettings.Scaled(page.Zoom)
	groups := DetectCells(rules, settings)
	if len(groups) == 0 {
		return nil, nil
	}

	tokens, err := engine.RecognizeTokens(page.Image)
	if err != nil {
		return nil, err
	}
	words := tokensToWords(filterTokens(tokens, e.cfg.MinTokenConfidence))

	var tables []Table
	for _, cells := range groups {
		if table := createGrid(cells, words).Table(); !table.IsEmpty() {
			tables = append(tables, table)
		}
	}
	return tables, nil
}

// regions detects candidate table boxes, in points, from the page's rules
// and from whitespace gaps in its text layer. Read failures yield fewer
// regions rather than an error.
func (e *ImageTableExtractor) regions(src PageSource, pageNo int) []Rect {
	var regions []Rect

	if edges, err := src.Edges(pageNo); err != nil {
		e.logger.Debug("no page rules for region detection", slog.Int("page", pageNo), slog.Any("error", err))
	} else {
		for _, cells := range DetectCells(edges, e.cfg.TableSettings) {
			regions = append(regions, expandRect(cellsBounds(cells).Rect(), regionPadding))
		}
	}

	width, _, err := src.PageSize(pageNo)
	if err != nil {
		return dedupeRegions(regions)
	}
	if words, err := src.Words(pageNo); err != nil {
		e.logger.Debug("no page words for region detection", slog.Int("page", pageNo), slog.Any("error", err))
	} else {
		regions = append(regions, DetectTextRegions(words, width, regionPadding)...)
	}

	return dedupeRegions(regions)
}

// fromRegions crops each region, OCRs it and reconstructs a table from the
// confident tokens. Token boxes are mapped back to page pixels so the row
// tolerance applies at page scale.
func (e *ImageTableExtractor) fromRegions(page *RenderedPage, regions []Rect, engine OCREngine) ([]Table, error) {
	var tables []Table

	targetZoom := float64(e.cfg.OCRDPI) / pointsPerInch
	upscale := math.Min(math.Max(targetZoom/page.Zoom, 1), maxCropUpscale)

	for _, region := range regions {
		crop, origin := cropRegion(page.Image, region, page.Zoom)
		if crop == nil {
			continue
		}

		input := crop
		if upscale > 1 {
			input = scaleImage(crop, upscale)
		}

		tokens, err := engine.RecognizeTokens(input)
		if err != nil {
			return nil, err
		}

		tokens = filterTokens(tokens, e.cfg.MinTokenConfidence)
		for i := range tokens {
			tokens[i].Box = Rect{
				X0: tokens[i].Box.X0/upscale + float64(origin.X),
				Y0: tokens[i].Box.Y0/upscale + float64(origin.Y),
				X1: tokens[i].Box.X1/upscale + float64(origin.X),
				Y1: tokens[i].Box.Y1/upscale + float64(origin.Y),
			}
		}

		if table := e.reconstructor.Reconstruct(tokens); !table.IsEmpty() {
			tables = append(tables, table)
		}
	}

	return tables, nil
}

// cropRegion returns the part of img covered by region (in points) and the
// crop's top-left pixel relative to the image origin. Regions outside the
// image yield nil.
func cropRegion(img image.Image, region Rect, zoom float64) (image.Image, image.Point) {
	b := img.Bounds()
	px := image.Rect(
		b.Min.X+int(math.Floor(region.X0*zoom)),
		b.Min.Y+int(math.Floor(region.Y0*zoom)),
		b.Min.X+int(math.Ceil(region.X1*zoom)),
		b.Min.Y+int(math.Ceil(region.Y1*zoom)),
	).Intersect(b)
	if px.Empty() {
		return nil, image.Point{}
	}

	origin := px.Min.Sub(b.Min)
	if sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(px), origin
	}

	dst := image.NewRGBA(image.Rect(0, 0, px.Dx(), px.Dy()))
	draw.Copy(dst, image.Point{}, img, px, draw.Src, nil)
	return dst, origin
}

// scaleImage enlarges img by factor with Catmull-Rom resampling.
func scaleImage(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(b.Dx())*factor), int(float64(b.Dy())*factor)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// dedupeRegions drops regions that mostly overlap an earlier one.
func dedupeRegions(regions []Rect) []Rect {
	var unique []Rect
	for _, r := range regions {
		duplicate := false
		for _, u := range unique {
			if overlapRatio(r, u) > 0.7 {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, r)
		}
	}
	return unique
}

// overlapRatio is the intersection area relative to the smaller box.
func overlapRatio(a, b Rect) float64 {
	inter := Rect{
		X0: math.Max(a.X0, b.X0),
		Y0: math.Max(a.Y0, b.Y0),
		X1: math.Min(a.X1, b.X1),
		Y1: math.Min(a.Y1, b.Y1),
	}
	smaller := math.Min(a.Area(), b.Area())
	if smaller == 0 {
		return 0
	}
	return inter.Area() / smaller
}
