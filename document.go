package pdfstatement

import (
	"image"
	"os"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/pkg/errors"
)

// PageSource gives page-scoped access to a PDF. Page numbers are 1-indexed.
// Coordinates are PDF points with a top-left origin.
type PageSource interface {
	PageCount() int
	PageSize(pageNo int) (width, height float64, err error)
	Words(pageNo int) ([]EnrichedWord, error)
	Text(pageNo int) (string, error)
	Edges(pageNo int) ([]Edge, error)

	// Render rasterizes a page at zoom pixels per point. The release
	// function must be called once the image is no longer used.
	Render(pageNo int, zoom float64) (image.Image, func(), error)

	Close() error
}

// Document is a PDF opened through pdfium.
type Document struct {
	instance  pdfium.Pdfium
	doc       references.FPDF_DOCUMENT
	path      string
	pageCount int
}

// OpenDocument opens the PDF at path. Failures are *DocumentError.
func OpenDocument(instance pdfium.Pdfium, path string) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &DocumentError{Path: path, Err: errors.Wrap(err, "failed to stat PDF")}
	}

	doc, err := instance.OpenDocument(&requests.OpenDocument{
		FilePath: &path,
	})
	if err != nil {
		return nil, &DocumentError{Path: path, Err: errors.Wrap(err, "failed to open PDF document")}
	}

	pageCount, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
		return nil, &DocumentError{Path: path, Err: errors.Wrap(err, "failed to get page count")}
	}

	return &Document{
		instance:  instance,
		doc:       doc.Document,
		path:      path,
		pageCount: pageCount.PageCount,
	}, nil
}

// Path returns the file the document was opened from.
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.pageCount }

// Close releases the pdfium document.
func (d *Document) Close() error {
	_, err := d.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: d.doc,
	})
	return errors.Wrap(err, "failed to close PDF document")
}

// withPage loads a page, runs fn and closes the page again.
func (d *Document) withPage(pageNo int, fn func(page references.FPDF_PAGE, width, height float64) error) error {
	if pageNo < 1 || pageNo > d.pageCount {
		return errors.Wrapf(ErrPageOutOfRange, "page %d of %d", pageNo, d.pageCount)
	}

	pageResp, err := d.instance.FPDF_LoadPage(&requests.FPDF_LoadPage{
		Document: d.doc,
		Index:    pageNo - 1,
	})
	if err != nil {
		return errors.Wrap(err, "failed to load page")
	}
	defer d.instance.FPDF_ClosePage(&requests.FPDF_ClosePage{
		Page: pageResp.Page,
	})

	width, height, err := pageDimensions(d.instance, pageResp.Page)
	if err != nil {
		return err
	}

	return fn(pageResp.Page, width, height)
}

func pageDimensions(instance pdfium.Pdfium, page references.FPDF_PAGE) (float64, float64, error) {
	pageWidth, err := instance.FPDF_GetPageWidthF(&requests.FPDF_GetPageWidthF{
		Page: requests.Page{
			ByReference: &page,
		},
	})
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get page width")
	}

	pageHeight, err := instance.FPDF_GetPageHeightF(&requests.FPDF_GetPageHeightF{
		Page: requests.Page{
			ByReference: &page,
		},
	})
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get page height")
	}

	return float64(pageWidth.PageWidth), float64(pageHeight.PageHeight), nil
}

// PageSize returns the page width and height in points.
func (d *Document) PageSize(pageNo int) (float64, float64, error) {
	var w, h float64
	err := d.withPage(pageNo, func(_ references.FPDF_PAGE, width, height float64) error {
		w, h = width, height
		return nil
	})
	return w, h, err
}

// Words returns the page's vector text as positioned words.
func (d *Document) Words(pageNo int) ([]EnrichedWord, error) {
	var words []EnrichedWord
	err := d.withPage(pageNo, func(page references.FPDF_PAGE, _, height float64) error {
		var err error
		words, err = extractPageWords(d.instance, page, height)
		return err
	})
	return words, err
}

// Text returns the page's vector text laid out line by line.
func (d *Document) Text(pageNo int) (string, error) {
	words, err := d.Words(pageNo)
	if err != nil {
		return "", err
	}
	return linesToText(groupWordsIntoLines(words, 0)), nil
}

// Edges returns the ruled lines drawn on the page.
func (d *Document) Edges(pageNo int) ([]Edge, error) {
	var edges []Edge
	err := d.withPage(pageNo, func(page references.FPDF_PAGE, width, height float64) error {
		var err error
		edges, err = extractLinesFromPage(d.instance, page, width, height)
		return errors.Wrap(err, "failed to extract lines")
	})
	return edges, err
}

// Render rasterizes the page at zoom pixels per point.
func (d *Document) Render(pageNo int, zoom float64) (image.Image, func(), error) {
	var img image.Image
	release := func() {}

	err := d.withPage(pageNo, func(page references.FPDF_PAGE, width, height float64) error {
		w, h := scaledSize(width, height, zoom)
		if w <= 0 || h <= 0 {
			return errors.Errorf("invalid render size %dx%d", w, h)
		}

		resp, err := d.instance.RenderPageInPixels(&requests.RenderPageInPixels{
			Page: requests.Page{
				ByReference: &page,
			},
			Width:  w,
			Height: h,
		})
		if err != nil {
			return errors.Wrap(err, "failed to render page")
		}

		img = resp.Result.Image
		release = resp.Cleanup
		return nil
	})
	if err != nil {
		return nil, func() {}, err
	}

	return img, release, nil
}
