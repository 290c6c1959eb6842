package pdfstatement

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTableExtractor returns canned vector tables per page.
type fakeTableExtractor struct {
	tables map[int][]Table
	errs   map[int]error
	calls  []int
}

func (f *fakeTableExtractor) ExtractTables(_ PageSource, pageNo int) ([]Table, error) {
	f.calls = append(f.calls, pageNo)
	if err := f.errs[pageNo]; err != nil {
		return nil, err
	}
	return f.tables[pageNo], nil
}

// fakeImageExtractor fails the first failures[page] calls for a page and
// then succeeds.
type fakeImageExtractor struct {
	failures map[int]int
	err      error
	result   ImageExtraction
	calls    map[int]int
}

func (f *fakeImageExtractor) Extract(_ PageSource, pageNo int) (ImageExtraction, error) {
	if f.calls == nil {
		f.calls = make(map[int]int)
	}
	f.calls[pageNo]++
	if f.calls[pageNo] <= f.failures[pageNo] {
		err := f.err
		if err == nil {
			err = errors.New("render failed")
		}
		return ImageExtraction{}, err
	}
	return f.result, nil
}

// textPage has enough vector text to classify as a text page.
func textPage() fakePage {
	return fakePage{
		width: 612, height: 792,
		text: "ACCOUNT STATEMENT for the period ending October 31\n" +
			"10/02 POS PURCHASE 4.23 697.73\n" +
			"10/03 PREAUTHORIZED CREDIT 65.73 763.01",
	}
}

func scannedPage() fakePage {
	return fakePage{width: 612, height: 792, text: "  \n "}
}

func newTestRouter(cfg Config, ocr *fakeOCR, vector TableExtractor, image ImageExtractor) *ExtractionRouter {
	return NewExtractionRouter(cfg, fakeProvider{engine: ocr}, discardLogger(),
		WithTableExtractor(vector), WithImageExtractor(image))
}

var vectorTable = Table{{"Date", "Amount"}, {"10/02", "4.23"}}

func TestRouter_Classify(t *testing.T) {
	src := &fakeSource{pages: []fakePage{
		textPage(),
		scannedPage(),
		{width: 612, height: 792, text: "Page 2 of 7"},
		{width: 612, height: 792, textErr: errors.New("broken text layer")},
		{width: 612, height: 792, text: strings.Repeat("— ", 40)},
	}}

	router := newTestRouter(DefaultConfig(), &fakeOCR{}, &fakeTableExtractor{}, &fakeImageExtractor{})
	types, err := router.Classify(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, []PageType{PageText, PageScanned, PageScanned, PageScanned, PageScanned}, types)
}

func TestPageClassifier_OutOfRange(t *testing.T) {
	classifier := NewPageClassifier(DefaultConfig(), discardLogger())
	src := &fakeSource{pages: []fakePage{textPage()}}

	assert.Equal(t, PageText, classifier.Classify(src, 1))
	assert.Equal(t, PageScanned, classifier.Classify(src, 0))
	assert.Equal(t, PageScanned, classifier.Classify(src, 2))
	assert.True(t, classifier.IsScanned(nil, 1))
}

func TestRouter_VectorTables(t *testing.T) {
	src := &fakeSource{pages: []fakePage{textPage()}}
	vector := &fakeTableExtractor{tables: map[int][]Table{1: {vectorTable}}}
	image := &fakeImageExtractor{}

	router := newTestRouter(DefaultConfig(), &fakeOCR{}, vector, image)
	results, err := router.Route(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, results, 1)

	page := results[0]
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, PageText, page.PageType)
	assert.Equal(t, MethodVectorTable, page.ExtractionMethod)
	assert.Equal(t, []Table{vectorTable}, page.Tables)
	assert.Equal(t, textPage().text, page.FullText)
	assert.Zero(t, page.RetryCount)
	assert.NoError(t, page.Err)
	assert.InDelta(t, 0.3, page.Confidence.TableLikelihood, 1e-9)
	assert.Empty(t, image.calls)

	assert.Equal(t, StatsSnapshot{TotalPages: 1, VectorPages: 1}, router.Stats())
}

func TestRouter_FallbackToImage(t *testing.T) {
	src := &fakeSource{pages: []fakePage{textPage(), textPage()}}
	vector := &fakeTableExtractor{errs: map[int]error{2: errors.New("corrupt path data")}}
	image := &fakeImageExtractor{result: ImageExtraction{Tables: []Table{vectorTable}, Method: MethodImageTableOCR}}

	router := newTestRouter(DefaultConfig(), &fakeOCR{}, vector, image)
	results, err := router.Route(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, page := range results {
		assert.Equal(t, PageText, page.PageType, "fallback keeps the page type")
		assert.Equal(t, MethodImageTableOCR, page.ExtractionMethod)
		assert.Equal(t, 1, page.RetryCount)
		assert.Equal(t, textPage().text, page.FullText)
	}
	assert.Equal(t, map[int]int{1: 1, 2: 1}, image.calls)

	stats := router.Stats()
	assert.Equal(t, int64(2), stats.ImageOCRPages)
	assert.Equal(t, int64(2), stats.RetryAttempts)
}

func TestRouter_FallbackDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableFallback = false

	src := &fakeSource{pages: []fakePage{textPage()}}
	image := &fakeImageExtractor{}

	router := newTestRouter(cfg, &fakeOCR{}, &fakeTableExtractor{}, image)
	results, err := router.Route(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, MethodVectorTable, results[0].ExtractionMethod)
	assert.Empty(t, results[0].Tables)
	assert.Zero(t, results[0].RetryCount)
	assert.Empty(t, image.calls)
}

func TestRouter_ScannedPageRetries(t *testing.T) {
	src := &fakeSource{pages: []fakePage{scannedPage()}}
	image := &fakeImageExtractor{
		failures: map[int]int{1: 1},
		result:   ImageExtraction{Tables: []Table{vectorTable}, Method: MethodImageTableLines},
	}
	ocr := &fakeOCR{text: "10/02 POS PURCHASE 4.23 697.73"}

	router := newTestRouter(DefaultConfig(), ocr, &fakeTableExtractor{}, image)
	results, err := router.Route(context.Background(), src)
	require.NoError(t, err)

	page := results[0]
	assert.Equal(t, PageScanned, page.PageType)
	assert.Equal(t, MethodImageTableLines, page.ExtractionMethod)
	assert.Equal(t, 1, page.RetryCount)
	assert.Equal(t, ocr.text, page.FullText, "scanned pages take their text from OCR")
	assert.Equal(t, 1, ocr.textCalls)
	assert.Equal(t, len(src.renders), src.released)
}

func TestRouter_PageFailsAfterMaxRetries(t *testing.T) {
	src := &fakeSource{pages: []fakePage{scannedPage(), textPage()}}
	vector := &fakeTableExtractor{tables: map[int][]Table{2: {vectorTable}}}
	image := &fakeImageExtractor{failures: map[int]int{1: 10}}

	router := newTestRouter(DefaultConfig(), &fakeOCR{}, vector, image)
	results, err := router.Route(context.Background(), src)
	require.NoError(t, err, "page failures do not stop the run")
	require.Len(t, results, 2)

	failed := results[0]
	assert.Equal(t, PageFailed, failed.PageType)
	assert.Equal(t, MethodFailed, failed.ExtractionMethod)
	assert.NotNil(t, failed.Tables)
	assert.Empty(t, failed.Tables)
	assert.Equal(t, 2, failed.RetryCount)
	assert.Zero(t, failed.Confidence.Overall)
	assert.Equal(t, 3, image.calls[1], "one attempt plus MaxRetries")

	var pageErr *PageError
	require.ErrorAs(t, failed.Err, &pageErr)
	assert.Equal(t, 1, pageErr.Page)

	assert.Equal(t, MethodVectorTable, results[1].ExtractionMethod)

	stats := router.Stats()
	assert.Equal(t, int64(1), stats.FailedPages)
	assert.Equal(t, int64(1), stats.VectorPages)
	assert.Equal(t, int64(2), stats.RetryAttempts)
}

func TestRouter_TextPageFallbackSharesRetryBudget(t *testing.T) {
	src := &fakeSource{pages: []fakePage{textPage()}}
	image := &fakeImageExtractor{failures: map[int]int{1: 10}}

	router := newTestRouter(DefaultConfig(), &fakeOCR{}, &fakeTableExtractor{}, image)
	results, err := router.Route(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, MethodFailed, results[0].ExtractionMethod)
	assert.Equal(t, 2, results[0].RetryCount)
	assert.Equal(t, 2, image.calls[1])
}

func TestRouter_EngineErrorStopsRun(t *testing.T) {
	src := &fakeSource{pages: []fakePage{textPage(), scannedPage(), textPage()}}
	vector := &fakeTableExtractor{tables: map[int][]Table{1: {vectorTable}, 3: {vectorTable}}}
	image := &fakeImageExtractor{
		failures: map[int]int{2: 1},
		err:      &EngineError{Engine: "ocr", Err: errors.New("failed to load tessdata")},
	}

	router := newTestRouter(DefaultConfig(), &fakeOCR{}, vector, image)
	results, err := router.Route(context.Background(), src)

	var engineErr *EngineError
	require.ErrorAs(t, err, &engineErr)
	require.Len(t, results, 1, "pages before the failure are returned")
	assert.Equal(t, 1, image.calls[2], "engine errors are not retried")
	assert.Equal(t, []int{1}, vector.calls)
}

func TestRouter_ContextCancelled(t *testing.T) {
	src := &fakeSource{pages: []fakePage{textPage(), textPage()}}
	vector := &fakeTableExtractor{tables: map[int][]Table{1: {vectorTable}, 2: {vectorTable}}}

	router := newTestRouter(DefaultConfig(), &fakeOCR{}, vector, &fakeImageExtractor{})

	types, err := router.Classify(context.Background(), src)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := router.Extract(ctx, src, types)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.Empty(t, vector.calls)
}

func TestRouter_ScannedTextWithoutOCR(t *testing.T) {
	src := &fakeSource{pages: []fakePage{scannedPage()}}
	image := &fakeImageExtractor{result: ImageExtraction{Method: MethodImageTableOCR}}

	router := NewExtractionRouter(DefaultConfig(), fakeProvider{err: ErrOCRNotEnabled}, discardLogger(),
		WithTableExtractor(&fakeTableExtractor{}), WithImageExtractor(image))
	results, err := router.Route(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, MethodImageTableOCR, results[0].ExtractionMethod)
	assert.Empty(t, results[0].FullText)
}

func TestRouter_WithoutOCREngine(t *testing.T) {
	src := &fakeSource{pages: []fakePage{textPage(), scannedPage()}}
	engines := fakeProvider{err: &EngineError{Engine: "ocr", Err: ErrOCRNotEnabled}}

	router := NewExtractionRouter(DefaultConfig(), engines, discardLogger(),
		WithTableExtractor(&fakeTableExtractor{}))
	results, err := router.Route(context.Background(), src)
	require.NoError(t, err, "a missing engine is not fatal")
	require.Len(t, results, 2)

	text := results[0]
	assert.Equal(t, PageText, text.PageType)
	assert.Equal(t, MethodVectorTable, text.ExtractionMethod)
	assert.Empty(t, text.Tables)
	assert.Equal(t, textPage().text, text.FullText)
	assert.Equal(t, 1, text.RetryCount)
	assert.NoError(t, text.Err)

	scanned := results[1]
	assert.Equal(t, PageFailed, scanned.PageType)
	assert.Equal(t, MethodFailed, scanned.ExtractionMethod)
	assert.Zero(t, scanned.RetryCount, "a missing engine is not retried")
	var pageErr *PageError
	require.ErrorAs(t, scanned.Err, &pageErr)
	assert.ErrorIs(t, scanned.Err, ErrOCRNotEnabled)

	assert.Empty(t, src.renders, "nothing is rendered without an engine")
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	src := &fakeSource{pages: []fakePage{textPage(), scannedPage()}}
	vector := &fakeTableExtractor{tables: map[int][]Table{1: {vectorTable}}}
	image := &fakeImageExtractor{failures: map[int]int{2: 10}}

	router := NewExtractionRouter(DefaultConfig(), fakeProvider{engine: &fakeOCR{}}, discardLogger(),
		WithTableExtractor(vector), WithImageExtractor(image), WithMetrics(metrics))
	_, err = router.Route(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.pages.WithLabelValues("vector_table")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.pages.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.retries))
}
