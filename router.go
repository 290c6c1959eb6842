package pdfstatement

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

// ExtractionRouter classifies pages and sends each one through vector or
// image extraction, with fallback and bounded retries.
type ExtractionRouter struct {
	cfg        Config
	classifier *PageClassifier
	vector     TableExtractor
	image      ImageExtractor
	engines    OCRProvider
	stats      *RunStats
	metrics    *Metrics
	logger     *slog.Logger
}

// RouterOption configures an ExtractionRouter.
type RouterOption func(*ExtractionRouter)

// WithTableExtractor replaces the vector table extractor.
func WithTableExtractor(extractor TableExtractor) RouterOption {
	return func(r *ExtractionRouter) { r.vector = extractor }
}

// WithImageExtractor replaces the image table extractor.
func WithImageExtractor(extractor ImageExtractor) RouterOption {
	return func(r *ExtractionRouter) { r.image = extractor }
}

// WithMetrics records page outcomes in m.
func WithMetrics(m *Metrics) RouterOption {
	return func(r *ExtractionRouter) { r.metrics = m }
}

// NewExtractionRouter creates a router. engines supplies OCR for image
// extraction and full-page text of scanned pages.
func NewExtractionRouter(cfg Config, engines OCRProvider, logger *slog.Logger, opts ...RouterOption) *ExtractionRouter {
	if logger == nil {
		logger = slog.Default()
	}
	r := &ExtractionRouter{
		cfg:        cfg,
		classifier: NewPageClassifier(cfg, logger),
		engines:    engines,
		stats:      &RunStats{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.vector == nil {
		r.vector = NewVectorTableExtractor(cfg)
	}
	if r.image == nil {
		r.image = NewImageTableExtractor(cfg, engines, logger)
	}
	return r
}

// Stats returns the router's counters.
func (r *ExtractionRouter) Stats() StatsSnapshot {
	return r.stats.Snapshot()
}

// Classify classifies every page of src. It stops between pages when ctx
// is done and returns the types gathered so far.
func (r *ExtractionRouter) Classify(ctx context.Context, src PageSource) ([]PageType, error) {
	types := make([]PageType, 0, src.PageCount())
	for pageNo := 1; pageNo <= src.PageCount(); pageNo++ {
		if err := ctx.Err(); err != nil {
			return types, err
		}
		types = append(types, r.classifier.Classify(src, pageNo))
	}
	return types, nil
}

// Extract produces one PageResult per classified page, in page order. Page
// failures are recorded in the results, as is a missing OCR engine; only a
// configured engine that fails and context cancellation stop the run,
// returning the results gathered so far.
func (r *ExtractionRouter) Extract(ctx context.Context, src PageSource, types []PageType) ([]PageResult, error) {
	results := make([]PageResult, 0, len(types))
	for i, pageType := range types {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := r.extractPage(src, i+1, pageType)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Route classifies and extracts every page.
func (r *ExtractionRouter) Route(ctx context.Context, src PageSource) ([]PageResult, error) {
	types, err := r.Classify(ctx, src)
	if err != nil {
		return nil, err
	}
	return r.Extract(ctx, src, types)
}

func (r *ExtractionRouter) extractPage(src PageSource, pageNo int, pageType PageType) (PageResult, error) {
	start := time.Now()
	result := PageResult{Page: pageNo, PageType: pageType}

	retries := 0
	if pageType == PageText {
		tables, err := r.vector.ExtractTables(src, pageNo)
		switch {
		case err == nil && (len(tables) > 0 || !r.cfg.EnableFallback):
			result.ExtractionMethod = MethodVectorTable
			result.Tables = tables
		case err != nil:
			r.logger.Warn("vector extraction failed, falling back to image",
				slog.Int("page", pageNo), slog.Any("error", err))
		default:
			r.logger.Debug("no vector tables, falling back to image", slog.Int("page", pageNo))
		}

		if result.ExtractionMethod == "" {
			retries++
			r.recordRetry()
		}
	}

	if result.ExtractionMethod == "" {
		extraction, attempts, err := r.extractImage(src, pageNo, retries)
		retries = attempts
		switch {
		case err == nil:
			result.ExtractionMethod = extraction.Method
			result.Tables = extraction.Tables
		case errors.Is(err, ErrOCRNotEnabled) && pageType == PageText:
			// The vector layer still carries the page text.
			r.logger.Warn("no OCR engine for image fallback, keeping vector text",
				slog.Int("page", pageNo))
			result.ExtractionMethod = MethodVectorTable
			result.Tables = []Table{}
		case errors.Is(err, ErrOCRNotEnabled):
			return r.failPage(pageNo, retries, start, err), nil
		default:
			var engineErr *EngineError
			if errors.As(err, &engineErr) {
				return PageResult{}, err
			}
			return r.failPage(pageNo, retries, start, err), nil
		}
	}

	result.RetryCount = retries
	result.FullText = r.fullText(src, pageNo, pageType)

	width, height, err := src.PageSize(pageNo)
	if err != nil {
		width, height = 0, 0
	}
	result.Confidence = ScoreConfidence(result.FullText, len(result.Tables), width, height)
	result.Duration = time.Since(start)

	r.stats.recordPage(result.ExtractionMethod)
	r.metrics.observePage(result)
	return result, nil
}

// extractImage runs the image extractor until it succeeds or retries
// reaches MaxRetries. It returns the number of retries performed.
func (r *ExtractionRouter) extractImage(src PageSource, pageNo, retries int) (ImageExtraction, int, error) {
	for {
		extraction, err := r.image.Extract(src, pageNo)
		if err == nil {
			return extraction, retries, nil
		}

		var engineErr *EngineError
		if errors.As(err, &engineErr) || errors.Is(err, ErrOCRNotEnabled) || retries >= r.cfg.MaxRetries {
			return ImageExtraction{}, retries, err
		}

		retries++
		r.recordRetry()
		r.logger.Warn("image extraction failed, retrying",
			slog.Int("page", pageNo), slog.Int("retry", retries), slog.Any("error", err))
	}
}

func (r *ExtractionRouter) failPage(pageNo, retries int, start time.Time, err error) PageResult {
	r.logger.Warn("page extraction failed",
		slog.Int("page", pageNo), slog.Int("retries", retries), slog.Any("error", err))

	result := PageResult{
		Page:             pageNo,
		PageType:         PageFailed,
		ExtractionMethod: MethodFailed,
		Tables:           []Table{},
		RetryCount:       retries,
		Err:              &PageError{Page: pageNo, Stage: "extract", Err: err},
		Duration:         time.Since(start),
	}
	r.stats.recordPage(MethodFailed)
	r.metrics.observePage(result)
	return result
}

func (r *ExtractionRouter) recordRetry() {
	r.stats.recordRetry()
	r.metrics.observeRetry()
}

// fullText returns the vector text of text pages and OCR text of scanned
// pages. Failures yield an empty string.
func (r *ExtractionRouter) fullText(src PageSource, pageNo int, pageType PageType) string {
	if pageType == PageText {
		text, err := src.Text(pageNo)
		if err != nil {
			r.logger.Warn("failed to read page text", slog.Int("page", pageNo), slog.Any("error", err))
			return ""
		}
		return text
	}

	engine, err := r.engines.OCR()
	if err != nil {
		r.logger.Warn("no OCR engine for page text", slog.Int("page", pageNo), slog.Any("error", err))
		return ""
	}

	page, err := renderBounded(src, pageNo, r.cfg.OCRDPI, r.cfg.Raster)
	if err != nil {
		r.logger.Warn("failed to render page for OCR", slog.Int("page", pageNo), slog.Any("error", err))
		return ""
	}
	defer page.Release()

	text, err := engine.RecognizeText(page.Image)
	if err != nil {
		r.logger.Warn("page OCR failed", slog.Int("page", pageNo), slog.Any("error", err))
		return ""
	}
	return text
}
