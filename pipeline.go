package pdfstatement

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Milestone is a coarse progress checkpoint; its value is the percentage
// complete.
type Milestone int

const (
	MilestoneStarted    Milestone = 10
	MilestoneClassified Milestone = 25
	MilestoneExtracted  Milestone = 40
	MilestoneParsed     Milestone = 70
	MilestoneCompleted  Milestone = 100
)

func (m Milestone) String() string {
	switch m {
	case MilestoneStarted:
		return "started"
	case MilestoneClassified:
		return "classified"
	case MilestoneExtracted:
		return "extracted"
	case MilestoneParsed:
		return "parsed"
	case MilestoneCompleted:
		return "completed"
	}
	return "unknown"
}

// ProgressFunc receives milestones in order. It may be nil.
type ProgressFunc func(Milestone)

// Result is everything a run produced. On a partial run it holds the
// pages extracted before the run stopped.
type Result struct {
	RunID        string           `json:"run_id"`
	Path         string           `json:"path"`
	Preflight    Preflight        `json:"-"`
	Pages        []PageResult     `json:"pages"`
	Transactions []Transaction    `json:"transactions"`
	ParseErrors  []*ParseError    `json:"-"`
	Report       ValidationReport `json:"report"`
	Stats        StatsSnapshot    `json:"stats"`
	Duration     time.Duration    `json:"duration"`
}

// Pipeline runs classification, extraction, parsing and validation over
// one statement at a time.
type Pipeline struct {
	registry   *EngineRegistry
	cfg        Config
	logger     *slog.Logger
	metrics    *Metrics
	routerOpts []RouterOption
	parserOpts []ParserOption
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineMetrics records run metrics in m.
func WithPipelineMetrics(m *Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithRouterOptions passes options to each run's ExtractionRouter.
func WithRouterOptions(opts ...RouterOption) PipelineOption {
	return func(p *Pipeline) { p.routerOpts = append(p.routerOpts, opts...) }
}

// WithParserOptions passes options to each run's TransactionParser.
func WithParserOptions(opts ...ParserOption) PipelineOption {
	return func(p *Pipeline) { p.parserOpts = append(p.parserOpts, opts...) }
}

// NewPipeline creates a pipeline sharing the engines in registry.
func NewPipeline(registry *EngineRegistry, cfg Config, logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		registry: registry,
		cfg:      cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes the PDF at path. A missing or unopenable document returns
// a *DocumentError and engine failures an *EngineError. When ctx is
// cancelled between pages the partial result is returned with ctx's error.
func (p *Pipeline) Run(ctx context.Context, path string, progress ProgressFunc) (*Result, error) {
	preflight, err := PreflightDocument(path)
	if err != nil {
		return nil, err
	}
	if preflight.Err != nil {
		p.logger.Warn("preflight failed, continuing with pdfium",
			slog.String("path", path), slog.Any("error", preflight.Err))
	} else {
		p.logger.Debug("preflight",
			slog.String("path", path),
			slog.Int("pages", preflight.PageCount),
			slog.Bool("encrypted", preflight.Encrypted))
	}

	instance, err := p.registry.Pdfium()
	if err != nil {
		return nil, err
	}

	doc, err := OpenDocument(instance, path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	result, err := p.RunSource(ctx, doc, progress)
	if result != nil {
		result.Path = path
		result.Preflight = preflight
	}
	return result, err
}

// RunSource processes an already opened document.
func (p *Pipeline) RunSource(ctx context.Context, src PageSource, progress ProgressFunc) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.NewString()}
	logger := p.logger.With(slog.String("run_id", result.RunID))

	notify := func(m Milestone) {
		logger.Debug("milestone", slog.String("milestone", m.String()), slog.Int("progress", int(m)))
		if progress != nil {
			progress(m)
		}
	}
	notify(MilestoneStarted)

	opts := append([]RouterOption{WithMetrics(p.metrics)}, p.routerOpts...)
	router := NewExtractionRouter(p.cfg, p.registry, logger, opts...)

	types, err := router.Classify(ctx, src)
	if err != nil {
		result.Stats = router.Stats()
		return result, err
	}
	notify(MilestoneClassified)

	pages, err := router.Extract(ctx, src, types)
	result.Pages = pages
	result.Stats = router.Stats()
	if err != nil {
		result.Duration = time.Since(start)
		return result, err
	}
	notify(MilestoneExtracted)

	parsed := NewTransactionParser(p.cfg, logger, p.parserOpts...).Parse(pages)
	result.Transactions = parsed.Transactions
	result.ParseErrors = parsed.Errors
	p.metrics.observeTransactions(len(parsed.Transactions))
	for _, perr := range parsed.Errors {
		logger.Debug("dropped unit", slog.Any("error", perr))
	}
	notify(MilestoneParsed)

	result.Report = NewQualityValidator(p.cfg, logger).Validate(result.Transactions, pages)
	result.Duration = time.Since(start)

	if p.cfg.EnableMetricsLogging {
		logRunSummary(logger, result.RunID, result.Duration, pages, result.Stats, len(result.Transactions))
	}
	notify(MilestoneCompleted)

	return result, nil
}
