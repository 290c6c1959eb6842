package pdfstatement

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RunStats counts router outcomes. It is safe for concurrent use.
type RunStats struct {
	totalPages     atomic.Int64
	vectorPages    atomic.Int64
	imageLinePages atomic.Int64
	imageOCRPages  atomic.Int64
	failedPages    atomic.Int64
	retryAttempts  atomic.Int64
}

// StatsSnapshot is a point-in-time copy of RunStats.
type StatsSnapshot struct {
	TotalPages     int64 `json:"total_pages"`
	VectorPages    int64 `json:"vector_pages"`
	ImageLinePages int64 `json:"image_line_pages"`
	ImageOCRPages  int64 `json:"image_ocr_pages"`
	FailedPages    int64 `json:"failed_pages"`
	RetryAttempts  int64 `json:"retry_attempts"`
}

// Snapshot copies the current counters.
func (s *RunStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		TotalPages:     s.totalPages.Load(),
		VectorPages:    s.vectorPages.Load(),
		ImageLinePages: s.imageLinePages.Load(),
		ImageOCRPages:  s.imageOCRPages.Load(),
		FailedPages:    s.failedPages.Load(),
		RetryAttempts:  s.retryAttempts.Load(),
	}
}

func (s *RunStats) recordPage(method ExtractionMethod) {
	s.totalPages.Add(1)
	switch method {
	case MethodVectorTable:
		s.vectorPages.Add(1)
	case MethodImageTableLines:
		s.imageLinePages.Add(1)
	case MethodImageTableOCR:
		s.imageOCRPages.Add(1)
	case MethodFailed:
		s.failedPages.Add(1)
	}
}

func (s *RunStats) recordRetry() {
	s.retryAttempts.Add(1)
}

// Metrics exports run counters to Prometheus. A nil *Metrics records
// nothing.
type Metrics struct {
	pages        *prometheus.CounterVec
	retries      prometheus.Counter
	transactions prometheus.Counter
	pageDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfstatement",
			Name:      "pages_total",
			Help:      "Pages processed, by extraction method.",
		}, []string{"method"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdfstatement",
			Name:      "retry_attempts_total",
			Help:      "Image extraction retries.",
		}),
		transactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdfstatement",
			Name:      "transactions_total",
			Help:      "Transactions parsed.",
		}),
		pageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pdfstatement",
			Name:      "page_duration_seconds",
			Help:      "Time spent extracting a page.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"page_type"}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.pages, m.retries, m.transactions, m.pageDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observePage(result PageResult) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(string(result.ExtractionMethod)).Inc()
	m.pageDuration.WithLabelValues(string(result.PageType)).Observe(result.Duration.Seconds())
}

func (m *Metrics) observeRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func (m *Metrics) observeTransactions(n int) {
	if m == nil {
		return
	}
	m.transactions.Add(float64(n))
}

// logRunSummary logs per-page timings and the run totals.
func logRunSummary(logger *slog.Logger, runID string, total time.Duration, pages []PageResult, stats StatsSnapshot, transactions int) {
	for _, page := range pages {
		logger.Info("page processed",
			slog.String("run_id", runID),
			slog.Int("page", page.Page),
			slog.String("page_type", string(page.PageType)),
			slog.String("method", string(page.ExtractionMethod)),
			slog.Int("tables", len(page.Tables)),
			slog.Duration("duration", page.Duration.Round(time.Millisecond)),
		)
	}

	var avg time.Duration
	if len(pages) > 0 {
		avg = total / time.Duration(len(pages))
	}

	logger.Info("run summary",
		slog.String("run_id", runID),
		slog.Duration("total", total.Round(time.Millisecond)),
		slog.Duration("avg_per_page", avg.Round(time.Millisecond)),
		slog.Int64("pages", stats.TotalPages),
		slog.Int64("vector_pages", stats.VectorPages),
		slog.Int64("image_line_pages", stats.ImageLinePages),
		slog.Int64("image_ocr_pages", stats.ImageOCRPages),
		slog.Int64("failed_pages", stats.FailedPages),
		slog.Int64("retries", stats.RetryAttempts),
		slog.Int("transactions", transactions),
	)
}
