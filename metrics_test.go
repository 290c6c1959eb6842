package pdfstatement

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStats(t *testing.T) {
	var stats RunStats
	stats.recordPage(MethodVectorTable)
	stats.recordPage(MethodVectorTable)
	stats.recordPage(MethodImageTableLines)
	stats.recordPage(MethodImageTableOCR)
	stats.recordPage(MethodFailed)
	stats.recordRetry()
	stats.recordRetry()

	assert.Equal(t, StatsSnapshot{
		TotalPages:     5,
		VectorPages:    2,
		ImageLinePages: 1,
		ImageOCRPages:  1,
		FailedPages:    1,
		RetryAttempts:  2,
	}, stats.Snapshot())
}

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.observePage(PageResult{PageType: PageText, ExtractionMethod: MethodVectorTable, Duration: 20 * time.Millisecond})
	m.observePage(PageResult{PageType: PageScanned, ExtractionMethod: MethodImageTableOCR, Duration: time.Second})
	m.observePage(PageResult{PageType: PageText, ExtractionMethod: MethodVectorTable})
	m.observeRetry()
	m.observeTransactions(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pages.WithLabelValues("vector_table")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pages.WithLabelValues("image_table_ocr")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retries))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.transactions))
	assert.Equal(t, 2, testutil.CollectAndCount(m.pageDuration))

	count, err := testutil.GatherAndCount(reg, "pdfstatement_pages_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observePage(PageResult{})
		m.observeRetry()
		m.observeTransactions(3)
	})

	unregistered, err := NewMetrics(nil)
	require.NoError(t, err)
	unregistered.observeRetry()
	assert.Equal(t, 1.0, testutil.ToFloat64(unregistered.retries))
}

func TestLogRunSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	pages := []PageResult{
		{Page: 1, PageType: PageText, ExtractionMethod: MethodVectorTable, Tables: []Table{{{"a"}}}},
		{Page: 2, PageType: PageScanned, ExtractionMethod: MethodImageTableOCR},
	}
	logRunSummary(logger, "run-1", 2*time.Second, pages, StatsSnapshot{TotalPages: 2, VectorPages: 1, ImageOCRPages: 1}, 5)

	out := buf.String()
	assert.Contains(t, out, "page processed")
	assert.Contains(t, out, "run summary")
	assert.Contains(t, out, "avg_per_page=1s")
	assert.Contains(t, out, "transactions=5")
	assert.Contains(t, out, "run_id=run-1")
}
