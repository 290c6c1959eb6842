package pdfstatement

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/klippa-app/go-pdfium"
)

// PageClassifier decides whether a page carries usable vector text.
type PageClassifier struct {
	minChars int
	minWords int
	logger   *slog.Logger
}

// NewPageClassifier creates a classifier using the text thresholds in cfg.
func NewPageClassifier(cfg Config, logger *slog.Logger) *PageClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageClassifier{
		minChars: cfg.MinTextChars,
		minWords: cfg.MinTextWords,
		logger:   logger,
	}
}

// Classify returns PageText when the page's vector text passes the content
// test and PageScanned otherwise. It never fails: any error while reading
// the page classifies it as scanned.
func (c *PageClassifier) Classify(src PageSource, pageNo int) PageType {
	if c.IsText(src, pageNo) {
		return PageText
	}
	return PageScanned
}

// IsText reports whether the page is a text page.
func (c *PageClassifier) IsText(src PageSource, pageNo int) bool {
	if src == nil || pageNo < 1 || pageNo > src.PageCount() {
		c.logger.Warn("page out of range, treating as scanned", slog.Int("page", pageNo))
		return false
	}

	text, err := src.Text(pageNo)
	if err != nil {
		c.logger.Warn("failed to read vector text, treating as scanned",
			slog.Int("page", pageNo), slog.Any("error", err))
		return false
	}

	return c.hasContent(text)
}

// IsScanned is the negation of IsText.
func (c *PageClassifier) IsScanned(src PageSource, pageNo int) bool {
	return !c.IsText(src, pageNo)
}

// ClassifyFile opens path, classifies one page and closes the document.
// A missing or unreadable file is classified as scanned.
func (c *PageClassifier) ClassifyFile(instance pdfium.Pdfium, path string, pageNo int) PageType {
	doc, err := OpenDocument(instance, path)
	if err != nil {
		c.logger.Warn("failed to open document, treating as scanned",
			slog.String("path", path), slog.Int("page", pageNo), slog.Any("error", err))
		return PageScanned
	}
	defer doc.Close()

	return c.Classify(doc, pageNo)
}

func (c *PageClassifier) hasContent(text string) bool {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) <= c.minChars {
		return false
	}
	if len(strings.Fields(trimmed)) <= c.minWords {
		return false
	}
	return strings.ContainsFunc(trimmed, func(r rune) bool {
		return !isNoiseRune(r) && (unicode.IsLetter(r) || unicode.IsDigit(r))
	})
}
