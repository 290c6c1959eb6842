package pdfstatement

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

const (
	// allowedStyles is the number of date or amount styles tolerated
	// before the consistency score drops.
	allowedStyles = 2
	stylePenalty  = 0.2

	// duplicateSimilarity is the payee similarity at which two
	// transactions with the same date and amount are flagged.
	duplicateSimilarity = 0.8
)

// Warning codes used in ValidationReport.Warnings.
const (
	WarnNoTransactions     = "no_transactions"
	WarnInconsistentDates  = "inconsistent_dates"
	WarnInconsistentAmount = "inconsistent_amounts"
	WarnFailedPages        = "failed_pages"
	WarnLowConfidence      = "low_confidence"
	WarnPossibleDuplicate  = "possible_duplicate"
)

// ValidationReport is advisory run-level quality metadata.
type ValidationReport struct {
	Passed      bool     `json:"passed"`
	Score       float64  `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`

	DateStyles   []string `json:"date_styles"`
	AmountStyles []string `json:"amount_styles"`

	FailedPages        []int            `json:"failed_pages"`
	LowConfidencePages []int            `json:"low_confidence_pages"`
	Warnings           []QualityWarning `json:"warnings"`
	NeedsReview        bool             `json:"needs_review"`
}

// QualityValidator scores the format consistency of a transaction set and
// flags pages for review.
type QualityValidator struct {
	threshold     float64
	lowConfidence float64
	logger        *slog.Logger
}

// NewQualityValidator creates a validator with cfg's thresholds.
func NewQualityValidator(cfg Config, logger *slog.Logger) *QualityValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &QualityValidator{
		threshold:     cfg.QualityThreshold,
		lowConfidence: cfg.LowConfidenceThreshold,
		logger:        logger,
	}
}

// Validate builds the report. It never fails.
func (v *QualityValidator) Validate(txns []Transaction, pages []PageResult) ValidationReport {
	report := ValidationReport{}
	v.reviewPages(&report, pages)

	if len(txns) == 0 {
		report.Issues = append(report.Issues, "No transactions extracted")
		report.Suggestions = append(report.Suggestions, "Try different OCR settings or manual review")
		report.Warnings = append(report.Warnings, QualityWarning{Code: WarnNoTransactions, Message: "No transactions extracted"})
		report.NeedsReview = true
		return report
	}

	dateStyles := make(map[string]bool)
	amountStyles := make(map[string]bool)
	for _, txn := range txns {
		for _, s := range dateStylesOf(txn.RawDate) {
			dateStyles[s] = true
		}
		for _, s := range amountStylesOf(txn.RawAmount) {
			amountStyles[s] = true
		}
	}
	report.DateStyles = sortedKeys(dateStyles)
	report.AmountStyles = sortedKeys(amountStyles)

	score := 1.0
	if extra := len(dateStyles) - allowedStyles; extra > 0 {
		score -= stylePenalty * float64(extra)
		report.Issues = append(report.Issues, "Inconsistent date formats detected")
		report.Warnings = append(report.Warnings, QualityWarning{
			Code:    WarnInconsistentDates,
			Message: "date styles: " + strings.Join(report.DateStyles, ", "),
		})
	}
	if extra := len(amountStyles) - allowedStyles; extra > 0 {
		score -= stylePenalty * float64(extra)
		report.Issues = append(report.Issues, "Inconsistent amount formats detected")
		report.Warnings = append(report.Warnings, QualityWarning{
			Code:    WarnInconsistentAmount,
			Message: "amount styles: " + strings.Join(report.AmountStyles, ", "),
		})
	}

	report.Score = clamp(score, 0, 1)
	report.Passed = report.Score >= v.threshold
	if !report.Passed {
		report.Suggestions = append(report.Suggestions,
			"Consider manual review of extracted data",
			"Try different extraction methods")
	}

	report.Warnings = append(report.Warnings, findDuplicates(txns)...)
	report.NeedsReview = !report.Passed || len(report.FailedPages) > 0 || len(report.LowConfidencePages) > 0

	if !report.Passed {
		v.logger.Warn("quality check failed",
			slog.Float64("score", report.Score), slog.Any("issues", report.Issues))
	}
	return report
}

func (v *QualityValidator) reviewPages(report *ValidationReport, pages []PageResult) {
	for _, page := range pages {
		switch {
		case page.ExtractionMethod == MethodFailed:
			report.FailedPages = append(report.FailedPages, page.Page)
		case page.Confidence.Overall < v.lowConfidence:
			report.LowConfidencePages = append(report.LowConfidencePages, page.Page)
		}
	}

	if len(report.FailedPages) > 0 {
		report.Warnings = append(report.Warnings, QualityWarning{
			Code:    WarnFailedPages,
			Message: fmt.Sprintf("extraction failed on pages %v", report.FailedPages),
		})
	}
	if len(report.LowConfidencePages) > 0 {
		report.Warnings = append(report.Warnings, QualityWarning{
			Code:    WarnLowConfidence,
			Message: fmt.Sprintf("low extraction confidence on pages %v", report.LowConfidencePages),
		})
	}
}

// dateStylesOf classifies a raw date string.
func dateStylesOf(raw string) []string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return nil
	case strings.Contains(raw, "/"):
		return []string{"slash"}
	case strings.Contains(raw, "-"):
		return []string{"dash"}
	case strings.Contains(raw, "."):
		return []string{"dot"}
	case strings.Contains(raw, " "):
		return []string{"month_name"}
	case compactDatePattern.MatchString(raw):
		return []string{"compact"}
	}
	return nil
}

// amountStylesOf classifies a raw amount string; one amount can carry a
// symbol and thousands separators at once.
func amountStylesOf(raw string) []string {
	var styles []string
	if strings.Contains(raw, "$") {
		styles = append(styles, "dollar")
	}
	if strings.Contains(raw, "£") {
		styles = append(styles, "pound")
	}
	if strings.Contains(raw, "€") {
		styles = append(styles, "euro")
	}
	if strings.Contains(raw, ",") {
		styles = append(styles, "thousands")
	}
	if len(styles) == 0 && strings.TrimSpace(raw) != "" {
		styles = append(styles, "plain")
	}
	return styles
}

// findDuplicates flags transactions sharing a date and amount whose payees
// are near-identical.
func findDuplicates(txns []Transaction) []QualityWarning {
	groups := make(map[string][]int)
	var keys []string
	for i, txn := range txns {
		key := txn.Date.Format("2006-01-02") + "|" + txn.Amount.String()
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], i)
	}

	var warnings []QualityWarning
	for _, key := range keys {
		idx := groups[key]
		for a := 0; a < len(idx); a++ {
			for b := a + 1; b < len(idx); b++ {
				ta, tb := txns[idx[a]], txns[idx[b]]
				if payeeSimilarity(ta.Payee, tb.Payee) < duplicateSimilarity {
					continue
				}
				warnings = append(warnings, QualityWarning{
					Code: WarnPossibleDuplicate,
					Message: fmt.Sprintf("possible duplicate on %s for %s: %q (page %d) and %q (page %d)",
						ta.Date.Format("2006-01-02"), ta.Amount.StringFixed(2), ta.Payee, ta.Page, tb.Payee, tb.Page),
				})
			}
		}
	}
	return warnings
}

func payeeSimilarity(a, b string) float64 {
	a, b = strings.ToUpper(a), strings.ToUpper(b)
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
