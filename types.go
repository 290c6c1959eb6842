package pdfstatement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rect represents a bounding box with a top-left origin.
type Rect struct {
	X0 float64 // Left
	Y0 float64 // Top (after conversion from PDF coordinates)
	X1 float64 // Right
	Y1 float64 // Bottom (after conversion from PDF coordinates)
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

// Height returns the height of the rectangle.
func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

// CenterX returns the horizontal center of the rectangle.
func (r Rect) CenterX() float64 {
	return (r.X0 + r.X1) / 2
}

// CenterY returns the vertical center of the rectangle.
func (r Rect) CenterY() float64 {
	return (r.Y0 + r.Y1) / 2
}

// Area returns the area of the rectangle, zero for degenerate boxes.
func (r Rect) Area() float64 {
	if r.Width() <= 0 || r.Height() <= 0 {
		return 0
	}
	return r.Width() * r.Height()
}

// EnrichedChar is a single glyph with its page position.
type EnrichedChar struct {
	Text rune
	Box  Rect
}

// EnrichedWord is a run of glyphs between whitespace.
type EnrichedWord struct {
	Text string
	Box  Rect
}

// Line represents a horizontal line of text.
type Line struct {
	Words []EnrichedWord
	Box   Rect
}

// Text joins the words of the line with single spaces.
func (l Line) Text() string {
	var result string
	for i, word := range l.Words {
		if i > 0 {
			result += " "
		}
		result += word.Text
	}
	return result
}

// PageType is the classification outcome for a page.
type PageType string

const (
	PageText    PageType = "text"
	PageScanned PageType = "scanned"
	PageFailed  PageType = "failed"
)

// ExtractionMethod records which extractor produced a page's tables.
type ExtractionMethod string

const (
	MethodVectorTable     ExtractionMethod = "vector_table"
	MethodImageTableLines ExtractionMethod = "image_table_lines"
	MethodImageTableOCR   ExtractionMethod = "image_table_ocr"
	MethodFailed          ExtractionMethod = "failed"
)

// Table is an ordered list of rows of cell text. Rows are not required to
// have the same length.
type Table [][]string

// IsEmpty reports whether the table has no non-blank cell.
func (t Table) IsEmpty() bool {
	for _, row := range t {
		for _, cell := range row {
			if !isBlank(cell) {
				return false
			}
		}
	}
	return true
}

// Confidence blends per-page extraction signals. All scores are in [0,1].
type Confidence struct {
	TextDensity     float64 `json:"text_density"`
	WordCount       int     `json:"word_count"`
	TableLikelihood float64 `json:"table_likelihood"`
	Overall         float64 `json:"overall"`
}

// PageResult is the router's output for one page.
type PageResult struct {
	Page             int              `json:"page"`
	PageType         PageType         `json:"page_type"`
	ExtractionMethod ExtractionMethod `json:"extraction_method"`
	Tables           []Table          `json:"tables"`
	FullText         string           `json:"full_text"`
	Confidence       Confidence       `json:"confidence"`
	RetryCount       int              `json:"retry_count"`
	Err              error            `json:"-"`
	Duration         time.Duration    `json:"-"`
}

// Units returns the page content as parser input: every table first, then
// the free text.
func (p PageResult) Units() []ExtractionUnit {
	units := make([]ExtractionUnit, 0, len(p.Tables)+1)
	for i, table := range p.Tables {
		units = append(units, TableUnit{Page: p.Page, Index: i, Table: table})
	}
	if !isBlank(p.FullText) {
		units = append(units, FreeTextUnit{Page: p.Page, Text: p.FullText})
	}
	return units
}

// ExtractionUnit is either a TableUnit or a FreeTextUnit.
type ExtractionUnit interface {
	PageNumber() int
	unit()
}

// TableUnit wraps one extracted table.
type TableUnit struct {
	Page  int
	Index int
	Table Table
}

func (u TableUnit) PageNumber() int { return u.Page }
func (TableUnit) unit()             {}

// FreeTextUnit wraps a page's full text.
type FreeTextUnit struct {
	Page int
	Text string
}

func (u FreeTextUnit) PageNumber() int { return u.Page }
func (FreeTextUnit) unit()             {}

// PositionedToken is a recognized text fragment in image pixel space.
// Confidence is in [0,100]; vector-derived tokens use 100.
type PositionedToken struct {
	Text       string
	Box        Rect
	Confidence float64
}

// TransactionType is Credit or Debit.
type TransactionType string

const (
	Credit TransactionType = "Credit"
	Debit  TransactionType = "Debit"
)

// TransactionCandidate holds raw fields matched from a table row or text
// line before normalization.
type TransactionCandidate struct {
	Date        string
	Description string
	Amount      string

	// Split is set when the layout has separate withdrawal and deposit
	// columns; Amount is then ignored.
	Split      bool
	Withdrawal string
	Deposit    string

	Balance  string
	Currency string
	DayFirst bool
	Source   string
}

// Transaction is a normalized statement entry. Debits carry a negative
// amount and credits a positive one.
type Transaction struct {
	Date     time.Time           `json:"date"`
	Payee    string              `json:"payee"`
	Amount   decimal.Decimal     `json:"amount"`
	Type     TransactionType     `json:"type"`
	Balance  decimal.NullDecimal `json:"balance"`
	Currency string              `json:"currency"`

	Page      int    `json:"page"`
	Source    string `json:"source"`
	RawDate   string `json:"raw_date"`
	RawAmount string `json:"raw_amount"`
}
