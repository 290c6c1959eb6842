package pdfstatement

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrPageOutOfRange is returned for page numbers outside [1, PageCount].
var ErrPageOutOfRange = errors.New("page number out of range")

// DocumentError is fatal: the document could not be found or opened.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %q: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }
func (e *DocumentError) Cause() error  { return e.Err }

// PageError is a recovered failure while classifying or extracting one page.
type PageError struct {
	Page  int
	Stage string
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %s: %v", e.Page, e.Stage, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }
func (e *PageError) Cause() error  { return e.Err }

// ParseError is a recovered failure for a single table row or text line.
type ParseError struct {
	Page   int
	Source string // "table" or a grammar name
	Unit   int    // row or line index within the unit
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("page %d %s #%d: %v (raw %q)", e.Page, e.Source, e.Unit, e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error { return e.Err }
func (e *ParseError) Cause() error  { return e.Err }

// EngineError means an OCR or PDF engine could not be initialised. It
// aborts the whole run.
type EngineError struct {
	Engine string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s engine: %v", e.Engine, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }
func (e *EngineError) Cause() error  { return e.Err }

// QualityWarning is advisory and never blocks results.
type QualityWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w QualityWarning) Error() string {
	return w.Code + ": " + w.Message
}
