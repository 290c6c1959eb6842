package pdfstatement

import (
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pkg/errors"
)

// Preflight describes a document before extraction.
type Preflight struct {
	PageCount int
	Encrypted bool
	// Err is set when the structural read failed; pdfium may still open
	// the document.
	Err error
}

// PreflightDocument checks the file exists and reads its structure with
// pdfcpu. Only a missing or unreadable file is an error.
func PreflightDocument(path string) (Preflight, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Preflight{}, &DocumentError{Path: path, Err: err}
	}
	if info.IsDir() {
		return Preflight{}, &DocumentError{Path: path, Err: errors.New("is a directory")}
	}

	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return Preflight{Err: errors.Wrap(err, "failed to read PDF structure")}, nil
	}

	return Preflight{
		PageCount: ctx.PageCount,
		Encrypted: ctx.Encrypt != nil,
	}, nil
}
