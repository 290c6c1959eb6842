package pdfstatement

import (
	"github.com/pkg/errors"
)

// TableExtractor extracts tables from a page's vector content.
type TableExtractor interface {
	ExtractTables(src PageSource, pageNo int) ([]Table, error)
}

// VectorTableExtractor runs lattice detection over a page's ruled path
// objects and fills cells from the text layer.
type VectorTableExtractor struct {
	settings TableSettings
}

// NewVectorTableExtractor creates an extractor using cfg.TableSettings.
func NewVectorTableExtractor(cfg Config) *VectorTableExtractor {
	return &VectorTableExtractor{settings: cfg.TableSettings}
}

// ExtractTables returns the page's non-empty ruled tables.
func (e *VectorTableExtractor) ExtractTables(src PageSource, pageNo int) ([]Table, error) {
	edges, err := src.Edges(pageNo)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read page rules")
	}

	words, err := src.Words(pageNo)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read page words")
	}

	var tables []Table
	for _, grid := range DetectGrids(edges, words, e.settings) {
		if table := grid.Table(); !table.IsEmpty() {
			tables = append(tables, table)
		}
	}
	return tables, nil
}
