// Package pdfstatement extracts transactions from PDF bank statements.
//
// Pages with a text layer go through vector table detection; scanned
// pages, and text pages where no table is found, are rendered and read
// with OCR. Tables are mapped to transactions by their column headers,
// and page text is matched against line grammars for several statement
// layouts. Every run returns per-page diagnostics and an advisory
// quality report alongside the transactions.
//
//	registry := pdfstatement.NewEngineRegistry(cfg)
//	defer registry.Close()
//
//	result, err := pdfstatement.NewPipeline(registry, cfg, logger).Run(ctx, "statement.pdf", nil)
//
// OCR uses Tesseract and requires the "ocr" build tag, or an engine
// supplied with WithOCREngine.
package pdfstatement
