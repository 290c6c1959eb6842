//go:build !ocr

package pdfstatement

func newDefaultOCREngine(Config) (OCREngine, error) {
	return nil, ErrOCRNotEnabled
}
