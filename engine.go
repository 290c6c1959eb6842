package pdfstatement

import (
	"sync"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/webassembly"
	"github.com/pkg/errors"
)

// instanceTimeout bounds the wait for a pdfium instance from the pool.
const instanceTimeout = 30 * time.Second

// EngineRegistry lazily initializes the pdfium runtime and OCR engine once
// per process and shares them between runs. Runs that share a registry
// must not overlap.
type EngineRegistry struct {
	cfg Config

	pdfiumOnce sync.Once
	pool       pdfium.Pool
	instance   pdfium.Pdfium
	pdfiumErr  error
	ownsPdfium bool

	ocrOnce sync.Once
	ocr     OCREngine
	ocrErr  error
	ownsOCR bool
}

// RegistryOption configures an EngineRegistry.
type RegistryOption func(*EngineRegistry)

// WithPdfium supplies an existing pdfium instance. The registry does not
// close it.
func WithPdfium(instance pdfium.Pdfium) RegistryOption {
	return func(r *EngineRegistry) {
		r.instance = instance
	}
}

// WithOCREngine supplies an OCR engine. The registry does not close it.
func WithOCREngine(engine OCREngine) RegistryOption {
	return func(r *EngineRegistry) {
		r.ocr = engine
	}
}

// NewEngineRegistry creates a registry. Nothing is initialized until first
// use.
func NewEngineRegistry(cfg Config, opts ...RegistryOption) *EngineRegistry {
	r := &EngineRegistry{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Pdfium returns the shared pdfium instance.
func (r *EngineRegistry) Pdfium() (pdfium.Pdfium, error) {
	r.pdfiumOnce.Do(func() {
		if r.instance != nil {
			return
		}

		pool, err := webassembly.Init(webassembly.Config{
			MinIdle:  1,
			MaxIdle:  1,
			MaxTotal: 1,
		})
		if err != nil {
			r.pdfiumErr = &EngineError{Engine: "pdfium", Err: errors.Wrap(err, "failed to initialize pdfium runtime")}
			return
		}

		instance, err := pool.GetInstance(instanceTimeout)
		if err != nil {
			pool.Close()
			r.pdfiumErr = &EngineError{Engine: "pdfium", Err: errors.Wrap(err, "failed to get pdfium instance")}
			return
		}

		r.pool = pool
		r.instance = instance
		r.ownsPdfium = true
	})
	return r.instance, r.pdfiumErr
}

// OCR returns the shared OCR engine.
func (r *EngineRegistry) OCR() (OCREngine, error) {
	r.ocrOnce.Do(func() {
		if r.ocr != nil {
			return
		}

		engine, err := newDefaultOCREngine(r.cfg)
		if err != nil {
			r.ocrErr = &EngineError{Engine: "ocr", Err: err}
			return
		}
		r.ocr = engine
		r.ownsOCR = true
	})
	return r.ocr, r.ocrErr
}

// Close releases engines the registry created.
func (r *EngineRegistry) Close() error {
	var firstErr error
	if r.ownsOCR && r.ocr != nil {
		if err := r.ocr.Close(); err != nil {
			firstErr = errors.Wrap(err, "failed to close OCR engine")
		}
	}
	if r.ownsPdfium {
		if err := r.instance.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "failed to close pdfium instance")
		}
		if err := r.pool.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "failed to close pdfium pool")
		}
	}
	return firstErr
}
