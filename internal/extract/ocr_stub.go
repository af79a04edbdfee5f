//go:build !ocr

package extract

// OCRSupported reports whether this binary was built with the ocr tag.
const OCRSupported = false

// DefaultRasterizer returns nil without the ocr build tag; the OCR tier then
// reports ErrOCRUnavailable.
func DefaultRasterizer() Rasterizer { return nil }

// DefaultEngineFactory returns nil without the ocr build tag.
func DefaultEngineFactory() EngineFactory { return nil }
