package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"lexguard-backend/internal/shared/telemetry"
)

// Rasterizer opens a PDF on disk for page rendering.
type Rasterizer interface {
	Open(path string) (RasterDocument, error)
}

// RasterDocument renders pages (0-based) to PNG.
type RasterDocument interface {
	NumPage() int
	RenderPNG(page, dpi int) ([]byte, error)
	Close() error
}

// Engine recognizes text in a single page image.
type Engine interface {
	Recognize(ctx context.Context, png []byte) (string, error)
	Close() error
}

// EngineFactory creates one Engine per document.
type EngineFactory func() (Engine, error)

var (
	createTemp = os.CreateTemp
	removeFile = os.Remove
)

// ocr rasterizes each page and runs recognition. Callers apply the page cap
// to the inspected count; the rasterizer's own count is checked again here.
func (e *Extractor) ocr(ctx context.Context, data []byte) (string, error) {
	if !e.opts.OCREnabled || e.opts.Rasterizer == nil || e.opts.NewEngine == nil {
		return "", ErrOCRUnavailable
	}

	path, cleanup, err := e.writeScratch(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer cleanup()

	doc, err := e.opts.Rasterizer.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open for ocr: %v", ErrExtractionFailed, err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if n > e.opts.OCRMaxPages {
		return "", fmt.Errorf("%w: %d pages (max %d)", ErrPageLimitExceeded, n, e.opts.OCRMaxPages)
	}

	engine, err := e.opts.NewEngine()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOCRUnavailable, err)
	}
	defer engine.Close()

	var buf strings.Builder
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		png, err := doc.RenderPNG(i, e.opts.OCRDPI)
		if err != nil {
			return "", fmt.Errorf("%w: render page %d: %v", ErrExtractionFailed, i+1, err)
		}
		text, err := engine.Recognize(ctx, png)
		if err != nil {
			return "", fmt.Errorf("%w: ocr page %d: %v", ErrExtractionFailed, i+1, err)
		}
		fmt.Fprintf(&buf, "--- page %d ---\n", i+1)
		buf.WriteString(strings.TrimSpace(text))
		buf.WriteString("\n\n")
	}
	return buf.String(), nil
}

// writeScratch stores data in a temp file. The returned cleanup never fails;
// removal errors are logged only.
func (e *Extractor) writeScratch(data []byte) (string, func(), error) {
	f, err := createTemp(e.opts.TempDir, "extract-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("create scratch file: %w", err)
	}
	path := f.Name()
	cleanup := func() {
		if err := removeFile(path); err != nil && !os.IsNotExist(err) {
			telemetry.Warn("extract.scratch_cleanup_failed", map[string]any{"path": path, "err": err})
		}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close scratch file: %w", err)
	}
	return path, cleanup, nil
}
