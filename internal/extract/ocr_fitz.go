//go:build ocr

package extract

import (
	"github.com/gen2brain/go-fitz"
)

type fitzRasterizer struct{}

type fitzDocument struct {
	doc *fitz.Document
}

// DefaultRasterizer renders pages with MuPDF.
func DefaultRasterizer() Rasterizer { return fitzRasterizer{} }

func (fitzRasterizer) Open(path string) (RasterDocument, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &fitzDocument{doc: doc}, nil
}

func (d *fitzDocument) NumPage() int { return d.doc.NumPage() }

func (d *fitzDocument) RenderPNG(page, dpi int) ([]byte, error) {
	return d.doc.ImagePNG(page, float64(dpi))
}

func (d *fitzDocument) Close() error { return d.doc.Close() }
