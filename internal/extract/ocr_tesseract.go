//go:build ocr

package extract

import (
	"context"

	"github.com/otiai10/gosseract/v2"
)

type tesseractEngine struct {
	client *gosseract.Client
}

// DefaultEngineFactory returns Tesseract engines configured for English.
func DefaultEngineFactory() EngineFactory {
	return func() (Engine, error) {
		client := gosseract.NewClient()
		if err := client.SetLanguage("eng"); err != nil {
			client.Close()
			return nil, err
		}
		return &tesseractEngine{client: client}, nil
	}
}

func (t *tesseractEngine) Recognize(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := t.client.SetImageFromBytes(png); err != nil {
		return "", err
	}
	return t.client.Text()
}

func (t *tesseractEngine) Close() error { return t.client.Close() }

// OCRSupported reports whether this binary was built with the ocr tag.
const OCRSupported = true
