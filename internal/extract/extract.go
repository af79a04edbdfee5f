package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"lexguard-backend/internal/shared/metrics"
	"lexguard-backend/internal/shared/telemetry"
	"lexguard-backend/internal/shared/util"
)

const mimePDF = "application/pdf"

var (
	ErrInvalidFileType   = errors.New("only PDF files are supported")
	ErrInsufficientText  = errors.New("not enough text could be extracted")
	ErrPageLimitExceeded = errors.New("document exceeds the OCR page limit")
	ErrExtractionFailed  = errors.New("text extraction failed")
	// ErrOCRUnavailable means the binary was built without OCR support or it is disabled.
	ErrOCRUnavailable = errors.New("ocr unavailable")
)

// Tier identifies which strategy produced the text.
type Tier string

const (
	TierPrimary    Tier = "primary"
	TierStructural Tier = "structural"
	TierOCR        Tier = "ocr"
)

// Result is the extracted text and how it was obtained.
type Result struct {
	Text  string `json:"text"`
	Tier  Tier   `json:"tier"`
	Pages int    `json:"pages"`
}

// Options configures an Extractor. Zero values take the documented defaults.
type Options struct {
	MinTextLength int // default 50
	OCREnabled    bool
	OCRMaxPages   int // default 20
	OCRDPI        int // default 200
	// TempDir holds the scratch copy used by OCR; empty means os.TempDir.
	TempDir string

	Rasterizer Rasterizer
	NewEngine  EngineFactory
	// Inspect reports page count and image content; defaults to pdfcpu.
	Inspect func(data []byte) (Inspection, error)
}

// Extractor turns PDF bytes into plain text through three tiers: the text
// layer, the page row structure, and OCR for image-only documents.
type Extractor struct {
	opts Options
}

// New constructs an Extractor.
func New(opts Options) *Extractor {
	if opts.MinTextLength <= 0 {
		opts.MinTextLength = 50
	}
	if opts.OCRMaxPages <= 0 {
		opts.OCRMaxPages = 20
	}
	if opts.OCRDPI <= 0 {
		opts.OCRDPI = 200
	}
	if opts.Inspect == nil {
		opts.Inspect = inspectPDF
	}
	return &Extractor{opts: opts}
}

// Extract returns trimmed text of at least MinTextLength characters, or one
// of the package errors.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string) (Result, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "extract.Extract")
	defer span.End()

	res, err := e.extract(ctx, data, mimeType)
	outcome := "ok"
	if err != nil {
		outcome = errorCode(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	span.SetAttributes(
		attribute.String("extract.tier", string(res.Tier)),
		attribute.Int("extract.pages", res.Pages),
		attribute.Int("extract.bytes", len(data)),
	)
	metrics.ObserveExtraction(string(res.Tier), outcome)
	return res, err
}

func (e *Extractor) extract(ctx context.Context, data []byte, mimeType string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if NormalizeMimeType(mimeType, data) != mimePDF {
		return Result{}, ErrInvalidFileType
	}
	if len(data) == 0 {
		return Result{}, ErrInsufficientText
	}

	primary, pages, primaryErr := readPrimary(data)
	if primaryErr != nil {
		telemetry.Warn("extract.tier_failed", map[string]any{"tier": TierPrimary, "err": primaryErr})
	}
	primary = util.SanitizeText(primary)
	if e.viable(primary) {
		return Result{Text: primary, Tier: TierPrimary, Pages: pages}, nil
	}

	structural, structErr := readStructural(data)
	if structErr != nil {
		telemetry.Warn("extract.tier_failed", map[string]any{"tier": TierStructural, "err": structErr})
	}
	structural = util.SanitizeText(structural)
	if e.viable(structural) {
		return Result{Text: structural, Tier: TierStructural, Pages: pages}, nil
	}

	inspection, inspectErr := e.opts.Inspect(data)
	if inspectErr != nil {
		// Unreadable structure: assume scanned and let the OCR tier decide.
		telemetry.Warn("extract.inspect_failed", map[string]any{"err": inspectErr})
		inspection = Inspection{PageCount: pages, HasImages: true}
	}
	if inspection.PageCount == 0 {
		inspection.PageCount = pages
	}
	if inspection.PageCount > e.opts.OCRMaxPages {
		return Result{Tier: TierOCR, Pages: inspection.PageCount},
			fmt.Errorf("%w: %d pages (max %d)", ErrPageLimitExceeded, inspection.PageCount, e.opts.OCRMaxPages)
	}
	// Pages with no text layer at all are treated as scanned; inline images
	// never show up as XObjects.
	textless := primary == "" && structural == "" && inspection.PageCount > 0
	if !inspection.HasImages && !textless {
		return Result{Tier: TierStructural, Pages: inspection.PageCount}, ErrInsufficientText
	}

	text, err := e.ocr(ctx, data)
	res := Result{Tier: TierOCR, Pages: inspection.PageCount}
	switch {
	case errors.Is(err, ErrOCRUnavailable):
		if primaryErr != nil && inspectErr != nil {
			return res, fmt.Errorf("%w: %v", ErrExtractionFailed, primaryErr)
		}
		return res, ErrInsufficientText
	case err != nil:
		return res, err
	}
	text = util.SanitizeText(text)
	if !e.viable(text) {
		return res, ErrInsufficientText
	}
	res.Text = text
	return res, nil
}

func (e *Extractor) viable(text string) bool {
	return len([]rune(text)) >= e.opts.MinTextLength
}

// NormalizeMimeType lowercases the declared type and strips parameters.
// Undeclared or generic binary types are resolved by content sniffing.
func NormalizeMimeType(mimeType string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case "", "application/octet-stream", "binary/octet-stream":
		sniffed := http.DetectContentType(data)
		return strings.ToLower(strings.TrimSpace(strings.Split(sniffed, ";")[0]))
	case "application/x-pdf":
		return mimePDF
	}
	return clean
}

// errorCode maps extraction errors to the stable codes used at the HTTP boundary.
func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidFileType):
		return "INVALID_FILE_TYPE"
	case errors.Is(err, ErrInsufficientText):
		return "INSUFFICIENT_TEXT"
	case errors.Is(err, ErrPageLimitExceeded):
		return "PAGE_LIMIT_EXCEEDED"
	default:
		return "EXTRACTION_FAILED"
	}
}
