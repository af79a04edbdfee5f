package extract

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"lexguard-backend/internal/shared/server/middleware"
	"lexguard-backend/internal/shared/server/respond"
	"lexguard-backend/internal/shared/telemetry"
)

const defaultMaxUploadBytes = 10 << 20

// Service is the extraction contract consumed by the HTTP layer.
type Service interface {
	Extract(ctx context.Context, data []byte, mimeType string) (Result, error)
}

type Handler struct {
	svc            Service
	maxUploadBytes int64
}

func NewHandler(svc Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/extract", h.extract)
}

type extractResponse struct {
	Text  string `json:"text"`
	Tier  Tier   `json:"tier"`
	Pages int    `json:"pages"`
}

func (h *Handler) extract(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+(1<<20))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds upload limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "NO_FILE", "No file uploaded", nil)
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds upload limit", nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "NO_FILE", "Uploaded file could not be read", nil)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "NO_FILE", "Uploaded file could not be read", nil)
		return
	}
	if len(data) == 0 {
		respond.Error(c, http.StatusBadRequest, "NO_FILE", "Uploaded file is empty", nil)
		return
	}

	res, err := h.svc.Extract(c.Request.Context(), data, fileHeader.Header.Get("Content-Type"))
	if res.Tier != "" {
		c.Set(middleware.TierKey, string(res.Tier))
	}
	if err != nil {
		h.writeError(c, err, fileHeader.Filename)
		return
	}

	respond.OK(c, extractResponse{Text: res.Text, Tier: res.Tier, Pages: res.Pages})
}

func (h *Handler) writeError(c *gin.Context, err error, fileName string) {
	code := errorCode(err)
	switch code {
	case "INVALID_FILE_TYPE":
		respond.Error(c, http.StatusBadRequest, code, "Only PDF files are supported", nil)
	case "INSUFFICIENT_TEXT":
		respond.Error(c, http.StatusUnprocessableEntity, code, "Could not extract enough text from the document", nil)
	case "PAGE_LIMIT_EXCEEDED":
		respond.Error(c, http.StatusUnprocessableEntity, code, "Document has too many pages for scanned-text extraction", nil)
	default:
		telemetry.Error("extract.failed", map[string]any{
			"err":        err,
			"file_name":  fileName,
			"request_id": c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, code, "Failed to extract text from the document", nil)
	}
}
