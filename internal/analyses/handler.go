package analyses

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"lexguard-backend/internal/llm"
	"lexguard-backend/internal/shared/server/middleware"
	"lexguard-backend/internal/shared/server/respond"
)

// Analyzer is the generation contract consumed by the HTTP layer.
type Analyzer interface {
	Analyze(ctx context.Context, text, documentTitle string, uc *UserContext) (Outcome, error)
}

// Handler wires HTTP handlers to the generator and the records service.
type Handler struct {
	Gen Analyzer
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(gen Analyzer, svc *Service) *Handler {
	return &Handler{Gen: gen, Svc: svc}
}

// RegisterRoutes attaches the provider-backed analyze route.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
}

// RegisterRecordRoutes attaches saved-analysis CRUD routes.
func (h *Handler) RegisterRecordRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses", h.save)
	rg.GET("/analyses", h.list)
	rg.GET("/analyses/:id", h.get)
	rg.DELETE("/analyses/:id", h.delete)
}

type analyzeRequest struct {
	Text          string       `json:"text"`
	DocumentTitle string       `json:"documentTitle"`
	UserContext   *UserContext `json:"userContext"`
}

type analyzeResponse struct {
	Analysis  AnalysisResult `json:"analysis"`
	Model     string         `json:"model"`
	Status    Status         `json:"status"`
	Truncated bool           `json:"truncated,omitempty"`
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid request body", nil)
		return
	}

	out, err := h.Gen.Analyze(c.Request.Context(), req.Text, req.DocumentTitle, req.UserContext)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyText):
			respond.Error(c, http.StatusBadRequest, ErrorCodeEmptyText, "text is required", nil)
		case errors.Is(err, ErrTextTooShort):
			respond.Error(c, http.StatusUnprocessableEntity, ErrorCodeInsufficient, "Not enough text to analyze", nil)
		default:
			if _, ok := llm.AsProviderError(err); ok {
				respond.ProviderError(c, err)
				return
			}
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to analyze document", nil)
		}
		return
	}

	respond.OK(c, analyzeResponse{
		Analysis:  out.Result,
		Model:     out.Model,
		Status:    out.Status,
		Truncated: out.Truncated,
	})
}

type saveRequest struct {
	SourceTitle    string         `json:"sourceTitle"`
	DocFingerprint string         `json:"docFingerprint"`
	Text           string         `json:"text"`
	Analysis       AnalysisResult `json:"analysis"`
	Model          string         `json:"model"`
}

func (h *Handler) save(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Analysis.Summary) == "" {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "analysis.summary is required", nil)
		return
	}

	rec, err := h.Svc.Save(c.Request.Context(), SaveInput{
		UserID:         middleware.UserIDFromContext(c),
		OrgID:          middleware.OrgIDFromContext(c),
		SourceTitle:    req.SourceTitle,
		DocFingerprint: req.DocFingerprint,
		Text:           req.Text,
		Result:         req.Analysis,
		Model:          req.Model,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to save analysis", nil)
		return
	}
	c.Set(middleware.AnalysisIDKey, rec.ID)
	respond.Created(c, rec)
}

func (h *Handler) get(c *gin.Context) {
	analysisID := c.Param("id")
	c.Set(middleware.AnalysisIDKey, analysisID)

	rec, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), analysisID)
	if err != nil {
		h.writeLookupError(c, err, "failed to fetch analysis")
		return
	}
	respond.OK(c, rec)
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	records, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to list analyses", nil)
		return
	}

	resp := make([]gin.H, 0, len(records))
	for _, rec := range records {
		resp = append(resp, gin.H{
			"id":          rec.ID,
			"sourceTitle": rec.SourceTitle,
			"overallRisk": rec.Result.OverallRisk,
			"summary":     rec.Result.Summary,
			"redFlags":    len(rec.Result.RedFlags),
			"createdAt":   rec.CreatedAt,
		})
	}
	respond.OK(c, gin.H{"analyses": resp})
}

func (h *Handler) delete(c *gin.Context) {
	analysisID := c.Param("id")
	c.Set(middleware.AnalysisIDKey, analysisID)

	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), analysisID); err != nil {
		h.writeLookupError(c, err, "failed to delete analysis")
		return
	}
	respond.OK(c, gin.H{"success": true})
}

func (h *Handler) writeLookupError(c *gin.Context, err error, message string) {
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "analysis not found", nil)
		return
	}
	respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, message, nil)
}
