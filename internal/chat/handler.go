package chat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lexguard-backend/internal/llm"
	"lexguard-backend/internal/shared/server/middleware"
	"lexguard-backend/internal/shared/server/respond"
	"lexguard-backend/internal/usage"
)

// Handler exposes chat and thread endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the provider-backed chat routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.generalChat)
	rg.POST("/analyses/:id/chat", h.groundedChat)
}

// RegisterThreadRoutes attaches thread management routes.
func (h *Handler) RegisterThreadRoutes(rg *gin.RouterGroup) {
	rg.GET("/threads", h.listThreads)
	rg.GET("/threads/:id", h.getThread)
	rg.POST("/threads/:id/save", h.saveThread)
	rg.DELETE("/threads/:id", h.deleteThread)
}

type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"threadId"`
	SaveChat bool   `json:"saveChat"`
}

func (h *Handler) generalChat(c *gin.Context) {
	h.send(c, "")
}

func (h *Handler) groundedChat(c *gin.Context) {
	analysisID := c.Param("id")
	c.Set(middleware.AnalysisIDKey, analysisID)
	h.send(c, analysisID)
}

func (h *Handler) send(c *gin.Context, analysisID string) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	if req.ThreadID != "" {
		c.Set(middleware.ThreadIDKey, req.ThreadID)
	}

	reply, err := h.Svc.Send(c.Request.Context(), Turn{
		UserID:     middleware.UserIDFromContext(c),
		ThreadID:   req.ThreadID,
		AnalysisID: analysisID,
		Message:    req.Message,
		Save:       req.SaveChat,
	})
	if err != nil {
		h.writeSendError(c, err)
		return
	}
	c.Set(middleware.ThreadIDKey, reply.ThreadID)
	respond.OK(c, gin.H{"threadId": reply.ThreadID, "reply": reply.Reply})
}

func (h *Handler) writeSendError(c *gin.Context, err error) {
	var denied *usage.DeniedError
	switch {
	case errors.As(err, &denied):
		message := "Chat requires a premium plan. Upgrade to continue."
		code := "UPGRADE_REQUIRED"
		if denied.Reason == usage.ReasonPlanMissing {
			message = "No plan found for this account."
			code = "PLAN_MISSING"
		}
		respond.Error(c, http.StatusForbidden, code, message, gin.H{"reason": denied.Reason})
	case errors.Is(err, ErrAnalysisNotFound):
		respond.Error(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this analysis", nil)
	case errors.Is(err, ErrThreadNotFound):
		respond.Error(c, http.StatusNotFound, "NOT_FOUND", "thread not found", nil)
	case errors.Is(err, ErrEmptyMessage):
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "message is required", nil)
	case errors.Is(err, ErrMessageTooLong):
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "message is too long", nil)
	default:
		if _, ok := llm.AsProviderError(err); ok {
			respond.ProviderError(c, err)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to process chat message", nil)
	}
}

func (h *Handler) listThreads(c *gin.Context) {
	threads, err := h.Svc.Threads(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list threads", nil)
		return
	}
	respond.OK(c, gin.H{"threads": threads})
}

type messageView struct {
	Role      llm.Role `json:"role"`
	Content   string   `json:"content"`
	CreatedAt string   `json:"created_at"`
}

func (h *Handler) getThread(c *gin.Context) {
	threadID := c.Param("id")
	c.Set(middleware.ThreadIDKey, threadID)

	thread, msgs, err := h.Svc.Messages(c.Request.Context(), middleware.UserIDFromContext(c), threadID)
	if err != nil {
		h.writeThreadError(c, err, "failed to fetch thread")
		return
	}
	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}
	respond.OK(c, gin.H{"thread": thread, "messages": views})
}

type saveRequest struct {
	Title string `json:"title"`
}

func (h *Handler) saveThread(c *gin.Context) {
	threadID := c.Param("id")
	c.Set(middleware.ThreadIDKey, threadID)

	var req saveRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
			return
		}
	}
	thread, err := h.Svc.Save(c.Request.Context(), middleware.UserIDFromContext(c), threadID, req.Title)
	if err != nil {
		h.writeThreadError(c, err, "failed to save thread")
		return
	}
	respond.OK(c, thread)
}

func (h *Handler) deleteThread(c *gin.Context) {
	threadID := c.Param("id")
	c.Set(middleware.ThreadIDKey, threadID)

	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), threadID); err != nil {
		h.writeThreadError(c, err, "failed to delete thread")
		return
	}
	respond.OK(c, gin.H{"success": true})
}

func (h *Handler) writeThreadError(c *gin.Context, err error, message string) {
	if errors.Is(err, ErrThreadNotFound) {
		respond.Error(c, http.StatusNotFound, "NOT_FOUND", "thread not found", nil)
		return
	}
	respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}
