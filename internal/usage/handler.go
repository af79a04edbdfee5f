package usage

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lexguard-backend/internal/shared/server/middleware"
	"lexguard-backend/internal/shared/server/respond"
)

const defaultFreeQuota = 3

// Handler exposes plan endpoints.
type Handler struct {
	Store PlanStore
	Gate  *Gate
}

// NewHandler constructs a Handler.
func NewHandler(store PlanStore, gate *Gate) *Handler {
	return &Handler{Store: store, Gate: gate}
}

// RegisterRoutes attaches usage routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/usage", h.getUsage)
}

// RegisterDevRoutes attaches dev-only plan routes.
func (h *Handler) RegisterDevRoutes(rg *gin.RouterGroup) {
	rg.POST("/dev/plan", h.setPlan)
}

func (h *Handler) getUsage(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	p, err := h.Store.GetPlan(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			respond.Error(c, http.StatusNotFound, "PLAN_NOT_FOUND", "No plan on file", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to fetch usage", nil)
		return
	}

	capabilities := gin.H{}
	for _, capability := range []Capability{CapabilityChat, CapabilityGroundedChat} {
		d, err := h.Gate.Authorize(c.Request.Context(), userID, capability)
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to fetch usage", nil)
			return
		}
		capabilities[string(capability)] = d
	}

	respond.OK(c, gin.H{
		"plan":         p.Plan,
		"freeQuota":    p.FreeQuota,
		"usedQuota":    p.UsedQuota,
		"capabilities": capabilities,
	})
}

type setPlanRequest struct {
	Plan string `json:"plan"`
}

func (h *Handler) setPlan(c *gin.Context) {
	var req setPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	plan := Plan(strings.ToLower(strings.TrimSpace(req.Plan)))
	if !validPlan(plan) {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "plan must be free or premium", nil)
		return
	}

	out, err := h.Store.SetPlan(c.Request.Context(), UserPlan{
		UserID:    middleware.UserIDFromContext(c),
		Plan:      plan,
		FreeQuota: defaultFreeQuota,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to set plan", nil)
		return
	}
	respond.OK(c, out)
}
