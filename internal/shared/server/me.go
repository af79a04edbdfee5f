package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lexguard-backend/internal/shared/server/middleware"
	"lexguard-backend/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}

	response := gin.H{
		"userId":  userID,
		"isGuest": middleware.IsGuest(c),
	}
	if email := middleware.UserEmailFromContext(c); email != "" {
		response["email"] = email
	}
	if orgID := middleware.OrgIDFromContext(c); orgID != "" {
		response["orgId"] = orgID
	}

	respond.OK(c, response)
}
