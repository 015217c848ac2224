package handler

import (
	"net/http"

	"github.com/examstack/examhall-backend/internal/response"
	"github.com/examstack/examhall-backend/internal/session"
	"github.com/gin-gonic/gin"
)

// SystemHandler serves process health and liveness diagnostics.
type SystemHandler struct {
	registry *session.Registry
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(registry *session.Registry) *SystemHandler {
	return &SystemHandler{registry: registry}
}

// Health godoc
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"status":          "ok",
		"active_sessions": h.registry.Count(),
	})
}
