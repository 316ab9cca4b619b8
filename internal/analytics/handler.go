package analytics

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openclass/backend/pkg/response"
)

// Handler handles analytics HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates an analytics handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// WorkshopStats handles GET /workshops/:id/stats (animator or moderator).
func (h *Handler) WorkshopStats(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	stats, err := h.repo.WorkshopStats(c.Request.Context(), workshopID)
	if err != nil {
		response.FromDomain(c, err, "failed to compute stats")
		return
	}
	response.OK(c, stats)
}
