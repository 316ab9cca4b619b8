package emaillogs

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openclass/backend/pkg/response"
)

// Handler handles email log HTTP endpoints (moderator only).
type Handler struct {
	repo *Repository
}

// NewHandler creates an email logs handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// ListByWorkshop handles GET /workshops/:id/emails.
func (h *Handler) ListByWorkshop(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	list, err := h.repo.ListByWorkshop(c.Request.Context(), workshopID)
	if err != nil {
		response.Internal(c, "failed to list email logs")
		return
	}
	response.OK(c, gin.H{"workshop_id": workshopID, "emails": list})
}

// ListFailed handles GET /emails/failed.
func (h *Handler) ListFailed(c *gin.Context) {
	list, err := h.repo.ListFailed(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list email logs")
		return
	}
	response.OK(c, gin.H{"emails": list})
}
