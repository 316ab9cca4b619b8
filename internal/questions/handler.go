package questions

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openclass/backend/internal/middleware"
	"github.com/openclass/backend/pkg/response"
)

// AskRequest is the body for POST /workshops/:id/questions.
type AskRequest struct {
	Body string `json:"body" binding:"required"`
}

// Handler handles question HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a questions handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Ask handles POST /workshops/:id/questions.
func (h *Handler) Ask(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	q, err := h.svc.Ask(c.Request.Context(), workshopID, profileID, req.Body)
	if err != nil {
		response.FromDomain(c, err, "failed to ask question")
		return
	}
	response.Created(c, q)
}

// ListByWorkshop handles GET /workshops/:id/questions.
func (h *Handler) ListByWorkshop(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	list, err := h.svc.ListByWorkshop(c.Request.Context(), workshopID)
	if err != nil {
		response.Internal(c, "failed to list questions")
		return
	}
	response.OK(c, gin.H{"workshop_id": workshopID, "questions": list})
}
