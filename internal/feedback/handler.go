package feedback

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openclass/backend/internal/middleware"
	"github.com/openclass/backend/pkg/response"
)

// CreateMCQuestionRequest is the body for POST /feedback/questions.
type CreateMCQuestionRequest struct {
	Question string `json:"question" binding:"required"`
}

// AddChoiceRequest is the body for POST /feedback/questions/:id/choices.
type AddChoiceRequest struct {
	Label string `json:"label" binding:"required"`
}

// SetFormRequest is the body for PUT /workshops/:id/feedback-form.
type SetFormRequest struct {
	QuestionIDs []uuid.UUID `json:"question_ids"`
}

// SubmitRequest is the body for POST /workshops/:id/feedback.
type SubmitRequest struct {
	ChoiceIDs []uuid.UUID `json:"choice_ids"`
	Comment   string      `json:"comment" binding:"required"`
}

// Handler handles feedback HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a feedback handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreateMCQuestion handles POST /feedback/questions (moderator).
func (h *Handler) CreateMCQuestion(c *gin.Context) {
	var req CreateMCQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q, err := h.svc.CreateMCQuestion(c.Request.Context(), req.Question)
	if err != nil {
		response.FromDomain(c, err, "failed to create question")
		return
	}
	response.Created(c, q)
}

// AddChoice handles POST /feedback/questions/:id/choices (moderator).
func (h *Handler) AddChoice(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}
	var req AddChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ch, err := h.svc.AddChoice(c.Request.Context(), questionID, req.Label)
	if err != nil {
		response.FromDomain(c, err, "failed to add choice")
		return
	}
	response.Created(c, ch)
}

// ListCatalog handles GET /feedback/questions.
func (h *Handler) ListCatalog(c *gin.Context) {
	list, err := h.svc.ListCatalog(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list questions")
		return
	}
	response.OK(c, gin.H{"questions": list})
}

// SetForm handles PUT /workshops/:id/feedback-form (moderator).
func (h *Handler) SetForm(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	var req SetFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.svc.SetForm(c.Request.Context(), workshopID, req.QuestionIDs); err != nil {
		response.FromDomain(c, err, "failed to set feedback form")
		return
	}
	response.OK(c, gin.H{"workshop_id": workshopID, "question_ids": req.QuestionIDs})
}

// Form handles GET /workshops/:id/feedback-form.
func (h *Handler) Form(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	list, err := h.svc.Form(c.Request.Context(), workshopID)
	if err != nil {
		response.Internal(c, "failed to load feedback form")
		return
	}
	response.OK(c, gin.H{"workshop_id": workshopID, "questions": list})
}

// Submit handles POST /workshops/:id/feedback.
func (h *Handler) Submit(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	fb, err := h.svc.Submit(c.Request.Context(), workshopID, profileID, req.ChoiceIDs, req.Comment)
	if err != nil {
		response.FromDomain(c, err, "failed to submit feedback")
		return
	}
	response.Created(c, fb)
}

// ListByWorkshop handles GET /workshops/:id/feedback (animator or moderator).
func (h *Handler) ListByWorkshop(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	list, err := h.svc.ListByWorkshop(c.Request.Context(), workshopID)
	if err != nil {
		response.Internal(c, "failed to list feedback")
		return
	}
	response.OK(c, gin.H{"workshop_id": workshopID, "feedback": list})
}
