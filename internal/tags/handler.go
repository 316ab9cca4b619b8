package tags

import (
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openclass/backend/internal/domain"
	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/pkg/response"
)

// CreateRequest is the body for POST /tags (moderator).
type CreateRequest struct {
	Name string `json:"name" binding:"required"`
}

// Handler handles tag HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a tags handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Create handles POST /tags.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if n := utf8.RuneCountInString(name); n == 0 || n > models.MaxTagName {
		response.FromDomain(c, domain.Invalid("tag name must be 1-%d characters", models.MaxTagName), "invalid tag")
		return
	}
	t := &models.Tag{Name: name}
	if err := h.repo.Create(c.Request.Context(), t); err != nil {
		response.FromDomain(c, err, "failed to create tag")
		return
	}
	response.Created(c, t)
}

// List handles GET /tags.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list tags")
		return
	}
	response.OK(c, gin.H{"tags": list})
}

// Delete handles DELETE /tags/:id (moderator).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid tag id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.FromDomain(c, err, "failed to delete tag")
		return
	}
	response.NoContent(c)
}
