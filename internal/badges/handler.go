package badges

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openclass/backend/internal/middleware"
	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/pkg/response"
	"github.com/openclass/backend/pkg/storage"
)

// CreateRequest is the body for POST /badges (moderator).
type CreateRequest struct {
	Name                string `json:"name" binding:"required"`
	Description         string `json:"description"`
	Kind                string `json:"kind"`
	AttendanceThreshold *int   `json:"attendance_threshold"`
}

// AwardRequest is the body for POST /badges/:id/award (moderator).
type AwardRequest struct {
	ProfileID uuid.UUID `json:"profile_id" binding:"required"`
	Priority  int       `json:"priority"`
}

// PriorityRequest is the body for PUT /profile/badges/:id/priority.
type PriorityRequest struct {
	Priority int `json:"priority"`
}

// Handler handles badge HTTP endpoints.
type Handler struct {
	svc    *Service
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates a badges handler.
func NewHandler(svc *Service, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, s3: s3, logger: logger}
}

// Create handles POST /badges.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	b, err := h.svc.Create(c.Request.Context(), CreateInput{
		Name:                req.Name,
		Description:         req.Description,
		Kind:                models.BadgeKind(req.Kind),
		AttendanceThreshold: req.AttendanceThreshold,
	})
	if err != nil {
		response.FromDomain(c, err, "failed to create badge")
		return
	}
	response.Created(c, b)
}

// List handles GET /badges.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list badges")
		return
	}
	response.OK(c, gin.H{"badges": list})
}

// GetByID handles GET /badges/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid badge id")
		return
	}
	b, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.FromDomain(c, err, "failed to load badge")
		return
	}
	response.OK(c, b)
}

// Delete handles DELETE /badges/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid badge id")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.FromDomain(c, err, "failed to delete badge")
		return
	}
	response.NoContent(c)
}

// Award handles POST /badges/:id/award.
func (h *Handler) Award(c *gin.Context) {
	badgeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid badge id")
		return
	}
	var req AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	pb, err := h.svc.Award(c.Request.Context(), badgeID, req.ProfileID, req.Priority)
	if err != nil {
		response.FromDomain(c, err, "failed to award badge")
		return
	}
	response.Created(c, pb)
}

// ListMine handles GET /profile/badges.
func (h *Handler) ListMine(c *gin.Context) {
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)
	list, err := h.svc.ListByProfile(c.Request.Context(), profileID)
	if err != nil {
		response.Internal(c, "failed to list badges")
		return
	}
	response.OK(c, gin.H{"badges": list})
}

// SetPriority handles PUT /profile/badges/:id/priority.
func (h *Handler) SetPriority(c *gin.Context) {
	badgeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid badge id")
		return
	}
	var req PriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)
	if err := h.svc.SetPriority(c.Request.Context(), badgeID, profileID, req.Priority); err != nil {
		response.FromDomain(c, err, "failed to set priority")
		return
	}
	response.OK(c, gin.H{"badge_id": badgeID, "priority": req.Priority})
}

// UploadImage handles POST /badges/:id/image (multipart image upload).
func (h *Handler) UploadImage(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "media storage is not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid badge id")
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if file.Size > storage.MaxImageSize {
		response.BadRequest(c, "file too large")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !storage.ValidateImageType(contentType, file.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Internal(c, "failed to read upload")
		return
	}
	defer src.Close()

	key := storage.BadgeKey(id.String(), file.Filename)
	if _, err := h.s3.Upload(c.Request.Context(), key, contentType, src); err != nil {
		h.logger.Error("badge image upload failed", zap.String("badge_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to upload image")
		return
	}
	if _, err := h.svc.SetImageKey(c.Request.Context(), id, key); err != nil {
		response.FromDomain(c, err, "failed to save image")
		return
	}
	response.OK(c, gin.H{"badge_id": id, "image_key": key})
}
