package workshops

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openclass/backend/internal/middleware"
	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/pkg/response"
	"github.com/openclass/backend/pkg/storage"
)

// SubmitRequest is the body for POST /workshops.
type SubmitRequest struct {
	Title             string   `json:"title" binding:"required"`
	Description       string   `json:"description" binding:"required"`
	RequiredMaterials string   `json:"required_materials"`
	Objectives        string   `json:"objectives"`
	Requirements      string   `json:"requirements"`
	Seats             int      `json:"seats" binding:"required"`
	StartsAt          string   `json:"starts_at" binding:"required"` // RFC3339, offset mandatory
	DurationMinutes   int      `json:"duration_minutes" binding:"required"`
	Policy            string   `json:"policy"`
	Location          string   `json:"location" binding:"required"`
	TopicIDs          []string `json:"topic_ids"`
}

// UpdateRequest is the body for PATCH /workshops/:id. Each present field is
// applied through its own validated updater.
type UpdateRequest struct {
	Title             *string `json:"title"`
	Description       *string `json:"description"`
	RequiredMaterials *string `json:"required_materials"`
	Objectives        *string `json:"objectives"`
	Requirements      *string `json:"requirements"`
	Seats             *int    `json:"seats"`
	StartsAt          *string `json:"starts_at"`
	Location          *string `json:"location"`
}

// Handler handles workshop HTTP endpoints.
type Handler struct {
	svc    *Service
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates a workshop handler. s3 may be nil when media storage
// is disabled.
func NewHandler(svc *Service, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, s3: s3, logger: logger}
}

// Submit handles POST /workshops (any member proposes a workshop).
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		response.BadRequest(c, "starts_at must be RFC3339 with timezone offset")
		return
	}
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)

	w, err := h.svc.Submit(c.Request.Context(), SubmitInput{
		AnimatorID:        profileID,
		Title:             req.Title,
		Description:       req.Description,
		RequiredMaterials: req.RequiredMaterials,
		Objectives:        req.Objectives,
		Requirements:      req.Requirements,
		Seats:             req.Seats,
		StartsAt:          startsAt,
		Duration:          time.Duration(req.DurationMinutes) * time.Minute,
		Policy:            models.RegistrationPolicy(req.Policy),
		Location:          req.Location,
	})
	if err != nil {
		response.FromDomain(c, err, "failed to submit workshop")
		return
	}

	if len(req.TopicIDs) > 0 {
		tagIDs := make([]uuid.UUID, 0, len(req.TopicIDs))
		for _, s := range req.TopicIDs {
			if id, err := uuid.Parse(s); err == nil {
				tagIDs = append(tagIDs, id)
			}
		}
		if err := h.svc.SetTopics(c.Request.Context(), w.ID, tagIDs); err != nil {
			h.logger.Warn("set topics failed", zap.String("workshop_id", w.ID.String()), zap.Error(err))
		}
	}
	response.Created(c, w)
}

// GetByID handles GET /workshops/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	w, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.FromDomain(c, err, "failed to load workshop")
		return
	}
	response.OK(c, w)
}

// List handles GET /workshops. Filters: ?status=, ?tag=, ?mine=1.
func (h *Handler) List(c *gin.Context) {
	var f Filter
	f.Status = models.WorkshopStatus(c.Query("status"))
	if tag := c.Query("tag"); tag != "" {
		tagID, err := uuid.Parse(tag)
		if err != nil {
			response.BadRequest(c, "invalid tag id")
			return
		}
		f.TagID = &tagID
	}
	if c.Query("mine") == "1" {
		pid := c.MustGet(middleware.ContextProfileID).(uuid.UUID)
		f.AnimatorID = &pid
	}
	list, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		response.Internal(c, "failed to list workshops")
		return
	}
	response.OK(c, list)
}

// Upcoming handles GET /workshops/upcoming.
func (h *Handler) Upcoming(c *gin.Context) {
	list, err := h.svc.Upcoming(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list upcoming workshops")
		return
	}
	response.OK(c, list)
}

// Pending handles GET /moderation/workshops (moderator queue).
func (h *Handler) Pending(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), Filter{Status: models.WorkshopPending})
	if err != nil {
		response.Internal(c, "failed to list pending workshops")
		return
	}
	response.OK(c, list)
}

// Decide handles POST /moderation/workshops/:id/decision with body
// {"decision": "accept"|"refuse"} (moderator only).
func (h *Handler) Decide(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	var req struct {
		Decision string `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	var w *models.Workshop
	switch req.Decision {
	case "accept":
		w, err = h.svc.Accept(c.Request.Context(), id)
	case "refuse":
		w, err = h.svc.Refuse(c.Request.Context(), id)
	default:
		response.BadRequest(c, "decision must be accept or refuse")
		return
	}
	if err != nil {
		response.FromDomain(c, err, "failed to decide workshop")
		return
	}
	response.OK(c, w)
}

// MarkDone handles POST /workshops/:id/done.
func (h *Handler) MarkDone(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	w, err := h.svc.MarkDone(c.Request.Context(), id)
	if err != nil {
		response.FromDomain(c, err, "failed to mark workshop done")
		return
	}
	response.OK(c, w)
}

// Cancel handles POST /workshops/:id/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	w, err := h.svc.Cancel(c.Request.Context(), id)
	if err != nil {
		response.FromDomain(c, err, "failed to cancel workshop")
		return
	}
	response.OK(c, w)
}

// Update handles PATCH /workshops/:id (animator only).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	w, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.FromDomain(c, err, "failed to load workshop")
		return
	}
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)
	if w.AnimatorID == nil || *w.AnimatorID != profileID {
		response.Forbidden(c, "only the animator can update this workshop")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	apply := func(e error) bool {
		if e != nil {
			response.FromDomain(c, e, "failed to update workshop")
			return false
		}
		return true
	}
	if req.Title != nil && !apply(h.svc.UpdateTitle(ctx, id, *req.Title)) {
		return
	}
	if req.Description != nil && !apply(h.svc.UpdateDescription(ctx, id, *req.Description)) {
		return
	}
	if req.RequiredMaterials != nil && !apply(h.svc.UpdateRequiredMaterials(ctx, id, *req.RequiredMaterials)) {
		return
	}
	if req.Objectives != nil && !apply(h.svc.UpdateObjectives(ctx, id, *req.Objectives)) {
		return
	}
	if req.Requirements != nil && !apply(h.svc.UpdateRequirements(ctx, id, *req.Requirements)) {
		return
	}
	if req.Seats != nil && !apply(h.svc.UpdateSeats(ctx, id, *req.Seats)) {
		return
	}
	if req.StartsAt != nil {
		t, err := time.Parse(time.RFC3339, *req.StartsAt)
		if err != nil {
			response.BadRequest(c, "starts_at must be RFC3339 with timezone offset")
			return
		}
		if !apply(h.svc.UpdateStartDate(ctx, id, t)) {
			return
		}
	}
	if req.Location != nil && !apply(h.svc.UpdateLocation(ctx, id, *req.Location)) {
		return
	}

	updated, err := h.svc.Get(ctx, id)
	if err != nil {
		response.Internal(c, "failed to reload workshop")
		return
	}
	response.OK(c, updated)
}

// DaysLeft handles GET /workshops/:id/days-left.
func (h *Handler) DaysLeft(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	days, err := h.svc.DaysLeft(c.Request.Context(), id)
	if err != nil {
		response.FromDomain(c, err, "failed to compute days left")
		return
	}
	response.OK(c, gin.H{"workshop_id": id, "days_left": days})
}

// Topics handles GET /workshops/:id/topics.
func (h *Handler) Topics(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	tags, err := h.svc.Topics(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to list topics")
		return
	}
	response.OK(c, gin.H{"workshop_id": id, "topics": tags})
}

// UploadCover handles POST /workshops/:id/cover (multipart image upload).
func (h *Handler) UploadCover(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "media storage is not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
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

	key := storage.CoverKey(id.String(), file.Filename)
	if _, err := h.s3.Upload(c.Request.Context(), key, contentType, src); err != nil {
		h.logger.Error("cover upload failed", zap.String("workshop_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to upload cover")
		return
	}
	if err := h.svc.SetCover(c.Request.Context(), id, key); err != nil {
		response.FromDomain(c, err, "failed to save cover")
		return
	}
	response.OK(c, gin.H{"workshop_id": id, "cover_key": key})
}

// CoverURL handles GET /workshops/:id/cover (presigned download URL).
func (h *Handler) CoverURL(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "media storage is not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	w, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.FromDomain(c, err, "failed to load workshop")
		return
	}
	if w.CoverKey == "" {
		response.NotFound(c, "workshop has no cover image")
		return
	}
	url, err := h.s3.PresignGet(c.Request.Context(), w.CoverKey)
	if err != nil {
		response.Internal(c, "failed to presign cover URL")
		return
	}
	response.OK(c, gin.H{"workshop_id": id, "url": url})
}
