package profiles

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

// UpdateRequest is the body for PATCH /profile. Only present fields apply.
type UpdateRequest struct {
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Gender      *string `json:"gender"`
	Birthday    *string `json:"birthday"` // YYYY-MM-DD
}

// InterestsRequest is the body for PUT /profile/interests.
type InterestsRequest struct {
	TagIDs []uuid.UUID `json:"tag_ids"`
}

// PreferenceRequest is the body for PUT /profile/preference.
type PreferenceRequest struct {
	Confidentiality int `json:"confidentiality"`
}

// Handler handles profile HTTP endpoints.
type Handler struct {
	svc    *Service
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates a profiles handler.
func NewHandler(svc *Service, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, s3: s3, logger: logger}
}

// Me handles GET /profile.
func (h *Handler) Me(c *gin.Context) {
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)
	p, err := h.svc.Get(c.Request.Context(), profileID)
	if err != nil {
		response.FromDomain(c, err, "failed to load profile")
		return
	}
	age, hasAge, _ := h.svc.Age(c.Request.Context(), profileID)
	body := gin.H{"profile": p}
	if hasAge {
		body["age"] = age
	}
	response.OK(c, body)
}

// GetByID handles GET /profiles/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid profile id")
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.FromDomain(c, err, "failed to load profile")
		return
	}
	response.OK(c, p)
}

// Update handles PATCH /profile, applying each present field.
func (h *Handler) Update(c *gin.Context) {
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	apply := func(err error) bool {
		if err != nil {
			response.FromDomain(c, err, "failed to update profile")
			return false
		}
		return true
	}

	if req.Email != nil {
		if _, err := h.svc.UpdateEmail(ctx, profileID, *req.Email); !apply(err) {
			return
		}
	}
	if req.PhoneNumber != nil {
		if _, err := h.svc.UpdatePhone(ctx, profileID, *req.PhoneNumber); !apply(err) {
			return
		}
	}
	if req.FirstName != nil || req.LastName != nil {
		first, last := "", ""
		if req.FirstName != nil {
			first = *req.FirstName
		}
		if req.LastName != nil {
			last = *req.LastName
		}
		if err := h.svc.UpdateNames(ctx, profileID, first, last); !apply(err) {
			return
		}
	}
	if req.Gender != nil {
		if _, err := h.svc.UpdateGender(ctx, profileID, models.Gender(*req.Gender)); !apply(err) {
			return
		}
	}
	if req.Birthday != nil {
		birthday, err := time.Parse("2006-01-02", *req.Birthday)
		if err != nil {
			response.BadRequest(c, "birthday must be YYYY-MM-DD")
			return
		}
		if _, err := h.svc.UpdateBirthday(ctx, profileID, birthday); !apply(err) {
			return
		}
	}

	p, err := h.svc.Get(ctx, profileID)
	if err != nil {
		response.FromDomain(c, err, "failed to load profile")
		return
	}
	response.OK(c, p)
}

// Verify handles GET /verify/:token from the emailed link.
func (h *Handler) Verify(c *gin.Context) {
	p, err := h.svc.Verify(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.FromDomain(c, err, "failed to verify profile")
		return
	}
	response.OK(c, gin.H{"profile_id": p.ID, "verified": p.Verified})
}

// WorkshopsAttended handles GET /profile/workshops/attended.
func (h *Handler) WorkshopsAttended(c *gin.Context) {
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)
	list, err := h.svc.WorkshopsAttended(c.Request.Context(), profileID)
	if err != nil {
		response.Internal(c, "failed to list attended workshops")
		return
	}
	response.OK(c, gin.H{"workshops": list})
}

// WorkshopsAnimated handles GET /profile/workshops/animated.
func (h *Handler) WorkshopsAnimated(c *gin.Context) {
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)
	list, err := h.svc.WorkshopsAnimated(c.Request.Context(), profileID)
	if err != nil {
		response.Internal(c, "failed to list animated workshops")
		return
	}
	response.OK(c, gin.H{"workshops": list})
}

// SetInterests handles PUT /profile/interests.
func (h *Handler) SetInterests(c *gin.Context) {
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)
	var req InterestsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.svc.SetInterests(c.Request.Context(), profileID, req.TagIDs); err != nil {
		response.FromDomain(c, err, "failed to set interests")
		return
	}
	response.OK(c, gin.H{"tag_ids": req.TagIDs})
}

// Interests handles GET /profile/interests.
func (h *Handler) Interests(c *gin.Context) {
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)
	tags, err := h.svc.Interests(c.Request.Context(), profileID)
	if err != nil {
		response.Internal(c, "failed to list interests")
		return
	}
	response.OK(c, gin.H{"interests": tags})
}

// Preference handles GET /profile/preference.
func (h *Handler) Preference(c *gin.Context) {
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)
	pref, err := h.svc.Preference(c.Request.Context(), profileID)
	if err != nil {
		response.Internal(c, "failed to load preference")
		return
	}
	response.OK(c, pref)
}

// SetPreference handles PUT /profile/preference.
func (h *Handler) SetPreference(c *gin.Context) {
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)
	var req PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	pref, err := h.svc.SetPreference(c.Request.Context(), profileID, req.Confidentiality)
	if err != nil {
		response.FromDomain(c, err, "failed to set preference")
		return
	}
	response.OK(c, pref)
}

// UploadPhoto handles POST /profile/photo (multipart image upload).
func (h *Handler) UploadPhoto(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "media storage is not configured")
		return
	}
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)

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

	key := storage.PhotoKey(profileID.String(), file.Filename)
	if _, err := h.s3.Upload(c.Request.Context(), key, contentType, src); err != nil {
		h.logger.Error("photo upload failed", zap.String("profile_id", profileID.String()), zap.Error(err))
		response.Internal(c, "failed to upload photo")
		return
	}
	if _, err := h.svc.SetPhotoKey(c.Request.Context(), profileID, key); err != nil {
		response.FromDomain(c, err, "failed to save photo")
		return
	}
	response.OK(c, gin.H{"photo_key": key})
}

// PhotoURL handles GET /profiles/:id/photo, returning a presigned URL.
func (h *Handler) PhotoURL(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "media storage is not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid profile id")
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.FromDomain(c, err, "failed to load profile")
		return
	}
	if p.PhotoKey == "" {
		response.NotFound(c, "profile has no photo")
		return
	}
	url, err := h.s3.PresignGet(c.Request.Context(), p.PhotoKey)
	if err != nil {
		h.logger.Error("photo presign failed", zap.Error(err))
		response.Internal(c, "failed to sign photo url")
		return
	}
	response.OK(c, gin.H{"url": url})
}
