package registrations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openclass/backend/internal/middleware"
	"github.com/openclass/backend/pkg/response"
)

// Handler handles registration HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register handles POST /workshops/:id/register.
func (h *Handler) Register(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)

	reg, err := h.svc.Register(c.Request.Context(), workshopID, profileID)
	if err != nil {
		response.FromDomain(c, err, "failed to register")
		return
	}
	response.Created(c, reg)
}

// Decide handles POST /registrations/:id/decision with body
// {"decision": "accept"|"refuse"} (workshop animator, manual policy).
func (h *Handler) Decide(c *gin.Context) {
	regID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	var req struct {
		Decision string `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Decision != "accept" && req.Decision != "refuse" {
		response.BadRequest(c, "decision must be accept or refuse")
		return
	}
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)

	reg, err := h.svc.Decide(c.Request.Context(), regID, profileID, req.Decision == "accept")
	if err != nil {
		response.FromDomain(c, err, "failed to decide registration")
		return
	}
	response.OK(c, reg)
}

// Cancel handles POST /registrations/:id/cancel.
func (h *Handler) Cancel(c *gin.Context) {
	regID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)

	reg, err := h.svc.Cancel(c.Request.Context(), regID, profileID)
	if err != nil {
		response.FromDomain(c, err, "failed to cancel registration")
		return
	}
	response.OK(c, reg)
}

// ConfirmPresence handles POST /registrations/:id/presence
// (moderator or animator attendance desk).
func (h *Handler) ConfirmPresence(c *gin.Context) {
	regID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	reg, err := h.svc.ConfirmPresence(c.Request.Context(), regID)
	if err != nil {
		response.FromDomain(c, err, "failed to confirm presence")
		return
	}
	response.OK(c, reg)
}

// ListByWorkshop handles GET /workshops/:id/registrations.
func (h *Handler) ListByWorkshop(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	list, err := h.svc.ListByWorkshop(c.Request.Context(), workshopID)
	if err != nil {
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, gin.H{"workshop_id": workshopID, "registrations": list})
}

// ListMine handles GET /profile/registrations.
func (h *Handler) ListMine(c *gin.Context) {
	profileID := c.MustGet(middleware.ContextProfileID).(uuid.UUID)
	list, err := h.svc.ListByProfile(c.Request.Context(), profileID)
	if err != nil {
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, gin.H{"registrations": list})
}
