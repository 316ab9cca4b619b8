package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/pkg/response"
	"github.com/openclass/backend/pkg/utils"
)

// SignupRequest is the body for POST /auth/signup.
type SignupRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RoleRequest is the body for PUT /users/:id/role (admin).
type RoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token   string            `json:"token"`
	User    models.UserPublic `json:"user"`
	Profile *models.Profile   `json:"profile,omitempty"`
}

// Notifier queues the verification email sent at signup. Fire and forget.
type Notifier interface {
	VerificationRequested(profileID uuid.UUID, email, token string)
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo     *Repository
	jwt      *JWTService
	notifier Notifier
	logger   *zap.Logger
}

// NewHandler creates an auth handler. notifier may be nil.
func NewHandler(repo *Repository, jwt *JWTService, notifier Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, notifier: notifier, logger: logger}
}

// Signup handles POST /auth/signup. Every account starts as a member with an
// unverified profile; a verification email is queued.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	verificationToken, err := utils.NewVerificationToken()
	if err != nil {
		response.Internal(c, "failed to issue verification token")
		return
	}

	user, profile, err := h.repo.Create(c.Request.Context(), req.Email, hash,
		req.FirstName, req.LastName, verificationToken)
	if err != nil {
		response.FromDomain(c, err, "failed to create account")
		return
	}

	if h.notifier != nil {
		h.notifier.VerificationRequested(profile.ID, user.Email, verificationToken)
	}

	token, err := h.jwt.Generate(user.ID, profile.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic(), Profile: profile})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	profileID, err := h.repo.GetProfileID(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("profile lookup failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		response.Internal(c, "failed to load profile")
		return
	}

	token, err := h.jwt.Generate(user.ID, profileID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	c.JSON(http.StatusOK, response.Body{Success: true, Data: TokenResponse{Token: token, User: user.ToPublic()}})
}

// SetRole handles PUT /users/:id/role (admin only).
func (h *Handler) SetRole(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role := models.Role(req.Role)
	switch role {
	case models.RoleMember, models.RoleModerator, models.RoleAdmin:
	default:
		response.BadRequest(c, "invalid role")
		return
	}
	if err := h.repo.SetRole(c.Request.Context(), userID, role); err != nil {
		response.FromDomain(c, err, "failed to set role")
		return
	}
	response.OK(c, gin.H{"user_id": userID, "role": role})
}

// List handles GET /users (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, response.Body{Success: true, Data: list})
}
