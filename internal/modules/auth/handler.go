package auth

import (
	"errors"
	"net/http"

	"hotel/internal/middleware"
	"hotel/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.GET("/users/me", h.GetMe)
	protected.PATCH("/auth/me", h.UpdateMe)
	protected.POST("/auth/logout", h.Logout)
}

// Register godoc
// @Summary  Register a guest account
// @Tags     Auth
// @Param    request body RegisterRequest true "username, email, password and optional contact details"
// @Success  201 {object} map[string]interface{} "account created, token returned"
// @Failure  400 {object} map[string]interface{}
// @Failure  409 {object} map[string]interface{} "email or username taken"
// @Router   /auth/register [POST]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	token, err := h.service.jwt.GenerateToken(user.ID, string(user.Role), user.Email)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user":  toPublic(user),
		"token": token,
	})
}

// Login godoc
// @Summary  Exchange email and password for a bearer token
// @Tags     Auth
// @Param    request body LoginRequest true "credentials"
// @Success  200 {object} map[string]interface{}
// @Failure  401 {object} map[string]interface{} "wrong email or password"
// @Router   /auth/login [POST]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
			return
		}
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":  toPublic(res.User),
		"token": res.AccessToken,
	})
}

func (h *Handler) GetMe(c *gin.Context) {
	user, err := h.service.GetCurrentUser(c.Request.Context(), middleware.CurrentActor(c).ID)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": toPublic(user)})
}

// UpdateMe godoc
// @Summary  Update the caller's username, names or phone
// @Tags     Auth
// @Param    request body UpdateProfileRequest true "fields to change"
// @Success  200 {object} map[string]interface{}
// @Failure  400 {object} map[string]interface{}
// @Failure  409 {object} map[string]interface{} "username taken"
// @Router   /auth/me [PATCH]
func (h *Handler) UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), middleware.CurrentActor(c).ID, req)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": toPublic(user)})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), middleware.CurrentActor(c).ID); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}
