package admin

import (
	"net/http"
	"strconv"

	"hotel/internal/domain"
	"hotel/internal/middleware"
	"hotel/internal/pkg/response"
	"hotel/internal/repository"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	// users
	admin.GET("/users", h.ListUsers)
	admin.PATCH("/users/:id/role", h.ChangeRole)
	admin.DELETE("/users/:id", h.DeleteUser)

	// rooms
	admin.POST("/rooms", h.CreateRoom)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid ID")
		return 0, false
	}
	return id, true
}

// ListUsers godoc
// @Summary  List user accounts
// @Tags     Admin
// @Security BearerAuth
// @Param    role   query string false "admin, reception or guest"
// @Param    limit  query int    false "page size (default 50)"
// @Param    offset query int    false "page offset"
// @Router   /admin/users [GET]
func (h *Handler) ListUsers(c *gin.Context) {
	f := repository.UserFilter{
		Role:   domain.UserRole(c.Query("role")),
		Limit:  parseIntDefault(c.Query("limit"), 50),
		Offset: parseIntDefault(c.Query("offset"), 0),
	}

	users, err := h.service.ListUsers(c.Request.Context(), middleware.CurrentActor(c), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, UserListResponse{Users: users, Limit: f.Limit, Offset: f.Offset})
}

// ChangeRole godoc
// @Summary  Change a user's role
// @Tags     Admin
// @Security BearerAuth
// @Param    id      path int               true "user id"
// @Param    request body ChangeRoleRequest true "new role"
// @Router   /admin/users/{id}/role [PATCH]
func (h *Handler) ChangeRole(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	u, err := h.service.ChangeRole(c.Request.Context(), middleware.CurrentActor(c), id, req.Role)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

// CreateRoom godoc
// @Summary  Add a room to the inventory; new rooms start available
// @Tags     Admin
// @Security BearerAuth
// @Param    request body CreateRoomRequest true "room"
// @Router   /admin/rooms [POST]
func (h *Handler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	room, err := h.service.CreateRoom(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"room": room})
}
