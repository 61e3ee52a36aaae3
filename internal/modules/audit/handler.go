package audit

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
	admin.GET("/audit-logs", h.List)
}

// List godoc
// @Summary  List audit log entries, newest first
// @Tags     Admin
// @Param    model_type query string false "Booking, Room, User or Payment"
// @Param    actor_id   query int    false "acting user id"
// @Param    limit      query int    false "page size (max 200)"
// @Param    offset     query int    false "page offset"
// @Router   /admin/audit-logs [GET]
func (h *Handler) List(c *gin.Context) {
	f := repository.AuditFilter{
		ModelType: c.Query("model_type"),
		Action:    domain.AuditAction(c.Query("action")),
	}
	f.ActorID, _ = strconv.ParseInt(c.Query("actor_id"), 10, 64)
	f.ObjectID, _ = strconv.ParseInt(c.Query("object_id"), 10, 64)
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	f.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	logs, err := h.service.List(c.Request.Context(), middleware.CurrentActor(c), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"audit_logs": logs})
}
