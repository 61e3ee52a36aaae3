package booking

import (
	"context"
	"net/http"
	"strconv"

	"hotel/internal/authz"
	"hotel/internal/domain"
	"hotel/internal/middleware"
	"hotel/internal/pkg/response"
	"hotel/internal/repository"

	"github.com/gin-gonic/gin"
)

type (
	bookingFunc func(ctx context.Context, actor authz.Actor, id int64) (*domain.Booking, error)
	roomFunc    func(ctx context.Context, actor authz.Actor, id int64) (*domain.Room, error)
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the guest-facing routes on protected and the staff
// desk under reception. Both groups must already carry JWTAuth.
func (h *Handler) RegisterRoutes(protected, reception *gin.RouterGroup) {
	if protected != nil {
		protected.GET("/rooms", h.ListRooms)
		protected.GET("/rooms/:id", h.GetRoom)
		protected.GET("/rooms/:id/availability", h.CheckAvailability)

		protected.POST("/bookings", h.CreateGuestBooking)
		protected.GET("/bookings/mine", h.ListOwnBookings)
		protected.GET("/bookings/:id", h.GetBooking)
		protected.POST("/bookings/:id/cancel", h.CancelBooking)
	}

	if reception != nil {
		reception.GET("/bookings", h.ListAllBookings)
		reception.POST("/bookings", h.CreateReceptionBooking)
		reception.GET("/bookings/:id", h.GetBooking)
		reception.PATCH("/bookings/:id/status", h.UpdateBookingStatus)
		reception.POST("/bookings/:id/check-in", h.CheckIn)
		reception.POST("/bookings/:id/check-out", h.CheckOut)
		reception.DELETE("/bookings/:id", h.DeleteBooking)

		reception.POST("/rooms/:id/maintenance", h.MarkRoomMaintenance)
		reception.POST("/rooms/:id/maintenance/finish", h.FinishRoomMaintenance)
		reception.PATCH("/rooms/:id/status", h.UpdateRoomStatus)
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid ID")
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	return true
}

// CreateGuestBooking godoc
// @Summary  Request a room for the authenticated guest
// @Tags     Bookings
// @Security BearerAuth
// @Param    request body CreateBookingRequest true "room, dates and party size"
// @Success  201 {object} map[string]interface{}
// @Failure  400 {object} map[string]interface{} "validation error or dates taken"
// @Failure  409 {object} map[string]interface{} "room under maintenance"
// @Router   /bookings [POST]
func (h *Handler) CreateGuestBooking(c *gin.Context) {
	var req CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.service.CreateGuestBooking(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

// CreateReceptionBooking godoc
// @Summary  Book a room for a registered guest; the booking is confirmed at once
// @Tags     Reception
// @Security BearerAuth
// @Param    request body ReceptionBookingRequest true "guest email, room, dates and party size"
// @Router   /reception/bookings [POST]
func (h *Handler) CreateReceptionBooking(c *gin.Context) {
	var req ReceptionBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.service.CreateReceptionBooking(c.Request.Context(), middleware.CurrentActor(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateBookingStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.service.UpdateBookingStatus(c.Request.Context(), middleware.CurrentActor(c), id, req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

// CheckIn godoc
// @Summary  Check in a confirmed booking
// @Tags     Reception
// @Security BearerAuth
// @Param    id path int true "booking id"
// @Failure  409 {object} map[string]interface{} "booking is not confirmed"
// @Router   /reception/bookings/{id}/check-in [POST]
func (h *Handler) CheckIn(c *gin.Context) {
	h.bookingAction(c, h.service.CheckIn)
}

// CheckOut godoc
// @Summary  Check out a checked-in booking
// @Tags     Reception
// @Security BearerAuth
// @Param    id path int true "booking id"
// @Router   /reception/bookings/{id}/check-out [POST]
func (h *Handler) CheckOut(c *gin.Context) {
	h.bookingAction(c, h.service.CheckOut)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	h.bookingAction(c, h.service.CancelBooking)
}

func (h *Handler) GetBooking(c *gin.Context) {
	h.bookingAction(c, h.service.GetBooking)
}

func (h *Handler) bookingAction(c *gin.Context, action bookingFunc) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	b, err := action(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) ListOwnBookings(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	items, err := h.service.ListOwnBookings(c.Request.Context(), middleware.CurrentActor(c), limit, offset)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": items})
}

// ListAllBookings godoc
// @Summary  List bookings across guests
// @Tags     Reception
// @Security BearerAuth
// @Param    status   query string false "pending, confirmed, checked_in, checked_out or cancelled"
// @Param    room_id  query int    false "room id"
// @Param    guest_id query int    false "guest id"
// @Router   /reception/bookings [GET]
func (h *Handler) ListAllBookings(c *gin.Context) {
	f := repository.BookingFilter{Status: domain.BookingStatus(c.Query("status"))}
	f.RoomID, _ = strconv.ParseInt(c.Query("room_id"), 10, 64)
	f.GuestID, _ = strconv.ParseInt(c.Query("guest_id"), 10, 64)
	f.Limit, _ = strconv.Atoi(c.Query("limit"))
	f.Offset, _ = strconv.Atoi(c.Query("offset"))

	items, err := h.service.ListAllBookings(c.Request.Context(), middleware.CurrentActor(c), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": items})
}

func (h *Handler) ListRooms(c *gin.Context) {
	f := repository.RoomFilter{Status: domain.RoomStatus(c.Query("status"))}
	f.Floor, _ = strconv.Atoi(c.Query("floor"))

	rooms, err := h.service.ListRooms(c.Request.Context(), middleware.CurrentActor(c), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rooms": rooms})
}

func (h *Handler) GetRoom(c *gin.Context) {
	h.roomAction(c, h.service.GetRoom)
}

// CheckAvailability godoc
// @Summary  Ask whether a room is free for a stay
// @Tags     Rooms
// @Security BearerAuth
// @Param    id        path  int    true "room id"
// @Param    check_in  query string true "YYYY-MM-DD"
// @Param    check_out query string true "YYYY-MM-DD"
// @Router   /rooms/{id}/availability [GET]
func (h *Handler) CheckAvailability(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	checkIn, errIn := domain.ParseDate(c.Query("check_in"))
	checkOut, errOut := domain.ParseDate(c.Query("check_out"))
	if errIn != nil || errOut != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "check_in and check_out must be YYYY-MM-DD dates")
		return
	}

	res, err := h.service.CheckAvailability(c.Request.Context(), middleware.CurrentActor(c), id, checkIn, checkOut)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) MarkRoomMaintenance(c *gin.Context) {
	h.roomAction(c, h.service.MarkRoomMaintenance)
}

func (h *Handler) FinishRoomMaintenance(c *gin.Context) {
	h.roomAction(c, h.service.FinishRoomMaintenance)
}

func (h *Handler) UpdateRoomStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateRoomStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	room, err := h.service.UpdateRoomStatus(c.Request.Context(), middleware.CurrentActor(c), id, req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"room": room})
}

func (h *Handler) roomAction(c *gin.Context, action roomFunc) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	room, err := action(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"room": room})
}
