package admin

import (
	"hotel/internal/domain"

	"github.com/shopspring/decimal"
)

type ChangeRoleRequest struct {
	Role domain.UserRole `json:"role" binding:"required"`
}

type CreateRoomRequest struct {
	Number        string          `json:"number" validate:"required,max=10"`
	Name          string          `json:"name" validate:"required,max=100"`
	Description   string          `json:"description"`
	Floor         int             `json:"floor" validate:"gte=0"`
	Capacity      int             `json:"capacity" validate:"required,gt=0"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
}

type UserListResponse struct {
	Users  []domain.User `json:"users"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}
