package payment

import (
	"hotel/internal/domain"

	"github.com/shopspring/decimal"
)

type CreatePaymentRequest struct {
	BookingID int64                `json:"booking_id" binding:"required" example:"123"`
	Amount    decimal.Decimal      `json:"amount" example:"200.00"`
	Method    domain.PaymentMethod `json:"payment_method" binding:"required" example:"credit_card"`
}
