package payment

import (
	"hotel/internal/pkg/apperror"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidBookingID = apperror.Validation("booking_id must be a positive integer")
	ErrInvalidAmount    = apperror.Validation("Payment amount must be greater than zero")
	ErrInvalidMethod    = apperror.Validation("Payment method must be one of credit_card, debit_card, cash, bank_transfer")

	ErrBookingNotPayable = apperror.Conflict("Booking must be confirmed or checked-in to accept payment")
	ErrAlreadyPaid       = apperror.Conflict("Booking has already been paid")

	ErrBookingNotFound = apperror.NotFound("Booking not found")
)

func errAmountMismatch(total decimal.Decimal) error {
	return apperror.Validationf("Payment amount must equal the booking total of %s", total.StringFixed(2))
}
