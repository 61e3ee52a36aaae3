package repository

import (
	"context"
	"time"

	"hotel/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

type paymentModel struct {
	ID            int64           `gorm:"column:id;primaryKey"`
	BookingID     int64           `gorm:"column:booking_id"`
	Amount        decimal.Decimal `gorm:"column:amount"`
	Method        string          `gorm:"column:payment_method"`
	Status        string          `gorm:"column:status"`
	TransactionID string          `gorm:"column:transaction_id"`
	PaidAt        *time.Time      `gorm:"column:paid_at"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
}

func (paymentModel) TableName() string { return "payments" }

func toDomainPayment(m paymentModel) *domain.Payment {
	return &domain.Payment{
		ID:            m.ID,
		BookingID:     m.BookingID,
		Amount:        m.Amount,
		Method:        domain.PaymentMethod(m.Method),
		Status:        domain.PaymentStatus(m.Status),
		TransactionID: m.TransactionID,
		PaidAt:        m.PaidAt,
		CreatedAt:     m.CreatedAt,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	m := paymentModel{
		BookingID:     p.BookingID,
		Amount:        p.Amount,
		Method:        string(p.Method),
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		PaidAt:        p.PaidAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	*p = *toDomainPayment(m)
	return nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	var rows []paymentModel
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.Payment, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainPayment(m))
	}
	return out, nil
}

func (r *PaymentRepository) HasCompleted(ctx context.Context, bookingID int64) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&paymentModel{}).
		Where("booking_id = ? AND status = ?", bookingID, string(domain.PaymentCompleted)).
		Count(&cnt).Error
	return cnt > 0, err
}
