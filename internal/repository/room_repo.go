package repository

import (
	"context"
	"time"

	"hotel/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomRepository reads the room registry. It never writes a room's status
// after creation.
type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) WithTx(tx *gorm.DB) *RoomRepository {
	return &RoomRepository{db: tx}
}

type roomModel struct {
	ID            int64           `gorm:"column:id;primaryKey"`
	Number        string          `gorm:"column:number"`
	Name          string          `gorm:"column:name"`
	Description   string          `gorm:"column:description"`
	Floor         int             `gorm:"column:floor"`
	Capacity      int             `gorm:"column:capacity"`
	PricePerNight decimal.Decimal `gorm:"column:price_per_night"`
	Status        string          `gorm:"column:status"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (roomModel) TableName() string { return "rooms" }

func toDomainRoom(m roomModel) *domain.Room {
	return &domain.Room{
		ID:            m.ID,
		Number:        m.Number,
		Name:          m.Name,
		Description:   m.Description,
		Floor:         m.Floor,
		Capacity:      m.Capacity,
		PricePerNight: m.PricePerNight,
		Status:        domain.RoomStatus(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// Create registers a new room. New rooms always start available.
func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	m := roomModel{
		Number:        room.Number,
		Name:          room.Name,
		Description:   room.Description,
		Floor:         room.Floor,
		Capacity:      room.Capacity,
		PricePerNight: room.PricePerNight,
		Status:        string(domain.RoomAvailable),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	*room = *toDomainRoom(m)
	return nil
}

func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	var m roomModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return toDomainRoom(m), nil
}

// GetByIDForUpdate locks the room row for the rest of the transaction.
// SQLite ignores the clause; its single connection already serializes writers.
func (r *RoomRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Room, error) {
	var m roomModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return toDomainRoom(m), nil
}

type RoomFilter struct {
	Status domain.RoomStatus
	Floor  int
}

func (r *RoomRepository) List(ctx context.Context, f RoomFilter) ([]domain.Room, error) {
	q := r.db.WithContext(ctx).Model(&roomModel{})
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.Floor > 0 {
		q = q.Where("floor = ?", f.Floor)
	}

	var rows []roomModel
	if err := q.Order("number ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.Room, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainRoom(m))
	}
	return out, nil
}
