package repository

import (
	"context"
	"time"

	"hotel/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuditRepository only appends and reads; entries are never updated.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) WithTx(tx *gorm.DB) *AuditRepository {
	return &AuditRepository{db: tx}
}

type auditLogModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	EventID     string    `gorm:"column:event_id"`
	ActorID     *int64    `gorm:"column:actor_id"`
	Action      string    `gorm:"column:action"`
	ModelType   string    `gorm:"column:model_type"`
	ObjectID    int64     `gorm:"column:object_id"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (auditLogModel) TableName() string { return "audit_logs" }

func toDomainAuditLog(m auditLogModel) domain.AuditLog {
	return domain.AuditLog{
		ID:          m.ID,
		EventID:     m.EventID,
		ActorID:     m.ActorID,
		Action:      domain.AuditAction(m.Action),
		ModelType:   m.ModelType,
		ObjectID:    m.ObjectID,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}

// Insert appends entries. An entry whose event id is already stored is skipped,
// so redelivered entries never duplicate.
func (r *AuditRepository) Insert(ctx context.Context, entries ...domain.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]auditLogModel, 0, len(entries))
	for _, e := range entries {
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		rows = append(rows, auditLogModel{
			EventID:     e.EventID,
			ActorID:     e.ActorID,
			Action:      string(e.Action),
			ModelType:   e.ModelType,
			ObjectID:    e.ObjectID,
			Description: e.Description,
			CreatedAt:   createdAt,
		})
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&rows).Error
}

type AuditFilter struct {
	ActorID   int64
	ModelType string
	ObjectID  int64
	Action    domain.AuditAction
	Limit     int
	Offset    int
}

// List returns entries newest first.
func (r *AuditRepository) List(ctx context.Context, f AuditFilter) ([]domain.AuditLog, error) {
	q := r.db.WithContext(ctx).Model(&auditLogModel{})
	if f.ActorID > 0 {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if f.ModelType != "" {
		q = q.Where("model_type = ?", f.ModelType)
	}
	if f.ObjectID > 0 {
		q = q.Where("object_id = ?", f.ObjectID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", string(f.Action))
	}

	var rows []auditLogModel
	if err := paginate(q, f.Limit, f.Offset).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.AuditLog, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainAuditLog(m))
	}
	return out, nil
}
