package repository

import (
	"context"
	"strings"
	"time"

	"hotel/internal/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx scopes the repository to an open transaction.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

type userModel struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	Email        string    `gorm:"column:email"`
	Username     string    `gorm:"column:username"`
	PasswordHash string    `gorm:"column:password_hash"`
	Role         string    `gorm:"column:role"`
	FirstName    string    `gorm:"column:first_name"`
	LastName     string    `gorm:"column:last_name"`
	Phone        string    `gorm:"column:phone"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

func toDomainUser(m userModel) *domain.User {
	return &domain.User{
		ID:           m.ID,
		Email:        m.Email,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Role:         domain.UserRole(m.Role),
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Phone:        m.Phone,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toUserModel(u *domain.User) userModel {
	role := u.Role
	if role == "" {
		role = domain.RoleGuest
	}
	return userModel{
		ID:           u.ID,
		Email:        NormalizeEmail(u.Email),
		Username:     strings.TrimSpace(u.Username),
		PasswordHash: u.PasswordHash,
		Role:         string(role),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Phone:        u.Phone,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	m := toUserModel(u)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	*u = *toDomainUser(m)
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m userModel
	err := r.db.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("email = ? OR username = ?", NormalizeEmail(email), strings.TrimSpace(username)).
		Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// UsernameTaken reports whether another account already uses username.
func (r *UserRepository) UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("username = ? AND id <> ?", strings.TrimSpace(username), exceptID).
		Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// UpdateProfile writes the contact fields of u. Email, role and password are
// left alone.
func (r *UserRepository) UpdateProfile(ctx context.Context, u *domain.User) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"username":   strings.TrimSpace(u.Username),
			"first_name": u.FirstName,
			"last_name":  u.LastName,
			"phone":      u.Phone,
			"updated_at": now,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	u.UpdatedAt = now
	return nil
}

type UserFilter struct {
	Role   domain.UserRole
	Limit  int
	Offset int
}

func (r *UserRepository) List(ctx context.Context, f UserFilter) ([]domain.User, error) {
	q := r.db.WithContext(ctx).Model(&userModel{})
	if f.Role != "" {
		q = q.Where("role = ?", string(f.Role))
	}

	var rows []userModel
	if err := paginate(q, f.Limit, f.Offset).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.User, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainUser(m))
	}
	return out, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role domain.UserRole) error {
	res := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"role": string(role), "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&userModel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func paginate(q *gorm.DB, limit, offset int) *gorm.DB {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return q.Limit(limit).Offset(offset)
}
