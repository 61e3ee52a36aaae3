package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hotel/internal/authz"
	"hotel/internal/domain"
	"hotel/internal/modules/audit"
	"hotel/internal/pkg/validator"
	"hotel/internal/repository"

	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	users    *repository.UserRepository
	rooms    *repository.RoomRepository
	bookings *repository.BookingRepository
	recorder audit.Recorder
}

func NewService(db *gorm.DB, recorder audit.Recorder) *Service {
	return &Service{
		db:       db,
		users:    repository.NewUserRepository(db),
		rooms:    repository.NewRoomRepository(db),
		bookings: repository.NewBookingRepository(db),
		recorder: recorder,
	}
}

// -------------------- Users --------------------

func (s *Service) ListUsers(ctx context.Context, actor authz.Actor, f repository.UserFilter) ([]domain.User, error) {
	if err := authz.Authorize(actor, authz.OpListUsers); err != nil {
		return nil, err
	}
	if f.Role != "" && !f.Role.Valid() {
		return nil, ErrInvalidRole
	}
	return s.users.List(ctx, f)
}

// ChangeRole promotes or demotes a user. Admins cannot change their own role,
// so there is always at least the acting admin left.
func (s *Service) ChangeRole(ctx context.Context, actor authz.Actor, userID int64, role domain.UserRole) (*domain.User, error) {
	if err := authz.Authorize(actor, authz.OpChangeRole); err != nil {
		return nil, err
	}
	if userID <= 0 {
		return nil, ErrInvalidID
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if userID == actor.ID {
		return nil, ErrCannotChangeSelf
	}

	var out *domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		u, err := users.GetByID(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if u.Role == role {
			out = u
			return nil
		}

		if err := users.UpdateRole(ctx, u.ID, role); err != nil {
			return err
		}
		from := u.Role
		u.Role = role
		out = u

		return s.record(ctx, tx, domain.NewAuditLog(actor.ID, domain.AuditUpdate, domain.ModelUser, u.ID,
			fmt.Sprintf("Changed role of %s from %s to %s", u.Email, from, role)))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteUser removes a guest or reception account together with its finished
// bookings. Accounts still holding live bookings are refused.
func (s *Service) DeleteUser(ctx context.Context, actor authz.Actor, userID int64) error {
	if err := authz.Authorize(actor, authz.OpDeleteUser); err != nil {
		return err
	}
	if userID <= 0 {
		return ErrInvalidID
	}
	if userID == actor.ID {
		return ErrCannotDeleteSelf
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		u, err := users.GetByID(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if u.Role == domain.RoleAdmin {
			return ErrCannotDeleteAdmin
		}

		live, err := s.bookings.WithTx(tx).CountLiveByGuest(ctx, u.ID)
		if err != nil {
			return err
		}
		if live > 0 {
			return ErrUserHasBookings
		}

		if err := users.Delete(ctx, u.ID); err != nil {
			return err
		}
		return s.record(ctx, tx, domain.NewAuditLog(actor.ID, domain.AuditDelete, domain.ModelUser, u.ID,
			fmt.Sprintf("Deleted %s account %s", u.Role, u.Email)))
	})
}

// -------------------- Rooms --------------------

func (s *Service) CreateRoom(ctx context.Context, actor authz.Actor, req CreateRoomRequest) (*domain.Room, error) {
	if err := authz.Authorize(actor, authz.OpCreateRoom); err != nil {
		return nil, err
	}
	req.Number = strings.TrimSpace(req.Number)
	req.Name = strings.TrimSpace(req.Name)
	if fields := validator.Validate(req); fields != nil {
		return nil, errInvalidRoom(fields)
	}
	if req.PricePerNight.IsNegative() {
		return nil, ErrInvalidPrice
	}

	room := &domain.Room{
		Number:        req.Number,
		Name:          req.Name,
		Description:   strings.TrimSpace(req.Description),
		Floor:         req.Floor,
		Capacity:      req.Capacity,
		PricePerNight: req.PricePerNight,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.rooms.WithTx(tx).Create(ctx, room); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrRoomNumberTaken
			}
			return err
		}
		return s.record(ctx, tx, domain.NewAuditLog(actor.ID, domain.AuditCreate, domain.ModelRoom, room.ID,
			fmt.Sprintf("Created room %s (%s, capacity %d, %s per night)", room.Number, room.Name, room.Capacity, room.PricePerNight.StringFixed(2))))
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (s *Service) record(ctx context.Context, tx *gorm.DB, entry domain.AuditLog) error {
	if err := s.recorder.Record(ctx, tx, entry); err != nil {
		return fmt.Errorf("recording audit entry: %w", err)
	}
	return nil
}
