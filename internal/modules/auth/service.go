package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"hotel/internal/domain"
	"hotel/internal/modules/audit"
	"hotel/internal/pkg/apperror"
	"hotel/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type jwtService interface {
	GenerateToken(userID int64, role, email string) (string, error)
}

// Service contains all business logic for authentication
type Service struct {
	db       *gorm.DB
	users    *repository.UserRepository
	jwt      jwtService
	recorder audit.Recorder
}

type LoginResult struct {
	User        *domain.User
	AccessToken string
}

func NewService(db *gorm.DB, jwt jwtService, recorder audit.Recorder) *Service {
	return &Service{
		db:       db,
		users:    repository.NewUserRepository(db),
		jwt:      jwt,
		recorder: recorder,
	}
}

// Register creates a guest account. Staff accounts are only made by
// promoting a guest or through EnsureAdmin.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	hashedPassword, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        req.Email,
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hashedPassword,
		Role:         domain.RoleGuest,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        strings.TrimSpace(req.Phone),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		exists, err := users.ExistsByEmailOrUsername(ctx, user.Email, user.Username)
		if err != nil {
			return err
		}
		if exists {
			return ErrEmailAlreadyExists
		}

		if err := users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrEmailAlreadyExists
			}
			return err
		}
		return s.recorder.Record(ctx, tx, domain.NewAuditLog(user.ID, domain.AuditCreate, domain.ModelUser, user.ID,
			fmt.Sprintf("Registered guest account %s", user.Email)))
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, string(user.Role), user.Email)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	entry := domain.NewAuditLog(user.ID, domain.AuditLogin, domain.ModelUser, user.ID,
		fmt.Sprintf("%s logged in", user.Email))
	if err := audit.RecordNow(ctx, s.db, s.recorder, entry); err != nil {
		// A login is not worth failing over its audit line.
		slog.ErrorContext(ctx, "failed to record login", "user_id", user.ID, "error", err)
	}

	return &LoginResult{User: user, AccessToken: token}, nil
}

func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// UpdateProfile changes the caller's own username, names and phone. Email and
// role are not editable here.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*domain.User, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	var user *domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		var err error
		user, err = users.GetByID(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}

		var changed []string
		set := func(field string, dst *string, v *string) {
			if v == nil {
				return
			}
			if next := strings.TrimSpace(*v); next != *dst {
				*dst = next
				changed = append(changed, field)
			}
		}
		set("username", &user.Username, req.Username)
		set("first_name", &user.FirstName, req.FirstName)
		set("last_name", &user.LastName, req.LastName)
		set("phone", &user.Phone, req.Phone)
		if len(changed) == 0 {
			return nil
		}

		if slices.Contains(changed, "username") {
			if user.Username == "" {
				return apperror.Validation("Username cannot be empty")
			}
			taken, err := users.UsernameTaken(ctx, user.Username, user.ID)
			if err != nil {
				return err
			}
			if taken {
				return ErrUsernameTaken
			}
		}

		if err := users.UpdateProfile(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrUsernameTaken
			}
			return err
		}
		return s.recorder.Record(ctx, tx, domain.NewAuditLog(user.ID, domain.AuditUpdate, domain.ModelUser, user.ID,
			fmt.Sprintf("%s updated profile: %s", user.Email, strings.Join(changed, ", "))))
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Logout records that the caller ended their session. Tokens are stateless,
// so the bearer token itself stays valid until it expires.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	user, err := s.GetCurrentUser(ctx, userID)
	if err != nil {
		return err
	}
	return audit.RecordNow(ctx, s.db, s.recorder, domain.NewAuditLog(user.ID, domain.AuditLogout, domain.ModelUser, user.ID,
		fmt.Sprintf("%s logged out", user.Email)))
}

// EnsureAdmin creates the bootstrap admin account if no user holds the email
// yet. An existing account is left as it is.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, errors.New("admin email and password are required")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			slog.WarnContext(ctx, "bootstrap admin email belongs to a non-admin account", "email", existing.Email, "role", existing.Role)
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}
	admin := &domain.User{
		Email:        email,
		Username:     strings.Split(repository.NormalizeEmail(email), "@")[0],
		PasswordHash: hashedPassword,
		Role:         domain.RoleAdmin,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).Create(ctx, admin); err != nil {
			return err
		}
		return s.recorder.Record(ctx, tx, domain.NewAuditLog(0, domain.AuditCreate, domain.ModelUser, admin.ID,
			fmt.Sprintf("Bootstrapped admin account %s", admin.Email)))
	})
	if err != nil {
		return nil, fmt.Errorf("creating bootstrap admin: %w", err)
	}
	slog.InfoContext(ctx, "bootstrap admin created", "email", admin.Email)
	return admin, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
