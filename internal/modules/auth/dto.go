package auth

import "hotel/internal/domain"

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=150"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone" binding:"omitempty,max=15"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest changes only the fields that are present.
type UpdateProfileRequest struct {
	Username  *string `json:"username" binding:"omitempty,min=3,max=150"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Phone     *string `json:"phone" binding:"omitempty,max=15"`
}

type UserPublic struct {
	ID       int64           `json:"id"`
	Email    string          `json:"email"`
	Username string          `json:"username"`
	Name     string          `json:"name"`
	Role     domain.UserRole `json:"role"`
	Phone    string          `json:"phone,omitempty"`
}

func toPublic(u *domain.User) UserPublic {
	return UserPublic{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Name:     u.DisplayName(),
		Role:     u.Role,
		Phone:    u.Phone,
	}
}
