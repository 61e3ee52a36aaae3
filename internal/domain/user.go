package domain

import "time"

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleReception UserRole = "reception"
	RoleGuest     UserRole = "guest"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleReception, RoleGuest:
		return true
	}
	return false
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email" validate:"required,email"`
	Username     string    `json:"username" validate:"required"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
