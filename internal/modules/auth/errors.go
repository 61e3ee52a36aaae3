package auth

import (
	"errors"

	"hotel/internal/pkg/apperror"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")

	ErrEmailAlreadyExists = apperror.Conflict("This email or username is already registered")
	ErrUsernameTaken      = apperror.Conflict("This username is already taken")
	ErrUserNotFound       = apperror.NotFound("User not found")
)
