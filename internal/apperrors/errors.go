package apperrors

import (
	"errors"
)

var (
	ErrFieldsRequired     = errors.New("all fields are required")
	ErrAvatarRequired     = errors.New("avatar file is required")
	ErrUserAlreadyExists  = errors.New("user with email or username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid user credentials")

	ErrUnauthorized         = errors.New("unauthorized request")
	ErrRefreshTokenMismatch = errors.New("refresh token is expired or used")

	// Deliberately generic: the real cause is logged, never returned to the caller
	ErrTokenGeneration = errors.New("something went wrong while generating tokens")

	ErrUploadFailed = errors.New("file upload failed")
	ErrInternal     = errors.New("internal error")
)
