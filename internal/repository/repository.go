package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/abelousov/playtube/internal/models"
)

type CreateUserParams struct {
	Username       string
	Email          string
	FullName       string
	HashedPassword string
	AvatarURL      string
	CoverImageURL  string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If a user with the same username or email exists already
	// has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by id
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)

	// Get user by username or email (single identifier matched against both)
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByLogin(ctx context.Context, login string) (models.User, error)

	// Set or clear (token == nil) the stored refresh token.
	// Touches only the refresh_token column
	UpdateRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error

	// Replace oldToken with newToken in a single conditional update.
	// If the stored token does not match oldToken must return
	// apperrors.ErrRefreshTokenMismatch, so concurrent refreshes can't
	// both win
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldToken string, newToken string) (models.User, error)

	// Update user's avatar url
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) (models.User, error)
}
