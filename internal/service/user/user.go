package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/abelousov/playtube/internal/apperrors"
	"github.com/abelousov/playtube/internal/models"
	"github.com/abelousov/playtube/internal/repository"
	"github.com/abelousov/playtube/internal/service/auth"
)

type UserService struct {
	users    repository.UserRepo
	uploader auth.Uploader
}

func NewService(users repository.UserRepo, uploader auth.Uploader) *UserService {
	return &UserService{
		users:    users,
		uploader: uploader,
	}
}

func (s *UserService) GetByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return user, fmt.Errorf("user lookup failed. Err: %w", err)
	}
	return user, nil
}

// UpdateAvatar uploads the new avatar and stores its URL on the user record
func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, localPath string) (models.User, error) {
	var user models.User

	if localPath == "" {
		return user, apperrors.ErrAvatarRequired
	}

	avatarURL, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		return user, fmt.Errorf("avatar upload failed. Err: %w", err)
	}

	user, err = s.users.UpdateAvatar(ctx, userID, avatarURL)
	if err != nil {
		return user, fmt.Errorf("can't update avatar. Err: %w", err)
	}

	return user, nil
}
