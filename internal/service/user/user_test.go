package user

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelousov/playtube/internal/apperrors"
	"github.com/abelousov/playtube/internal/models"
	"github.com/abelousov/playtube/internal/repository"
)

// Fake repo that overrides only the methods UserService touches
type fakeRepo struct {
	repository.UserRepo

	getByID      func(ctx context.Context, userID uuid.UUID) (models.User, error)
	updateAvatar func(ctx context.Context, userID uuid.UUID, avatarURL string) (models.User, error)
}

func (f *fakeRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return f.getByID(ctx, userID)
}

func (f *fakeRepo) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) (models.User, error) {
	return f.updateAvatar(ctx, userID, avatarURL)
}

type uploaderFunc func(ctx context.Context, localPath string) (string, error)

func (f uploaderFunc) Upload(ctx context.Context, localPath string) (string, error) {
	return f(ctx, localPath)
}

func Test_UserService_GetByID(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("ok", func(t *testing.T) {
		repo := &fakeRepo{
			getByID: func(_ context.Context, id uuid.UUID) (models.User, error) {
				require.Equal(t, userID, id)
				return models.User{ID: id, Username: "annlee"}, nil
			},
		}
		s := NewService(repo, uploaderFunc(nil))

		user, err := s.GetByID(t.Context(), userID)

		require.NoError(t, err)
		assert.Equal(t, "annlee", user.Username)
	})

	t.Run("not found passed through", func(t *testing.T) {
		repo := &fakeRepo{
			getByID: func(_ context.Context, _ uuid.UUID) (models.User, error) {
				return models.User{}, apperrors.ErrUserNotFound
			},
		}
		s := NewService(repo, uploaderFunc(nil))

		_, err := s.GetByID(t.Context(), userID)

		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}

func Test_UserService_UpdateAvatar(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("empty path rejected before upload", func(t *testing.T) {
		uploaderCalled := false
		uploader := uploaderFunc(func(_ context.Context, _ string) (string, error) {
			uploaderCalled = true
			return "", nil
		})
		s := NewService(&fakeRepo{}, uploader)

		_, err := s.UpdateAvatar(t.Context(), userID, "")

		assert.ErrorIs(t, err, apperrors.ErrAvatarRequired)
		assert.False(t, uploaderCalled, "nothing should be uploaded without a file")
	})

	t.Run("upload error passed through", func(t *testing.T) {
		uploader := uploaderFunc(func(_ context.Context, _ string) (string, error) {
			return "", apperrors.ErrUploadFailed
		})
		s := NewService(&fakeRepo{}, uploader)

		_, err := s.UpdateAvatar(t.Context(), userID, "/tmp/avatar.png")

		assert.ErrorIs(t, err, apperrors.ErrUploadFailed)
	})

	t.Run("stores uploaded url", func(t *testing.T) {
		uploader := uploaderFunc(func(_ context.Context, localPath string) (string, error) {
			require.Equal(t, "/tmp/avatar.png", localPath)
			return "https://cdn.test/avatar.png", nil
		})
		repo := &fakeRepo{
			updateAvatar: func(_ context.Context, id uuid.UUID, avatarURL string) (models.User, error) {
				require.Equal(t, userID, id)
				return models.User{ID: id, AvatarURL: avatarURL}, nil
			},
		}
		s := NewService(repo, uploader)

		user, err := s.UpdateAvatar(t.Context(), userID, "/tmp/avatar.png")

		require.NoError(t, err)
		assert.Equal(t, "https://cdn.test/avatar.png", user.AvatarURL)
	})

	t.Run("repo error passed through", func(t *testing.T) {
		uploader := uploaderFunc(func(_ context.Context, _ string) (string, error) {
			return "https://cdn.test/avatar.png", nil
		})
		repo := &fakeRepo{
			updateAvatar: func(_ context.Context, _ uuid.UUID, _ string) (models.User, error) {
				return models.User{}, errors.New("db is down")
			},
		}
		s := NewService(repo, uploader)

		_, err := s.UpdateAvatar(t.Context(), userID, "/tmp/avatar.png")

		assert.Error(t, err)
	})
}
