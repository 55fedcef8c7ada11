package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abelousov/playtube/internal/apperrors"
	"github.com/abelousov/playtube/internal/logger"
	"github.com/abelousov/playtube/internal/models"
	"github.com/abelousov/playtube/internal/repository"
	"github.com/abelousov/playtube/internal/service/auth/tokenmanager"
)

// Uploader sends a local file to the media host and returns its public URL.
// Empty local path means nothing to upload: ("", nil) is returned
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

type Config struct {
	// Hasher to use during user registration or login
	// Default bcrypt hasher is used if not set
	Hasher PasswordHasher

	// Logger for internal diagnostics. No-op logger if not set
	Logger logger.Logger
}

type AuthService struct {
	token    *tokenmanager.TokenManager
	hasher   PasswordHasher
	users    repository.UserRepo
	uploader Uploader
	logger   logger.Logger
}

func NewService(cfg Config, token *tokenmanager.TokenManager, users repository.UserRepo, uploader Uploader) (*AuthService, error) {
	if token == nil || users == nil || uploader == nil {
		return nil, errors.New("token manager, user repo and uploader must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &AuthService{
		token:    token,
		hasher:   hasher,
		users:    users,
		uploader: uploader,
		logger:   log,
	}, nil
}

type RegisterParams struct {
	FullName string
	Email    string
	Username string
	Password string

	// Local paths of the spooled uploads. Avatar is required
	AvatarPath     string
	CoverImagePath string
}

func (s *AuthService) Register(ctx context.Context, params RegisterParams) (models.User, error) {
	var user models.User

	for _, field := range []string{params.FullName, params.Email, params.Username, params.Password} {
		if strings.TrimSpace(field) == "" {
			return user, apperrors.ErrFieldsRequired
		}
	}

	if params.AvatarPath == "" {
		return user, apperrors.ErrAvatarRequired
	}

	// Check both identifiers before uploading anything.
	// The unique indexes still close the race window on insert
	for _, login := range []string{params.Email, params.Username} {
		_, err := s.users.GetUserByLogin(ctx, login)
		switch {
		case err == nil:
			return user, apperrors.ErrUserAlreadyExists
		case errors.Is(err, apperrors.ErrUserNotFound):
		default:
			return user, fmt.Errorf("user lookup failed. Err: %w", err)
		}
	}

	avatarURL, err := s.uploader.Upload(ctx, params.AvatarPath)
	if err != nil {
		return user, fmt.Errorf("avatar upload failed. Err: %w", err)
	}

	// Cover image is optional: a failed upload leaves the field empty
	coverImageURL, err := s.uploader.Upload(ctx, params.CoverImagePath)
	if err != nil {
		s.logger.Warn("cover image upload failed, leaving it empty", "error", err)
		coverImageURL = ""
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	created, err := s.users.CreateUser(ctx, repository.CreateUserParams{
		Username:       strings.ToLower(params.Username),
		Email:          params.Email,
		FullName:       params.FullName,
		HashedPassword: hash,
		AvatarURL:      avatarURL,
		CoverImageURL:  coverImageURL,
	})
	if err != nil {
		return user, err
	}

	// Re-read the record to be sure the user actually persisted
	user, err = s.users.GetUserByID(ctx, created.ID)
	if err != nil {
		return user, fmt.Errorf("%w: created user not found", apperrors.ErrInternal)
	}

	return user, nil
}

type LoginParams struct {
	Email    string
	Username string
	Password string
}

func (s *AuthService) Login(ctx context.Context, params LoginParams) (models.User, models.TokenPair, error) {
	var user models.User
	var pair models.TokenPair

	login := params.Username
	if login == "" {
		login = params.Email
	}
	if strings.TrimSpace(login) == "" {
		return user, pair, apperrors.ErrFieldsRequired
	}

	user, err := s.users.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return user, pair, apperrors.ErrUserNotFound
		}
		return user, pair, fmt.Errorf("user lookup failed. Err: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, params.Password); err != nil {
		return user, pair, apperrors.ErrInvalidCredentials
	}

	pair, err = s.generatePair(ctx, user.ID)
	if err != nil {
		return user, pair, err
	}

	// Reloaded so the returned record reflects the stored refresh token state
	user, err = s.users.GetUserByID(ctx, user.ID)
	if err != nil {
		return user, pair, fmt.Errorf("user lookup failed. Err: %w", err)
	}

	return user, pair, nil
}

// Logout revokes the stored refresh token: the next refresh attempt
// with the previously issued token must fail
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.UpdateRefreshToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("can't clear refresh token. Err: %w", err)
	}
	return nil
}

// Refresh exchanges a valid refresh token for a fresh pair and rotates
// the stored token. A replayed (already rotated) token is rejected
func (s *AuthService) Refresh(ctx context.Context, incoming string) (models.TokenPair, error) {
	var pair models.TokenPair

	if incoming == "" {
		return pair, apperrors.ErrUnauthorized
	}

	userID, err := s.token.ParseRefresh(incoming)
	if err != nil {
		return pair, fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, "invalid refresh token")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return pair, fmt.Errorf("%w: %s", apperrors.ErrUnauthorized, "invalid refresh token")
	}

	if user.RefreshToken == nil || *user.RefreshToken != incoming {
		return pair, apperrors.ErrRefreshTokenMismatch
	}

	access, err := s.token.IssueAccess(user)
	if err != nil {
		s.logger.Error("token generation failed", "error", err)
		return pair, apperrors.ErrTokenGeneration
	}
	refresh, err := s.token.IssueRefresh(user)
	if err != nil {
		s.logger.Error("token generation failed", "error", err)
		return pair, apperrors.ErrTokenGeneration
	}

	// Single conditional update: only one concurrent refresh can win
	if _, err := s.users.RotateRefreshToken(ctx, user.ID, incoming, refresh.Value); err != nil {
		if errors.Is(err, apperrors.ErrRefreshTokenMismatch) {
			return pair, apperrors.ErrRefreshTokenMismatch
		}
		s.logger.Error("token generation failed", "error", err)
		return pair, apperrors.ErrTokenGeneration
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// generatePair issues both tokens and persists the refresh one on the user
// record. Callers get a deliberately generic error: the cause is logged here
func (s *AuthService) generatePair(ctx context.Context, userID uuid.UUID) (models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error("token generation failed", "error", err)
		return pair, apperrors.ErrTokenGeneration
	}

	access, err := s.token.IssueAccess(user)
	if err != nil {
		s.logger.Error("token generation failed", "error", err)
		return pair, apperrors.ErrTokenGeneration
	}

	refresh, err := s.token.IssueRefresh(user)
	if err != nil {
		s.logger.Error("token generation failed", "error", err)
		return pair, apperrors.ErrTokenGeneration
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID, &refresh.Value); err != nil {
		s.logger.Error("token generation failed", "error", err)
		return pair, apperrors.ErrTokenGeneration
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}
