package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/abelousov/playtube/internal/apperrors"
	"github.com/abelousov/playtube/internal/models"
	"github.com/abelousov/playtube/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (id, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULL)
RETURNING id, created_at, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token
`

func (r *UserRepo) CreateUser(ctx context.Context, params repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser,
		uuid.New(),
		params.Username,
		params.Email,
		params.FullName,
		params.HashedPassword,
		params.AvatarURL,
		params.CoverImageURL,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return user, apperrors.ErrUserAlreadyExists
		}
		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT id, created_at, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByLogin = `-- name: GetUserByLogin
SELECT id, created_at, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token
FROM users
WHERE username = lower($1) OR email = $1
`

func (r *UserRepo) GetUserByLogin(ctx context.Context, login string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByLogin, login)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const updateRefreshToken = `-- name: UpdateRefreshToken
UPDATE users
SET refresh_token = $2
WHERE id = $1
RETURNING id
`

func (r *UserRepo) UpdateRefreshToken(ctx context.Context, userID uuid.UUID, token *string) error {
	rows, _ := r.DB.Query(ctx, updateRefreshToken, userID, token)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])

	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.ErrUserNotFound
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

const rotateRefreshToken = `-- name: RotateRefreshToken
UPDATE users
SET refresh_token = $3
WHERE id = $1 AND refresh_token = $2
RETURNING id, created_at, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token
`

// Compare-and-set in one statement: the old token must still be the stored one.
// Zero rows updated means the token was rotated or revoked concurrently
func (r *UserRepo) RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldToken string, newToken string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, rotateRefreshToken, userID, oldToken, newToken)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrRefreshTokenMismatch
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const updateAvatar = `-- name: UpdateAvatar
UPDATE users
SET avatar_url = $2
WHERE id = $1
RETURNING id, created_at, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token
`

func (r *UserRepo) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateAvatar, userID, avatarURL)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	var coverImage *string
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Username, &u.Email, &u.FullName, &u.HashedPassword, &u.AvatarURL, &coverImage, &u.RefreshToken)
	if coverImage != nil {
		u.CoverImageURL = *coverImage
	}
	return u, err
}
