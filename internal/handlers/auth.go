package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/abelousov/playtube/internal/apperrors"
	"github.com/abelousov/playtube/internal/handlers/render"
	"github.com/abelousov/playtube/internal/handlers/userctx"
	"github.com/abelousov/playtube/internal/models"
	"github.com/abelousov/playtube/internal/service/auth"
)

// Auth service as the handlers need it
type AuthService interface {
	// Register new user. Conflicting email or username has to return
	// apperrors.ErrUserAlreadyExists
	Register(ctx context.Context, params auth.RegisterParams) (models.User, error)

	// Login by email or username. Unknown user has to return
	// apperrors.ErrUserNotFound, wrong password apperrors.ErrInvalidCredentials
	Login(ctx context.Context, params auth.LoginParams) (models.User, models.TokenPair, error)

	// Revoke the stored refresh token for the user
	Logout(ctx context.Context, userID uuid.UUID) error

	// Exchange a valid refresh token for a fresh pair (rotating the stored one)
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Cookie plumbing
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)
	ClearAuthCookies(w http.ResponseWriter)
	GetRefreshString(r *http.Request) (string, error)
}

type AuthHandler struct {
	authService AuthService
}

func NewAuth(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterSuccessResponse struct {
		User models.PublicUser `json:"user"`
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		render.ServiceError(w, "Expected multipart form data", http.StatusBadRequest)
		return
	}

	avatarPath, err := spoolFilePart(r, "avatar")
	if err != nil {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	coverImagePath, err := spoolFilePart(r, "coverImage")
	if err != nil {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user, err := h.authService.Register(r.Context(), auth.RegisterParams{
		FullName:       r.FormValue("fullName"),
		Email:          r.FormValue("email"),
		Username:       r.FormValue("username"),
		Password:       r.FormValue("password"),
		AvatarPath:     avatarPath,
		CoverImagePath: coverImagePath,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrFieldsRequired):
			render.ServiceError(w, "All fields are required", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrAvatarRequired):
			render.ServiceError(w, "Avatar file is required", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User with email or username already exists", http.StatusConflict)
		case errors.Is(err, apperrors.ErrUploadFailed):
			render.ServiceError(w, "File upload failed", http.StatusInternalServerError)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSONWithStatus(w, RegisterSuccessResponse{User: user.Public()}, http.StatusCreated)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Email    string `json:"email" validate:"omitempty,email"`
		Username string `json:"username"`
		Password string `json:"password" validate:"required"`
	}
	type LoginSuccessResponse struct {
		User         models.PublicUser `json:"user"`
		AccessToken  string            `json:"accessToken"`
		RefreshToken string            `json:"refreshToken"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.authService.Login(r.Context(), auth.LoginParams{
		Email:    data.Email,
		Username: data.Username,
		Password: data.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrFieldsRequired):
			render.ServiceError(w, "Username or email is required", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User does not exist", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid user credentials", http.StatusUnauthorized)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.authService.SetTokenPairToResponse(w, pair)
	render.JSON(w, LoginSuccessResponse{
		User:         user.Public(),
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type LogoutSuccessResponse struct {
		Message string `json:"message"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.authService.Logout(r.Context(), user.ID); err != nil {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.authService.ClearAuthCookies(w)
	render.JSON(w, LogoutSuccessResponse{Message: "User logged out"})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshSuccessResponse struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}

	refresh, err := h.authService.GetRefreshString(r)
	if err != nil {
		render.ServiceError(w, "Unauthorized request", http.StatusUnauthorized)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), refresh)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrRefreshTokenMismatch):
			render.ServiceError(w, "Refresh token is expired or used", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrUnauthorized):
			render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	// Always the freshly minted pair, both in cookies and in the body
	h.authService.SetTokenPairToResponse(w, pair)
	render.JSON(w, RefreshSuccessResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	})
}
