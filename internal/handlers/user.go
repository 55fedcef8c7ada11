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
)

type UserService interface {
	GetByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, localPath string) (models.User, error)
}

type UserHandler struct {
	userService UserService
}

func NewUser(userService UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	type MeResponse struct {
		User models.PublicUser `json:"user"`
	}

	user, _ := userctx.FromContext(r.Context())
	render.JSON(w, MeResponse{User: user.Public()})
}

func (h *UserHandler) updateAvatar(w http.ResponseWriter, r *http.Request) {
	type UpdateAvatarResponse struct {
		User models.PublicUser `json:"user"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
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

	updated, err := h.userService.UpdateAvatar(r.Context(), user.ID, avatarPath)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAvatarRequired):
			render.ServiceError(w, "Avatar file is required", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrUploadFailed):
			render.ServiceError(w, "File upload failed", http.StatusInternalServerError)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, UpdateAvatarResponse{User: updated.Public()})
}
