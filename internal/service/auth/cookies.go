package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/abelousov/playtube/internal/apperrors"
	"github.com/abelousov/playtube/internal/models"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// SetTokenPairToResponse sets both auth cookies.
// HttpOnly and Secure: readable by the transport layer only, not by scripts
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, authCookie(AccessTokenCookie, pair.Access))
	http.SetCookie(w, authCookie(RefreshTokenCookie, pair.Refresh))
}

// ClearAuthCookies expires both auth cookies
func (s *AuthService) ClearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// GetRefreshString reads the refresh token from the cookie or,
// failing that, from the JSON request body
func (s *AuthService) GetRefreshString(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.RefreshToken != "" {
		return body.RefreshToken, nil
	}

	return "", apperrors.ErrUnauthorized
}

// GetUserFromRequest authenticates the request by its access token:
// Authorization bearer header first, access cookie second
func (s *AuthService) GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	var user models.User

	access := ""
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		access = strings.TrimPrefix(header, "Bearer ")
	} else if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		access = cookie.Value
	}
	if access == "" {
		return user, apperrors.ErrUnauthorized
	}

	userID, err := s.token.ParseAccess(access)
	if err != nil {
		return user, apperrors.ErrUnauthorized
	}

	user, err = s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return user, apperrors.ErrUnauthorized
		}
		return user, err
	}

	return user, nil
}

func authCookie(name string, token models.IssuedToken) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    token.Value,
		Path:     "/",
		MaxAge:   int(time.Until(token.ExpiresAt) / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
