package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/abelousov/playtube/internal/models"
	"github.com/abelousov/playtube/internal/testutil"
	"github.com/abelousov/playtube/tests/integration"
)

const (
	RegisterURL = "/api/users/register"
)

func registerFields() map[string]string {
	return map[string]string{
		"fullName": "Ann Lee",
		"email":    "ann@x.com",
		"username": "AnnLee",
		"password": "StrongEnoughPassword",
	}
}

func Test_AuthRegister(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("register ok", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			form, contentType := integration.MultipartForm(t, registerFields(), map[string]string{
				"avatar":     "avatar.png",
				"coverImage": "cover.jpg",
			})

			resp, err := http.Post(srvURL+RegisterURL, contentType, form)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusCreated, resp.StatusCode, "not expected code. Body: %s", string(body))

			var got struct {
				User models.PublicUser `json:"user"`
			}
			require.NoError(t, json.Unmarshal(body, &got))
			require.Equal(t, "annlee", got.User.Username, "username should be stored lowercased")
			require.Equal(t, "ann@x.com", got.User.Email)
			require.NotEmpty(t, got.User.AvatarURL, "avatar should be uploaded")
			require.NotEmpty(t, got.User.CoverImageURL, "cover image should be uploaded")
			require.NotContains(t, string(body), "password", "credentials should never leave the service")

			require.Equal(t, 0, len(resp.Cookies()), "register should not issue tokens")
		})
	})

	t.Run("register existed user fails", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			integration.RegisterUser(t, s.AuthService, "annlee", "ann@x.com")

			form, contentType := integration.MultipartForm(t, registerFields(), map[string]string{"avatar": "avatar.png"})

			resp, err := http.Post(srvURL+RegisterURL, contentType, form)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusConflict, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "User with email or username already exists"
				}`, string(body))
		})
	})

	t.Run("register with same email other username fails", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			integration.RegisterUser(t, s.AuthService, "othername", "ann@x.com")

			form, contentType := integration.MultipartForm(t, registerFields(), map[string]string{"avatar": "avatar.png"})

			resp, err := http.Post(srvURL+RegisterURL, contentType, form)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusConflict, resp.StatusCode, "not expected code. Body: %s", string(body))
		})
	})

	t.Run("register without avatar fails", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			form, contentType := integration.MultipartForm(t, registerFields(), nil)

			resp, err := http.Post(srvURL+RegisterURL, contentType, form)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Avatar file is required"
				}`, string(body))
		})
	})

	t.Run("register not multipart fails", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			data := `{"username": "annlee", "password": "StrongEnoughPassword"}`

			resp, err := http.Post(srvURL+RegisterURL, "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "not expected code. Body: %s", string(body))
		})
	})
}
