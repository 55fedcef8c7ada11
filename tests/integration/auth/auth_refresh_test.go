package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	auth "github.com/abelousov/playtube/internal/service/auth"
	"github.com/abelousov/playtube/internal/testutil"
	"github.com/abelousov/playtube/tests/integration"
)

const (
	RefreshURL = "/api/users/refresh"
)

func Test_AuthRefresh(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	login := func(t *testing.T, s integration.Services) (string, string) {
		t.Helper()
		registered := integration.RegisterUser(t, s.AuthService, "annlee", "ann@x.com")
		_, pair, err := s.AuthService.Login(t.Context(), auth.LoginParams{
			Username: registered.Username,
			Password: "StrongEnoughPassword",
		})
		require.NoError(t, err)
		return pair.Access.Value, pair.Refresh.Value
	}

	sendRefresh := func(t *testing.T, srvURL string, refresh string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(http.MethodPost, srvURL+RefreshURL, nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err, "refresh request should always complete")
		return resp
	}

	t.Run("refresh token ok", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			firstAccess, firstRefresh := login(t, s)

			resp := sendRefresh(t, srvURL, firstRefresh)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", string(body))

			var got struct {
				AccessToken  string `json:"accessToken"`
				RefreshToken string `json:"refreshToken"`
			}
			require.NoError(t, json.Unmarshal(body, &got))
			require.NotEmpty(t, got.AccessToken, "access token should not be empty")
			require.NotEmpty(t, got.RefreshToken, "refresh token should not be empty")
			require.NotEqual(t, firstAccess, got.AccessToken, "access token should be changed after refresh")
			require.NotEqual(t, firstRefresh, got.RefreshToken, "refresh token should be changed after refresh")

			require.Equal(t, 2, len(resp.Cookies()), "both auth cookies should be rolled")
			for _, cookie := range resp.Cookies() {
				require.NotEmpty(t, cookie.Value, "rolled cookie should not be empty")
			}
		})
	})

	t.Run("refresh twice fails", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			_, firstRefresh := login(t, s)

			resp1 := sendRefresh(t, srvURL, firstRefresh)
			body1, err := io.ReadAll(resp1.Body)
			require.NoError(t, err)
			defer func() { _ = resp1.Body.Close() }()
			require.Equalf(t, http.StatusOK, resp1.StatusCode, "not expected code. Body: %s", string(body1))

			resp2 := sendRefresh(t, srvURL, firstRefresh)
			body2, err := io.ReadAll(resp2.Body)
			require.NoError(t, err)
			defer func() { _ = resp2.Body.Close() }()

			require.Equalf(t, http.StatusUnauthorized, resp2.StatusCode, "not expected code. Body: %s", string(body2))
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Refresh token is expired or used"
				}`, string(body2))
		})
	})

	t.Run("rotated token keeps working", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			_, firstRefresh := login(t, s)

			resp1 := sendRefresh(t, srvURL, firstRefresh)
			body1, err := io.ReadAll(resp1.Body)
			require.NoError(t, err)
			defer func() { _ = resp1.Body.Close() }()
			require.Equal(t, http.StatusOK, resp1.StatusCode)

			var got struct {
				RefreshToken string `json:"refreshToken"`
			}
			require.NoError(t, json.Unmarshal(body1, &got))

			resp2 := sendRefresh(t, srvURL, got.RefreshToken)
			defer func() { _ = resp2.Body.Close() }()
			require.Equal(t, http.StatusOK, resp2.StatusCode, "freshly rotated token should be accepted")
		})
	})

	t.Run("refresh with garbage token fails", func(t *testing.T) {
		integration.RunTx(pg.Pool, t, func(srvURL string, s integration.Services) {
			resp := sendRefresh(t, srvURL, "not-even-a-jwt")
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.JSONEq(t, `
				{
					"error": "service_error",
					"message": "Invalid refresh token"
				}`, string(body))
		})
	})
}
