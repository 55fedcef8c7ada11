package integration

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/abelousov/playtube/internal/handlers"
	"github.com/abelousov/playtube/internal/handlers/middleware"
	"github.com/abelousov/playtube/internal/models"
	"github.com/abelousov/playtube/internal/repository/postgres"
	"github.com/abelousov/playtube/internal/service/auth"
	"github.com/abelousov/playtube/internal/service/auth/tokenmanager"
	"github.com/abelousov/playtube/internal/service/user"
	"github.com/abelousov/playtube/internal/testutil"
)

type Services struct {
	AuthService *auth.AuthService
	UserService *user.UserService
}

// StubUploader keeps the media host out of the test loop: it removes the
// spooled file and answers with a deterministic URL
type StubUploader struct{}

func (StubUploader) Upload(_ context.Context, localPath string) (string, error) {
	if localPath == "" {
		return "", nil
	}
	defer os.Remove(localPath) // nolint:errcheck
	return "https://cdn.test/" + filepath.Base(localPath), nil
}

// Create db transaction and run the full router with that connection
// (one connection cause one transaction). Rolled back when the test ends
func RunTx(dbpool *pgxpool.Pool, t *testing.T, fn func(srvURL string, services Services)) {
	t.Helper()

	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		// Initialize repositories
		userRepo := postgres.NewStorage(tx).User()

		// Initialize services
		tokenManager, err := tokenmanager.New(tokenmanager.Config{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
		})
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{}, tokenManager, userRepo, StubUploader{})
		require.NoError(t, err, "auth service starting error")

		us := user.NewService(userRepo, StubUploader{})

		// Initialize handlers
		authHandler := handlers.NewAuth(as)
		userHandler := handlers.NewUser(us)
		authMiddleware := middleware.AuthMiddleware(as)

		// Complete all together as router
		router := handlers.NewRouter(
			authHandler,
			userHandler,
			authMiddleware,
		)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(srv.URL, Services{
			AuthService: as,
			UserService: us,
		})
	})
}

// RegisterUser creates a user directly through the service. A real temp
// file backs the avatar cause the uploader removes it after upload
func RegisterUser(t *testing.T, as *auth.AuthService, username string, email string) models.User {
	t.Helper()

	avatar, err := os.CreateTemp("", "avatar-*.png")
	require.NoError(t, err)
	require.NoError(t, avatar.Close())

	registered, err := as.Register(t.Context(), auth.RegisterParams{
		FullName:   "Ann Lee",
		Email:      email,
		Username:   username,
		Password:   "StrongEnoughPassword",
		AvatarPath: avatar.Name(),
	})
	require.NoError(t, err, "user should be registered without errors")
	return registered
}

// MultipartForm builds a multipart body with string fields and named file parts
func MultipartForm(t *testing.T, fields map[string]string, files map[string]string) (io.Reader, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	mpw := multipart.NewWriter(buf)

	for name, value := range fields {
		require.NoError(t, mpw.WriteField(name, value))
	}
	for field, filename := range files {
		fw, err := mpw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("file-content"))
		require.NoError(t, err)
	}
	require.NoError(t, mpw.Close())

	return buf, mpw.FormDataContentType()
}
