package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"catalog/internal/app"
	"catalog/internal/apperrors"
	"catalog/internal/config"
	"catalog/internal/logger"
	"catalog/internal/repositories"
	"catalog/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(jwtSecret string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: ":0", Profile: config.ProfileDev, BodyLimit: 12 << 20},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		},
		Storage: config.StorageConfig{
			Driver:        "memory",
			Bucket:        "catalog-images",
			PublicBaseURL: "https://cdn.example.com",
		},
		Auth: config.AuthConfig{JWTSecret: jwtSecret},
	}
}

func newTestApp(jwtSecret string) *fiber.App {
	return app.NewFiberApp(app.Dependencies{
		Config:   testConfig(jwtSecret),
		Logger:   logger.Discard(),
		Products: repositories.NewMockProductRepository(),
		Storage:  storage.NewMemoryStorage(),
	})
}

func TestHealthCheck(t *testing.T) {
	fiberApp := newTestApp("")

	resp, err := fiberApp.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["time"])
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestNewFiberApp_Routes(t *testing.T) {
	fiberApp := newTestApp("")

	resp, err := fiberApp.Test(httptest.NewRequest(http.MethodGet, "/api/v1/products", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `[]`, string(raw))

	resp, err = fiberApp.Test(httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestNewFiberApp_UploadGuardOnlyWithSecret(t *testing.T) {
	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/products/upload", nil)
		r.Header.Set("Content-Type", "application/json")
		return r
	}

	resp, err := newTestApp("test_jwt_secret").Test(req(), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Without a secret the request reaches the handler, which rejects the content type.
	resp, err = newTestApp("").Test(req(), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestBootstrap_DevProfile(t *testing.T) {
	application, err := app.Bootstrap(context.Background(), testConfig(""), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, application.Close()) })

	resp, err := application.Fiber.Test(httptest.NewRequest(http.MethodGet, "/api/v1/products", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestBootstrap_ProdProfileNeedsSecretStore(t *testing.T) {
	cfg := testConfig("")
	cfg.Server.Profile = config.ProfileProd
	cfg.Database.Driver = "postgres"
	cfg.Secrets = config.SecretsConfig{Region: "ap-south-1", DBSecretID: "catalog/db"}
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_ENDPOINT_URL_SECRETS_MANAGER", "http://127.0.0.1:1")
	t.Setenv("AWS_MAX_ATTEMPTS", "1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := app.Bootstrap(ctx, cfg, logger.Discard())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestBootstrap_SecretStoreClientFailureIsConfigurationFailure(t *testing.T) {
	cfg := testConfig("")
	cfg.Server.Profile = config.ProfileProd
	cfg.Database.Driver = "postgres"
	cfg.Secrets = config.SecretsConfig{Region: "ap-south-1", DBSecretID: "catalog/db"}

	emptyFile := filepath.Join(t.TempDir(), "aws")
	require.NoError(t, os.WriteFile(emptyFile, nil, 0o600))
	t.Setenv("AWS_CONFIG_FILE", emptyFile)
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", emptyFile)
	t.Setenv("AWS_PROFILE", "no-such-profile")

	_, err := app.Bootstrap(context.Background(), cfg, logger.Discard())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	assert.Contains(t, err.Error(), "init secret store client")
}

func TestNewFiberApp_OversizedBodyIsInvalidInput(t *testing.T) {
	fiberApp := newTestApp("")
	fiberApp.Post("/oversized", func(c *fiber.Ctx) error {
		return fiber.ErrRequestEntityTooLarge
	})

	resp, err := fiberApp.Test(httptest.NewRequest(http.MethodPost, "/oversized", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Validation failed", body["message"])
	assert.Equal(t, "InvalidInput: image too large", body["error"])

	// Other framework errors keep their status.
	resp, err = fiberApp.Test(httptest.NewRequest(http.MethodGet, "/missing", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
