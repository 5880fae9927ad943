package database

import (
	"context"
	"errors"
	"os"
	"testing"

	"catalog/internal/apperrors"
	"catalog/internal/config"
	"catalog/internal/logger"
	"catalog/internal/models"
	"catalog/internal/secrets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSecretSource struct {
	secret *secrets.DbSecret
	err    error
	calls  int
}

func (s *stubSecretSource) GetDbSecret(ctx context.Context, secretID string) (*secrets.DbSecret, error) {
	s.calls++
	return s.secret, s.err
}

func testSecret() *secrets.DbSecret {
	return &secrets.DbSecret{Username: "admin", Password: "p@ss w'rd", Host: "db.internal", Port: "3306", DBName: "shop"}
}

func TestConnectionInfo_URLHasNoCredentials(t *testing.T) {
	info := FromSecret("mysql", "", testSecret())

	assert.Equal(t, "mysql://db.internal:3306/shop", info.URL())
	assert.NotContains(t, info.URL(), "admin")
	assert.Equal(t, "sqlite://(static)", Static("sqlite", "catalog.db").URL())
}

func TestConnectionInfo_MySQLDSN(t *testing.T) {
	info := FromSecret("mysql", "", testSecret())

	assert.Equal(t, "admin:p@ss w'rd@tcp(db.internal:3306)/shop?parseTime=true", info.mysqlDSN())
}

func TestConnectionInfo_PostgresDSN(t *testing.T) {
	s := testSecret()
	s.Port = "5432"
	info := FromSecret("postgres", "require", s)

	assert.Equal(t,
		`host='db.internal' port='5432' user='admin' password='p@ss w\'rd' dbname='shop' sslmode='require'`,
		info.postgresDSN())
}

func TestConnectionInfo_Dialector(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql"} {
		d, err := FromSecret(driver, "", testSecret()).Dialector()
		require.NoError(t, err)
		assert.Equal(t, driver, d.Name())
	}

	_, err := FromSecret("sqlite", "", testSecret()).Dialector()
	assert.Error(t, err)

	_, err = Static("oracle", "x").Dialector()
	assert.Error(t, err)
}

func TestResolveConnection(t *testing.T) {
	dev := &config.Config{
		Server:   config.ServerConfig{Profile: config.ProfileDev},
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: "catalog.db"},
	}
	source := &stubSecretSource{secret: testSecret()}

	info, err := ResolveConnection(context.Background(), dev, source)
	require.NoError(t, err)
	assert.Equal(t, "catalog.db", info.DSN)
	assert.Zero(t, source.calls, "dev profile never touches the secret store")

	prod := &config.Config{
		Server:   config.ServerConfig{Profile: config.ProfileProd},
		Database: config.DatabaseConfig{Driver: "mysql"},
		Secrets:  config.SecretsConfig{DBSecretID: "db"},
	}
	info, err = ResolveConnection(context.Background(), prod, source)
	require.NoError(t, err)
	assert.Equal(t, "mysql://db.internal:3306/shop", info.URL())
	assert.Equal(t, 1, source.calls)

	failing := &stubSecretSource{err: errors.New("ResourceNotFoundException")}
	_, err = ResolveConnection(context.Background(), prod, failing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))

	_, err = ResolveConnection(context.Background(), prod, nil)
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
}

func TestOpen_SQLiteMigratesProducts(t *testing.T) {
	db, err := Open(Static("sqlite", "file:open_test?mode=memory&cache=shared"), logger.Discard())
	require.NoError(t, err)
	defer Close(db)

	assert.True(t, db.Migrator().HasTable(&models.Product{}))
}

func TestLoadDefaults_OpenDevDatabase(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, key := range []string{"APP_PROFILE", "DB_DRIVER", "DB_DSN", "HTTP_BODY_LIMIT", "STORAGE_DRIVER"} {
		t.Setenv(key, "")
	}
	t.Setenv("STORAGE_BUCKET", "catalog-images")
	t.Setenv("STORAGE_PUBLIC_BASE_URL", "https://cdn.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "catalog.db", cfg.Database.DSN)

	info, err := ResolveConnection(context.Background(), cfg, nil)
	require.NoError(t, err)
	db, err := Open(info, logger.Discard())
	require.NoError(t, err)
	defer Close(db)

	assert.True(t, db.Migrator().HasTable(&models.Product{}))
}
