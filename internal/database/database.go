// Package database builds the gorm connection for the configured driver.
package database

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"catalog/internal/apperrors"
	"catalog/internal/config"
	"catalog/internal/logger"
	"catalog/internal/models"
	"catalog/internal/secrets"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SecretSource resolves database credentials by secret id.
type SecretSource interface {
	GetDbSecret(ctx context.Context, secretID string) (*secrets.DbSecret, error)
}

// ConnectionInfo describes a database connection. Either DSN is set (static
// datasource) or the host/port/name/credential fields are.
type ConnectionInfo struct {
	Driver   string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// Static returns connection info for a ready-made DSN.
func Static(driver, dsn string) ConnectionInfo {
	return ConnectionInfo{Driver: driver, DSN: dsn}
}

// FromSecret builds connection info from secret-store credentials.
func FromSecret(driver, sslMode string, s *secrets.DbSecret) ConnectionInfo {
	return ConnectionInfo{
		Driver:   driver,
		Host:     s.Host,
		Port:     string(s.Port),
		Name:     s.DBName,
		User:     s.Username,
		Password: s.Password,
		SSLMode:  sslMode,
	}
}

// URL returns protocol://host:port/dbname without credentials, safe to log.
func (c ConnectionInfo) URL() string {
	if c.DSN != "" {
		return c.Driver + "://(static)"
	}
	return fmt.Sprintf("%s://%s/%s", c.Driver, net.JoinHostPort(c.Host, c.Port), c.Name)
}

// Dialector returns the gorm dialector for the connection. Credentials are
// passed as separate fields, never embedded in the URL.
func (c ConnectionInfo) Dialector() (gorm.Dialector, error) {
	switch c.Driver {
	case "postgres":
		if c.DSN != "" {
			return postgres.Open(c.DSN), nil
		}
		return postgres.Open(c.postgresDSN()), nil
	case "mysql":
		if c.DSN != "" {
			return mysql.Open(c.DSN), nil
		}
		return mysql.Open(c.mysqlDSN()), nil
	case "sqlite":
		if c.DSN == "" {
			return nil, fmt.Errorf("sqlite requires a DSN")
		}
		return sqlite.Open(c.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

func (c ConnectionInfo) postgresDSN() string {
	parts := []string{
		"host=" + pgQuote(c.Host),
		"port=" + pgQuote(c.Port),
		"user=" + pgQuote(c.User),
		"password=" + pgQuote(c.Password),
		"dbname=" + pgQuote(c.Name),
	}
	if c.SSLMode != "" {
		parts = append(parts, "sslmode="+pgQuote(c.SSLMode))
	}
	return strings.Join(parts, " ")
}

func (c ConnectionInfo) mysqlDSN() string {
	cfg := mysqldriver.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, c.Port)
	cfg.DBName = c.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

// pgQuote quotes a keyword/value connection string value.
func pgQuote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// ResolveConnection picks the static datasource (dev) or fetches credentials
// from the secret store (prod). Any failure is a configuration failure.
func ResolveConnection(ctx context.Context, cfg *config.Config, source SecretSource) (ConnectionInfo, error) {
	if !cfg.IsProduction() {
		return Static(cfg.Database.Driver, cfg.Database.DSN), nil
	}
	if source == nil {
		return ConnectionInfo{}, apperrors.Configuration("no secret source for the %s profile", config.ProfileProd)
	}
	secret, err := source.GetDbSecret(ctx, cfg.Secrets.DBSecretID)
	if err != nil {
		return ConnectionInfo{}, apperrors.WrapConfiguration("resolve database secret", err)
	}
	return FromSecret(cfg.Database.Driver, cfg.Database.SSLMode, secret), nil
}

// Open connects and migrates the product schema.
func Open(info ConnectionInfo, log *logger.Logger) (*gorm.DB, error) {
	dialector, err := info.Dialector()
	if err != nil {
		return nil, apperrors.WrapConfiguration("build dialector", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Product{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	log.Info("database connected", "url", info.URL())
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
