// Package config resolves the service configuration once at start-up.
package config

import (
	"fmt"
	"strings"

	"catalog/internal/apperrors"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProfileDev  = "dev"
	ProfileProd = "prod"

	// MaxImageSize is the largest accepted product image (10 MiB).
	MaxImageSize = 10 * 1024 * 1024
)

// Config holds all runtime configuration. It is built by Load and must not be
// mutated afterwards.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Secrets  SecretsConfig
	Events   EventsConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port      string
	Profile   string
	BodyLimit int
}

type LogConfig struct {
	Level  string
	Format string
}

// DatabaseConfig selects the driver. DSN is only used by the dev profile; the
// prod profile builds the connection from the secret store.
type DatabaseConfig struct {
	Driver  string
	DSN     string
	SSLMode string
}

type StorageConfig struct {
	Driver        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	Bucket        string
	PublicBaseURL string
	CreateBucket  bool
}

type SecretsConfig struct {
	Region     string
	DBSecretID string
}

// EventsConfig enables product event publication when URL is set.
type EventsConfig struct {
	RabbitMQURL string
}

// AuthConfig protects the upload route when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_PROFILE", ProfileDev)
	v.SetDefault("HTTP_BODY_LIMIT", 12*1024*1024)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "catalog.db")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("STORAGE_DRIVER", "s3")
	v.SetDefault("STORAGE_REGION", "ap-south-1")
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("STORAGE_PUBLIC_BASE_URL", "")
	v.SetDefault("STORAGE_CREATE_BUCKET", false)
	v.SetDefault("SECRETS_REGION", "ap-south-1")
	v.SetDefault("SECRETS_DB_SECRET_ID", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.AutomaticEnv()
	return v
}

// FromViper builds and validates a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	region := v.GetString("STORAGE_REGION")
	endpoint := v.GetString("STORAGE_ENDPOINT")
	if endpoint == "" {
		endpoint = fmt.Sprintf("s3.%s.amazonaws.com", region)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:      v.GetString("APP_PORT"),
			Profile:   strings.ToLower(v.GetString("APP_PROFILE")),
			BodyLimit: v.GetInt("HTTP_BODY_LIMIT"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Database: DatabaseConfig{
			Driver:  strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:     v.GetString("DB_DSN"),
			SSLMode: v.GetString("DB_SSLMODE"),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(v.GetString("STORAGE_DRIVER")),
			Region:        region,
			Endpoint:      endpoint,
			AccessKey:     v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:     v.GetString("STORAGE_SECRET_KEY"),
			UseSSL:        v.GetBool("STORAGE_USE_SSL"),
			Bucket:        v.GetString("STORAGE_BUCKET"),
			PublicBaseURL: strings.TrimRight(v.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),
			CreateBucket:  v.GetBool("STORAGE_CREATE_BUCKET"),
		},
		Secrets: SecretsConfig{
			Region:     v.GetString("SECRETS_REGION"),
			DBSecretID: v.GetString("SECRETS_DB_SECRET_ID"),
		},
		Events: EventsConfig{RabbitMQURL: v.GetString("RABBITMQ_URL")},
		Auth:   AuthConfig{JWTSecret: v.GetString("JWT_SECRET")},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is complete enough to serve traffic.
func (c *Config) Validate() error {
	switch c.Server.Profile {
	case ProfileDev, ProfileProd:
	default:
		return apperrors.Configuration("unknown profile %q", c.Server.Profile)
	}

	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return apperrors.Configuration("unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.Profile == ProfileProd {
		if c.Database.Driver == "sqlite" {
			return apperrors.Configuration("sqlite cannot be used with the %s profile", ProfileProd)
		}
		if c.Secrets.DBSecretID == "" {
			return apperrors.Configuration("SECRETS_DB_SECRET_ID is required for the %s profile", ProfileProd)
		}
		if c.Secrets.Region == "" {
			return apperrors.Configuration("SECRETS_REGION is required for the %s profile", ProfileProd)
		}
	} else if c.Database.DSN == "" {
		return apperrors.Configuration("DB_DSN is required for the %s profile", ProfileDev)
	}

	switch c.Storage.Driver {
	case "s3", "memory":
	default:
		return apperrors.Configuration("unsupported storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Bucket == "" {
		return apperrors.Configuration("STORAGE_BUCKET is required")
	}
	if c.Storage.PublicBaseURL == "" {
		return apperrors.Configuration("STORAGE_PUBLIC_BASE_URL is required")
	}

	if c.Server.BodyLimit <= MaxImageSize {
		return apperrors.Configuration("HTTP_BODY_LIMIT must exceed %d bytes", MaxImageSize)
	}
	return nil
}

// IsProduction reports whether the secret-backed datasource is in use.
func (c *Config) IsProduction() bool {
	return c.Server.Profile == ProfileProd
}
