// Package secrets reads credentials from AWS Secrets Manager.
package secrets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"catalog/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// API is the subset of the Secrets Manager client the Manager needs.
type API interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// DbSecret holds database credentials. It is decoded once at start-up and
// should not be retained after the connection string is built.
type DbSecret struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     Port   `json:"port"`
	DBName   string `json:"dbname"`
}

// Port accepts both "3306" and 3306; RDS-managed secrets use the number form.
type Port string

func (p *Port) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Port(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("port must be a string or a number: %w", err)
	}
	if _, err := strconv.ParseUint(n.String(), 10, 16); err != nil {
		return fmt.Errorf("invalid port %s: %w", n, err)
	}
	*p = Port(n.String())
	return nil
}

// Manager fetches secrets by id.
type Manager struct {
	client API
	log    *logger.Logger
}

// NewManager builds a Manager backed by the default AWS credential chain.
func NewManager(ctx context.Context, region string, log *logger.Logger) (*Manager, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewManagerWithClient(secretsmanager.NewFromConfig(awsCfg), log), nil
}

// NewManagerWithClient wraps an existing client.
func NewManagerWithClient(client API, log *logger.Logger) *Manager {
	return &Manager{client: client, log: log.WithComponent("secrets")}
}

// GetDbSecret fetches secretID and decodes it as database credentials.
// Unknown fields in the payload are ignored.
func (m *Manager) GetDbSecret(ctx context.Context, secretID string) (*DbSecret, error) {
	out, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return nil, fmt.Errorf("get secret value: %w", err)
	}

	var payload []byte
	switch {
	case out.SecretString != nil:
		payload = []byte(aws.ToString(out.SecretString))
	case len(out.SecretBinary) > 0:
		payload = out.SecretBinary
	default:
		return nil, errors.New("secret has no value")
	}

	var secret DbSecret
	if err := json.Unmarshal(payload, &secret); err != nil {
		return nil, fmt.Errorf("failed to parse DB secret: %w", err)
	}
	if err := secret.validate(); err != nil {
		return nil, err
	}

	m.log.Info("database secret loaded", "host", logger.MaskBucket(secret.Host), "dbname", secret.DBName)
	return &secret, nil
}

func (s *DbSecret) validate() error {
	var missing []string
	if s.Username == "" {
		missing = append(missing, "username")
	}
	if s.Host == "" {
		missing = append(missing, "host")
	}
	if s.Port == "" {
		missing = append(missing, "port")
	}
	if s.DBName == "" {
		missing = append(missing, "dbname")
	}
	if len(missing) > 0 {
		return fmt.Errorf("DB secret is missing fields: %v", missing)
	}
	return nil
}
