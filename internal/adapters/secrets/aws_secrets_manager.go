// Package secrets loads BlueSnap API credentials from AWS Secrets Manager so
// they never live in environment variables in production
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"
)

// Credentials is the secret payload layout: a JSON object holding the API
// username and password issued in the BlueSnap merchant console
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ManagerConfig contains AWS Secrets Manager settings
type ManagerConfig struct {
	Region string
	// Optional profile name for local development
	Profile string
	// Optional custom endpoint for LocalStack testing
	Endpoint string
	CacheTTL time.Duration
}

// Manager retrieves and caches BlueSnap credentials
type Manager struct {
	client *secretsmanager.Client
	logger *zap.Logger
	ttl    time.Duration

	mu     sync.Mutex
	cached map[string]*cachedCredentials
}

type cachedCredentials struct {
	creds     *Credentials
	expiresAt time.Time
}

// NewManager creates a new secrets manager adapter
func NewManager(ctx context.Context, cfg *ManagerConfig, logger *zap.Logger) (*Manager, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	clientOptions := []func(*secretsmanager.Options){}
	if cfg.Endpoint != "" {
		clientOptions = append(clientOptions, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	logger.Info("secrets manager adapter initialized",
		zap.String("region", cfg.Region),
		zap.Duration("cache_ttl", ttl))

	return &Manager{
		client: secretsmanager.NewFromConfig(awsConfig, clientOptions...),
		logger: logger,
		ttl:    ttl,
		cached: make(map[string]*cachedCredentials),
	}, nil
}

// GetCredentials retrieves the BlueSnap credentials stored under a secret name
// or ARN
func (m *Manager) GetCredentials(ctx context.Context, secretID string) (*Credentials, error) {
	m.mu.Lock()
	if entry, ok := m.cached[secretID]; ok && time.Now().Before(entry.expiresAt) {
		m.mu.Unlock()
		return entry.creds, nil
	}
	m.mu.Unlock()

	start := time.Now()
	result, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		m.logger.Error("failed to retrieve secret",
			zap.String("secret_id", secretID),
			zap.Error(err))
		return nil, fmt.Errorf("get secret %s: %w", secretID, err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(aws.ToString(result.SecretString)), &creds); err != nil {
		return nil, fmt.Errorf("parse secret %s: %w", secretID, err)
	}
	if creds.Username == "" || creds.Password == "" {
		return nil, fmt.Errorf("secret %s is missing username or password", secretID)
	}

	m.logger.Info("bluesnap credentials retrieved",
		zap.String("secret_id", secretID),
		zap.Duration("elapsed", time.Since(start)))

	m.mu.Lock()
	m.cached[secretID] = &cachedCredentials{
		creds:     &creds,
		expiresAt: time.Now().Add(m.ttl),
	}
	m.mu.Unlock()

	return &creds, nil
}
