// Package config wires a zalacontent service together from declarative
// configuration, typically populated from environment variables via WithEnv.
package config

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zala-app/content-engine/pkg/zalacontent"
	"github.com/zala-app/content-engine/pkg/zalacontent/repo/memory"
	repopg "github.com/zala-app/content-engine/pkg/zalacontent/repo/postgres"
	fsstorage "github.com/zala-app/content-engine/pkg/zalacontent/storage/fs"
	memorystorage "github.com/zala-app/content-engine/pkg/zalacontent/storage/memory"
	s3storage "github.com/zala-app/content-engine/pkg/zalacontent/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:              "8080",
		Environment:       "development",
		DatabaseType:      "memory",
		StorageType:       "memory",
		StorageConfig:     map[string]interface{}{},
		SchedulerInterval: time.Minute,
		EnsureSchema:      true,
	}
}

// ServerConfig represents server configuration for the content engine service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	EnsureSchema bool   // Create postgres tables on startup if missing

	// Storage configuration
	StorageType   string // "memory", "fs", "s3"
	StorageConfig map[string]interface{}

	// Publication sweep
	SchedulerInterval time.Duration

	// Identity
	JWTSecret string
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch c.StorageType {
	case "memory", "fs", "s3":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}

	if c.SchedulerInterval <= 0 {
		return errors.New("scheduler interval must be positive")
	}

	return nil
}

// BuildService creates a Service from the configuration. The Repository and
// BlobStore are returned alongside the Service so callers can hand them to a
// Scheduler and to upload endpoints.
func (c *ServerConfig) BuildService() (zalacontent.Service, zalacontent.Repository, zalacontent.BlobStore, error) {
	repo, err := c.buildRepository()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.buildStorageBackend()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build storage backend: %w", err)
	}

	svc, err := zalacontent.New(
		zalacontent.WithRepository(repo),
		zalacontent.WithBlobStore(store),
	)
	if err != nil {
		return nil, nil, nil, err
	}

	return svc, repo, store, nil
}

// BuildScheduler creates the publication sweep scheduler for a service built
// from this configuration.
func (c *ServerConfig) BuildScheduler(svc zalacontent.Service, repo zalacontent.Repository) *zalacontent.Scheduler {
	return zalacontent.NewScheduler(svc, repo,
		zalacontent.WithInterval(c.SchedulerInterval),
	)
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository() (zalacontent.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil
	case "postgres":
		if c.DatabaseURL == "" {
			return nil, errors.New("database_url is required for postgres")
		}
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		if c.EnsureSchema {
			if err := repopg.EnsureSchema(context.Background(), pool); err != nil {
				return nil, fmt.Errorf("failed to ensure schema: %w", err)
			}
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// PingPostgres verifies connectivity to Postgres.
func PingPostgres(databaseURL string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// buildStorageBackend creates a BlobStore based on the configuration
func (c *ServerConfig) buildStorageBackend() (zalacontent.BlobStore, error) {
	switch c.StorageType {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		fsConfig := fsstorage.Config{
			BaseDir:   getString(c.StorageConfig, "base_dir", "./data/storage"),
			URLPrefix: getString(c.StorageConfig, "url_prefix", ""),
		}
		return fsstorage.New(fsConfig)

	case "s3":
		s3Config := s3storage.Config{
			Region:                 getString(c.StorageConfig, "region", "us-east-1"),
			Bucket:                 getString(c.StorageConfig, "bucket", ""),
			AccessKeyID:            getString(c.StorageConfig, "access_key_id", ""),
			SecretAccessKey:        getString(c.StorageConfig, "secret_access_key", ""),
			Endpoint:               getString(c.StorageConfig, "endpoint", ""),
			UsePathStyle:           getBool(c.StorageConfig, "use_path_style", false),
			PresignDuration:        getInt(c.StorageConfig, "presign_duration", 3600),
			CreateBucketIfNotExist: getBool(c.StorageConfig, "create_bucket_if_not_exist", false),
		}
		return s3storage.New(s3Config)

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", c.StorageType)
	}
}

func getString(config map[string]interface{}, key string, defaultValue string) string {
	if value, exists := config[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

func getBool(config map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := config[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
		if str, ok := value.(string); ok {
			if b, err := strconv.ParseBool(str); err == nil {
				return b
			}
		}
	}
	return defaultValue
}

func getInt(config map[string]interface{}, key string, defaultValue int) int {
	if value, exists := config[key]; exists {
		if i, ok := value.(int); ok {
			return i
		}
		if str, ok := value.(string); ok {
			if i, err := strconv.Atoi(str); err == nil {
				return i
			}
		}
		if f, ok := value.(float64); ok {
			return int(f)
		}
	}
	return defaultValue
}
