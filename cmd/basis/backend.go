package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/klejdi94/basis/registry"
	"github.com/klejdi94/basis/registry/s3blob"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const (
	backendFile     = "file"
	backendMemory   = "memory"
	backendRedis    = "redis"
	backendPostgres = "postgres"
	backendS3       = "s3"
)

// settings selects and configures the registry backend.
type settings struct {
	Backend    string
	Registry   string
	DSN        string
	Table      string
	Redis      string
	Prefix     string
	S3Bucket   string
	S3Prefix   string
	S3Region   string
	S3Endpoint string
	Debug      bool
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (s *settings) bindFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&s.Backend, "backend", envOr("BASIS_BACKEND", backendFile), "registry backend: file|memory|redis|postgres|s3")
	f.StringVar(&s.Registry, "registry", envOr("BASIS_REGISTRY", ".basis"), "registry directory (file backend)")
	f.StringVar(&s.DSN, "dsn", envOr("BASIS_DSN", ""), "PostgreSQL connection string (postgres backend)")
	f.StringVar(&s.Table, "table", envOr("BASIS_TABLE", "basis_classes"), "table name (postgres backend)")
	f.StringVar(&s.Redis, "redis", envOr("BASIS_REDIS", "localhost:6379"), "Redis address (redis backend)")
	f.StringVar(&s.Prefix, "prefix", envOr("BASIS_PREFIX", "basis:"), "key prefix (redis backend)")
	f.StringVar(&s.S3Bucket, "s3-bucket", envOr("BASIS_S3_BUCKET", ""), "bucket name (s3 backend)")
	f.StringVar(&s.S3Prefix, "s3-prefix", envOr("BASIS_S3_PREFIX", "basis/"), "object key prefix (s3 backend)")
	f.StringVar(&s.S3Region, "s3-region", envOr("AWS_REGION", ""), "AWS region (s3 backend)")
	f.StringVar(&s.S3Endpoint, "s3-endpoint", envOr("BASIS_S3_ENDPOINT", ""), "custom S3 endpoint, e.g. MinIO (s3 backend)")
	f.BoolVar(&s.Debug, "debug", false, "development logging at debug level")
}

func nopClose() error { return nil }

// open returns the configured registry and a function releasing its resources.
func (s *settings) open(ctx context.Context) (registry.Registry, func() error, error) {
	switch strings.ToLower(s.Backend) {
	case backendFile, "":
		reg, err := registry.NewFileRegistry(s.Registry)
		if err != nil {
			return nil, nil, fmt.Errorf("file registry: %w", err)
		}
		return reg, nopClose, nil
	case backendMemory:
		return registry.NewMemoryRegistry(), nopClose, nil
	case backendRedis:
		client := redis.NewClient(&redis.Options{Addr: s.Redis})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", s.Redis, err)
		}
		return registry.NewRedisRegistry(client, s.Prefix), client.Close, nil
	case backendPostgres:
		if s.DSN == "" {
			return nil, nil, fmt.Errorf("postgres backend requires --dsn or BASIS_DSN")
		}
		db, err := sql.Open("postgres", s.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		reg, err := registry.NewPostgresRegistry(ctx, db, s.Table, true)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("postgres registry: %w", err)
		}
		return reg, db.Close, nil
	case backendS3:
		if s.S3Bucket == "" {
			return nil, nil, fmt.Errorf("s3 backend requires --s3-bucket or BASIS_S3_BUCKET")
		}
		store, err := s3blob.NewFromConfig(ctx, s.S3Bucket, s.S3Prefix, s3blob.Options{Region: s.S3Region, Endpoint: s.S3Endpoint})
		if err != nil {
			return nil, nil, fmt.Errorf("s3: %w", err)
		}
		return registry.NewS3Registry(store, ""), nopClose, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want file|memory|redis|postgres|s3)", s.Backend)
	}
}
