package auditlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aurelianware/hipaa-attachments-sub007/config"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/phi"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/storage"
)

// Result holds the initialized audit logger and its dependencies.
// The caller is responsible for calling Close() to release resources.
type Result struct {
	Logger  LoggerInterface
	Reader  Reader
	Storage storage.Storage
}

// Close releases all resources held by the audit logger.
// Safe to call multiple times.
func (r *Result) Close() error {
	var errs []error
	if r.Logger != nil {
		if err := r.Logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("logger close: %w", err))
		}
	}
	if r.Storage != nil {
		if err := r.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage close: %w", err))
		}
		r.Storage = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}
	return nil
}

// New creates an audit logger from configuration, validating entries with
// detector. The caller must call Result.Close() during shutdown.
//
// If logging is disabled in the config, returns a NoopLogger with nil
// reader and storage.
func New(ctx context.Context, cfg *config.Config, detector *phi.Detector) (*Result, error) {
	if !cfg.Logging.Enabled {
		return &Result{Logger: &NoopLogger{}}, nil
	}

	store, err := storage.New(ctx, buildStorageConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	logStore, reader, err := openBackend(ctx, store, cfg.Logging.RetentionDays)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &Result{
		Logger:  NewLogger(logStore, buildLoggerConfig(cfg.Logging), detector),
		Reader:  reader,
		Storage: store,
	}, nil
}

// buildStorageConfig creates a storage.Config from the application config.
func buildStorageConfig(cfg *config.Config) storage.Config {
	storageCfg := storage.Config{
		Type: strings.ToLower(cfg.Storage.Type),
		SQLite: storage.SQLiteConfig{
			Path: cfg.Storage.SQLite.Path,
		},
		PostgreSQL: storage.PostgreSQLConfig{
			URL:      cfg.Storage.PostgreSQL.URL,
			MaxConns: cfg.Storage.PostgreSQL.MaxConns,
		},
		MongoDB: storage.MongoDBConfig{
			URL:      cfg.Storage.MongoDB.URL,
			Database: cfg.Storage.MongoDB.Database,
		},
	}

	if storageCfg.Type == "" {
		storageCfg.Type = storage.TypeSQLite
	}
	if storageCfg.SQLite.Path == "" {
		storageCfg.SQLite.Path = storage.DefaultSQLitePath
	}
	if storageCfg.MongoDB.Database == "" {
		storageCfg.MongoDB.Database = storage.DefaultMongoDatabase
	}

	return storageCfg
}

// openBackend creates the LogStore and Reader for the given storage backend.
func openBackend(ctx context.Context, store storage.Storage, retentionDays int) (LogStore, Reader, error) {
	switch store.Type() {
	case storage.TypeSQLite:
		ls, err := NewSQLiteStore(store.SQLiteDB(), retentionDays)
		if err != nil {
			return nil, nil, err
		}
		rd, err := NewSQLiteReader(store.SQLiteDB())
		return ls, rd, err

	case storage.TypePostgreSQL:
		ls, err := NewPostgreSQLStore(ctx, store.PostgreSQLPool(), retentionDays)
		if err != nil {
			return nil, nil, err
		}
		rd, err := NewPostgreSQLReader(store.PostgreSQLPool())
		return ls, rd, err

	case storage.TypeMongoDB:
		ls, err := NewMongoDBStore(ctx, store.MongoDatabase(), retentionDays)
		if err != nil {
			return nil, nil, err
		}
		rd, err := NewMongoDBReader(store.MongoDatabase())
		return ls, rd, err

	default:
		return nil, nil, fmt.Errorf("unknown storage type: %s", store.Type())
	}
}

// buildLoggerConfig creates an auditlog.Config from config.LogConfig.
func buildLoggerConfig(logCfg config.LogConfig) Config {
	cfg := Config{
		Enabled:       logCfg.Enabled,
		StorePayloads: logCfg.StorePayloads,
		BufferSize:    logCfg.BufferSize,
		FlushInterval: time.Duration(logCfg.FlushInterval) * time.Second,
		RetentionDays: logCfg.RetentionDays,
	}

	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}

	return cfg
}
