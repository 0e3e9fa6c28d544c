package db

import (
	"context"
	"fmt"
	"time"

	"redaid/pkg/types"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/sirupsen/logrus"
)

// Connect opens a pool on the configured schema and pings it. Query traces
// at or above DatabaseLogLevel go to logger.
func Connect(ctx context.Context, config *types.Config, logger logrus.FieldLogger) (*pgxpool.Pool, error) {
	poolConfig, err := poolConfig(config, logger)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

func poolConfig(config *types.Config, logger logrus.FieldLogger) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	// An explicit search_path in the url wins.
	if _, ok := cfg.ConnConfig.RuntimeParams["search_path"]; !ok && config.DatabaseSchema != "" {
		cfg.ConnConfig.RuntimeParams["search_path"] = config.DatabaseSchema
	}

	if config.DatabaseMaxConn > 0 {
		cfg.MaxConns = config.DatabaseMaxConn
	}
	cfg.MaxConnIdleTime = 15 * time.Minute
	cfg.MaxConnLifetime = 45 * time.Minute

	level, err := tracelog.LogLevelFromString(config.DatabaseLogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_LOG_LEVEL: %w", err)
	}

	if level != tracelog.LogLevelNone {
		cfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   queryLogger(logger),
			LogLevel: level,
		}
	}

	return cfg, nil
}

func queryLogger(logger logrus.FieldLogger) tracelog.Logger {
	return tracelog.LoggerFunc(func(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		entry := logger.WithFields(logrus.Fields(data))
		switch level {
		case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
			entry.Debug(msg)
		case tracelog.LogLevelInfo:
			entry.Info(msg)
		case tracelog.LogLevelWarn:
			entry.Warn(msg)
		default:
			entry.Error(msg)
		}
	})
}
