// Package postgres opens the PostgreSQL-backed vector store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/upb/pdf-qa/config"
	"github.com/upb/pdf-qa/repositories/sqlstore"
	"go.uber.org/zap"
)

// NewDB creates a new database connection pool
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return db, nil
}

// NewStore connects to PostgreSQL and prepares the chunk tables
func NewStore(ctx context.Context, cfg config.DatabaseConfig, collection string, logger *zap.Logger) (*sqlstore.Store, error) {
	db, err := NewDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	store := sqlstore.New(db, sqlstore.Postgres, collection, logger)
	if err := store.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}
