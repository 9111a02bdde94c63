// Package sqlite opens the SQLite-backed vector store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/upb/pdf-qa/repositories/sqlstore"
	"go.uber.org/zap"
)

// NewDB opens the database file with foreign keys enabled.
// SQLite allows one writer, so the pool is limited to a single connection.
func NewDB(ctx context.Context, path string, logger *zap.Logger) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established", zap.String("path", path))
	return db, nil
}

// NewStore opens the SQLite file and prepares the chunk tables
func NewStore(ctx context.Context, path, collection string, logger *zap.Logger) (*sqlstore.Store, error) {
	db, err := NewDB(ctx, path, logger)
	if err != nil {
		return nil, err
	}

	store := sqlstore.New(db, sqlstore.SQLite, collection, logger)
	if err := store.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}
