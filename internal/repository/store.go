// Package repository selects the document store named in the configuration.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"piuma/internal/config"
	"piuma/internal/domain/repositories"
	"piuma/internal/repository/file"
	"piuma/internal/repository/postgres"
	"piuma/internal/repository/sqlite"
)

// Store is the selected persistence backend.
type Store struct {
	Repo      repositories.DocumentRepository
	TxManager repositories.TransactionManager
	Close     func()
}

// Open connects to the backend named by cfg.StoreDriver and brings
// its schema up to date.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.StoreDriver {
	case config.StoreFile:
		repo, err := file.NewDocumentRepository(cfg.DataDir, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("file store ready", "dir", repo.Dir())
		return &Store{Repo: repo, TxManager: file.NewTransactionManager(), Close: func() {}}, nil

	case config.StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("sqlite store ready", "path", cfg.SQLitePath)
		return &Store{
			Repo:      sqlite.NewDocumentRepository(db),
			TxManager: sqlite.NewTransactionManager(db, logger),
			Close:     func() { _ = db.Close() },
		}, nil

	case config.StorePostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.Migrate(ctx, pool, tables); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("database connected", "table_prefix", cfg.TablePrefix, "max_conns", pool.Config().MaxConns)
		return &Store{
			Repo: postgres.NewDocumentRepository(&postgres.RepositoryConfig{
				Pool:   pool,
				Tables: tables,
				Logger: logger,
			}),
			TxManager: postgres.NewTransactionManager(pool, logger),
			Close:     pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
