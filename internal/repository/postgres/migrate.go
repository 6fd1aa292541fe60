package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// Migrate creates or upgrades the prefixed tables. Migrations are Go
// functions because the table names depend on the prefix.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	// Each prefix keeps its own history so environments can share a database
	store, err := database.NewStore(database.DialectPostgres, tables.Versions)
	if err != nil {
		return fmt.Errorf("create migration store: %w", err)
	}
	provider, err := goose.NewProvider("", db, nil,
		goose.WithStore(store),
		goose.WithGoMigrations(migrations(tables)...),
	)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func migrations(t *TableNames) []*goose.Migration {
	return []*goose.Migration{
		goose.NewGoMigration(1,
			&goose.GoFunc{RunTx: execTx(fmt.Sprintf(`
				CREATE TABLE %[1]s (
					id         UUID PRIMARY KEY,
					owner_id   TEXT NOT NULL DEFAULT '',
					name       VARCHAR(255) NOT NULL,
					data       BYTEA NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX %[1]s_owner_updated ON %[1]s (owner_id, updated_at DESC);
			`, t.Documents))},
			&goose.GoFunc{RunTx: execTx(fmt.Sprintf(`DROP TABLE %s`, t.Documents))},
		),
	}
}

func execTx(query string) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query)
		return err
	}
}
