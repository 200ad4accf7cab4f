package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// gooseUp — шов для тестов: позволяет подменить применение миграций.
var gooseUp = goose.UpContext

// migrate применяет встроенные миграции goose поверх пула pgx.
// *sql.DB создаётся из того же пула и закрывается сразу после миграций.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	const op = "storage.postgres.migrate"

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := gooseUp(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
