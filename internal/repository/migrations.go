package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

// RunMigrations applies the schema. Statuses and priorities are enforced with
// CHECK constraints, and comments/attachments cascade when their task goes
// away rather than lingering as orphans.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	logger.Debug("running schema migrations")

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	logger.Debug("schema migrations finished")
	return nil
}
