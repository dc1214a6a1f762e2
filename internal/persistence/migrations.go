package persistence

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// SQLExecer runs a migration script. *pgxpool.Pool satisfies it.
type SQLExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// RunMigrations applies every .sql file at the root of migrations in lexical
// order. Blank scripts are skipped.
func RunMigrations(ctx context.Context, db SQLExecer, migrations fs.FS, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if db == nil {
		logger.Warn("audit store not configured; skipping migrations")
		return nil
	}

	names, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	applied := 0
	for _, name := range names {
		content, err := fs.ReadFile(migrations, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			logger.Debug("empty migration skipped", zap.String("file", name))
			continue
		}
		if _, err := db.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		logger.Info("audit migration applied", zap.String("file", name))
		applied++
	}

	logger.Info("audit schema ready", zap.Int("applied", applied))
	return nil
}
