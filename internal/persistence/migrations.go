package persistence

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationFiles embed.FS

// Migration sets, one per service database.
const (
	MigrationsUsers = "users"
	MigrationsTrips = "trips"
)

// MigrationNames lists the SQL files of a set in apply order.
func MigrationNames(set string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFiles, path.Join("migrations", set))
	if err != nil {
		return nil, fmt.Errorf("read migrations %s: %w", set, err)
	}

	filenames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		filenames = append(filenames, entry.Name())
	}
	sort.Strings(filenames)
	return filenames, nil
}

// RunMigrations executes the embedded SQL of one set. Statements are idempotent.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, set string, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}

	filenames, err := MigrationNames(set)
	if err != nil {
		return err
	}

	for _, name := range filenames {
		content, err := migrationFiles.ReadFile(path.Join("migrations", set, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		logger.Info("applying migration", zap.String("set", set), zap.String("file", name))
		if _, err := pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	logger.Info("migrations applied", zap.String("set", set), zap.Int("count", len(filenames)))
	return nil
}
