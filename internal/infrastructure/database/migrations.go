package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Migration filename parsing constants.
const (
	// migrationFilenameParts is the expected number of parts in a migration filename.
	// Format: YYYYMMDD_HHMMSS_description.up.sql (3 parts when split by "_")
	migrationFilenameParts = 3

	// minVersionParts is the minimum parts needed to extract a version.
	minVersionParts = 2
)

// MigrationsFS should be set by the migrations package to embed
// migration files, so the schema ships inside the binary.
//
// Usage:
//
//	//go:embed *.sql
//	var files embed.FS
//
//	func init() {
//	    database.MigrationsFS = files
//	    database.MigrationsDir = "."
//	}
var MigrationsFS embed.FS

// MigrationsDir is the directory within MigrationsFS containing migration files.
var MigrationsDir = "migrations"

// Migration represents a single schema migration. Migrations are
// forward-only: there is no down path, restoring a backup is the
// rollback mechanism.
type Migration struct {
	// Version is the migration version number (extracted from filename).
	// Format: YYYYMMDD_HHMMSS (e.g., 20260815_090000)
	Version string

	// Name is the human-readable migration name.
	Name string

	// SQL contains the statements to apply this migration.
	SQL string
}

// Migrate applies all pending migrations to the database.
// Migrations are applied in version order (oldest first), each in its
// own transaction: if migration N fails, 1..N-1 stay committed, N is
// rolled back, and re-running Migrate after fixing the issue continues
// from N.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: If any migration fails (that migration is rolled back)
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	migrations, err := loadMigrations()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	if len(migrations) == 0 {
		return nil
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("getting applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("applying migration %s (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// createMigrationsTable creates the schema_migrations table if it doesn't exist.
func (db *DB) createMigrationsTable(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`)
	return err
}

// appliedVersions returns the set of migration versions already applied.
func (db *DB) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("querying migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scanning migration row: %w", err)
		}
		applied[version] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating migrations: %w", err)
	}
	return applied, nil
}

// applyMigration applies a single migration within a transaction.
func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("executing SQL: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		m.Version,
		time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}
	return nil
}

// loadMigrations loads all migration files from the embedded filesystem,
// sorted by version (oldest first).
func loadMigrations() ([]Migration, error) {
	// Check if MigrationsFS has been set
	var empty embed.FS
	if MigrationsFS == empty {
		return nil, nil
	}

	entries, err := fs.ReadDir(MigrationsFS, MigrationsDir)
	if err != nil {
		// Directory might not exist if no migrations
		return nil, nil
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		version, ok := parseMigrationFilename(name)
		if !ok {
			continue
		}

		data, err := fs.ReadFile(MigrationsFS, filepath.Join(MigrationsDir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    extractMigrationName(name),
			SQL:     string(data),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// parseMigrationFilename extracts the version from a migration filename.
// Only forward migrations (.up.sql) are recognised.
func parseMigrationFilename(name string) (version string, ok bool) {
	if !strings.HasSuffix(name, ".up.sql") {
		return "", false
	}

	base := strings.TrimSuffix(name, ".up.sql")

	// Extract version (YYYYMMDD_HHMMSS from YYYYMMDD_HHMMSS_description)
	parts := strings.SplitN(base, "_", migrationFilenameParts)
	if len(parts) < minVersionParts {
		return "", false
	}

	return parts[0] + "_" + parts[1], true
}

// extractMigrationName extracts a human-readable name from the filename.
// Example: "20260815_090000_create_executions.up.sql" -> "create_executions"
func extractMigrationName(filename string) string {
	base := strings.TrimSuffix(filename, ".up.sql")

	parts := strings.SplitN(base, "_", migrationFilenameParts)
	if len(parts) >= migrationFilenameParts {
		return parts[minVersionParts] // The description part
	}
	return base
}
