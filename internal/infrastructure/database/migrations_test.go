package database

import (
	"context"
	"embed"
	"testing"
	"time"
)

// testMigrationsDir is the directory containing test migration files.
const testMigrationsDir = "testdata"

//go:embed testdata/*.sql
var testMigrationsFS embed.FS

// useTestMigrations points the package at the testdata migrations for
// the duration of one test.
func useTestMigrations(t *testing.T) {
	t.Helper()

	origFS := MigrationsFS
	origDir := MigrationsDir
	t.Cleanup(func() {
		MigrationsFS = origFS
		MigrationsDir = origDir
	})

	MigrationsFS = testMigrationsFS
	MigrationsDir = testMigrationsDir
}

// TestMigrate verifies migration application.
func TestMigrate(t *testing.T) {
	useTestMigrations(t)

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Run migrations
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// Verify table was created
	var tableName string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='test_runs'",
	).Scan(&tableName)
	if err != nil {
		t.Fatalf("table test_runs not created: %v", err)
	}

	// Verify migrations were recorded
	var applied int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&applied)
	if err != nil {
		t.Fatalf("counting applied migrations: %v", err)
	}
	if applied != 2 {
		t.Errorf("applied migrations = %d, want 2", applied)
	}

	// Running again should be idempotent
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&applied)
	if err != nil {
		t.Fatalf("counting applied migrations: %v", err)
	}
	if applied != 2 {
		t.Errorf("applied migrations after rerun = %d, want 2", applied)
	}
}

// TestMigrate_AppliedInVersionOrder verifies the second migration sees
// the first one's schema.
func TestMigrate_AppliedInVersionOrder(t *testing.T) {
	useTestMigrations(t)

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// The second test migration adds a column to test_runs; inserting
	// into it proves both ran, in order.
	_, err := db.ExecContext(ctx,
		"INSERT INTO test_runs (id, label, note) VALUES (?, ?, ?)", "r1", "first", "added-later",
	)
	if err != nil {
		t.Fatalf("insert with migrated column failed: %v", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantOK      bool
	}{
		{
			name:        "valid up migration",
			filename:    "20260815_090000_create_executions.up.sql",
			wantVersion: "20260815_090000",
			wantOK:      true,
		},
		{
			name:     "down migrations not recognised",
			filename: "20260815_090000_create_executions.down.sql",
			wantOK:   false,
		},
		{
			name:     "not a sql file",
			filename: "README.md",
			wantOK:   false,
		},
		{
			name:     "missing version parts",
			filename: "schema.up.sql",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("parseMigrationFilename(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			}
			if ok && version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	got := extractMigrationName("20260815_090000_create_executions.up.sql")
	if got != "create_executions" {
		t.Errorf("extractMigrationName() = %q, want %q", got, "create_executions")
	}
}
