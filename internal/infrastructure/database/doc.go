// Package database provides SQLite connectivity for the execution
// history store.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Forward-only schema migrations embedded in the binary
//   - Connection lifecycle and health checks
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only);
//     execution records name the identities that invoked actions
//
// Performance Characteristics:
//   - WAL mode allows concurrent reads during writes
//   - Busy timeout prevents lock contention errors
//   - A single pooled connection matches SQLite's one-writer model
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.History.Path})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration Strategy:
//
// Migrations are additive and forward-only:
//   - New columns must be NULLABLE or have DEFAULT values
//   - Never DROP or RENAME columns
//   - Each migration is a single .up.sql file; restoring a backup is
//     the rollback mechanism
package database
