// Package history provides access to the executions table recording
// every completed action invocation.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Execution represents a single completed action invocation.
//
// The command output itself is never stored, only its size; output can
// contain anything the shell printed and does not belong in a durable
// store.
type Execution struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	Path        string    `json:"path"`
	Identity    string    `json:"identity,omitempty"`
	ExitCode    int       `json:"exit_code"`
	DurationMS  int64     `json:"duration_ms"`
	OutputBytes int       `json:"output_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter controls which executions to return.
type Filter struct {
	Action   string // optional: filter by action name
	Identity string // optional: filter by invoking identity
	Limit    int    // default 50, max 200
	Offset   int    // pagination offset
}

// ListResult contains the paginated execution results.
type ListResult struct {
	Executions []Execution `json:"executions"`
	Total      int         `json:"total"`
	Limit      int         `json:"limit"`
	Offset     int         `json:"offset"`
}

// Repository defines the interface for execution record operations.
type Repository interface {
	Record(ctx context.Context, exec *Execution) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores execution records in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new execution history repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts a new execution record. The ID and CreatedAt are
// generated if empty.
func (r *SQLiteRepository) Record(ctx context.Context, exec *Execution) error {
	if exec.ID == "" {
		exec.ID = "exec-" + uuid.NewString()[:8]
	}
	if exec.CreatedAt.IsZero() {
		exec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO executions (id, action, path, identity, exit_code, duration_ms, output_bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		exec.ID, exec.Action, exec.Path,
		nullableString(exec.Identity),
		exec.ExitCode, exec.DurationMS, exec.OutputBytes,
		exec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting execution record: %w", err)
	}

	return nil
}

// nullableString returns nil for empty strings, or the string otherwise.
// Used for nullable TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns executions matching the filter, ordered by most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	// Clamp limit.
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 { //nolint:mnd // max page size for history queries
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	// Build WHERE clause dynamically.
	var conditions []string
	var args []any

	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.Identity != "" {
		conditions = append(conditions, "identity = ?")
		args = append(args, filter.Identity)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count.
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM executions %s", where) //nolint:gosec // WHERE built from parameterised conditions, not user input
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting executions: %w", err)
	}

	// Get paginated results.
	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		"SELECT id, action, path, identity, exit_code, duration_ms, output_bytes, created_at FROM executions %s ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying executions: %w", err)
	}
	defer rows.Close()

	var executions []Execution
	for rows.Next() {
		var exec Execution
		var identity sql.NullString
		var createdAt string

		if err := rows.Scan(&exec.ID, &exec.Action, &exec.Path, &identity,
			&exec.ExitCode, &exec.DurationMS, &exec.OutputBytes, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning execution: %w", err)
		}

		if identity.Valid {
			exec.Identity = identity.String
		}

		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing execution timestamp %q: %w", createdAt, err)
		}
		exec.CreatedAt = t

		executions = append(executions, exec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating executions: %w", err)
	}

	if executions == nil {
		executions = []Execution{}
	}

	return &ListResult{
		Executions: executions,
		Total:      total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}
