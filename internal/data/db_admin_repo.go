package data

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// DBAdminRepo runs administrative statements against the database server.
type DBAdminRepo struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewDBAdminRepo creates a new DBAdminRepo.
func NewDBAdminRepo(db *sql.DB, logger *slog.Logger) *DBAdminRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &DBAdminRepo{DB: db, logger: logger.With("component", "db_admin_repo")}
}

// TerminateLongRunningQueries terminates active backends in the current database whose
// query has been running longer than maxAge. The calling backend is never terminated.
// Returns the number of backends signalled.
func (r *DBAdminRepo) TerminateLongRunningQueries(ctx context.Context, maxAge time.Duration) (int64, error) {
	secs := int64(maxAge / time.Second)
	if secs <= 0 {
		return 0, fmt.Errorf("max age must be at least one second, got %s", maxAge)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT pid, pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = current_database()
		  AND pid <> pg_backend_pid()
		  AND state = 'active'
		  AND query_start < now() - ($1::int * interval '1 second')
	`, secs)
	if err != nil {
		return 0, fmt.Errorf("terminate long running queries: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.WarnContext(ctx, "close rows", "error", closeErr)
		}
	}()

	var killed int64
	for rows.Next() {
		var (
			pid        int64
			terminated bool
		)
		if scanErr := rows.Scan(&pid, &terminated); scanErr != nil {
			return killed, fmt.Errorf("scan terminated backend: %w", scanErr)
		}
		if terminated {
			killed++
			r.logger.InfoContext(ctx, "terminated long running query", "pid", pid, "max_age", maxAge)
		}
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return killed, fmt.Errorf("iterate terminated backends: %w", rowsErr)
	}
	return killed, nil
}
