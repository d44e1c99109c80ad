package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	apperrors "pagetrack/internal/platform/errors"

	_ "modernc.org/sqlite"
)

// Open opens the local database in WAL mode with a busy timeout so the
// recorder, position cache and catalog can share one file.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.Unavailable("create db dir", err)
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.Unavailable("open sqlite", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, apperrors.Unavailable("ping sqlite", err)
	}
	return db, nil
}

func Exec(ctx context.Context, db *sql.DB, ddl string) error {
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return apperrors.Unavailable("migrate", fmt.Errorf("apply schema: %w", err))
	}
	return nil
}
