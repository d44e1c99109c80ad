package out_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	positionadapter "pagetrack/internal/modules/position/adapter/out"
	"pagetrack/internal/modules/position/domain"
	apperrors "pagetrack/internal/platform/errors"
	"pagetrack/internal/platform/sqlitedb"
)

func TestSQLiteStoreSavesLatestPosition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := sqlitedb.Open(ctx, filepath.Join(t.TempDir(), "pagetrack.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	store, err := positionadapter.NewSQLiteStore(ctx, db)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if _, err := store.Load(ctx, "doc"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	at := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	batch := []domain.Position{{DocumentID: "doc", Page: 3, UpdatedAt: at}, {DocumentID: "other", Page: 1, UpdatedAt: at}}
	if err := store.SaveAll(ctx, batch); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveAll(ctx, []domain.Position{{DocumentID: "doc", Page: 12, UpdatedAt: at.Add(time.Minute)}}); err != nil {
		t.Fatalf("save again: %v", err)
	}
	pos, err := store.Load(ctx, "doc")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if pos.Page != 12 || !pos.UpdatedAt.Equal(at.Add(time.Minute)) {
		t.Fatalf("unexpected position %+v", pos)
	}
}
