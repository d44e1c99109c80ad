package service_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	analyticsadapter "pagetrack/internal/modules/analytics/adapter/out"
	"pagetrack/internal/modules/analytics/domain"
	analyticsout "pagetrack/internal/modules/analytics/port/out"
	"pagetrack/internal/modules/analytics/service"
	apperrors "pagetrack/internal/platform/errors"
	"pagetrack/internal/platform/logging"
)

type faultyCollection[T any] struct {
	analyticsout.Collection[T]
	getErr error
	putErr error
}

func (c faultyCollection[T]) Get(ctx context.Context, key string) (T, error) {
	if c.getErr != nil {
		var zero T
		return zero, c.getErr
	}
	return c.Collection.Get(ctx, key)
}

func (c faultyCollection[T]) GetAll(ctx context.Context) ([]T, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.Collection.GetAll(ctx)
}

func (c faultyCollection[T]) Put(ctx context.Context, record T) error {
	if c.putErr != nil {
		return c.putErr
	}
	return c.Collection.Put(ctx, record)
}

type faultyStore struct {
	*analyticsadapter.MemoryStore
	docsGetErr   error
	globalGetErr error
	globalPutErr error
}

func (s *faultyStore) DocumentStats() analyticsout.Collection[domain.DocumentStats] {
	return faultyCollection[domain.DocumentStats]{Collection: s.MemoryStore.DocumentStats(), getErr: s.docsGetErr}
}

func (s *faultyStore) Global() analyticsout.Collection[domain.GlobalAnalytics] {
	return faultyCollection[domain.GlobalAnalytics]{Collection: s.MemoryStore.Global(), getErr: s.globalGetErr, putErr: s.globalPutErr}
}

func newClock(t *testing.T) *quartz.Mock {
	t.Helper()
	mClock := quartz.NewMock(t)
	mClock.Set(time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)).MustWait(context.Background())
	return mClock
}

func record(id, doc string, started time.Time, ms int64, pages ...int) domain.SessionRecord {
	s := domain.SessionRecord{ID: id, DocumentID: doc, StartedAt: started, TotalDurationMs: ms}
	for _, p := range pages {
		s.PageHistory = append(s.PageHistory, domain.PageDwell{Page: p, DurationMs: ms / int64(len(pages)), VisitCount: 1})
	}
	s.PagesRead = len(pages)
	return s
}

func TestRecordIsIdempotentPerChunkID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mClock := newClock(t)
	store := analyticsadapter.NewMemoryStore()
	engine := service.NewAggregationService(mClock, store, logging.Discard(), time.UTC)

	s := record("s1#1", "doc", mClock.Now(), 90000, 1, 2)
	applied, err := engine.Record(ctx, s)
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = engine.Record(ctx, s)
	require.NoError(t, err)
	require.False(t, applied, "retry of a recorded chunk must not aggregate twice")

	g, err := store.Global().Get(ctx, domain.GlobalID)
	require.NoError(t, err)
	require.Equal(t, 1, g.TotalLifetimeSessions)
	require.Equal(t, int64(90000), g.TotalLifetimeReadingMs)
	require.Equal(t, 2, g.WeeklyData[2])
}

func TestRecordChunksAreAdditive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mClock := newClock(t)
	store := analyticsadapter.NewMemoryStore()
	engine := service.NewAggregationService(mClock, store, logging.Discard(), time.UTC)

	_, err := engine.Record(ctx, record("s1#1", "doc", mClock.Now(), 30000, 1))
	require.NoError(t, err)
	mClock.Advance(30 * time.Second)
	_, err = engine.Record(ctx, record("s1#2", "doc", mClock.Now(), 12000, 1, 2))
	require.NoError(t, err)

	stats, err := store.DocumentStats().Get(ctx, "doc")
	require.NoError(t, err)
	require.Equal(t, int64(42000), stats.TotalReadingTimeMs)
	require.Equal(t, 2, stats.TotalSessionCount)
	require.Equal(t, 3, stats.TotalPagesRead)
	require.Equal(t, 2, stats.UniquePagesRead)

	day, err := store.DailySummaries().Get(ctx, "2026-03-04")
	require.NoError(t, err)
	require.Equal(t, 2, day.SessionCount)
	require.Equal(t, []string{"doc"}, day.DocumentsRead)
}

func TestRecordTreatsFailedReadAsAbsent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mClock := newClock(t)
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	store := &faultyStore{
		MemoryStore: analyticsadapter.NewMemoryStore(),
		docsGetErr:  apperrors.ReadFailed(domain.CollectionDocumentStats, "get", errors.New("corrupt page")),
	}
	engine := service.NewAggregationService(mClock, store, logger, time.UTC)

	applied, err := engine.Record(ctx, record("s1#1", "doc", mClock.Now(), 6000, 1))
	require.NoError(t, err)
	require.True(t, applied)
	require.Contains(t, logs.String(), "possible data loss")
	require.Contains(t, logs.String(), "collection=document_stats")
}

func TestRecordRollsBackOnWriteFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mClock := newClock(t)
	mem := analyticsadapter.NewMemoryStore()
	store := &faultyStore{
		MemoryStore:  mem,
		globalPutErr: apperrors.WriteFailed(domain.CollectionGlobal, "put", errors.New("disk full")),
	}
	engine := service.NewAggregationService(mClock, store, logging.Discard(), time.UTC)

	applied, err := engine.Record(ctx, record("s1#1", "doc", mClock.Now(), 6000, 1))
	require.ErrorIs(t, err, apperrors.ErrStoreWriteFailed)
	require.False(t, applied)

	_, err = mem.Sessions().Get(ctx, "s1#1")
	require.ErrorIs(t, err, apperrors.ErrNotFound, "session write must roll back with the aggregates")
	_, err = mem.DocumentStats().Get(ctx, "doc")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	store.globalPutErr = nil
	applied, err = engine.Record(ctx, record("s1#1", "doc", mClock.Now(), 6000, 1))
	require.NoError(t, err)
	require.True(t, applied, "a failed chunk can be retried")
}

func TestRecordRejectsInconsistentSession(t *testing.T) {
	t.Parallel()
	mClock := newClock(t)
	engine := service.NewAggregationService(mClock, analyticsadapter.NewMemoryStore(), logging.Discard(), time.UTC)
	s := record("s1#1", "doc", mClock.Now(), 6000, 1)
	s.PagesRead = 3
	_, err := engine.Record(context.Background(), s)
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDashboardProjection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mClock := newClock(t)
	store := analyticsadapter.NewMemoryStore()
	engine := service.NewAggregationService(mClock, store, logging.Discard(), time.UTC)
	dashboard := service.NewDashboardService(mClock, store, logging.Discard(), time.UTC)

	base := mClock.Now()
	_, err := engine.Record(ctx, record("a#1", "doc-a", base, 60000, 1))
	require.NoError(t, err)
	mClock.Advance(time.Minute)
	_, err = engine.Record(ctx, record("b#1", "doc-b", base.Add(time.Minute), 120000, 1, 2))
	require.NoError(t, err)
	mClock.Advance(time.Minute)
	_, err = engine.Record(ctx, record("c#1", "doc-a", base.Add(2*time.Minute), 30000, 3))
	require.NoError(t, err)

	out, err := dashboard.Dashboard(ctx, 2)
	require.NoError(t, err)
	require.False(t, out.Degraded)
	require.Equal(t, 3, out.Global.TotalLifetimeSessions)
	require.Equal(t, int64(120000), out.Global.LongestSessionMs)
	require.Equal(t, [7]int{0, 0, 4, 0, 0, 0, 0}, out.WeeklyMinutes)
	require.Equal(t, 3, out.Today.SessionCount)

	require.Len(t, out.Documents, 2)
	require.Equal(t, "doc-a", out.Documents[0].DocumentID, "most recently read first")

	require.Len(t, out.RecentSessions, 2)
	require.Equal(t, "c#1", out.RecentSessions[0].ID)
	require.Equal(t, "b#1", out.RecentSessions[1].ID)

	byDoc, err := dashboard.SessionsForDocument(ctx, "doc-a")
	require.NoError(t, err)
	require.Len(t, byDoc, 2)
}

func TestDashboardDegradesOnReadFailure(t *testing.T) {
	t.Parallel()
	mClock := newClock(t)
	store := &faultyStore{
		MemoryStore:  analyticsadapter.NewMemoryStore(),
		globalGetErr: apperrors.ReadFailed(domain.CollectionGlobal, "get", errors.New("io")),
	}
	dashboard := service.NewDashboardService(mClock, store, logging.Discard(), time.UTC)

	out, err := dashboard.Dashboard(context.Background(), 5)
	require.NoError(t, err)
	require.True(t, out.Degraded)
	require.Equal(t, domain.NewGlobal(), out.Global)
	require.Empty(t, out.RecentSessions)
}
