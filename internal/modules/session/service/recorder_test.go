package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pagetrack/internal/modules/session/domain"
	sessionout "pagetrack/internal/modules/session/port/out"
	apperrors "pagetrack/internal/platform/errors"
	"pagetrack/internal/platform/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var start = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("session-%d", s.n)
}

type fakeAggregator struct {
	mu       sync.Mutex
	err      error
	recorded []domain.ReadingSession
	seen     map[string]bool

	entered chan struct{}
	release chan struct{}
}

func (f *fakeAggregator) Record(_ context.Context, s domain.ReadingSession) (bool, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[s.ID] {
		return false, nil
	}
	f.seen[s.ID] = true
	f.recorded = append(f.recorded, s)
	return true, nil
}

func (f *fakeAggregator) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeAggregator) sessions() []domain.ReadingSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ReadingSession(nil), f.recorded...)
}

type fakeSink struct {
	mu        sync.Mutex
	delivered []string
}

func (f *fakeSink) Deliver(_ context.Context, s domain.ReadingSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, s.ID)
	return nil
}

func defaultSettings() Settings {
	return Settings{
		IdleTimeout:      2 * time.Minute,
		AutosaveInterval: 30 * time.Second,
		MinSession:       5 * time.Second,
		Thresholds:       domain.Thresholds{PageDwell: 2 * time.Second, Closing: time.Second},
	}
}

func newTestRecorder(t *testing.T, agg *fakeAggregator, sink *fakeSink, settings Settings) (*Recorder, *quartz.Mock, *Metrics) {
	t.Helper()
	ctx := context.Background()
	mClock := quartz.NewMock(t)
	mClock.Set(start).MustWait(ctx)
	metrics := NewMetrics()
	var s sessionout.SessionSink
	if sink != nil {
		s = sink
	}
	rec := NewRecorder(mClock, &seqIDs{}, agg, s, logging.Discard(), metrics, settings)
	t.Cleanup(func() {
		_, _ = rec.Shutdown(context.Background())
	})
	return rec, mClock, metrics
}

func TestRecorderReadingScenarioPersistsOnPause(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	agg := &fakeAggregator{}
	rec, mClock, _ := newTestRecorder(t, agg, nil, defaultSettings())

	_, _, err := rec.Open(ctx, "doc-a", "Doc A", 1)
	require.NoError(t, err)
	mClock.Advance(3 * time.Second).MustWait(ctx)
	require.NoError(t, rec.ChangePage(2))
	mClock.Advance(4 * time.Second).MustWait(ctx)
	require.NoError(t, rec.ChangePage(3))
	mClock.Advance(6 * time.Second).MustWait(ctx)

	res, err := rec.Flush(ctx, domain.TriggerPause)
	require.NoError(t, err)
	require.Equal(t, OutcomePersisted, res.Outcome)
	require.Equal(t, 3, res.Session.PagesRead)
	require.Equal(t, int64(13000), res.Session.TotalDurationMs)
	require.Equal(t, "Doc A", res.Session.DocumentTitle)

	live := rec.Live()
	require.Equal(t, domain.StatePaused, live.State)
	require.Equal(t, domain.PauseManual, live.PauseReason)
	require.Equal(t, "session-1", live.LogicalID, "pause keeps the logical session")
}

func TestRecorderDiscardsShortSessionsButKeepsResidual(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	agg := &fakeAggregator{}
	rec, mClock, _ := newTestRecorder(t, agg, nil, defaultSettings())

	_, _, err := rec.Open(ctx, "doc", "", 1)
	require.NoError(t, err)
	mClock.Advance(3 * time.Second).MustWait(ctx)
	res, err := rec.Flush(ctx, domain.TriggerPause)
	require.NoError(t, err)
	require.Equal(t, OutcomeDiscarded, res.Outcome)
	require.Empty(t, agg.sessions())

	require.NoError(t, rec.Resume())
	mClock.Advance(3 * time.Second).MustWait(ctx)
	res, err = rec.Flush(ctx, domain.TriggerClose)
	require.NoError(t, err)
	require.Equal(t, OutcomePersisted, res.Outcome)
	require.Equal(t, int64(6000), res.Session.TotalDurationMs)
	require.Len(t, agg.sessions(), 1)
	require.Equal(t, domain.StateIdle, rec.Live().State)
}

func TestRecorderClosingShortSessionDiscards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	agg := &fakeAggregator{}
	rec, mClock, _ := newTestRecorder(t, agg, nil, defaultSettings())

	_, _, err := rec.Open(ctx, "doc", "", 1)
	require.NoError(t, err)
	mClock.Advance(4 * time.Second).MustWait(ctx)
	res, err := rec.Flush(ctx, domain.TriggerClose)
	require.NoError(t, err)
	require.Equal(t, OutcomeDiscarded, res.Outcome)
	require.Empty(t, agg.sessions())
	require.Equal(t, domain.StateIdle, rec.Live().State)
}

func TestRecorderFailedPersistRetainsTime(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	agg := &fakeAggregator{}
	rec, mClock, _ := newTestRecorder(t, agg, nil, defaultSettings())

	_, _, err := rec.Open(ctx, "doc", "", 1)
	require.NoError(t, err)
	mClock.Advance(10 * time.Second).MustWait(ctx)

	agg.setErr(apperrors.WriteFailed("sessions", "put", errors.New("disk full")))
	res, err := rec.Flush(ctx, domain.TriggerPause)
	require.ErrorIs(t, err, apperrors.ErrStoreWriteFailed)
	require.Equal(t, OutcomeFailed, res.Outcome)
	require.Equal(t, domain.StatePaused, rec.Live().State, "recording continues after a store failure")

	agg.setErr(nil)
	require.NoError(t, rec.Resume())
	mClock.Advance(5 * time.Second).MustWait(ctx)
	res, err = rec.Flush(ctx, domain.TriggerPause)
	require.NoError(t, err)
	require.Equal(t, OutcomePersisted, res.Outcome)
	require.Equal(t, "session-1#1", res.Session.ID)
	require.Equal(t, int64(15000), res.Session.TotalDurationMs)
}

func TestRecorderRetriesPendingChunksOfClosedSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	agg := &fakeAggregator{}
	rec, mClock, _ := newTestRecorder(t, agg, nil, defaultSettings())

	_, _, err := rec.Open(ctx, "doc-a", "", 1)
	require.NoError(t, err)
	mClock.Advance(10 * time.Second).MustWait(ctx)
	agg.setErr(apperrors.Unavailable("open", errors.New("locked")))
	_, err = rec.Flush(ctx, domain.TriggerClose)
	require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	require.Equal(t, 1, rec.Pending())

	agg.setErr(nil)
	_, _, err = rec.Open(ctx, "doc-b", "", 1)
	require.NoError(t, err)
	mClock.Advance(6 * time.Second).MustWait(ctx)
	_, err = rec.Flush(ctx, domain.TriggerClose)
	require.NoError(t, err)

	got := agg.sessions()
	require.Len(t, got, 2)
	require.Equal(t, "session-1#1", got[0].ID)
	require.Equal(t, int64(10000), got[0].TotalDurationMs)
	require.Equal(t, "session-2#1", got[1].ID)
	require.Zero(t, rec.Pending())
}

func TestRecorderAutosaveKeepsSessionActive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	agg := &fakeAggregator{}
	sink := &fakeSink{}
	rec, mClock, _ := newTestRecorder(t, agg, sink, defaultSettings())

	_, _, err := rec.Open(ctx, "doc", "", 1)
	require.NoError(t, err)
	mClock.Advance(30 * time.Second).MustWait(ctx)

	require.Len(t, agg.sessions(), 1)
	require.Equal(t, int64(30000), agg.sessions()[0].TotalDurationMs)
	live := rec.Live()
	require.Equal(t, domain.StateActive, live.State)
	require.Equal(t, 1, live.PersistedChunks)

	mClock.Advance(10 * time.Second).MustWait(ctx)
	_, err = rec.Shutdown(ctx)
	require.NoError(t, err)

	got := agg.sessions()
	require.Len(t, got, 2)
	require.Equal(t, "session-1#2", got[1].ID)
	require.Equal(t, int64(10000), got[1].TotalDurationMs)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.ElementsMatch(t, []string{"session-1#1", "session-1#2"}, sink.delivered)
}

func TestRecorderIdleTimeoutPausesAndActivityResumes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	agg := &fakeAggregator{}
	settings := defaultSettings()
	settings.AutosaveInterval = 10 * time.Minute
	rec, mClock, _ := newTestRecorder(t, agg, nil, settings)

	_, _, err := rec.Open(ctx, "doc", "", 1)
	require.NoError(t, err)
	mClock.Advance(2 * time.Minute).MustWait(ctx)

	live := rec.Live()
	require.Equal(t, domain.StatePaused, live.State)
	require.Equal(t, domain.PauseIdle, live.PauseReason)
	require.Len(t, agg.sessions(), 1)

	rec.Activity()
	require.Equal(t, domain.StateActive, rec.Live().State)
	mClock.Advance(10 * time.Second).MustWait(ctx)
	_, err = rec.Flush(ctx, domain.TriggerClose)
	require.NoError(t, err)
	got := agg.sessions()
	require.Len(t, got, 2)
	require.Equal(t, int64(10000), got[1].TotalDurationMs)
}

// Not parallel: flightCallers sees every goroutine in the process.
func TestRecorderConcurrentAutosaveAndIdleFinalizeOnce(t *testing.T) {
	ctx := context.Background()
	agg := &fakeAggregator{entered: make(chan struct{}, 4), release: make(chan struct{})}
	rec, mClock, metrics := newTestRecorder(t, agg, nil, defaultSettings())

	_, _, err := rec.Open(ctx, "doc", "", 1)
	require.NoError(t, err)

	tick := mClock.Advance(30 * time.Second)
	<-agg.entered

	type outcome struct {
		res FlushResult
		err error
	}
	idleDone := make(chan outcome, 1)
	go func() {
		res, err := rec.Flush(context.Background(), domain.TriggerIdle)
		idleDone <- outcome{res, err}
	}()
	require.Eventually(t, func() bool { return flightCallers() == 2 }, 5*time.Second, 5*time.Millisecond)

	close(agg.release)
	tick.MustWait(ctx)
	idle := <-idleDone

	require.NoError(t, idle.err)
	require.True(t, idle.res.Coalesced)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.coalesced.WithLabelValues(string(domain.TriggerIdle))))
	require.Zero(t, testutil.ToFloat64(metrics.coalesced.WithLabelValues(string(domain.TriggerAutosave))))
	require.Equal(t, OutcomePersisted, idle.res.Outcome)
	require.Len(t, agg.sessions(), 1, "joined finalize must not aggregate twice")
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.finalizeTotal.WithLabelValues(string(domain.TriggerAutosave), string(OutcomePersisted))))
	require.Equal(t, domain.StatePaused, rec.Live().State)
}

func TestRecorderSequentialFlushesAreNotCoalesced(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	agg := &fakeAggregator{}
	settings := defaultSettings()
	settings.AutosaveInterval = 10 * time.Minute
	rec, mClock, metrics := newTestRecorder(t, agg, nil, settings)

	_, _, err := rec.Open(ctx, "doc", "", 1)
	require.NoError(t, err)
	mClock.Advance(10 * time.Second).MustWait(ctx)
	first, err := rec.Flush(ctx, domain.TriggerPause)
	require.NoError(t, err)
	require.NoError(t, rec.Resume())
	mClock.Advance(10 * time.Second).MustWait(ctx)
	second, err := rec.Flush(ctx, domain.TriggerPause)
	require.NoError(t, err)

	require.False(t, first.Coalesced)
	require.False(t, second.Coalesced)
	require.Equal(t, OutcomePersisted, second.Outcome)
	require.Zero(t, testutil.ToFloat64(metrics.coalesced.WithLabelValues(string(domain.TriggerPause))))
	require.Len(t, agg.sessions(), 2)
}

func TestRecorderFocusResumesIdleAndBlurButNotManualPause(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	settings := defaultSettings()
	settings.AutosaveInterval = 10 * time.Minute
	rec, mClock, _ := newTestRecorder(t, &fakeAggregator{}, nil, settings)

	_, _, err := rec.Open(ctx, "doc", "", 1)
	require.NoError(t, err)
	mClock.Advance(2 * time.Minute).MustWait(ctx)
	require.Equal(t, domain.PauseIdle, rec.Live().PauseReason)

	_, err = rec.Focus(ctx, true)
	require.NoError(t, err)
	require.Equal(t, domain.StateActive, rec.Live().State)

	_, err = rec.Focus(ctx, false)
	require.NoError(t, err)
	require.Equal(t, domain.PauseBlur, rec.Live().PauseReason)
	_, err = rec.Focus(ctx, true)
	require.NoError(t, err)
	require.Equal(t, domain.StateActive, rec.Live().State)

	_, err = rec.Flush(ctx, domain.TriggerPause)
	require.NoError(t, err)
	_, err = rec.Focus(ctx, true)
	require.NoError(t, err)
	live := rec.Live()
	require.Equal(t, domain.StatePaused, live.State)
	require.Equal(t, domain.PauseManual, live.PauseReason)
}

func TestRecorderSwitchFinalizesPrevious(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	agg := &fakeAggregator{}
	rec, mClock, _ := newTestRecorder(t, agg, nil, defaultSettings())

	_, _, err := rec.Open(ctx, "doc-a", "", 1)
	require.NoError(t, err)
	mClock.Advance(8 * time.Second).MustWait(ctx)

	live, prev, err := rec.Open(ctx, "doc-b", "", 3)
	require.NoError(t, err)
	require.Equal(t, domain.TriggerSwitch, prev.Trigger)
	require.Equal(t, OutcomePersisted, prev.Outcome)
	require.Equal(t, "doc-a", prev.Session.DocumentID)
	require.Equal(t, "doc-b", live.DocumentID)
	require.Equal(t, "session-2", live.LogicalID)
	require.Equal(t, 3, live.CurrentPage)
}

func TestRecorderRejectsInputWithoutDocument(t *testing.T) {
	t.Parallel()
	rec, _, _ := newTestRecorder(t, &fakeAggregator{}, nil, defaultSettings())

	require.ErrorIs(t, rec.ChangePage(2), apperrors.ErrNoDocument)
	require.ErrorIs(t, rec.ChangePage(0), apperrors.ErrInvalidInput)
	require.ErrorIs(t, rec.Resume(), apperrors.ErrNoDocument)
	res, err := rec.Flush(context.Background(), domain.TriggerPause)
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, res.Outcome)
}

// flightCallers counts goroutines currently inside singleflight.Do, either
// running the finalize or waiting on it.
func flightCallers() int {
	buf := make([]byte, 1<<20)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return strings.Count(string(buf[:n]), "singleflight.(*Group).Do(")
		}
		buf = make([]byte, 2*len(buf))
	}
}
