package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/singleflight"

	"pagetrack/internal/modules/session/domain"
	sessionout "pagetrack/internal/modules/session/port/out"
	"pagetrack/internal/platform/clock"
	apperrors "pagetrack/internal/platform/errors"
	"pagetrack/internal/platform/id"
)

const (
	timerTag        = "recorder"
	idleTag         = "idle"
	autosaveTag     = "autosave"
	sinkTimeout     = 10 * time.Second
	terminalRetries = 3
)

type Settings struct {
	IdleTimeout      time.Duration
	AutosaveInterval time.Duration
	MinSession       time.Duration
	Thresholds       domain.Thresholds
}

type Outcome string

const (
	OutcomePersisted Outcome = "persisted"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeDiscarded Outcome = "discarded"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

type FlushResult struct {
	Trigger   domain.Trigger
	Outcome   Outcome
	Session   domain.ReadingSession
	Coalesced bool
}

// Recorder owns the live session, its idle watchdog and autosave ticker, and
// coordinates finalization. At most one finalize runs per logical session:
// concurrent triggers join the in-flight call instead of aggregating twice.
type Recorder struct {
	clock    clock.Clock
	ids      id.Generator
	agg      sessionout.Aggregator
	sink     sessionout.SessionSink
	logger   *slog.Logger
	metrics  *Metrics
	settings Settings

	flights singleflight.Group
	sinks   sync.WaitGroup

	mu           sync.Mutex
	timeline     *domain.Timeline
	title        string
	pending      []domain.ReadingSession
	idle         *quartz.Timer
	autosave     quartz.Waiter
	stopAutosave context.CancelFunc
}

func NewRecorder(clk clock.Clock, ids id.Generator, agg sessionout.Aggregator, sink sessionout.SessionSink, logger *slog.Logger, metrics *Metrics, settings Settings) *Recorder {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Recorder{
		clock:    clk,
		ids:      ids,
		agg:      agg,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
		settings: settings,
		timeline: domain.NewTimeline(settings.Thresholds),
	}
}

// Open finalizes any session in progress as a document switch, then starts a
// new logical session on documentID.
func (r *Recorder) Open(ctx context.Context, documentID, title string, page int) (domain.LiveStats, FlushResult, error) {
	if documentID == "" {
		return domain.LiveStats{}, FlushResult{}, fmt.Errorf("%w: document id is required", apperrors.ErrInvalidInput)
	}
	var (
		switched FlushResult
		flushErr error
	)
	r.mu.Lock()
	open := r.timeline.State() != domain.StateIdle
	r.mu.Unlock()
	if open {
		switched, flushErr = r.Flush(ctx, domain.TriggerSwitch)
	}

	r.mu.Lock()
	wait := r.stopTimersLocked()
	r.timeline.Open(r.clock.Now(), documentID, r.ids.New(), page)
	r.title = title
	r.startTimersLocked()
	live := r.liveLocked()
	r.mu.Unlock()
	wait()

	r.logger.Info("session opened", "document_id", documentID, "session_id", live.LogicalID, "page", live.CurrentPage)
	return live, switched, flushErr
}

func (r *Recorder) ChangePage(page int) error {
	if page < 1 {
		return fmt.Errorf("%w: page must be >= 1", apperrors.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timeline.State() == domain.StateIdle {
		return apperrors.ErrNoDocument
	}
	now := r.clock.Now()
	if r.timeline.State() == domain.StatePaused && r.timeline.PauseReason() == domain.PauseIdle {
		r.timeline.Resume(now)
	}
	r.timeline.ChangePage(now, page)
	r.armIdleLocked()
	return nil
}

// Activity records qualifying input (pointer, key, scroll, touch). It ends an
// idle pause and re-arms the watchdog.
func (r *Recorder) Activity() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timeline.State() == domain.StatePaused && r.timeline.PauseReason() == domain.PauseIdle {
		r.timeline.Resume(r.clock.Now())
	}
	r.armIdleLocked()
}

// Resume ends any outstanding pause.
func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timeline.State() == domain.StateIdle {
		return apperrors.ErrNoDocument
	}
	r.timeline.Resume(r.clock.Now())
	r.armIdleLocked()
	return nil
}

// Focus pauses on focus loss (finalizing as blur) and resumes a blur or idle
// pause when focus returns. A manual pause stays until Resume.
func (r *Recorder) Focus(ctx context.Context, focused bool) (FlushResult, error) {
	if !focused {
		return r.Flush(ctx, domain.TriggerBlur)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timeline.State() == domain.StatePaused && r.timeline.PauseReason() != domain.PauseManual {
		r.timeline.Resume(r.clock.Now())
		r.armIdleLocked()
	}
	return FlushResult{Trigger: domain.TriggerBlur, Outcome: OutcomeSkipped}, nil
}

func (r *Recorder) Live() domain.LiveStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.liveLocked()
}

func (r *Recorder) liveLocked() domain.LiveStats {
	live := r.timeline.Live(r.clock.Now())
	if live.State != domain.StateIdle {
		live.DocumentTitle = r.title
	}
	return live
}

func (r *Recorder) Title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.title
}

// Flush finalizes the live session for trigger. Pause-like triggers pause
// first; terminal triggers leave the recorder idle. Store failures come back
// as advisory errors and never stop recording.
func (r *Recorder) Flush(ctx context.Context, trigger domain.Trigger) (FlushResult, error) {
	r.mu.Lock()
	if r.timeline.State() == domain.StateIdle {
		r.mu.Unlock()
		r.retryPending(ctx)
		return FlushResult{Trigger: trigger, Outcome: OutcomeSkipped}, nil
	}
	if reason, ok := trigger.Pauses(); ok {
		r.timeline.Pause(r.clock.Now(), reason)
	}
	key := r.timeline.LogicalID()
	wait := func() {}
	if trigger.Terminal() {
		wait = r.stopTimersLocked()
	}
	r.mu.Unlock()
	wait()

	res, err := r.flight(ctx, key, trigger)
	if !trigger.Terminal() {
		return res, err
	}
	// A terminal trigger may have joined a non-terminal flight; finish the
	// residual until the logical session is closed.
	for i := 0; i < terminalRetries && r.isOpen(key); i++ {
		res, err = r.flight(ctx, key, trigger)
	}
	return res, err
}

func (r *Recorder) flight(ctx context.Context, key string, trigger domain.Trigger) (FlushResult, error) {
	ran := false
	v, err, shared := r.flights.Do(key, func() (interface{}, error) {
		ran = true
		return r.finalize(ctx, trigger)
	})
	// shared is also set for the caller that ran fn.
	coalesced := shared && !ran
	if coalesced {
		r.metrics.observeCoalesced(string(trigger))
		r.logger.Debug("finalize joined in-flight call", "session_id", key, "trigger", trigger)
	}
	res, _ := v.(FlushResult)
	res.Coalesced = coalesced
	return res, err
}

func (r *Recorder) isOpen(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timeline.State() != domain.StateIdle && r.timeline.LogicalID() == key
}

// finalize runs inside the single flight for one logical session.
func (r *Recorder) finalize(ctx context.Context, trigger domain.Trigger) (FlushResult, error) {
	started := r.clock.Now()
	r.retryPending(ctx)

	r.mu.Lock()
	cut, ok := r.timeline.Cut(r.clock.Now())
	title := r.title
	r.mu.Unlock()
	if !ok {
		return FlushResult{Trigger: trigger, Outcome: OutcomeSkipped}, nil
	}
	cut.Session.DocumentTitle = title
	session := cut.Session
	res := FlushResult{Trigger: trigger, Session: session}

	var err error
	if session.TotalDurationMs < r.settings.MinSession.Milliseconds() {
		res.Outcome = OutcomeDiscarded
	} else {
		applied, aggErr := r.agg.Record(ctx, session)
		switch {
		case aggErr != nil:
			res.Outcome = OutcomeFailed
			err = fmt.Errorf("finalize %s: %w", session.ID, aggErr)
		case !applied:
			res.Outcome = OutcomeDuplicate
		default:
			res.Outcome = OutcomePersisted
		}
	}

	r.mu.Lock()
	if res.Outcome == OutcomePersisted || res.Outcome == OutcomeDuplicate {
		r.timeline.Commit(cut)
	}
	if trigger.Terminal() && r.timeline.LogicalID() == session.LogicalID {
		if res.Outcome == OutcomeFailed {
			r.pending = append(r.pending, session)
			r.metrics.setPending(len(r.pending))
		}
		_ = r.stopTimersLocked()
		r.timeline.Reset()
		r.title = ""
	}
	r.mu.Unlock()

	r.metrics.observeFinalize(string(trigger), res.Outcome, r.clock.Since(started))
	switch res.Outcome {
	case OutcomeFailed:
		r.logger.Error("session finalize failed, keeping accumulated time for the next trigger",
			"session_id", session.ID,
			"document_id", session.DocumentID,
			"trigger", trigger,
			"duration_ms", session.TotalDurationMs,
			"error", err,
		)
	case OutcomePersisted:
		r.logger.Info("session finalized",
			"session_id", session.ID,
			"document_id", session.DocumentID,
			"trigger", trigger,
			"duration_ms", session.TotalDurationMs,
			"pages_read", session.PagesRead,
		)
		r.deliver(session)
	case OutcomeDiscarded:
		r.logger.Debug("session below minimum length discarded", "session_id", session.ID, "trigger", trigger, "duration_ms", session.TotalDurationMs)
	}
	return res, err
}

// retryPending re-submits chunks of closed sessions whose persist failed.
func (r *Recorder) retryPending(ctx context.Context) {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()
	if len(pending) == 0 {
		return
	}

	var still []domain.ReadingSession
	for _, session := range pending {
		applied, err := r.agg.Record(ctx, session)
		if err != nil {
			still = append(still, session)
			continue
		}
		if applied {
			r.deliver(session)
		}
	}
	r.mu.Lock()
	r.pending = append(still, r.pending...)
	r.metrics.setPending(len(r.pending))
	r.mu.Unlock()
	if len(still) > 0 {
		r.logger.Warn("pending session chunks still not persisted", "count", len(still))
	}
}

func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Recorder) deliver(session domain.ReadingSession) {
	if r.sink == nil {
		return
	}
	r.sinks.Add(1)
	go func() {
		defer r.sinks.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()
		if err := r.sink.Deliver(ctx, session); err != nil {
			r.logger.Warn("session sink delivery failed", "session_id", session.ID, "error", err)
		}
	}()
}

// Shutdown finalizes for process teardown and waits for sink deliveries.
func (r *Recorder) Shutdown(ctx context.Context) (FlushResult, error) {
	res, err := r.Flush(ctx, domain.TriggerTeardown)
	r.sinks.Wait()
	return res, err
}

func (r *Recorder) startTimersLocked() {
	r.idle = r.clock.AfterFunc(r.settings.IdleTimeout, r.onIdle, timerTag, idleTag)
	ctx, cancel := context.WithCancel(context.Background())
	r.stopAutosave = cancel
	r.autosave = r.clock.TickerFunc(ctx, r.settings.AutosaveInterval, r.onAutosave, timerTag, autosaveTag)
}

// stopTimersLocked disarms both timers. The returned func waits for the
// autosave loop to exit and must be called without holding r.mu.
func (r *Recorder) stopTimersLocked() func() {
	if r.idle != nil {
		r.idle.Stop(timerTag, idleTag)
		r.idle = nil
	}
	waiter := r.autosave
	if r.stopAutosave != nil {
		r.stopAutosave()
	}
	r.stopAutosave, r.autosave = nil, nil
	return func() {
		if waiter != nil {
			_ = waiter.Wait(timerTag, autosaveTag)
		}
	}
}

func (r *Recorder) armIdleLocked() {
	if r.idle != nil {
		r.idle.Reset(r.settings.IdleTimeout, timerTag, idleTag)
	}
}

func (r *Recorder) onIdle() {
	r.logger.Debug("idle watchdog fired")
	_, _ = r.Flush(context.Background(), domain.TriggerIdle)
}

func (r *Recorder) onAutosave() error {
	r.mu.Lock()
	active := r.timeline.State() == domain.StateActive
	r.mu.Unlock()
	if active {
		_, _ = r.Flush(context.Background(), domain.TriggerAutosave)
	}
	return nil
}
