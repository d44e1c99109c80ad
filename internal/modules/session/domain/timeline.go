package domain

import "time"

// Thresholds are the noise filters applied to page dwell.
type Thresholds struct {
	// PageDwell is the dwell a page must exceed to be kept when the reader
	// moves to another page.
	PageDwell time.Duration
	// Closing is the minimum dwell for the in-progress page to be folded in
	// when a chunk is cut.
	Closing time.Duration
}

// Timeline is the timer-free reading state machine for one logical session.
// It is not safe for concurrent use; the recorder serialises access.
//
// Persistence is incremental: Cut builds the chunk accumulated since the last
// Commit without changing what counts as persisted, and Commit advances that
// mark only once the chunk is durable. A failed persist simply never commits,
// so the next Cut covers the failed interval too.
type Timeline struct {
	thresholds Thresholds

	state      State
	reason     PauseReason
	documentID string
	logicalID  string

	openedAt       time.Time
	chunkStartedAt time.Time
	pauseStartedAt time.Time
	pausedMs       int64

	page             int
	pageStartedAt    time.Time
	visit            int
	visitPersistedMs int64
	ledger           Ledger

	committed   Ledger
	committedMs int64
	chunk       int

	cutVisit  int
	droppedMs int64
}

func NewTimeline(thresholds Thresholds) *Timeline {
	return &Timeline{thresholds: thresholds, state: StateIdle}
}

func (t *Timeline) State() State             { return t.state }
func (t *Timeline) PauseReason() PauseReason { return t.reason }
func (t *Timeline) DocumentID() string       { return t.documentID }
func (t *Timeline) LogicalID() string        { return t.logicalID }
func (t *Timeline) Page() int                { return t.page }

// Open starts a fresh logical session on documentID at page.
func (t *Timeline) Open(now time.Time, documentID, logicalID string, page int) {
	if page < 1 {
		page = 1
	}
	*t = Timeline{
		thresholds:     t.thresholds,
		state:          StateActive,
		documentID:     documentID,
		logicalID:      logicalID,
		openedAt:       now,
		chunkStartedAt: now,
		page:           page,
		pageStartedAt:  now,
		visit:          1,
		ledger:         NewLedger(),
		committed:      NewLedger(),
	}
}

func (t *Timeline) Reset() {
	*t = Timeline{thresholds: t.thresholds, state: StateIdle}
}

// at freezes the clock at the pause instant while paused.
func (t *Timeline) at(now time.Time) time.Time {
	if t.state == StatePaused {
		return t.pauseStartedAt
	}
	return now
}

// ChangePage moves the cursor. The previous visit is kept when its dwell
// exceeds the page threshold or part of it was already persisted.
func (t *Timeline) ChangePage(now time.Time, page int) bool {
	if t.state == StateIdle || page < 1 || page == t.page {
		return false
	}
	at := t.at(now)
	dwell := millis(t.pageStartedAt, at)
	switch {
	case dwell > t.thresholds.PageDwell.Milliseconds() || t.visitPersistedMs > 0:
		t.ledger.Add(t.page, dwell)
	case t.visit == t.cutVisit:
		t.droppedMs = dwell
	}
	t.page = page
	t.pageStartedAt = at
	t.visit++
	t.visitPersistedMs = 0
	return true
}

func (t *Timeline) Pause(now time.Time, reason PauseReason) bool {
	if t.state != StateActive {
		return false
	}
	t.state = StatePaused
	t.reason = reason
	t.pauseStartedAt = now
	return true
}

// Resume adds the pause to the excluded time and shifts the page timer by
// the same amount.
func (t *Timeline) Resume(now time.Time) bool {
	if t.state != StatePaused {
		return false
	}
	gap := now.Sub(t.pauseStartedAt)
	if gap < 0 {
		gap = 0
	}
	t.pausedMs += gap.Milliseconds()
	t.pageStartedAt = t.pageStartedAt.Add(gap)
	t.state = StateActive
	t.reason = ""
	return true
}

// Duration is the active time of the whole logical session.
func (t *Timeline) Duration(now time.Time) int64 {
	if t.state == StateIdle {
		return 0
	}
	return max(millis(t.openedAt, t.at(now))-t.pausedMs, 0)
}

// Cut is a candidate chunk built by Timeline.Cut.
type Cut struct {
	Session    ReadingSession
	at         time.Time
	activeMs   int64
	cumulative Ledger
	page       int
	visit      int
	visitMs    int64
}

// Cut builds the chunk accumulated since the last commit, folding in the
// current page under the closing threshold. It does not mark anything as
// persisted.
func (t *Timeline) Cut(now time.Time) (Cut, bool) {
	if t.state == StateIdle {
		return Cut{}, false
	}
	at := t.at(now)
	cum, visitMs := t.withCurrentVisit(at)
	t.cutVisit, t.droppedMs = 0, 0
	if visitMs >= 0 {
		t.cutVisit = t.visit
	}
	active := t.Duration(now)
	chunk := t.chunk + 1
	session := ReadingSession{
		ID:              ChunkID(t.logicalID, chunk),
		LogicalID:       t.logicalID,
		Chunk:           chunk,
		DocumentID:      t.documentID,
		StartedAt:       t.chunkStartedAt,
		EndedAt:         at,
		TotalDurationMs: max(active-t.committedMs, 0),
		PageHistory:     cum.Since(t.committed),
	}
	session.Summarize()
	return Cut{
		Session:    session,
		at:         at,
		activeMs:   active,
		cumulative: cum,
		page:       t.page,
		visit:      t.visit,
		visitMs:    visitMs,
	}, true
}

// withCurrentVisit returns the ledger plus the in-progress visit, and the
// visit dwell that was folded in (-1 when it fell under the closing threshold).
func (t *Timeline) withCurrentVisit(at time.Time) (Ledger, int64) {
	cum := t.ledger.Clone()
	dwell := millis(t.pageStartedAt, at)
	if dwell < t.thresholds.Closing.Milliseconds() && t.visitPersistedMs == 0 {
		return cum, -1
	}
	cum.Add(t.page, dwell)
	return cum, dwell
}

// Commit marks c as persisted. It is a no-op when the timeline has moved on to
// another logical session or c is not the next chunk.
func (t *Timeline) Commit(c Cut) bool {
	if t.state == StateIdle || c.Session.LogicalID != t.logicalID || c.Session.Chunk != t.chunk+1 {
		return false
	}
	t.committed = c.cumulative
	t.committedMs = c.activeMs
	t.chunk = c.Session.Chunk
	t.chunkStartedAt = c.at
	if c.visitMs >= 0 {
		switch {
		case t.visit == c.visit:
			t.visitPersistedMs = c.visitMs
		case t.droppedMs > 0:
			// The cut visit ended under the page threshold after it was
			// persisted; keep it so later deltas stay consistent.
			t.ledger.Add(c.page, t.droppedMs)
		}
	}
	t.cutVisit, t.droppedMs = 0, 0
	return true
}

func (t *Timeline) Chunks() int {
	return t.chunk
}

func (t *Timeline) Live(now time.Time) LiveStats {
	stats := LiveStats{State: t.state, PauseReason: t.reason}
	if t.state == StateIdle {
		return stats
	}
	cum, _ := t.withCurrentVisit(t.at(now))
	stats.DocumentID = t.documentID
	stats.LogicalID = t.logicalID
	stats.CurrentPage = t.page
	stats.ElapsedMs = t.Duration(now)
	stats.PageHistory = cum.Entries()
	stats.PagesRead = cum.Len()
	if stats.PagesRead > 0 {
		stats.AvgTimePerPageMs = stats.ElapsedMs / int64(stats.PagesRead)
	}
	stats.PersistedChunks = t.chunk
	return stats
}

func millis(from, to time.Time) int64 {
	ms := to.Sub(from).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}
