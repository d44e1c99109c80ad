package domain_test

import (
	"testing"
	"time"

	"pagetrack/internal/modules/session/domain"
)

var (
	t0         = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	thresholds = domain.Thresholds{PageDwell: 2 * time.Second, Closing: time.Second}
)

func at(d time.Duration) time.Time { return t0.Add(d) }

func sumDwell(history []domain.PageDwell) int64 {
	var total int64
	for _, p := range history {
		total += p.DurationMs
	}
	return total
}

func TestTimelineReadingScenario(t *testing.T) {
	t.Parallel()
	tl := domain.NewTimeline(thresholds)
	tl.Open(at(0), "doc-a", "s1", 1)
	tl.ChangePage(at(3*time.Second), 2)
	tl.ChangePage(at(7*time.Second), 3)
	tl.Pause(at(13*time.Second), domain.PauseManual)

	cut, ok := tl.Cut(at(20 * time.Second))
	if !ok {
		t.Fatalf("expected cut")
	}
	s := cut.Session
	if s.ID != "s1#1" || s.LogicalID != "s1" || s.Chunk != 1 {
		t.Fatalf("unexpected identity: %+v", s)
	}
	if s.PagesRead != 3 {
		t.Fatalf("pagesRead = %d, want 3", s.PagesRead)
	}
	if s.TotalDurationMs != 13000 {
		t.Fatalf("duration = %d, want 13000", s.TotalDurationMs)
	}
	want := []domain.PageDwell{{Page: 1, DurationMs: 3000, VisitCount: 1}, {Page: 2, DurationMs: 4000, VisitCount: 1}, {Page: 3, DurationMs: 6000, VisitCount: 1}}
	if len(s.PageHistory) != len(want) {
		t.Fatalf("history = %+v", s.PageHistory)
	}
	for i := range want {
		if s.PageHistory[i] != want[i] {
			t.Fatalf("history[%d] = %+v, want %+v", i, s.PageHistory[i], want[i])
		}
	}
	if s.FastestPageMs != 3000 || s.SlowestPageMs != 6000 || s.AvgTimePerPageMs != 4333 {
		t.Fatalf("unexpected derived stats: %+v", s)
	}
	if !s.EndedAt.Equal(at(13 * time.Second)) {
		t.Fatalf("endedAt should freeze at the pause instant, got %v", s.EndedAt)
	}
}

func TestTimelineDropsShortPages(t *testing.T) {
	t.Parallel()
	tl := domain.NewTimeline(thresholds)
	tl.Open(at(0), "doc", "s1", 1)
	tl.ChangePage(at(1500*time.Millisecond), 2)
	tl.ChangePage(at(3500*time.Millisecond), 3) // exactly 2000ms is not above the threshold
	cut, _ := tl.Cut(at(3900 * time.Millisecond))

	if cut.Session.PagesRead != 0 || len(cut.Session.PageHistory) != 0 {
		t.Fatalf("expected no pages, got %+v", cut.Session.PageHistory)
	}
	if cut.Session.TotalDurationMs != 3900 {
		t.Fatalf("active time still counts, got %d", cut.Session.TotalDurationMs)
	}
}

func TestTimelineDwellNeverExceedsDuration(t *testing.T) {
	t.Parallel()
	tl := domain.NewTimeline(thresholds)
	tl.Open(at(0), "doc", "s1", 1)
	steps := []struct {
		after time.Duration
		page  int
	}{{2500 * time.Millisecond, 2}, {time.Second, 3}, {5 * time.Second, 2}, {1800 * time.Millisecond, 4}, {9 * time.Second, 1}}
	now := time.Duration(0)
	for _, step := range steps {
		now += step.after
		tl.ChangePage(at(now), step.page)
	}
	cut, _ := tl.Cut(at(now + 1200*time.Millisecond))
	if got, total := sumDwell(cut.Session.PageHistory), cut.Session.TotalDurationMs; got > total {
		t.Fatalf("dwell sum %d exceeds duration %d", got, total)
	}
}

func TestTimelineReentryMergesVisits(t *testing.T) {
	t.Parallel()
	tl := domain.NewTimeline(thresholds)
	tl.Open(at(0), "doc", "s1", 1)
	tl.ChangePage(at(3*time.Second), 2)
	tl.ChangePage(at(6*time.Second), 1)
	cut, _ := tl.Cut(at(9 * time.Second))

	h := cut.Session.PageHistory
	if len(h) != 2 || cut.Session.PagesRead != 2 {
		t.Fatalf("history = %+v", h)
	}
	if h[0] != (domain.PageDwell{Page: 1, DurationMs: 6000, VisitCount: 2}) {
		t.Fatalf("page 1 = %+v", h[0])
	}
}

func TestTimelinePauseExcludesTime(t *testing.T) {
	t.Parallel()
	tl := domain.NewTimeline(thresholds)
	tl.Open(at(0), "doc", "s1", 1)
	tl.Pause(at(3*time.Second), domain.PauseManual)
	// Navigation while paused happens at the frozen instant.
	tl.ChangePage(at(10*time.Second), 2)
	if d := tl.Duration(at(60 * time.Second)); d != 3000 {
		t.Fatalf("paused duration = %d, want 3000", d)
	}
	tl.Resume(at(63 * time.Second))
	cut, _ := tl.Cut(at(65 * time.Second))

	if cut.Session.TotalDurationMs != 5000 {
		t.Fatalf("duration = %d, want 5000", cut.Session.TotalDurationMs)
	}
	h := cut.Session.PageHistory
	if len(h) != 2 || h[0].DurationMs != 3000 || h[1].DurationMs != 2000 {
		t.Fatalf("history = %+v", h)
	}
}

func TestTimelineChunksAreDeltas(t *testing.T) {
	t.Parallel()
	tl := domain.NewTimeline(thresholds)
	tl.Open(at(0), "doc", "s1", 1)

	first, _ := tl.Cut(at(10 * time.Second))
	if !tl.Commit(first) {
		t.Fatalf("commit first chunk")
	}
	tl.ChangePage(at(15*time.Second), 2)
	second, _ := tl.Cut(at(18 * time.Second))

	s := second.Session
	if s.ID != "s1#2" || s.TotalDurationMs != 8000 {
		t.Fatalf("second chunk = %+v", s)
	}
	if !s.StartedAt.Equal(at(10 * time.Second)) {
		t.Fatalf("second chunk starts at the previous commit, got %v", s.StartedAt)
	}
	want := []domain.PageDwell{{Page: 1, DurationMs: 5000, VisitCount: 1}, {Page: 2, DurationMs: 3000, VisitCount: 1}}
	for i := range want {
		if s.PageHistory[i] != want[i] {
			t.Fatalf("history[%d] = %+v, want %+v", i, s.PageHistory[i], want[i])
		}
	}
	if got := first.Session.TotalDurationMs + s.TotalDurationMs; got != tl.Duration(at(18*time.Second)) {
		t.Fatalf("chunks must add up to the session, got %d", got)
	}
}

func TestTimelineUncommittedCutIsRetried(t *testing.T) {
	t.Parallel()
	tl := domain.NewTimeline(thresholds)
	tl.Open(at(0), "doc", "s1", 1)

	if _, ok := tl.Cut(at(10 * time.Second)); !ok {
		t.Fatalf("expected cut")
	}
	retry, _ := tl.Cut(at(12 * time.Second))
	if retry.Session.ID != "s1#1" || retry.Session.TotalDurationMs != 12000 {
		t.Fatalf("failed interval must be carried, got %+v", retry.Session)
	}
}

func TestTimelineCommitIgnoresStaleCut(t *testing.T) {
	t.Parallel()
	tl := domain.NewTimeline(thresholds)
	tl.Open(at(0), "doc", "s1", 1)
	stale, _ := tl.Cut(at(6 * time.Second))
	tl.Open(at(7*time.Second), "doc-b", "s2", 1)

	if tl.Commit(stale) {
		t.Fatalf("cut of a previous session must not commit")
	}
	if tl.Chunks() != 0 {
		t.Fatalf("chunks = %d", tl.Chunks())
	}
}

func TestTimelineLive(t *testing.T) {
	t.Parallel()
	tl := domain.NewTimeline(thresholds)
	if live := tl.Live(at(0)); live.State != domain.StateIdle || live.DocumentID != "" {
		t.Fatalf("idle live = %+v", live)
	}
	tl.Open(at(0), "doc", "s1", 4)
	tl.ChangePage(at(4*time.Second), 5)
	live := tl.Live(at(6 * time.Second))
	if live.State != domain.StateActive || live.CurrentPage != 5 || live.ElapsedMs != 6000 {
		t.Fatalf("live = %+v", live)
	}
	if live.PagesRead != 2 || live.AvgTimePerPageMs != 3000 {
		t.Fatalf("live pages = %+v", live)
	}
}

func TestParseTrigger(t *testing.T) {
	t.Parallel()
	if _, err := domain.ParseTrigger("reload"); err == nil {
		t.Fatalf("expected unknown trigger error")
	}
	tr, err := domain.ParseTrigger("close")
	if err != nil || !tr.Terminal() {
		t.Fatalf("close should be terminal: %v", err)
	}
	if reason, ok := domain.TriggerBlur.Pauses(); !ok || reason != domain.PauseBlur {
		t.Fatalf("blur should pause with blur reason")
	}
	if _, ok := domain.TriggerAutosave.Pauses(); ok {
		t.Fatalf("autosave must not pause")
	}
}
