package domain

import (
	"errors"
	"fmt"
	"time"
)

type State string

const (
	StateIdle   State = "idle-no-document"
	StateActive State = "active"
	StatePaused State = "paused"
)

type PauseReason string

const (
	PauseManual PauseReason = "manual"
	PauseIdle   PauseReason = "idle"
	PauseBlur   PauseReason = "blur"
)

// Trigger names the event that asked for a finalize.
type Trigger string

const (
	TriggerPause    Trigger = "pause"
	TriggerIdle     Trigger = "idle"
	TriggerBlur     Trigger = "blur"
	TriggerAutosave Trigger = "autosave"
	TriggerSwitch   Trigger = "switch"
	TriggerClose    Trigger = "close"
	TriggerTeardown Trigger = "teardown"
)

var ErrUnknownTrigger = errors.New("unknown flush trigger")

func ParseTrigger(raw string) (Trigger, error) {
	t := Trigger(raw)
	switch t {
	case TriggerPause, TriggerIdle, TriggerBlur, TriggerAutosave, TriggerSwitch, TriggerClose, TriggerTeardown:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTrigger, raw)
	}
}

// Terminal triggers end the logical session; the recorder returns to idle.
func (t Trigger) Terminal() bool {
	return t == TriggerSwitch || t == TriggerClose || t == TriggerTeardown
}

// Pauses reports the pause a trigger applies before finalizing, if any.
func (t Trigger) Pauses() (PauseReason, bool) {
	switch t {
	case TriggerPause:
		return PauseManual, true
	case TriggerIdle:
		return PauseIdle, true
	case TriggerBlur:
		return PauseBlur, true
	default:
		return "", false
	}
}

type PageDwell struct {
	Page       int
	DurationMs int64
	VisitCount int
}

// ReadingSession is one finalized chunk of a logical session. ID is unique
// per chunk so retries of the same chunk are recognisable downstream.
type ReadingSession struct {
	ID               string
	LogicalID        string
	Chunk            int
	DocumentID       string
	DocumentTitle    string
	StartedAt        time.Time
	EndedAt          time.Time
	TotalDurationMs  int64
	PagesRead        int
	PageHistory      []PageDwell
	AvgTimePerPageMs int64
	FastestPageMs    int64
	SlowestPageMs    int64
}

func ChunkID(logicalID string, chunk int) string {
	return fmt.Sprintf("%s#%d", logicalID, chunk)
}

// Summarize fills the derived page statistics from PageHistory.
func (s *ReadingSession) Summarize() {
	s.PagesRead = len(distinctPages(s.PageHistory))
	s.AvgTimePerPageMs, s.FastestPageMs, s.SlowestPageMs = 0, 0, 0
	if s.PagesRead > 0 {
		s.AvgTimePerPageMs = s.TotalDurationMs / int64(s.PagesRead)
	}
	for i, p := range s.PageHistory {
		if i == 0 || p.DurationMs < s.FastestPageMs {
			s.FastestPageMs = p.DurationMs
		}
		if p.DurationMs > s.SlowestPageMs {
			s.SlowestPageMs = p.DurationMs
		}
	}
}

func distinctPages(history []PageDwell) map[int]struct{} {
	pages := make(map[int]struct{}, len(history))
	for _, p := range history {
		pages[p.Page] = struct{}{}
	}
	return pages
}

type LiveStats struct {
	State            State
	PauseReason      PauseReason
	DocumentID       string
	DocumentTitle    string
	LogicalID        string
	CurrentPage      int
	ElapsedMs        int64
	PagesRead        int
	AvgTimePerPageMs int64
	PageHistory      []PageDwell
	PersistedChunks  int
}
