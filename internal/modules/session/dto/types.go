package dto

import "time"

type OpenInput struct {
	DocumentID string
	// Page 0 resumes at the remembered position.
	Page int
}

type PageDwell struct {
	Page       int
	DurationMs int64
	VisitCount int
}

type LiveStatsOutput struct {
	State            string
	PauseReason      string
	DocumentID       string
	DocumentTitle    string
	SessionID        string
	CurrentPage      int
	TotalPages       int
	ElapsedMs        int64
	PagesRead        int
	AvgTimePerPageMs int64
	PageHistory      []PageDwell
	PersistedChunks  int
}

type FlushOutput struct {
	Trigger    string
	Outcome    string
	SessionID  string
	DocumentID string
	StartedAt  time.Time
	EndedAt    time.Time
	DurationMs int64
	PagesRead  int
	Coalesced  bool
}

type OpenOutput struct {
	Live LiveStatsOutput
	// Previous is the finalize of the session that was open before, if any.
	Previous *FlushOutput
}
