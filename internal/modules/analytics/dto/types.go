package dto

import "time"

type PageDwell struct {
	Page       int
	DurationMs int64
	VisitCount int
}

type RecordSessionInput struct {
	ID               string
	LogicalSessionID string
	Chunk            int
	DocumentID       string
	StartedAt        time.Time
	EndedAt          time.Time
	TotalDurationMs  int64
	PagesRead        int
	PageHistory      []PageDwell
	AvgTimePerPageMs int64
	FastestPageMs    int64
	SlowestPageMs    int64
}

type RecordOutput struct {
	SessionID string
	Applied   bool
}

type DashboardInput struct {
	Recent int
}

type SessionOutput struct {
	ID               string
	LogicalSessionID string
	DocumentID       string
	StartedAt        time.Time
	EndedAt          time.Time
	TotalDurationMs  int64
	PagesRead        int
	PageHistory      []PageDwell
	AvgTimePerPageMs int64
	FastestPageMs    int64
	SlowestPageMs    int64
}

type DocumentStatsOutput struct {
	DocumentID           string
	TotalReadingTimeMs   int64
	TotalSessionCount    int
	TotalPagesRead       int
	UniquePagesRead      int
	AvgSessionDurationMs int64
	AvgTimePerPageMs     int64
	FirstReadAt          time.Time
	LastReadAt           time.Time
	PageHeatmap          map[int]int64
}

type DailySummaryOutput struct {
	Date               string
	TotalReadingTimeMs int64
	TotalPagesRead     int
	SessionCount       int
	DocumentsRead      []string
}

type DashboardOutput struct {
	TotalLifetimeReadingMs int64
	TotalLifetimePagesRead int
	TotalLifetimeSessions  int
	LongestSessionMs       int64
	CurrentStreak          int
	LongestStreak          int
	LastActiveDate         string
	WeeklyMinutes          [7]int
	Today                  DailySummaryOutput
	Documents              []DocumentStatsOutput
	RecentSessions         []SessionOutput
	Degraded               bool
}
