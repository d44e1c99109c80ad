package domain

import "time"

const (
	CollectionSessions       = "sessions"
	CollectionDocumentStats  = "document_stats"
	CollectionDailySummaries = "daily_summaries"
	CollectionGlobal         = "global"

	GlobalID        = "global"
	IndexDocumentID = "documentId"
)

type PageDwell struct {
	Page       int   `json:"page"`
	DurationMs int64 `json:"durationMs"`
	VisitCount int   `json:"visitCount"`
}

// SessionRecord is one persisted chunk of reading. ID is unique per chunk;
// LogicalSessionID groups the chunks of one continuous reading period.
type SessionRecord struct {
	ID               string      `json:"id"`
	LogicalSessionID string      `json:"logicalSessionId,omitempty"`
	Chunk            int         `json:"chunk,omitempty"`
	DocumentID       string      `json:"documentId"`
	StartedAt        time.Time   `json:"startedAt"`
	EndedAt          *time.Time  `json:"endedAt"`
	TotalDurationMs  int64       `json:"totalDurationMs"`
	PagesRead        int         `json:"pagesRead"`
	PageHistory      []PageDwell `json:"pageHistory"`
	AvgTimePerPageMs int64       `json:"avgTimePerPageMs"`
	FastestPageMs    int64       `json:"fastestPageMs"`
	SlowestPageMs    int64       `json:"slowestPageMs"`
}

type DocumentStats struct {
	DocumentID           string           `json:"documentId"`
	TotalReadingTimeMs   int64            `json:"totalReadingTimeMs"`
	TotalSessionCount    int              `json:"totalSessionCount"`
	TotalPagesRead       int              `json:"totalPagesRead"`
	UniquePagesRead      int              `json:"uniquePagesRead"`
	AvgSessionDurationMs int64            `json:"avgSessionDurationMs"`
	AvgTimePerPageMs     int64            `json:"avgTimePerPageMs"`
	FirstReadAt          *time.Time       `json:"firstReadAt"`
	LastReadAt           *time.Time       `json:"lastReadAt"`
	PageHeatmap          map[string]int64 `json:"pageHeatmap"`
}

type DailyReadingSummary struct {
	Date               string   `json:"date"`
	TotalReadingTimeMs int64    `json:"totalReadingTimeMs"`
	TotalPagesRead     int      `json:"totalPagesRead"`
	SessionCount       int      `json:"sessionCount"`
	DocumentsRead      []string `json:"documentsRead"`
}

type GlobalAnalytics struct {
	ID                     string `json:"id"`
	TotalLifetimeReadingMs int64  `json:"totalLifetimeReadingMs"`
	TotalLifetimePagesRead int    `json:"totalLifetimePagesRead"`
	TotalLifetimeSessions  int    `json:"totalLifetimeSessions"`
	LongestSessionMs       int64  `json:"longestSessionMs"`
	CurrentStreak          int    `json:"currentStreak"`
	LongestStreak          int    `json:"longestStreak"`
	LastActiveDate         string `json:"lastActiveDate"`
	WeeklyData             [7]int `json:"weeklyData"`
	// WeekStart is the Monday date the WeeklyData buckets belong to.
	WeekStart string `json:"weekStart,omitempty"`
}

func NewDocumentStats(documentID string) DocumentStats {
	return DocumentStats{DocumentID: documentID, PageHeatmap: map[string]int64{}}
}

func NewDailySummary(date string) DailyReadingSummary {
	return DailyReadingSummary{Date: date, DocumentsRead: []string{}}
}

func NewGlobal() GlobalAnalytics {
	return GlobalAnalytics{ID: GlobalID}
}
