package domain

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"pagetrack/internal/platform/clock"
)

func (s SessionRecord) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(s.DocumentID) == "" {
		return fmt.Errorf("document id is required")
	}
	if s.TotalDurationMs < 0 {
		return fmt.Errorf("total duration must be non-negative")
	}
	seen := map[int]struct{}{}
	for _, p := range s.PageHistory {
		if p.Page < 1 {
			return fmt.Errorf("page %d out of range", p.Page)
		}
		if p.DurationMs < 0 || p.VisitCount < 1 {
			return fmt.Errorf("page %d has invalid dwell", p.Page)
		}
		seen[p.Page] = struct{}{}
	}
	if len(seen) != s.PagesRead {
		return fmt.Errorf("pages read %d does not match %d distinct pages", s.PagesRead, len(seen))
	}
	return nil
}

// MergeDocument folds one session into the running per-document totals.
func MergeDocument(stats DocumentStats, s SessionRecord, now time.Time) DocumentStats {
	if stats.PageHeatmap == nil {
		stats.PageHeatmap = map[string]int64{}
	}
	stats.DocumentID = s.DocumentID
	stats.AvgSessionDurationMs = weighted(stats.AvgSessionDurationMs, int64(stats.TotalSessionCount), s.TotalDurationMs, 1)
	stats.AvgTimePerPageMs = weighted(stats.AvgTimePerPageMs, int64(stats.TotalPagesRead), s.AvgTimePerPageMs, int64(s.PagesRead))
	stats.TotalReadingTimeMs += s.TotalDurationMs
	stats.TotalSessionCount++
	stats.TotalPagesRead += s.PagesRead
	for _, p := range s.PageHistory {
		stats.PageHeatmap[strconv.Itoa(p.Page)] += p.DurationMs
	}
	stats.UniquePagesRead = len(stats.PageHeatmap)
	if stats.FirstReadAt == nil {
		first := s.StartedAt
		stats.FirstReadAt = &first
	}
	last := now
	stats.LastReadAt = &last
	return stats
}

func weighted(oldAvg, oldWeight, value, weight int64) int64 {
	total := oldWeight + weight
	if total <= 0 {
		return oldAvg
	}
	return int64(math.Round((float64(oldAvg)*float64(oldWeight) + float64(value)*float64(weight)) / float64(total)))
}

// MergeDaily folds one session into the summary for the local date of now.
func MergeDaily(day DailyReadingSummary, s SessionRecord, now time.Time) DailyReadingSummary {
	day.Date = clock.DateKey(now)
	day.TotalReadingTimeMs += s.TotalDurationMs
	day.TotalPagesRead += s.PagesRead
	day.SessionCount++
	if !slices.Contains(day.DocumentsRead, s.DocumentID) {
		day.DocumentsRead = append(day.DocumentsRead, s.DocumentID)
	}
	return day
}

// MergeGlobal folds one session into the lifetime record, advancing the streak
// and this week's minute buckets.
func MergeGlobal(g GlobalAnalytics, s SessionRecord, now time.Time) GlobalAnalytics {
	g.ID = GlobalID
	g.TotalLifetimeReadingMs += s.TotalDurationMs
	g.TotalLifetimePagesRead += s.PagesRead
	g.TotalLifetimeSessions++
	g.LongestSessionMs = max(g.LongestSessionMs, s.TotalDurationMs)

	today := clock.DateKey(now)
	g.CurrentStreak = NextStreak(g.CurrentStreak, g.LastActiveDate, today, clock.DateKey(clock.Yesterday(now)))
	g.LongestStreak = max(g.LongestStreak, g.CurrentStreak)
	g.LastActiveDate = today

	week := clock.WeekStartKey(now)
	switch g.WeekStart {
	case week:
	case "":
		g.WeekStart = week
	default:
		g.WeeklyData = [7]int{}
		g.WeekStart = week
	}
	g.WeeklyData[clock.MondayIndex(now)] += Minutes(s.TotalDurationMs)
	return g
}

func NextStreak(current int, lastActive, today, yesterday string) int {
	switch lastActive {
	case today:
		return current
	case yesterday:
		return current + 1
	default:
		return 1
	}
}

func Minutes(ms int64) int {
	return int(math.Round(float64(ms) / 60000))
}

// CurrentWeek returns the buckets as they apply to the week containing now.
func (g GlobalAnalytics) CurrentWeek(now time.Time) [7]int {
	if g.WeekStart != "" && g.WeekStart != clock.WeekStartKey(now) {
		return [7]int{}
	}
	return g.WeeklyData
}
