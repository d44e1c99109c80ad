package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	analyticsdto "pagetrack/internal/modules/analytics/dto"
)

var weekdays = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func parsePage(raw string) (int, error) {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, fmt.Errorf("page must be a positive number, got %q", raw)
	}
	return page, nil
}

func formatMs(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).Round(time.Second).String()
}

func printDashboard(w io.Writer, out analyticsdto.DashboardOutput, titles map[string]string) {
	title := func(id string) string {
		if t := titles[id]; t != "" {
			return t
		}
		return id
	}
	if out.Degraded {
		_, _ = fmt.Fprintln(w, "warning: some statistics could not be read")
	}
	_, _ = fmt.Fprintf(w, "lifetime: %s in %d sessions, %d pages\n",
		formatMs(out.TotalLifetimeReadingMs), out.TotalLifetimeSessions, out.TotalLifetimePagesRead)
	_, _ = fmt.Fprintf(w, "longest session: %s\n", formatMs(out.LongestSessionMs))
	_, _ = fmt.Fprintf(w, "streak: %d days (best %d)\n", out.CurrentStreak, out.LongestStreak)
	_, _ = fmt.Fprintf(w, "today: %s in %d sessions\n\n", formatMs(out.Today.TotalReadingTimeMs), out.Today.SessionCount)

	peak := 0
	for _, v := range out.WeeklyMinutes {
		peak = max(peak, v)
	}
	for i, v := range out.WeeklyMinutes {
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("#", v*30/peak)
		}
		_, _ = fmt.Fprintf(w, "%s %-30s %d min\n", weekdays[i], bar, v)
	}

	if len(out.Documents) > 0 {
		_, _ = fmt.Fprintln(w, "\ndocuments:")
		for _, d := range out.Documents {
			_, _ = fmt.Fprintf(w, "  %s  %s  %d unique pages\n", title(d.DocumentID), formatMs(d.TotalReadingTimeMs), d.UniquePagesRead)
		}
	}
	if len(out.RecentSessions) > 0 {
		_, _ = fmt.Fprintln(w, "\nrecent:")
		for _, s := range out.RecentSessions {
			_, _ = fmt.Fprintf(w, "  %s  %s  %s  %d pages\n",
				s.StartedAt.Local().Format("2006-01-02 15:04"), title(s.DocumentID), formatMs(s.TotalDurationMs), s.PagesRead)
		}
	}
}

func printStats(w io.Writer, s analyticsdto.DocumentStatsOutput) {
	_, _ = fmt.Fprintf(w, "document: %s\n", s.DocumentID)
	_, _ = fmt.Fprintf(w, "reading time: %s in %d sessions\n", formatMs(s.TotalReadingTimeMs), s.TotalSessionCount)
	_, _ = fmt.Fprintf(w, "pages: %d read, %d unique\n", s.TotalPagesRead, s.UniquePagesRead)
	_, _ = fmt.Fprintf(w, "average: %s per session, %s per page\n", formatMs(s.AvgSessionDurationMs), formatMs(s.AvgTimePerPageMs))
	if !s.FirstReadAt.IsZero() {
		_, _ = fmt.Fprintf(w, "first read: %s\nlast read: %s\n",
			s.FirstReadAt.Local().Format("2006-01-02 15:04"), s.LastReadAt.Local().Format("2006-01-02 15:04"))
	}
	if len(s.PageHeatmap) == 0 {
		return
	}
	pages := make([]int, 0, len(s.PageHeatmap))
	for p := range s.PageHeatmap {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	_, _ = fmt.Fprintln(w, "\npage heatmap:")
	for _, p := range pages {
		_, _ = fmt.Fprintf(w, "  p.%-4d %s\n", p, formatMs(s.PageHeatmap[p]))
	}
}
