package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"pagetrack/internal/modules/analytics/domain"
	analyticsout "pagetrack/internal/modules/analytics/port/out"
	"pagetrack/internal/platform/clock"
	apperrors "pagetrack/internal/platform/errors"
)

type Dashboard struct {
	Global         domain.GlobalAnalytics
	WeeklyMinutes  [7]int
	Today          domain.DailyReadingSummary
	Documents      []domain.DocumentStats
	RecentSessions []domain.SessionRecord
	// Degraded is set when any collection could not be read and defaults were shown.
	Degraded bool
}

type DashboardService struct {
	clock  clock.Clock
	store  analyticsout.Store
	logger *slog.Logger
	loc    *time.Location
}

func NewDashboardService(clk clock.Clock, store analyticsout.Store, logger *slog.Logger, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{clock: clk, store: store, logger: logger, loc: loc}
}

func (s *DashboardService) Dashboard(ctx context.Context, recent int) (Dashboard, error) {
	now := s.clock.Now().In(s.loc)
	out := Dashboard{Global: domain.NewGlobal(), Today: domain.NewDailySummary(clock.DateKey(now))}

	if g, err := s.store.Global().Get(ctx, domain.GlobalID); err == nil {
		out.Global = g
	} else if !s.absent(err, domain.CollectionGlobal) {
		out.Degraded = true
	}
	out.WeeklyMinutes = out.Global.CurrentWeek(now)

	if day, err := s.store.DailySummaries().Get(ctx, out.Today.Date); err == nil {
		out.Today = day
	} else if !s.absent(err, domain.CollectionDailySummaries) {
		out.Degraded = true
	}

	docs, err := s.store.DocumentStats().GetAll(ctx)
	if err != nil {
		s.absent(err, domain.CollectionDocumentStats)
		out.Degraded = true
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return readAt(docs[i].LastReadAt).After(readAt(docs[j].LastReadAt))
	})
	out.Documents = docs

	sessions, err := s.RecentSessions(ctx, recent)
	if err != nil {
		out.Degraded = true
	}
	out.RecentSessions = sessions
	return out, ctx.Err()
}

// RecentSessions returns the n most recently started sessions, newest first.
func (s *DashboardService) RecentSessions(ctx context.Context, n int) ([]domain.SessionRecord, error) {
	if n <= 0 {
		return []domain.SessionRecord{}, nil
	}
	sessions, err := s.store.Sessions().GetAll(ctx)
	if err != nil {
		s.absent(err, domain.CollectionSessions)
		return []domain.SessionRecord{}, err
	}
	sortNewestFirst(sessions)
	if len(sessions) > n {
		sessions = sessions[:n]
	}
	return sessions, nil
}

func (s *DashboardService) DocumentStats(ctx context.Context, documentID string) (domain.DocumentStats, error) {
	stats, err := s.store.DocumentStats().Get(ctx, documentID)
	if err != nil {
		return domain.DocumentStats{}, err
	}
	return stats, nil
}

func (s *DashboardService) SessionsForDocument(ctx context.Context, documentID string) ([]domain.SessionRecord, error) {
	sessions, err := s.store.Sessions().GetAllByIndex(ctx, domain.IndexDocumentID, documentID)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(sessions)
	return sessions, nil
}

// absent reports whether err only means "no record"; real read failures are
// logged and answered with defaults.
func (s *DashboardService) absent(err error, collection string) bool {
	if errors.Is(err, apperrors.ErrNotFound) {
		return true
	}
	s.logger.Warn("dashboard read failed, showing defaults", "collection", collection, "error", err)
	return false
}

func sortNewestFirst(sessions []domain.SessionRecord) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})
}

func readAt(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
