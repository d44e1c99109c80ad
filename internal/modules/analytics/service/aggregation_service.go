package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pagetrack/internal/modules/analytics/domain"
	analyticsout "pagetrack/internal/modules/analytics/port/out"
	"pagetrack/internal/platform/clock"
	apperrors "pagetrack/internal/platform/errors"
)

// AggregationService is the only writer of document_stats, daily_summaries
// and global. Record calls are serialised and each one runs in a single store
// transaction.
type AggregationService struct {
	mu     sync.Mutex
	clock  clock.Clock
	store  analyticsout.Store
	logger *slog.Logger
	loc    *time.Location
}

func NewAggregationService(clk clock.Clock, store analyticsout.Store, logger *slog.Logger, loc *time.Location) *AggregationService {
	if loc == nil {
		loc = time.Local
	}
	return &AggregationService{clock: clk, store: store, logger: logger, loc: loc}
}

// Record persists the session and merges it into every aggregate. It reports
// applied=false when a session with the same id was already recorded.
func (s *AggregationService) Record(ctx context.Context, session domain.SessionRecord) (bool, error) {
	if err := session.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if session.PageHistory == nil {
		session.PageHistory = []domain.PageDwell{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().In(s.loc)
	applied := false
	err := s.store.Within(ctx, func(ctx context.Context) error {
		_, err := s.store.Sessions().Get(ctx, session.ID)
		switch {
		case err == nil:
			s.logger.Debug("session already recorded", "session_id", session.ID)
			return nil
		case !errors.Is(err, apperrors.ErrNotFound):
			s.readRisk(err, domain.CollectionSessions, session.ID)
		}
		if err := s.store.Sessions().Put(ctx, session); err != nil {
			return err
		}

		stats := loadOr(ctx, s, s.store.DocumentStats(), domain.CollectionDocumentStats, session.DocumentID, domain.NewDocumentStats(session.DocumentID))
		if err := s.store.DocumentStats().Put(ctx, domain.MergeDocument(stats, session, now)); err != nil {
			return err
		}

		dateKey := clock.DateKey(now)
		day := loadOr(ctx, s, s.store.DailySummaries(), domain.CollectionDailySummaries, dateKey, domain.NewDailySummary(dateKey))
		if err := s.store.DailySummaries().Put(ctx, domain.MergeDaily(day, session, now)); err != nil {
			return err
		}

		global := loadOr(ctx, s, s.store.Global(), domain.CollectionGlobal, domain.GlobalID, domain.NewGlobal())
		if err := s.store.Global().Put(ctx, domain.MergeGlobal(global, session, now)); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// loadOr reads key from c. Absent records and failed reads both yield
// fallback; a failed read is logged because the merge may undercount.
func loadOr[T any](ctx context.Context, s *AggregationService, c analyticsout.Collection[T], collection, key string, fallback T) T {
	record, err := c.Get(ctx, key)
	if err == nil {
		return record
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.readRisk(err, collection, key)
	}
	return fallback
}

func (s *AggregationService) readRisk(err error, collection, key string) {
	s.logger.Warn("aggregate read failed, merging onto defaults (possible data loss)",
		"collection", collection,
		"key", key,
		"error", err,
	)
}
