package out

import (
	"context"

	"pagetrack/internal/modules/session/domain"
)

// Aggregator persists one finalized chunk and folds it into the aggregates.
// applied is false when the chunk id had already been recorded.
type Aggregator interface {
	Record(ctx context.Context, session domain.ReadingSession) (applied bool, err error)
}

// SessionSink receives chunks after they were aggregated. Failures are
// advisory only.
type SessionSink interface {
	Deliver(ctx context.Context, session domain.ReadingSession) error
}

type DocumentRef struct {
	ID        string
	Title     string
	PageCount int
}

type DocumentCatalog interface {
	Resolve(ctx context.Context, documentID string) (DocumentRef, error)
}

// PositionCache remembers the last viewed page per document. It is unrelated
// to reading time and never triggers a finalize.
type PositionCache interface {
	Recall(ctx context.Context, documentID string) (int, error)
	Remember(ctx context.Context, documentID string, page int) error
}
