package out

import (
	"context"
	"errors"

	"pagetrack/internal/modules/session/domain"
	sessionout "pagetrack/internal/modules/session/port/out"
)

// MultiSink fans a chunk out to every sink and joins their errors.
type MultiSink []sessionout.SessionSink

func (m MultiSink) Deliver(ctx context.Context, session domain.ReadingSession) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Deliver(ctx, session); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
