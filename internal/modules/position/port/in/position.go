package in

import "context"

type Usecase interface {
	Remember(ctx context.Context, documentID string, page int) error
	Recall(ctx context.Context, documentID string) (int, error)
	Flush(ctx context.Context) error
}
