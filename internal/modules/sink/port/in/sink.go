package in

import (
	"context"

	"pagetrack/internal/modules/sink/dto"
)

type Usecase interface {
	List(ctx context.Context) ([]dto.SinkInfo, error)
	Doctor(ctx context.Context) ([]dto.DoctorResult, error)
	Deliver(ctx context.Context, input dto.DeliverInput) (dto.DeliverOutput, error)
	Close() error
}
