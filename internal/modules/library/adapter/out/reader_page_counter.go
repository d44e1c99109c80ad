package out

import (
	"context"

	"pagetrack/internal/modules/library/domain"
	libraryout "pagetrack/internal/modules/library/port/out"
	"pagetrack/internal/modules/reader/dto"
	readerin "pagetrack/internal/modules/reader/port/in"
)

type ReaderPageCounter struct {
	reader readerin.Counter
}

func NewReaderPageCounter(reader readerin.Counter) libraryout.PageCounter {
	return &ReaderPageCounter{reader: reader}
}

func (c *ReaderPageCounter) CountPages(ctx context.Context, path string, kind domain.Kind) (int, error) {
	return c.reader.CountPages(ctx, dto.CountPagesInput{Path: path, Kind: string(kind)})
}
