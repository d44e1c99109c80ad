package service

import (
	"context"
	"fmt"

	"pagetrack/internal/modules/reader/domain"
	readerout "pagetrack/internal/modules/reader/port/out"
	apperrors "pagetrack/internal/platform/errors"
	"pagetrack/internal/platform/markdown"
)

type ReaderService struct {
	text         readerout.TextReader
	pdf          readerout.PDFReader
	linesPerPage int
}

func NewReaderService(text readerout.TextReader, pdf readerout.PDFReader, linesPerPage int) *ReaderService {
	return &ReaderService{text: text, pdf: pdf, linesPerPage: linesPerPage}
}

func (s *ReaderService) CountPages(ctx context.Context, path, kind string) (int, error) {
	switch kind {
	case domain.KindPDF:
		n, err := s.pdf.CountPages(ctx, path)
		if err != nil {
			return 0, err
		}
		if n < 1 {
			return 0, fmt.Errorf("%w: pdf has no pages", apperrors.ErrInvalidInput)
		}
		return n, nil
	case domain.KindText, domain.KindMarkdown:
		pages, err := s.paginate(ctx, path, kind)
		if err != nil {
			return 0, err
		}
		return len(pages), nil
	default:
		return 0, unsupported(kind)
	}
}

// ReadPage returns page of the file at path. Pages outside 1..total are
// rejected rather than clamped.
func (s *ReaderService) ReadPage(ctx context.Context, path, kind string, page int) (domain.Page, error) {
	if page < 1 {
		return domain.Page{}, fmt.Errorf("%w: page must be positive", apperrors.ErrInvalidInput)
	}
	switch kind {
	case domain.KindPDF:
		total, err := s.pdf.CountPages(ctx, path)
		if err != nil {
			return domain.Page{}, err
		}
		if page > total {
			return domain.Page{}, outOfRange(page, total)
		}
		text, err := s.pdf.ReadPage(ctx, path, page)
		if err != nil {
			return domain.Page{}, err
		}
		return domain.Page{Number: page, Total: total, Text: text}, nil
	case domain.KindText, domain.KindMarkdown:
		pages, err := s.paginate(ctx, path, kind)
		if err != nil {
			return domain.Page{}, err
		}
		if page > len(pages) {
			return domain.Page{}, outOfRange(page, len(pages))
		}
		return domain.Page{Number: page, Total: len(pages), Text: pages[page-1]}, nil
	default:
		return domain.Page{}, unsupported(kind)
	}
}

func (s *ReaderService) paginate(ctx context.Context, path, kind string) ([]string, error) {
	content, err := s.text.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	if kind == domain.KindMarkdown {
		var meta map[string]any
		if body, splitErr := markdown.Split(content, &meta); splitErr == nil {
			content = body
		}
	}
	return domain.Paginate(content, s.linesPerPage), nil
}

func outOfRange(page, total int) error {
	return fmt.Errorf("%w: page %d out of range 1..%d", apperrors.ErrInvalidInput, page, total)
}

func unsupported(kind string) error {
	return fmt.Errorf("%w: unsupported document kind %q", apperrors.ErrInvalidInput, kind)
}
