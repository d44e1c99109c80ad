package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"pagetrack/internal/modules/library/domain"
	libraryout "pagetrack/internal/modules/library/port/out"
	"pagetrack/internal/platform/clock"
	apperrors "pagetrack/internal/platform/errors"
	"pagetrack/internal/platform/id"
	"pagetrack/internal/platform/slug"
)

type CatalogService struct {
	clock  clock.Clock
	idGen  id.Generator
	store  libraryout.CatalogStore
	pages  libraryout.PageCounter
	notes  libraryout.NoteWriter
	logger *slog.Logger
}

// NewCatalogService wires the catalog. notes may be nil when no vault is
// configured.
func NewCatalogService(clock clock.Clock, idGen id.Generator, store libraryout.CatalogStore, pages libraryout.PageCounter, notes libraryout.NoteWriter, logger *slog.Logger) *CatalogService {
	return &CatalogService{clock: clock, idGen: idGen, store: store, pages: pages, notes: notes, logger: logger}
}

// AddDocument registers the file at path. Adding a path that is already in
// the catalog refreshes its page count and keeps its id.
func (s *CatalogService) AddDocument(ctx context.Context, path, title string) (domain.Document, string, error) {
	if strings.TrimSpace(path) == "" {
		return domain.Document{}, "", fmt.Errorf("%w: file path is required", apperrors.ErrInvalidInput)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.Document{}, "", fmt.Errorf("resolve path: %w", err)
	}
	kind, err := domain.KindFromPath(abs)
	if err != nil {
		return domain.Document{}, "", err
	}
	count, err := s.pages.CountPages(ctx, abs, kind)
	if err != nil {
		return domain.Document{}, "", fmt.Errorf("count pages of %s: %w", abs, err)
	}

	now := s.clock.Now()
	title = strings.TrimSpace(title)
	doc, err := s.store.FindByPath(ctx, abs)
	switch {
	case err == nil:
		if title != "" {
			doc.Title = title
		}
	case errors.Is(err, apperrors.ErrNotFound):
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
		}
		doc = domain.Document{ID: s.idGen.New(), Title: title, Path: abs, AddedAt: now}
	default:
		return domain.Document{}, "", err
	}
	doc.Kind = kind
	doc.PageCount = count
	doc.Slug = slug.Make(doc.Title)
	doc.UpdatedAt = now
	if err := doc.Validate(); err != nil {
		return domain.Document{}, "", err
	}
	if err := s.store.Upsert(ctx, doc); err != nil {
		return domain.Document{}, "", err
	}

	notePath := ""
	if s.notes != nil {
		if notePath, err = s.notes.Write(ctx, doc); err != nil {
			s.logger.Warn("document note not written", "document_id", doc.ID, "err", err)
			notePath = ""
		}
	}
	s.logger.Info("document added", "document_id", doc.ID, "kind", doc.Kind, "pages", doc.PageCount)
	return doc, notePath, nil
}

// ListDocuments returns the catalog ordered by title.
func (s *CatalogService) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return strings.ToLower(docs[i].Title) < strings.ToLower(docs[j].Title)
	})
	return docs, nil
}

func (s *CatalogService) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Document{}, fmt.Errorf("%w: document id is required", apperrors.ErrInvalidInput)
	}
	return s.store.FindByID(ctx, id)
}

// Refresh recounts the pages of every catalog entry. Documents whose file can
// no longer be read are reported and left untouched.
func (s *CatalogService) Refresh(ctx context.Context) (checked, updated int, failed []string, err error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return 0, 0, nil, err
	}
	for _, doc := range docs {
		checked++
		count, countErr := s.pages.CountPages(ctx, doc.Path, doc.Kind)
		if countErr != nil {
			s.logger.Warn("document unreadable", "document_id", doc.ID, "path", doc.Path, "err", countErr)
			failed = append(failed, doc.ID)
			continue
		}
		if count == doc.PageCount {
			continue
		}
		doc.PageCount = count
		doc.UpdatedAt = s.clock.Now()
		if err := s.store.Upsert(ctx, doc); err != nil {
			return checked, updated, failed, err
		}
		if s.notes != nil {
			if _, noteErr := s.notes.Write(ctx, doc); noteErr != nil {
				s.logger.Warn("document note not written", "document_id", doc.ID, "err", noteErr)
			}
		}
		updated++
	}
	return checked, updated, failed, nil
}
