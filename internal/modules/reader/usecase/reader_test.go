package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	readeradapter "pagetrack/internal/modules/reader/adapter/out"
	"pagetrack/internal/modules/reader/domain"
	"pagetrack/internal/modules/reader/dto"
	"pagetrack/internal/modules/reader/service"
	"pagetrack/internal/modules/reader/usecase"
	apperrors "pagetrack/internal/platform/errors"
)

type fakeResolver struct {
	docs map[string]domain.DocumentRef
}

func (r fakeResolver) Resolve(_ context.Context, id string) (domain.DocumentRef, error) {
	doc, ok := r.docs[id]
	if !ok {
		return domain.DocumentRef{}, apperrors.ErrNotFound
	}
	return doc, nil
}

type noPDF struct{}

func (noPDF) CountPages(context.Context, string) (int, error)     { return 0, errors.New("no pdf") }
func (noPDF) ReadPage(context.Context, string, int) (string, error) { return "", errors.New("no pdf") }

func TestOpenPageResolvesDocument(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "story.txt")
	if err := os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	svc := service.NewReaderService(readeradapter.NewLocalTextReader(), noPDF{}, 2)
	resolver := fakeResolver{docs: map[string]domain.DocumentRef{
		"doc": {ID: "doc", Title: "Story", Path: path, Kind: domain.KindText},
	}}
	uc := usecase.NewInteractor(svc, resolver)

	out, err := uc.OpenPage(ctx, dto.OpenPageInput{DocumentID: "doc", Page: 2})
	if err != nil {
		t.Fatalf("open page: %v", err)
	}
	if out.Title != "Story" || out.Page != 2 || out.TotalPages != 2 || out.Text != "three" {
		t.Fatalf("unexpected page %+v", out)
	}
	if _, err := uc.OpenPage(ctx, dto.OpenPageInput{DocumentID: "nope", Page: 1}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	n, err := usecase.NewCounter(svc).CountPages(ctx, dto.CountPagesInput{Path: path, Kind: domain.KindText})
	if err != nil || n != 2 {
		t.Fatalf("expected 2 pages, got %d, %v", n, err)
	}
}
