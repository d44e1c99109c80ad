package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	readeradapter "pagetrack/internal/modules/reader/adapter/out"
	"pagetrack/internal/modules/reader/domain"
	"pagetrack/internal/modules/reader/service"
	apperrors "pagetrack/internal/platform/errors"
)

type fakePDF struct {
	pages []string
}

func (f fakePDF) CountPages(context.Context, string) (int, error) { return len(f.pages), nil }

func (f fakePDF) ReadPage(_ context.Context, _ string, page int) (string, error) {
	return f.pages[page-1], nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func numbered(n int) string {
	lines := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		lines = append(lines, "line "+string(rune('a'+i-1)))
	}
	return strings.Join(lines, "\n")
}

func TestTextPagination(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := service.NewReaderService(readeradapter.NewLocalTextReader(), fakePDF{}, 4)
	path := writeFile(t, "plain.txt", numbered(10))

	n, err := svc.CountPages(ctx, path, domain.KindText)
	if err != nil || n != 3 {
		t.Fatalf("expected 3 pages, got %d, %v", n, err)
	}
	page, err := svc.ReadPage(ctx, path, domain.KindText, 3)
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if page.Number != 3 || page.Total != 3 || page.Text != "line i\nline j" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestMarkdownFrontmatterIsNotPaginated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := service.NewReaderService(readeradapter.NewLocalTextReader(), fakePDF{}, 2)
	path := writeFile(t, "note.md", "---\ntitle: x\ntags: [a]\n---\n# Heading\nbody\n")

	page, err := svc.ReadPage(ctx, path, domain.KindMarkdown, 1)
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if page.Total != 1 || page.Text != "# Heading\nbody" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestPDFPagesComeFromReader(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := service.NewReaderService(readeradapter.NewLocalTextReader(), fakePDF{pages: []string{"one", "two"}}, 40)

	page, err := svc.ReadPage(ctx, "/books/a.pdf", domain.KindPDF, 2)
	if err != nil || page.Text != "two" || page.Total != 2 {
		t.Fatalf("unexpected page %+v, %v", page, err)
	}
	empty := service.NewReaderService(readeradapter.NewLocalTextReader(), fakePDF{}, 40)
	if _, err := empty.CountPages(ctx, "/books/empty.pdf", domain.KindPDF); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("a pdf without pages cannot be cataloged, got %v", err)
	}
}

func TestReadPageRejectsOutOfRange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := service.NewReaderService(readeradapter.NewLocalTextReader(), fakePDF{pages: []string{"one"}}, 40)
	path := writeFile(t, "short.txt", "only line")

	for _, page := range []int{0, 2} {
		if _, err := svc.ReadPage(ctx, path, domain.KindText, page); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("page %d: expected invalid input, got %v", page, err)
		}
	}
	if _, err := svc.ReadPage(ctx, "/books/a.pdf", domain.KindPDF, 2); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("pdf page 2: expected invalid input, got %v", err)
	}
	if _, err := svc.CountPages(ctx, path, "epub"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected unsupported kind, got %v", err)
	}
	if _, err := svc.CountPages(ctx, filepath.Join(t.TempDir(), "gone.txt"), domain.KindText); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing file, got %v", err)
	}
}
