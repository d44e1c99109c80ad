package out_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	librarydto "pagetrack/internal/modules/library/dto"
	sessionadapter "pagetrack/internal/modules/session/adapter/out"
	"pagetrack/internal/modules/session/domain"
	sessionout "pagetrack/internal/modules/session/port/out"
	apperrors "pagetrack/internal/platform/errors"
)

func chunk() domain.ReadingSession {
	started := time.Date(2026, 3, 4, 9, 15, 30, 0, time.UTC)
	return domain.ReadingSession{
		ID:               "logical#2",
		LogicalID:        "logical",
		Chunk:            2,
		DocumentID:       "doc",
		DocumentTitle:    "Learning Go",
		StartedAt:        started,
		EndedAt:          started.Add(13 * time.Second),
		TotalDurationMs:  13000,
		PagesRead:        3,
		AvgTimePerPageMs: 4333,
		FastestPageMs:    3000,
		SlowestPageMs:    6000,
		PageHistory: []domain.PageDwell{
			{Page: 1, DurationMs: 3000, VisitCount: 1},
			{Page: 2, DurationMs: 4000, VisitCount: 1},
			{Page: 3, DurationMs: 6000, VisitCount: 1},
		},
	}
}

func TestVaultJournalWritesOneNotePerChunk(t *testing.T) {
	t.Parallel()
	vault := t.TempDir()
	journal := sessionadapter.NewVaultJournal(vault)
	s := chunk()

	if err := journal.Deliver(context.Background(), s); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	path := filepath.Join(vault, "sessions", "2026", "03", "04", "091530-learning-go-2.md")
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	text := string(content)
	for _, want := range []string{
		"logical#2",
		"logical_session_id: logical",
		"total_duration_ms: 13000",
		"[[learning-go|Learning Go]]",
		"| 3 | 6s | 1 |",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("note missing %q:\n%s", want, text)
		}
	}

	if err := journal.Deliver(context.Background(), s); err != nil {
		t.Fatalf("redeliver: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("redelivery must overwrite, found %d notes", len(entries))
	}
}

type recordingSink struct {
	got []string
	err error
}

func (r *recordingSink) Deliver(_ context.Context, s domain.ReadingSession) error {
	r.got = append(r.got, s.ID)
	return r.err
}

func TestMultiSinkDeliversToAllAndJoinsErrors(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	first, second := &recordingSink{err: boom}, &recordingSink{}
	sinks := sessionadapter.MultiSink{first, nil, second}

	err := sinks.Deliver(context.Background(), chunk())
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(first.got) != 1 || len(second.got) != 1 {
		t.Fatalf("every sink must receive the chunk: %v %v", first.got, second.got)
	}
	if err := (sessionadapter.MultiSink{}).Deliver(context.Background(), chunk()); err != nil {
		t.Fatalf("empty multi sink: %v", err)
	}
}

type fakeLibrary struct{}

func (fakeLibrary) AddDocument(context.Context, librarydto.AddDocumentInput) (librarydto.DocumentOutput, error) {
	return librarydto.DocumentOutput{}, nil
}

func (fakeLibrary) ListDocuments(context.Context) ([]librarydto.DocumentOutput, error) {
	return nil, nil
}

func (fakeLibrary) GetDocument(_ context.Context, id string) (librarydto.DocumentOutput, error) {
	if id != "doc" {
		return librarydto.DocumentOutput{}, apperrors.ErrNotFound
	}
	return librarydto.DocumentOutput{ID: "doc", Title: "Learning Go", PageCount: 12, Kind: "pdf"}, nil
}

func (fakeLibrary) Refresh(context.Context) (librarydto.RefreshOutput, error) {
	return librarydto.RefreshOutput{}, nil
}

func TestDocumentCatalogResolvesThroughLibrary(t *testing.T) {
	t.Parallel()
	catalog := sessionadapter.NewDocumentCatalog(fakeLibrary{})
	ref, err := catalog.Resolve(context.Background(), "doc")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ref != (sessionout.DocumentRef{ID: "doc", Title: "Learning Go", PageCount: 12}) {
		t.Fatalf("unexpected ref %+v", ref)
	}
	if _, err := catalog.Resolve(context.Background(), "nope"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
