package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pagetrack/internal/modules/session/domain"
	sessionout "pagetrack/internal/modules/session/port/out"
	"pagetrack/internal/platform/markdown"
	"pagetrack/internal/platform/slug"
)

const journalSchemaVersion = 1

type journalMeta struct {
	SchemaVersion    int    `yaml:"schema_version"`
	ID               string `yaml:"id"`
	LogicalSessionID string `yaml:"logical_session_id"`
	Chunk            int    `yaml:"chunk"`
	DocumentID       string `yaml:"document_id"`
	DocumentTitle    string `yaml:"document_title,omitempty"`
	StartedAt        string `yaml:"started_at"`
	EndedAt          string `yaml:"ended_at"`
	TotalDurationMs  int64  `yaml:"total_duration_ms"`
	PagesRead        int    `yaml:"pages_read"`
	AvgTimePerPageMs int64  `yaml:"avg_time_per_page_ms"`
	FastestPageMs    int64  `yaml:"fastest_page_ms"`
	SlowestPageMs    int64  `yaml:"slowest_page_ms"`
}

// VaultJournal writes one markdown note per finalized chunk under
// <vault>/sessions/YYYY/MM/DD.
type VaultJournal struct {
	vaultPath string
}

func NewVaultJournal(vaultPath string) sessionout.SessionSink {
	return &VaultJournal{vaultPath: vaultPath}
}

func (j *VaultJournal) Deliver(_ context.Context, session domain.ReadingSession) error {
	path := j.NotePath(session)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}

	title := session.DocumentTitle
	if title == "" {
		title = session.DocumentID
	}
	meta := journalMeta{
		SchemaVersion:    journalSchemaVersion,
		ID:               session.ID,
		LogicalSessionID: session.LogicalID,
		Chunk:            session.Chunk,
		DocumentID:       session.DocumentID,
		DocumentTitle:    session.DocumentTitle,
		StartedAt:        session.StartedAt.Format(time.RFC3339),
		EndedAt:          session.EndedAt.Format(time.RFC3339),
		TotalDurationMs:  session.TotalDurationMs,
		PagesRead:        session.PagesRead,
		AvgTimePerPageMs: session.AvgTimePerPageMs,
		FastestPageMs:    session.FastestPageMs,
		SlowestPageMs:    session.SlowestPageMs,
	}

	body := strings.Builder{}
	fmt.Fprintf(&body, "# Reading %s\n\n", title)
	fmt.Fprintf(&body, "- Document: [[%s|%s]]\n", slug.Make(title), title)
	fmt.Fprintf(&body, "- Active time: %s\n", (time.Duration(session.TotalDurationMs) * time.Millisecond).Round(time.Second))
	fmt.Fprintf(&body, "- Pages read: %d\n\n", session.PagesRead)
	body.WriteString("## Pages\n\n| Page | Time | Visits |\n|---:|---:|---:|\n")
	for _, p := range session.PageHistory {
		fmt.Fprintf(&body, "| %d | %s | %d |\n", p.Page, (time.Duration(p.DurationMs) * time.Millisecond).Round(100*time.Millisecond), p.VisitCount)
	}

	rendered, err := markdown.Render(meta, body.String())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("write journal note: %w", err)
	}
	return nil
}

// NotePath is stable per chunk id so a redelivered chunk overwrites its note.
func (j *VaultJournal) NotePath(session domain.ReadingSession) string {
	date := session.StartedAt
	dir := filepath.Join(j.vaultPath, "sessions", date.Format("2006"), date.Format("01"), date.Format("02"))
	title := session.DocumentTitle
	if title == "" {
		title = session.DocumentID
	}
	name := fmt.Sprintf("%s-%s-%d.md", date.Format("150405"), slug.Make(title), session.Chunk)
	return filepath.Join(dir, name)
}
