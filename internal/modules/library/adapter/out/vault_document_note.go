package out

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pagetrack/internal/modules/library/domain"
	libraryout "pagetrack/internal/modules/library/port/out"
	"pagetrack/internal/platform/markdown"
)

type documentMeta struct {
	SchemaVersion int    `yaml:"schema_version"`
	ID            string `yaml:"id"`
	Title         string `yaml:"title"`
	Kind          string `yaml:"kind"`
	FilePath      string `yaml:"file_path"`
	PageCount     int    `yaml:"page_count"`
	AddedAt       string `yaml:"added_at"`
	UpdatedAt     string `yaml:"updated_at"`
}

// VaultDocumentNote keeps one note per document under <vault>/documents.
// Only the frontmatter and the managed block are rewritten; anything the
// user wrote around the block survives.
type VaultDocumentNote struct {
	vaultPath string
}

func NewVaultDocumentNote(vaultPath string) libraryout.NoteWriter {
	return &VaultDocumentNote{vaultPath: vaultPath}
}

func (n *VaultDocumentNote) Write(_ context.Context, doc domain.Document) (string, error) {
	dir := filepath.Join(n.vaultPath, "documents")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create documents dir: %w", err)
	}
	path, body, err := n.resolve(dir, doc)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(body) == "" {
		body = "# " + doc.Title + "\n"
	}

	generated := fmt.Sprintf("- File: `%s`\n- Kind: %s\n- Pages: %d", doc.Path, doc.Kind, doc.PageCount)
	body = markdown.Block{Start: domain.ManagedBlockStart, End: domain.ManagedBlockEnd}.Apply(body, generated)

	meta := documentMeta{
		SchemaVersion: domain.SchemaVersion,
		ID:            doc.ID,
		Title:         doc.Title,
		Kind:          string(doc.Kind),
		FilePath:      doc.Path,
		PageCount:     doc.PageCount,
		AddedAt:       doc.AddedAt.Format(time.RFC3339),
		UpdatedAt:     doc.UpdatedAt.Format(time.RFC3339),
	}
	rendered, err := markdown.Render(meta, body)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write document note: %w", err)
	}
	return path, nil
}

// resolve picks the note for doc: its slug, or slug-<id prefix> when another
// document already owns the slug.
func (n *VaultDocumentNote) resolve(dir string, doc domain.Document) (string, string, error) {
	for _, name := range []string{doc.Slug, doc.Slug + "-" + shortID(doc.ID)} {
		path := filepath.Join(dir, name+".md")
		existing, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, "", nil
		}
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", path, err)
		}
		var prev documentMeta
		body, err := markdown.Split(string(existing), &prev)
		if err != nil {
			return "", "", fmt.Errorf("parse %s: %w", path, err)
		}
		if prev.ID == "" || prev.ID == doc.ID {
			return path, body, nil
		}
	}
	return "", "", fmt.Errorf("document note %s is owned by another document", doc.Slug)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
