package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	apperrors "pagetrack/internal/platform/errors"
)

type Kind string

const (
	KindPDF      Kind = "pdf"
	KindText     Kind = "text"
	KindMarkdown Kind = "markdown"
)

const (
	ManagedBlockStart = "<!-- pagetrack:document:start -->"
	ManagedBlockEnd   = "<!-- pagetrack:document:end -->"
	SchemaVersion     = 1
)

type Document struct {
	ID        string
	Title     string
	Path      string
	Kind      Kind
	PageCount int
	Slug      string
	AddedAt   time.Time
	UpdatedAt time.Time
}

func (k Kind) Validate() error {
	switch k {
	case KindPDF, KindText, KindMarkdown:
		return nil
	default:
		return fmt.Errorf("%w: unsupported document kind %q", apperrors.ErrInvalidInput, string(k))
	}
}

// KindFromPath picks the kind from the file extension.
func KindFromPath(path string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return KindPDF, nil
	case ".md", ".markdown":
		return KindMarkdown, nil
	case ".txt", ".text":
		return KindText, nil
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", apperrors.ErrInvalidInput, filepath.Ext(path))
	}
}

func (d Document) Validate() error {
	if err := d.Kind.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: id is required", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrInvalidInput)
	}
	if !filepath.IsAbs(d.Path) {
		return fmt.Errorf("%w: path must be absolute", apperrors.ErrInvalidInput)
	}
	if d.PageCount < 1 {
		return fmt.Errorf("%w: page count must be positive", apperrors.ErrInvalidInput)
	}
	return nil
}
