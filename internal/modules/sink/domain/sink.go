package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrSinkDisabled     = errors.New("sink is disabled")
	ErrSinkNotFound     = errors.New("sink not found")
	ErrChecksumMismatch = errors.New("sink checksum mismatch")
	ErrSinkTimeout      = errors.New("sink timeout")
	ErrSinkRejected     = errors.New("sink rejected session")
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

type Manifest struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	Binary  string `json:"binary" yaml:"binary"`
	SHA256  string `json:"sha256" yaml:"sha256"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

func (m Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("sink name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("sink version is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("sink binary path is required")
	}
	if !sha256Pattern.MatchString(m.SHA256) {
		return fmt.Errorf("sink sha256 must be lowercase 64-char hex")
	}
	return nil
}

type Metadata struct {
	Name    string
	Version string
}

type PageDwell struct {
	Page       int
	DurationMs int64
	VisitCount int
}

// Session is the finalized chunk handed to sinks.
type Session struct {
	ID               string
	LogicalSessionID string
	Chunk            int
	DocumentID       string
	DocumentTitle    string
	StartedAt        time.Time
	EndedAt          time.Time
	TotalDurationMs  int64
	PagesRead        int
	AvgTimePerPageMs int64
	FastestPageMs    int64
	SlowestPageMs    int64
	Pages            []PageDwell
}

func (s Session) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("session id is required")
	}
	if s.DocumentID == "" {
		return fmt.Errorf("document id is required")
	}
	return nil
}
