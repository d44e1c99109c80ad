package domain

import (
	"fmt"
	"strings"
	"time"
)

// Position is the last page shown for a document. It is a reading-resume
// hint only and carries no timing information.
type Position struct {
	DocumentID string
	Page       int
	UpdatedAt  time.Time
}

func (p Position) Validate() error {
	if strings.TrimSpace(p.DocumentID) == "" {
		return fmt.Errorf("document id is required")
	}
	if p.Page < 1 {
		return fmt.Errorf("page must be >= 1")
	}
	return nil
}
