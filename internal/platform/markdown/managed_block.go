package markdown

import "strings"

// Block is a generated region of a note delimited by marker comments. Text
// outside the markers belongs to the user and is never rewritten.
type Block struct {
	Start string
	End   string
}

// Apply swaps the region's content for generated, or appends a new region
// after the user's text when the markers are absent or out of order.
func (b Block) Apply(body, generated string) string {
	region := b.Start + "\n" + strings.TrimRight(generated, "\n") + "\n" + b.End
	if start := strings.Index(body, b.Start); start >= 0 {
		if rel := strings.Index(body[start:], b.End); rel >= 0 {
			end := start + rel + len(b.End)
			return body[:start] + region + body[end:]
		}
	}
	switch {
	case strings.TrimSpace(body) == "":
		return region + "\n"
	case strings.HasSuffix(body, "\n"):
		return body + "\n" + region + "\n"
	default:
		return body + "\n\n" + region + "\n"
	}
}
