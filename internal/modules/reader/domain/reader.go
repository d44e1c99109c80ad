package domain

import "strings"

const (
	KindPDF      = "pdf"
	KindText     = "text"
	KindMarkdown = "markdown"
)

type Page struct {
	Number int
	Total  int
	Text   string
}

type DocumentRef struct {
	ID    string
	Title string
	Path  string
	Kind  string
}

// Paginate splits text into pages of at most linesPerPage lines. Empty text
// is still one (blank) page.
func Paginate(text string, linesPerPage int) []string {
	if linesPerPage < 1 {
		linesPerPage = 1
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return []string{""}
	}
	lines := strings.Split(text, "\n")
	pages := make([]string, 0, (len(lines)+linesPerPage-1)/linesPerPage)
	for start := 0; start < len(lines); start += linesPerPage {
		end := min(start+linesPerPage, len(lines))
		pages = append(pages, strings.Join(lines[start:end], "\n"))
	}
	return pages
}
