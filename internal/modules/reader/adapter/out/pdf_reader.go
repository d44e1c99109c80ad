package out

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"rsc.io/pdf"

	readerout "pagetrack/internal/modules/reader/port/out"
)

type LocalPDFReader struct{}

func NewLocalPDFReader() readerout.PDFReader {
	return &LocalPDFReader{}
}

func (r *LocalPDFReader) CountPages(_ context.Context, path string) (n int, err error) {
	defer recoverMalformed(path, &err)
	f, doc, err := open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return doc.NumPage(), nil
}

func (r *LocalPDFReader) ReadPage(_ context.Context, path string, page int) (text string, err error) {
	defer recoverMalformed(path, &err)
	f, doc, err := open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	p := doc.Page(page)
	if p.V.IsNull() {
		return "", fmt.Errorf("pdf page %d is null", page)
	}
	return joinText(p.Content().Text), nil
}

// open keeps the file handle so it can be closed; pdf.Open never releases it.
func open(path string) (*os.File, *pdf.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open pdf: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("stat pdf: %w", err)
	}
	doc, err := pdf.NewReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("open pdf: %w", err)
	}
	return f, doc, nil
}

// joinText rebuilds lines from positioned glyph runs: a change in baseline
// starts a new line and a horizontal gap becomes a space.
func joinText(runs []pdf.Text) string {
	var (
		b    strings.Builder
		prev *pdf.Text
	)
	for i := range runs {
		run := &runs[i]
		if strings.TrimSpace(run.S) == "" {
			continue
		}
		if prev != nil {
			switch {
			case math.Abs(run.Y-prev.Y) > prev.FontSize/2:
				b.WriteString("\n")
			case run.X-(prev.X+prev.W) > prev.FontSize/4:
				b.WriteString(" ")
			}
		}
		b.WriteString(run.S)
		prev = run
	}
	return b.String()
}

// rsc.io/pdf panics on malformed streams instead of returning errors.
func recoverMalformed(path string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("malformed pdf %s: %v", path, r)
	}
}
