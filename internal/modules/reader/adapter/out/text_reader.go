package out

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	readerout "pagetrack/internal/modules/reader/port/out"
)

type LocalTextReader struct{}

func NewLocalTextReader() readerout.TextReader {
	return &LocalTextReader{}
}

func (r *LocalTextReader) Read(_ context.Context, path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("read text %s: not valid utf-8", path)
	}
	return string(b), nil
}
