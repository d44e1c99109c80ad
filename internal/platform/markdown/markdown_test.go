package markdown_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pagetrack/internal/platform/markdown"
)

var block = markdown.Block{Start: "<!-- s -->", End: "<!-- e -->"}

func TestBlockApplyKeepsUserText(t *testing.T) {
	t.Parallel()
	first := block.Apply("my notes\n", "generated v1\n")
	require.Equal(t, "my notes\n\n<!-- s -->\ngenerated v1\n<!-- e -->\n", first)

	second := block.Apply(first+"more notes\n", "generated v2")
	require.Equal(t, "my notes\n\n<!-- s -->\ngenerated v2\n<!-- e -->\nmore notes\n", second)
}

func TestBlockApplyEmptyAndMisorderedBodies(t *testing.T) {
	t.Parallel()
	require.Equal(t, "<!-- s -->\nx\n<!-- e -->\n", block.Apply("  \n", "x"))

	misordered := "<!-- e --> text <!-- s -->"
	got := block.Apply(misordered, "x")
	require.Equal(t, misordered+"\n\n<!-- s -->\nx\n<!-- e -->\n", got)
}

func TestRenderThenSplit(t *testing.T) {
	t.Parallel()
	type meta struct {
		Title string `yaml:"title"`
		Pages int    `yaml:"pages"`
	}
	rendered, err := markdown.Render(meta{Title: "Go", Pages: 3}, "# Body\n")
	require.NoError(t, err)
	require.Equal(t, "---\ntitle: Go\npages: 3\n---\n\n# Body\n", rendered)

	var got meta
	body, err := markdown.Split(rendered, &got)
	require.NoError(t, err)
	require.Equal(t, meta{Title: "Go", Pages: 3}, got)
	require.Equal(t, "\n# Body\n", body)
}

func TestSplitWithoutFrontmatter(t *testing.T) {
	t.Parallel()
	var got map[string]any
	body, err := markdown.Split("plain text", &got)
	require.NoError(t, err)
	require.Equal(t, "plain text", body)
	require.Nil(t, got)

	_, err = markdown.Split("---\ntitle: x\nno close", &got)
	require.Error(t, err)
}
