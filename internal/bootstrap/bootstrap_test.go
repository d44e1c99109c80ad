package bootstrap_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pagetrack/internal/bootstrap"
	"pagetrack/internal/platform/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, errs := config.Load("", dir)
	require.Empty(t, errs)
	cfg.VaultPath = filepath.Join(dir, "vault")
	cfg.LinesPerPage = 10
	cfg.MetricsAddr = ""
	return cfg
}

func writeText(t *testing.T, dir string, lines int) string {
	t.Helper()
	var sb strings.Builder
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestAppPersistsCatalogAndPositionAcrossRestart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := testConfig(t)
	path := writeText(t, cfg.DataDir, 25)

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{LogToFile: true})
	require.NoError(t, err)
	require.False(t, app.Volatile)

	doc, err := app.LibraryCLI.Add(ctx, path, "Field Notes")
	require.NoError(t, err)
	require.Equal(t, 3, doc.PageCount)
	require.FileExists(t, filepath.Join(cfg.VaultPath, "documents", "field-notes.md"))

	opened, err := app.SessionTUI.Open(ctx, doc.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 1, opened.Live.CurrentPage)

	page, err := app.ReaderTUI.OpenPage(ctx, doc.ID, 2)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(page.Text, "line 11"))
	_, err = app.SessionTUI.GoToPage(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, app.Close(ctx))

	again, err := bootstrap.New(ctx, cfg, bootstrap.Options{LogToFile: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = again.Close(context.Background()) })

	docs, err := again.LibraryCLI.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, doc.ID, docs[0].ID)

	resumed, err := again.SessionCLI.Open(ctx, doc.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 2, resumed.Live.CurrentPage)
}

func TestAppFallsBackToMemoryWhenDatabaseIsUnavailable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := testConfig(t)
	blocker := filepath.Join(cfg.DataDir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.DBPath = filepath.Join(blocker, "pagetrack.db")

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{LogToFile: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	require.True(t, app.Volatile)

	dash, err := app.AnalyticsCLI.Dashboard(ctx, 5)
	require.NoError(t, err)
	require.Zero(t, dash.TotalLifetimeSessions)
}
